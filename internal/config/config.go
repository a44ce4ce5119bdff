package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env:"ZAPDESK_ENV" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
		ApiKey string `yaml:"key" env:"ZAPDESK_API_KEY" env-default:""`
	} `yaml:"listen"`
	Postgres struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"5432"`
		User     string `yaml:"user" env-default:"zapdesk"`
		Password string `yaml:"password" env:"ZAPDESK_PG_PASSWORD" env-default:""`
		Database string `yaml:"database" env-default:"zapdesk"`
		SSLMode  string `yaml:"ssl_mode" env-default:"disable"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"ZAPDESK_REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	Gateway struct {
		Timeout int `yaml:"timeout_seconds" env-default:"30"`
	} `yaml:"gateway"`
	AI struct {
		BaseURL string `yaml:"base_url" env-default:""`
		ApiKey  string `yaml:"api_key" env:"ZAPDESK_AI_KEY" env-default:""`
		Model   string `yaml:"model" env-default:"gpt-4o-mini"`
	} `yaml:"ai"`
	Security struct {
		AllowedDomains     []string `yaml:"allowed_domains" env-default:""`
		RestrictionEnabled bool     `yaml:"restriction_enabled" env-default:"false"`
	} `yaml:"security"`
	Monitor struct {
		Enabled      bool `yaml:"enabled" env-default:"true"`
		IntervalSecs int  `yaml:"interval_seconds" env-default:"60"`
	} `yaml:"monitor"`
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Password,
		c.Postgres.Host, c.Postgres.Port,
		c.Postgres.Database, c.Postgres.SSLMode)
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
