package main

import (
	"ZapDesk/ai/llm"
	"ZapDesk/internal/config"
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/gateway"
	"ZapDesk/internal/http-server/api"
	"ZapDesk/internal/lib/logger"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/realtime"
	"ZapDesk/internal/service/assignment"
	"ZapDesk/internal/service/auth"
	"ZapDesk/internal/service/chat"
	"ZapDesk/internal/service/contacts"
	"ZapDesk/internal/service/ingest"
	"ZapDesk/internal/service/insights"
	"ZapDesk/internal/service/messaging"
	"ZapDesk/internal/service/monitor"
	"ZapDesk/internal/ws"
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting zapdesk", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	feed := realtime.NewFeed(rdb, lg)

	db, err := repository.NewPostgres(ctx, conf, feed, lg)
	if err != nil {
		lg.With(sl.Err(err)).Error("postgres client")
		return
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		lg.With(sl.Err(err)).Error("ensure schema")
		return
	}
	lg.With(
		slog.String("host", conf.Postgres.Host),
		slog.String("port", conf.Postgres.Port),
		slog.String("database", conf.Postgres.Database),
	).Info("postgres client initialized")

	gw := gateway.NewClient(time.Duration(conf.Gateway.Timeout)*time.Second, lg)

	model := llm.New(conf, lg)
	if model != nil {
		lg.With(
			sl.Secret("ai_key", conf.AI.ApiKey),
			slog.String("model", conf.AI.Model),
		).Info("ai client initialized")
	} else {
		lg.Info("ai client not configured, heuristic fallbacks active")
	}

	authService := auth.NewService(db, conf.Listen.ApiKey,
		conf.Security.AllowedDomains, conf.Security.RestrictionEnabled, lg)
	chatService := chat.NewService(db, lg)
	messagingService := messaging.NewService(db, gw, lg)
	chatService.SetSender(messagingService)
	assignmentService := assignment.NewService(db, lg)
	insightsService := insights.NewService(db, model, lg)
	contactsService := contacts.NewService(db, gw, lg)
	ingestService := ingest.NewService(db, lg)

	hub := ws.NewHub(lg)
	hub.SetHandler(chatService)
	hub.SetSink(chatService)
	go hub.Run()

	sub, err := feed.Subscribe(ctx, "conversations", "messages", "reactions")
	if err != nil {
		lg.With(sl.Err(err)).Error("change feed subscribe")
	} else {
		go hub.Relay(ctx, sub)
		lg.Info("change feed relay started")
	}

	mon := monitor.New(db, gw,
		time.Duration(conf.Monitor.IntervalSecs)*time.Second, lg)
	if conf.Monitor.Enabled {
		mon.Start(ctx)
		defer mon.Stop()
		lg.With(slog.Int("interval_seconds", conf.Monitor.IntervalSecs)).
			Info("instance monitor started")
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, api.Deps{
		Auth:       authService,
		Chat:       chatService,
		Messaging:  messagingService,
		Assignment: assignmentService,
		Insights:   insightsService,
		Composer:   insightsService,
		Instances:  db,
		Contacts:   contactsService,
		Monitor:    mon,
		Ingest:     ingestService,
		Hub:        hub,
	})
	if err != nil {
		lg.With(sl.Err(err)).Error("api server stopped")
	}
}
