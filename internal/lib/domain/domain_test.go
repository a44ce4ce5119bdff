package domain

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"user@acme.com", "acme.com"},
		{"USER@ACME.COM", "acme.com"},
		{"user@sub.acme.com", "sub.acme.com"},
		{"no-at-sign", ""},
		{"trailing@", ""},
	}
	for _, c := range cases {
		if got := Extract(c.email); got != c.want {
			t.Errorf("Extract(%q) = %q, want %q", c.email, got, c.want)
		}
	}
}

func TestIsAllowed(t *testing.T) {
	allowed := []string{"acme.com"}

	cases := []struct {
		name    string
		email   string
		domains []string
		enabled bool
		want    bool
	}{
		{"restriction off allows all", "user@evil.com", allowed, false, true},
		{"empty list allows all", "user@evil.com", nil, true, true},
		{"exact domain", "user@acme.com", allowed, true, true},
		{"subdomain passes", "user@mail.acme.com", allowed, true, true},
		{"suffix lookalike rejected", "user@acme.com.br", allowed, true, false},
		{"embedded lookalike rejected", "user@notacme.com", allowed, true, false},
		{"other domain rejected", "user@other.com", allowed, true, false},
		{"malformed email rejected", "useracme.com", allowed, true, false},
		{"case insensitive", "user@ACME.com", allowed, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsAllowed(c.email, c.domains, c.enabled); got != c.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", c.email, got, c.want)
			}
		})
	}
}
