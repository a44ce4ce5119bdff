package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"ZapDesk/entity"
)

type fakeRepo struct {
	profiles map[string]*entity.Profile
}

var _ Repository = (*fakeRepo)(nil)

func (f *fakeRepo) ListProfiles(_ context.Context) ([]entity.Profile, error) {
	var out []entity.Profile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) EnsureProfile(_ context.Context, email, fullName, role string) (*entity.Profile, error) {
	if p, ok := f.profiles[email]; ok {
		return p, nil
	}
	p := &entity.Profile{ID: "p-" + email, Email: email, FullName: fullName, Role: role}
	f.profiles[email] = p
	return p, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSvc(apiKey string, domains []string, restricted bool) (*Service, *fakeRepo) {
	repo := &fakeRepo{profiles: make(map[string]*entity.Profile)}
	return NewService(repo, apiKey, domains, restricted, testLogger()), repo
}

func TestAuthenticateByToken(t *testing.T) {
	svc, _ := newSvc("secret-key", nil, false)

	user, err := svc.AuthenticateByToken(context.Background(), "secret-key")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != entity.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}

	if _, err := svc.AuthenticateByToken(context.Background(), "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc, _ := newSvc("secret-key", nil, false)

	if _, err := svc.ValidateToken("secret-key"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken("nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSignupDomainRestriction(t *testing.T) {
	svc, _ := newSvc("", []string{"acme.com"}, true)

	if _, err := svc.Signup(context.Background(), "maria@acme.com", "Maria", ""); err != nil {
		t.Fatalf("allowed domain rejected: %v", err)
	}
	if _, err := svc.Signup(context.Background(), "maria@mail.acme.com", "Maria", ""); err != nil {
		t.Fatalf("subdomain rejected: %v", err)
	}
	if _, err := svc.Signup(context.Background(), "maria@acme.com.br", "Maria", ""); !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("err = %v, want ErrDomainNotAllowed", err)
	}
	if _, err := svc.Signup(context.Background(), "not-an-email", "Maria", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("err = %v, want ErrInvalidEmail", err)
	}
}

func TestSignupDefaultsRole(t *testing.T) {
	svc, repo := newSvc("", nil, false)

	p, err := svc.Signup(context.Background(), "Maria@Acme.com", "Maria", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Role != entity.RoleAgent {
		t.Errorf("role = %q, want agent", p.Role)
	}
	// Email normalized before storage.
	if _, ok := repo.profiles["maria@acme.com"]; !ok {
		t.Error("email not lowercased")
	}

	if _, err := svc.Signup(context.Background(), "x@acme.com", "X", "superuser"); err == nil {
		t.Error("unknown role accepted")
	}
}

func TestInviteHonorsRestriction(t *testing.T) {
	svc, _ := newSvc("", []string{"acme.com"}, true)

	if _, err := svc.InviteTeamMember(context.Background(), "new@acme.com", "New"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InviteTeamMember(context.Background(), "spy@evil.com", "Spy"); !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("err = %v, want ErrDomainNotAllowed", err)
	}
}
