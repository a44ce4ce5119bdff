// Package auth validates API tokens and enforces the signup domain
// restriction.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/domain"
	"ZapDesk/internal/lib/sl"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrDomainNotAllowed = errors.New("email domain is not allowed to sign up")
	ErrInvalidEmail     = errors.New("invalid email address")
)

// Repository is the profile store the signup path writes to.
type Repository interface {
	ListProfiles(ctx context.Context) ([]entity.Profile, error)
	EnsureProfile(ctx context.Context, email, fullName, role string) (*entity.Profile, error)
}

type Service struct {
	repo               Repository
	apiKey             string
	allowedDomains     []string
	restrictionEnabled bool
	log                *slog.Logger
}

func NewService(repo Repository, apiKey string, allowedDomains []string, restrictionEnabled bool, log *slog.Logger) *Service {
	return &Service{
		repo:               repo,
		apiKey:             apiKey,
		allowedDomains:     allowedDomains,
		restrictionEnabled: restrictionEnabled,
		log:                log.With(sl.Module("service.auth")),
	}
}

// AuthenticateByToken resolves a bearer token to a console identity.
// An empty configured key disables token auth entirely.
func (s *Service) AuthenticateByToken(ctx context.Context, token string) (*entity.UserAuth, error) {
	if s.apiKey == "" {
		return &entity.UserAuth{Username: "anonymous", Role: entity.RoleAgent, Token: token}, nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
		return nil, ErrInvalidToken
	}
	return &entity.UserAuth{Username: "api", Role: entity.RoleAdmin, Token: token}, nil
}

// ValidateToken is the websocket-handshake variant of
// AuthenticateByToken: token in, username out.
func (s *Service) ValidateToken(token string) (string, error) {
	user, err := s.AuthenticateByToken(context.Background(), token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// Signup registers a console user after the domain check. The restriction
// compares the email's domain suffix against the allow list.
func (s *Service) Signup(ctx context.Context, email, fullName, role string) (*entity.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if domain.Extract(email) == "" {
		return nil, ErrInvalidEmail
	}
	if !domain.IsAllowed(email, s.allowedDomains, s.restrictionEnabled) {
		s.log.Warn("signup rejected", "domain", domain.Extract(email))
		return nil, ErrDomainNotAllowed
	}

	switch role {
	case entity.RoleAdmin, entity.RoleAgent:
	case "":
		role = entity.RoleAgent
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	profile, err := s.repo.EnsureProfile(ctx, email, fullName, role)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return profile, nil
}

// InviteTeamMember provisions a profile for a teammate. Invites honor
// the same domain restriction as direct signups.
func (s *Service) InviteTeamMember(ctx context.Context, email, fullName string) (*entity.Profile, error) {
	return s.Signup(ctx, email, fullName, entity.RoleAgent)
}

// Team lists every console profile.
func (s *Service) Team(ctx context.Context) ([]entity.Profile, error) {
	return s.repo.ListProfiles(ctx)
}
