// Package contacts keeps contact records tidy. WhatsApp creates
// contacts from bare phone numbers; the provider often learns a proper
// display name later, and this service backfills it.
package contacts

import (
	"context"
	"fmt"
	"log/slog"

	"ZapDesk/entity"
	"ZapDesk/internal/gateway"
	"ZapDesk/internal/lib/sl"
)

type Repository interface {
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	GetInstanceSecret(ctx context.Context, instanceID string) (*entity.InstanceSecret, error)
	ListContactsMissingName(ctx context.Context, instanceID string) ([]entity.Contact, error)
	RenameContact(ctx context.Context, contactID, name string) error
}

type Gateway interface {
	ProfileName(ctx context.Context, t gateway.Target, number string) (string, error)
}

type Service struct {
	repo Repository
	gw   Gateway
	log  *slog.Logger
}

func NewService(repo Repository, gw Gateway, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		gw:   gw,
		log:  log.With(sl.Module("service.contacts")),
	}
}

// FixNames renames contacts that still display their phone number,
// using the provider's profile name when it knows one. Returns how many
// contacts were renamed. Lookup failures skip the contact; a sync run
// should never abort halfway because one profile is unreachable.
func (s *Service) FixNames(ctx context.Context, instanceID string) (int, error) {
	instance, err := s.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return 0, fmt.Errorf("load instance: %w", err)
	}
	if instance.Mock() {
		return 0, nil
	}

	secret, err := s.repo.GetInstanceSecret(ctx, instanceID)
	if err != nil {
		return 0, fmt.Errorf("load instance secret: %w", err)
	}
	target := gateway.Target{
		ApiURL:             secret.ApiURL,
		ApiKey:             secret.ApiKey,
		InstanceName:       instance.InstanceName,
		ProviderType:       instance.ProviderType,
		InstanceIDExternal: instance.InstanceIDExternal,
	}

	missing, err := s.repo.ListContactsMissingName(ctx, instanceID)
	if err != nil {
		return 0, fmt.Errorf("list contacts: %w", err)
	}

	fixed := 0
	for _, contact := range missing {
		name, err := s.gw.ProfileName(ctx, target, contact.PhoneNumber)
		if err != nil {
			s.log.Debug("profile lookup failed",
				slog.String("contact_id", contact.ID), sl.Err(err))
			continue
		}
		if name == "" || name == contact.PhoneNumber {
			continue
		}
		if err := s.repo.RenameContact(ctx, contact.ID, name); err != nil {
			return fixed, fmt.Errorf("rename contact %s: %w", contact.ID, err)
		}
		fixed++
	}

	s.log.Info("contact names fixed",
		slog.String("instance_id", instanceID), slog.Int("fixed", fixed))
	return fixed, nil
}
