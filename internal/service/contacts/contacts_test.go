package contacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"ZapDesk/entity"
	"ZapDesk/internal/gateway"
)

type fakeRepo struct {
	instance *entity.Instance
	secret   *entity.InstanceSecret
	missing  []entity.Contact
	renamed  map[string]string
}

var _ Repository = (*fakeRepo)(nil)

func (f *fakeRepo) GetInstance(_ context.Context, _ string) (*entity.Instance, error) {
	return f.instance, nil
}

func (f *fakeRepo) GetInstanceSecret(_ context.Context, _ string) (*entity.InstanceSecret, error) {
	return f.secret, nil
}

func (f *fakeRepo) ListContactsMissingName(_ context.Context, _ string) ([]entity.Contact, error) {
	return f.missing, nil
}

func (f *fakeRepo) RenameContact(_ context.Context, contactID, name string) error {
	f.renamed[contactID] = name
	return nil
}

type fakeGateway struct {
	names map[string]string
	calls int
}

var _ Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) ProfileName(_ context.Context, _ gateway.Target, number string) (string, error) {
	g.calls++
	name, ok := g.names[number]
	if !ok {
		return "", errors.New("profile unavailable")
	}
	return name, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFixNamesRenamesKnownProfiles(t *testing.T) {
	repo := &fakeRepo{
		instance: &entity.Instance{ID: "i1", InstanceName: "main", ProviderType: entity.ProviderSelfHosted},
		secret:   &entity.InstanceSecret{InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"},
		missing: []entity.Contact{
			{ID: "ct1", Name: "5511111", PhoneNumber: "5511111"},
			{ID: "ct2", Name: "5522222", PhoneNumber: "5522222"},
			{ID: "ct3", Name: "5533333", PhoneNumber: "5533333"},
		},
		renamed: make(map[string]string),
	}
	gw := &fakeGateway{names: map[string]string{
		"5511111": "Maria",
		// ct2 profile lookup fails, run continues.
		"5533333": "5533333", // provider echoes the number back, skip
	}}
	svc := NewService(repo, gw, testLogger())

	fixed, err := svc.FixNames(context.Background(), "i1")
	if err != nil {
		t.Fatal(err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d, want 1", fixed)
	}
	if repo.renamed["ct1"] != "Maria" {
		t.Errorf("renamed = %v", repo.renamed)
	}
	if _, ok := repo.renamed["ct3"]; ok {
		t.Error("contact renamed to its own phone number")
	}
}

func TestFixNamesSkipsMockInstances(t *testing.T) {
	repo := &fakeRepo{
		instance: &entity.Instance{ID: "i1", ProviderType: entity.ProviderMock},
		missing:  []entity.Contact{{ID: "ct1", Name: "5511111", PhoneNumber: "5511111"}},
		renamed:  make(map[string]string),
	}
	gw := &fakeGateway{}
	svc := NewService(repo, gw, testLogger())

	fixed, err := svc.FixNames(context.Background(), "i1")
	if err != nil {
		t.Fatal(err)
	}
	if fixed != 0 || gw.calls != 0 {
		t.Errorf("fixed = %d, gateway calls = %d, want 0 and 0", fixed, gw.calls)
	}
}
