package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/gateway"
)

type fakeRepo struct {
	instances []entity.Instance
	secrets   map[string]*entity.InstanceSecret
	updates   map[string]string
}

var _ Repository = (*fakeRepo)(nil)

func (f *fakeRepo) ListInstances(_ context.Context) ([]entity.Instance, error) {
	return f.instances, nil
}

func (f *fakeRepo) GetInstance(_ context.Context, id string) (*entity.Instance, error) {
	for i := range f.instances {
		if f.instances[i].ID == id {
			return &f.instances[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRepo) GetInstanceSecret(_ context.Context, instanceID string) (*entity.InstanceSecret, error) {
	s, ok := f.secrets[instanceID]
	if !ok {
		return nil, errors.New("no secret")
	}
	return s, nil
}

func (f *fakeRepo) UpdateInstanceStatus(_ context.Context, instanceID, status string) error {
	f.updates[instanceID] = status
	return nil
}

type fakeGateway struct {
	state string
	err   error
	calls int
}

var _ Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) ConnectionState(_ context.Context, _ gateway.Target) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.state, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepUpdatesChangedStatus(t *testing.T) {
	repo := &fakeRepo{
		instances: []entity.Instance{
			{ID: "i1", InstanceName: "main", ProviderType: entity.ProviderSelfHosted, Status: entity.InstanceDisconnected},
		},
		secrets: map[string]*entity.InstanceSecret{
			"i1": {InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"},
		},
		updates: make(map[string]string),
	}
	gw := &fakeGateway{state: entity.InstanceConnected}
	m := New(repo, gw, time.Minute, testLogger())

	m.sweep(context.Background())

	if repo.updates["i1"] != entity.InstanceConnected {
		t.Errorf("update = %q, want connected", repo.updates["i1"])
	}
}

func TestSweepSkipsUnchangedStatus(t *testing.T) {
	repo := &fakeRepo{
		instances: []entity.Instance{
			{ID: "i1", InstanceName: "main", ProviderType: entity.ProviderSelfHosted, Status: entity.InstanceConnected},
		},
		secrets: map[string]*entity.InstanceSecret{
			"i1": {InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"},
		},
		updates: make(map[string]string),
	}
	gw := &fakeGateway{state: entity.InstanceConnected}
	m := New(repo, gw, time.Minute, testLogger())

	m.sweep(context.Background())

	if len(repo.updates) != 0 {
		t.Errorf("updates = %v, want none when status is unchanged", repo.updates)
	}
}

func TestSweepGatewayFailureMeansDisconnected(t *testing.T) {
	repo := &fakeRepo{
		instances: []entity.Instance{
			{ID: "i1", InstanceName: "main", ProviderType: entity.ProviderSelfHosted, Status: entity.InstanceConnected},
		},
		secrets: map[string]*entity.InstanceSecret{
			"i1": {InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"},
		},
		updates: make(map[string]string),
	}
	gw := &fakeGateway{err: errors.New("unreachable")}
	m := New(repo, gw, time.Minute, testLogger())

	m.sweep(context.Background())

	if repo.updates["i1"] != entity.InstanceDisconnected {
		t.Errorf("update = %q, want disconnected on failure", repo.updates["i1"])
	}
}

func TestSweepMockAlwaysConnected(t *testing.T) {
	repo := &fakeRepo{
		instances: []entity.Instance{
			{ID: "i1", InstanceName: "demo", ProviderType: entity.ProviderMock, Status: entity.InstanceDisconnected},
		},
		secrets: map[string]*entity.InstanceSecret{},
		updates: make(map[string]string),
	}
	gw := &fakeGateway{err: errors.New("must not be called")}
	m := New(repo, gw, time.Minute, testLogger())

	m.sweep(context.Background())

	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0 for mock instance", gw.calls)
	}
	if repo.updates["i1"] != entity.InstanceConnected {
		t.Errorf("update = %q, want connected", repo.updates["i1"])
	}
}

func TestCheckNow(t *testing.T) {
	repo := &fakeRepo{
		instances: []entity.Instance{
			{ID: "i1", InstanceName: "main", ProviderType: entity.ProviderSelfHosted, Status: entity.InstanceConnecting},
		},
		secrets: map[string]*entity.InstanceSecret{
			"i1": {InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"},
		},
		updates: make(map[string]string),
	}
	gw := &fakeGateway{state: entity.InstanceConnected}
	m := New(repo, gw, time.Minute, testLogger())

	status, err := m.CheckNow(context.Background(), "i1")
	if err != nil {
		t.Fatal(err)
	}
	if status != entity.InstanceConnected {
		t.Errorf("status = %q", status)
	}
	if repo.updates["i1"] != entity.InstanceConnected {
		t.Errorf("stored = %q, want connected", repo.updates["i1"])
	}

	if _, err := m.CheckNow(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown instance")
	}
}

func TestStartStop(t *testing.T) {
	repo := &fakeRepo{updates: make(map[string]string)}
	m := New(repo, &fakeGateway{}, 10*time.Millisecond, testLogger())

	m.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	m.Stop()
}
