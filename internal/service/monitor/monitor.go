// Package monitor polls gateway connection state for every instance and
// keeps the stored status current.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/gateway"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/metrics"
)

// Repository is the store slice the poller needs.
type Repository interface {
	ListInstances(ctx context.Context) ([]entity.Instance, error)
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	GetInstanceSecret(ctx context.Context, instanceID string) (*entity.InstanceSecret, error)
	UpdateInstanceStatus(ctx context.Context, instanceID, status string) error
}

// Gateway reports connection state for one instance.
type Gateway interface {
	ConnectionState(ctx context.Context, t gateway.Target) (string, error)
}

type Monitor struct {
	repo     Repository
	gw       Gateway
	interval time.Duration
	log      *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(repo Repository, gw Gateway, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		repo:     repo,
		gw:       gw,
		interval: interval,
		log:      log.With(sl.Module("service.monitor")),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the poll loop until Stop is called. The first sweep runs
// immediately so statuses are fresh right after boot.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.sweep(ctx)
		for {
			select {
			case <-ticker.C:
				m.sweep(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// CheckNow runs one on-demand check for a single instance and stores
// the result, independent of the poll loop.
func (m *Monitor) CheckNow(ctx context.Context, instanceID string) (string, error) {
	instance, err := m.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return "", err
	}

	status := m.check(ctx, *instance)
	metrics.InstanceChecks.WithLabelValues(status).Inc()

	if status != instance.Status {
		if err := m.repo.UpdateInstanceStatus(ctx, instanceID, status); err != nil {
			return "", err
		}
	}
	return status, nil
}

func (m *Monitor) sweep(ctx context.Context) {
	instances, err := m.repo.ListInstances(ctx)
	if err != nil {
		m.log.Error("list instances", sl.Err(err))
		return
	}

	for _, instance := range instances {
		status := m.check(ctx, instance)
		metrics.InstanceChecks.WithLabelValues(status).Inc()

		if status == instance.Status {
			continue
		}
		if err := m.repo.UpdateInstanceStatus(ctx, instance.ID, status); err != nil {
			m.log.Error("update instance status",
				"instance_id", instance.ID, sl.Err(err))
			continue
		}
		m.log.Info("instance status changed",
			"instance_id", instance.ID,
			"from", instance.Status,
			"to", status,
		)
	}
}

// check resolves the current state of one instance. Mock instances are
// always connected; any gateway failure reads as disconnected.
func (m *Monitor) check(ctx context.Context, instance entity.Instance) string {
	if instance.Mock() {
		return entity.InstanceConnected
	}

	secret, err := m.repo.GetInstanceSecret(ctx, instance.ID)
	if err != nil {
		m.log.Warn("load instance secret",
			"instance_id", instance.ID, sl.Err(err))
		return entity.InstanceDisconnected
	}

	state, err := m.gw.ConnectionState(ctx, gateway.Target{
		ApiURL:             secret.ApiURL,
		ApiKey:             secret.ApiKey,
		InstanceName:       instance.InstanceName,
		ProviderType:       instance.ProviderType,
		InstanceIDExternal: instance.InstanceIDExternal,
	})
	if err != nil {
		m.log.Warn("connection state check failed",
			"instance_id", instance.ID, sl.Err(err))
		return entity.InstanceDisconnected
	}
	return state
}
