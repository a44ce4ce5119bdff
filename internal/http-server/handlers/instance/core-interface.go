package instance

import (
	"context"

	"ZapDesk/entity"
)

type Core interface {
	ListInstances(ctx context.Context) ([]entity.Instance, error)
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	CreateInstance(ctx context.Context, i *entity.Instance, secret *entity.InstanceSecret) (*entity.Instance, error)
}

type Hygiene interface {
	FixNames(ctx context.Context, instanceID string) (int, error)
}

type Tester interface {
	CheckNow(ctx context.Context, instanceID string) (string, error)
}
