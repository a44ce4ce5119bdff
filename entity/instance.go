package entity

import (
	"time"
)

const (
	ProviderSelfHosted = "self_hosted"
	ProviderCloud      = "cloud"
	ProviderMock       = "mock"
)

const (
	InstanceConnected    = "connected"
	InstanceConnecting   = "connecting"
	InstanceDisconnected = "disconnected"
)

// Instance is one connected WhatsApp account managed through the gateway.
type Instance struct {
	ID                 string    `json:"id"`
	InstanceName       string    `json:"instance_name"`
	ProviderType       string    `json:"provider_type"` // "self_hosted" | "cloud" | "mock"
	InstanceIDExternal string    `json:"instance_id_external,omitempty"`
	Status             string    `json:"status"` // "connected" | "connecting" | "disconnected"
	PhoneNumber        string    `json:"phone_number,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Mock reports whether the instance bypasses the gateway entirely.
func (i *Instance) Mock() bool {
	return i.ProviderType == ProviderMock
}

// InstanceSecret holds the gateway credentials for one instance.
// Never log ApiKey outside sl.Secret.
type InstanceSecret struct {
	InstanceID string `json:"instance_id"`
	ApiURL     string `json:"api_url"`
	ApiKey     string `json:"api_key"`
}
