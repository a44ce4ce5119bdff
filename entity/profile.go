package entity

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Profile is one console user (agent or admin).
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"` // "admin" | "agent"
	CreatedAt time.Time `json:"created_at"`
}
