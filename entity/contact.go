package entity

import (
	"time"
)

// Contact is one customer identity within a messaging instance.
// Name may still equal PhoneNumber until a profile-sync pass fixes it.
type Contact struct {
	ID            string    `json:"id"`
	InstanceID    string    `json:"instance_id"`
	Name          string    `json:"name"`
	PhoneNumber   string    `json:"phone_number"`
	ProfilePicURL string    `json:"profile_pic_url,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NameMissing reports whether the contact still carries its phone number
// as a display name.
func (c *Contact) NameMissing() bool {
	return c.Name == "" || c.Name == c.PhoneNumber
}
