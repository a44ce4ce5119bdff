package entity

import (
	"ZapDesk/internal/lib/validate"
	"net/http"
)

type UserAuth struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"omitempty"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin agent"`
	Token    string `json:"token" validate:"required,min=1"`
}

func (u *UserAuth) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
