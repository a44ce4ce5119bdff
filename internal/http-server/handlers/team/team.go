package team

import (
	"ZapDesk/entity"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/service/auth"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Signup(ctx context.Context, email, fullName, role string) (*entity.Profile, error)
	InviteTeamMember(ctx context.Context, email, fullName string) (*entity.Profile, error)
	Team(ctx context.Context) ([]entity.Profile, error)
}

type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Signup registers a console user, subject to the domain restriction.
func Signup(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.team")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		profile, err := handler.Signup(r.Context(), req.Email, req.FullName, req.Role)
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid email address"))
			return
		case errors.Is(err, auth.ErrDomainNotAllowed):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Email domain is not allowed to sign up"))
			return
		case err != nil:
			logger.Error("failed to sign up", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to sign up"))
			return
		}

		render.JSON(w, r, response.Ok(profile))
	}
}

type InviteRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Invite provisions a teammate profile.
func Invite(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.team")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req InviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		profile, err := handler.InviteTeamMember(r.Context(), req.Email, req.FullName)
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid email address"))
			return
		case errors.Is(err, auth.ErrDomainNotAllowed):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Email domain is not allowed"))
			return
		case err != nil:
			logger.Error("failed to invite team member", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to invite team member"))
			return
		}

		render.JSON(w, r, response.Ok(profile))
	}
}

// List returns every console profile.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.team")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		profiles, err := handler.Team(r.Context())
		if err != nil {
			logger.Error("failed to list team", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list team"))
			return
		}

		render.JSON(w, r, response.Ok(profiles))
	}
}
