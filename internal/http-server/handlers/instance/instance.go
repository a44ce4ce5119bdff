package instance

import (
	"ZapDesk/entity"
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// List returns every instance with its last known connection status.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.instance")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		instances, err := handler.ListInstances(r.Context())
		if err != nil {
			logger.Error("failed to list instances", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list instances"))
			return
		}

		render.JSON(w, r, response.Ok(instances))
	}
}

// Status returns one instance's stored connection status.
func Status(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.instance")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		inst, err := handler.GetInstance(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Instance not found"))
			return
		case err != nil:
			logger.Error("failed to get instance", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to get instance"))
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{
			"id":     inst.ID,
			"status": inst.Status,
		}))
	}
}

// Test runs an on-demand connection check against the gateway and
// returns the fresh status.
func Test(log *slog.Logger, handler Tester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.instance")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		status, err := handler.CheckNow(r.Context(), id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Instance not found"))
			return
		case err != nil:
			logger.Error("failed to test instance", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to test instance"))
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{
			"id":     id,
			"status": status,
		}))
	}
}

// FixNames backfills display names for contacts still showing their
// phone number, asking the provider for each profile.
func FixNames(log *slog.Logger, handler Hygiene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.instance")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		fixed, err := handler.FixNames(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Instance not found"))
			return
		case err != nil:
			logger.Error("failed to fix contact names", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to fix contact names"))
			return
		}

		render.JSON(w, r, response.Ok(map[string]int{"fixed": fixed}))
	}
}

type CreateRequest struct {
	InstanceName       string `json:"instance_name"`
	ProviderType       string `json:"provider_type"`
	InstanceIDExternal string `json:"instance_id_external"`
	PhoneNumber        string `json:"phone_number"`
	ApiURL             string `json:"api_url"`
	ApiKey             string `json:"api_key"`
}

// Create registers an instance together with its gateway credentials.
func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.instance")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.InstanceName == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("instance_name is required"))
			return
		}
		switch req.ProviderType {
		case entity.ProviderSelfHosted, entity.ProviderCloud, entity.ProviderMock:
		default:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown provider_type"))
			return
		}
		if req.ProviderType != entity.ProviderMock && (req.ApiURL == "" || req.ApiKey == "") {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("api_url and api_key are required"))
			return
		}

		inst, err := handler.CreateInstance(r.Context(), &entity.Instance{
			InstanceName:       req.InstanceName,
			ProviderType:       req.ProviderType,
			InstanceIDExternal: req.InstanceIDExternal,
			Status:             entity.InstanceConnecting,
			PhoneNumber:        req.PhoneNumber,
		}, &entity.InstanceSecret{
			ApiURL: req.ApiURL,
			ApiKey: req.ApiKey,
		})
		if err != nil {
			logger.Error("failed to create instance", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to create instance"))
			return
		}

		logger.Info("instance created", slog.String("instance", inst.InstanceName))
		render.JSON(w, r, response.Ok(inst))
	}
}
