package message

import (
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/service/messaging"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type EditRequest struct {
	Content string `json:"content"`
}

// Edit rewrites a sent message inside the edit window.
func Edit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.message")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		msg, err := handler.EditMessage(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "messageID"), req.Content)
		switch {
		case errors.Is(err, messaging.ErrEmptyMessage):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case errors.Is(err, messaging.ErrNotOwnMessage):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case errors.Is(err, messaging.ErrEditWindowClosed):
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Message not found"))
			return
		case err != nil:
			logger.Error("failed to edit message", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("Failed to edit message"))
			return
		}

		render.JSON(w, r, response.Ok(msg))
	}
}

// History returns the full version chain of a message.
func History(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.message")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		versions, err := handler.EditHistory(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "messageID"))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Message not found"))
			return
		case err != nil:
			logger.Error("failed to load edit history", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load edit history"))
			return
		}

		render.JSON(w, r, response.Ok(versions))
	}
}
