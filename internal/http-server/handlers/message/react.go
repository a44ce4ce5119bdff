package message

import (
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/cont"
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

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

// React sets the caller's emoji on a message, replacing any previous one.
func React(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.message")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ReactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		reactor := "agent"
		if user := cont.GetUser(r.Context()); user != nil {
			reactor = user.Username
		}

		reaction, err := handler.React(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "messageID"), reactor, req.Emoji)
		switch {
		case errors.Is(err, messaging.ErrEmptyEmoji):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Message not found"))
			return
		case err != nil:
			logger.Error("failed to save reaction", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to save reaction"))
			return
		}

		render.JSON(w, r, response.Ok(reaction))
	}
}

// Reactions lists every reaction in a conversation.
func Reactions(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.message")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		reactions, err := handler.Reactions(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			logger.Error("failed to list reactions", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list reactions"))
			return
		}

		render.JSON(w, r, response.Ok(reactions))
	}
}
