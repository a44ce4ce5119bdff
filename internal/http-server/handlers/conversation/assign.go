package conversation

import (
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/cont"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type AssignRequest struct {
	AgentID string `json:"agent_id"`
	Reason  string `json:"reason"`
}

// Assign hands the conversation to an agent. The same endpoint covers
// first assignment and transfer; the audit record distinguishes them.
func Assign(log *slog.Logger, handler Assigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chiURLParam(r, "id")

		var req AssignRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.AgentID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("agent_id is required"))
			return
		}

		byID := "system"
		if user := cont.GetUser(r.Context()); user != nil {
			byID = user.Username
		}

		err := handler.Assign(r.Context(), id, req.AgentID, byID, req.Reason)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Conversation not found"))
			return
		case errors.Is(err, repository.ErrAssigneeChanged):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("Conversation was assigned by someone else, reload and retry"))
			return
		case err != nil:
			logger.Error("failed to assign conversation", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to assign conversation"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// Unassign returns the conversation to the queue.
func Unassign(log *slog.Logger, handler Assigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chiURLParam(r, "id")

		byID := "system"
		if user := cont.GetUser(r.Context()); user != nil {
			byID = user.Username
		}

		err := handler.Unassign(r.Context(), id, byID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Conversation not found"))
			return
		case errors.Is(err, repository.ErrAssigneeChanged):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("Conversation was reassigned concurrently, reload and retry"))
			return
		case err != nil:
			logger.Error("failed to unassign conversation", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to unassign conversation"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// AssignmentHistory lists the audit trail, newest first.
func AssignmentHistory(log *slog.Logger, handler Assigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		records, err := handler.History(r.Context(), chiURLParam(r, "id"))
		if err != nil {
			logger.Error("failed to load assignment history", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load assignment history"))
			return
		}

		render.JSON(w, r, response.Ok(records))
	}
}

func chiURLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
