package conversation

import (
	"ZapDesk/internal/lib/api/cont"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type AddNoteRequest struct {
	Content string `json:"content"`
}

func AddNote(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req AddNoteRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.Content == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Note content is required"))
			return
		}

		author := "system"
		if user := cont.GetUser(r.Context()); user != nil {
			author = user.Username
		}

		note, err := handler.AddNote(r.Context(), chiURLParam(r, "id"), author, req.Content)
		if err != nil {
			logger.Error("failed to add note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to add note"))
			return
		}

		render.JSON(w, r, response.Ok(note))
	}
}

func ListNotes(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		notes, err := handler.Notes(r.Context(), chiURLParam(r, "id"))
		if err != nil {
			logger.Error("failed to list notes", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list notes"))
			return
		}

		render.JSON(w, r, response.Ok(notes))
	}
}

type PinNoteRequest struct {
	Pinned bool `json:"pinned"`
}

func PinNote(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req PinNoteRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		if err := handler.PinNote(r.Context(), chiURLParam(r, "noteID"), req.Pinned); err != nil {
			logger.Error("failed to pin note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to update note"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

type ContactNotesRequest struct {
	Notes string `json:"notes"`
}

// ContactNotes updates the notes on the contact behind a conversation.
// An empty string clears them.
func ContactNotes(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ContactNotesRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		if err := handler.SetContactNotes(r.Context(), chiURLParam(r, "id"), req.Notes); err != nil {
			logger.Error("failed to update contact notes", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to update contact notes"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func DeleteNote(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := handler.DeleteNote(r.Context(), chiURLParam(r, "noteID")); err != nil {
			logger.Error("failed to delete note", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to delete note"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
