package conversation

import (
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type StatusRequest struct {
	Status string `json:"status"`
}

// SetStatus closes, archives or reopens a conversation.
func SetStatus(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req StatusRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		if err := handler.SetStatus(r.Context(), chiURLParam(r, "id"), req.Status); err != nil {
			logger.Error("failed to set status", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Failed to set status: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// Export streams the conversation as a downloadable JSON bundle or CSV
// message log, depending on the format query parameter.
func Export(log *slog.Logger, handler Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chiURLParam(r, "id")
		format := r.URL.Query().Get("format")

		data, contentType, err := handler.Export(r.Context(), id, format)
		if err != nil {
			logger.Error("failed to export conversation", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to export conversation"))
			return
		}

		ext := "json"
		if format == "csv" {
			ext = "csv"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=conversation-%s.%s", id, ext))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
