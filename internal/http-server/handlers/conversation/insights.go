package conversation

import (
	"ZapDesk/ai/llm"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Categorize runs topic classification and stores the result in the
// conversation metadata.
func Categorize(log *slog.Logger, handler Insights) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		meta, err := handler.Categorize(r.Context(), chiURLParam(r, "id"))
		if err != nil {
			aiError(w, r, logger, "categorize", err)
			return
		}

		render.JSON(w, r, response.Ok(meta))
	}
}

// Summarize produces and stores a summary of the recent thread.
func Summarize(log *slog.Logger, handler Insights) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		summary, err := handler.Summarize(r.Context(), chiURLParam(r, "id"))
		if err != nil {
			aiError(w, r, logger, "summarize", err)
			return
		}

		render.JSON(w, r, response.Ok(summary))
	}
}

// Summaries lists the stored summary history.
func Summaries(log *slog.Logger, handler Insights) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.conversation")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		summaries, err := handler.Summaries(r.Context(), chiURLParam(r, "id"))
		if err != nil {
			logger.Error("failed to list summaries", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list summaries"))
			return
		}

		render.JSON(w, r, response.Ok(summaries))
	}
}

// aiError maps model-provider failures onto distinct statuses so the
// console can tell "slow down" from "out of credits".
func aiError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("AI rate limit reached, try again shortly"))
	case errors.Is(err, llm.ErrCreditsExhausted):
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("AI credits exhausted"))
	case errors.Is(err, llm.ErrNoCredential):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("AI is not configured"))
	default:
		logger.Error("ai "+op+" failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("AI request failed"))
	}
}
