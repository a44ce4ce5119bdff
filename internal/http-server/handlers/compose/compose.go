package compose

import (
	"ZapDesk/ai/llm"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Compose(ctx context.Context, message, action, targetLanguage string) (string, error)
}

type Request struct {
	Message        string `json:"message"`
	Action         string `json:"action"`
	TargetLanguage string `json:"target_language"`
}

// ComposeReply rewrites a draft reply: expand, rephrase, tone, grammar
// or translation.
func ComposeReply(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.compose")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.Message == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("message is required"))
			return
		}
		if !llm.KnownAction(req.Action) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown compose action"))
			return
		}

		composed, err := handler.Compose(r.Context(), req.Message, req.Action, req.TargetLanguage)
		switch {
		case errors.Is(err, llm.ErrRateLimited):
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("AI rate limit reached, try again shortly"))
			return
		case errors.Is(err, llm.ErrCreditsExhausted):
			render.Status(r, http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("AI credits exhausted"))
			return
		case err != nil:
			logger.Error("failed to compose reply", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to compose reply"))
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{
			"original": req.Message,
			"composed": composed,
			"action":   req.Action,
		}))
	}
}
