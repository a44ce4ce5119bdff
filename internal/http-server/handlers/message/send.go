package message

import (
	"ZapDesk/entity"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/lib/validate"
	"ZapDesk/internal/service/messaging"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type SendRequest struct {
	Content         string  `json:"content"`
	MessageType     string  `json:"message_type" validate:"omitempty,oneof=text image audio video document"`
	MediaURL        string  `json:"media_url" validate:"omitempty,url"`
	MediaBase64     string  `json:"media_base64"`
	MediaMimetype   string  `json:"media_mimetype"`
	FileName        string  `json:"file_name"`
	QuotedMessageID *string `json:"quoted_message_id"`
}

func Send(log *slog.Logger, handler Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.message")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		if req.MessageType == "" {
			req.MessageType = entity.MessageText
		}

		msg, err := handler.Send(r.Context(), messaging.SendParams{
			ConversationID:  chi.URLParam(r, "id"),
			Content:         req.Content,
			MessageType:     req.MessageType,
			MediaURL:        req.MediaURL,
			MediaBase64:     req.MediaBase64,
			MediaMimetype:   req.MediaMimetype,
			FileName:        req.FileName,
			QuotedMessageID: req.QuotedMessageID,
		})
		switch {
		case errors.Is(err, messaging.ErrEmptyMessage), errors.Is(err, messaging.ErrMissingMedia):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case err != nil:
			logger.Error("failed to send message", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("Failed to send message"))
			return
		}

		logger.Debug("message sent", slog.String("message_id", msg.MessageID))
		render.JSON(w, r, response.Ok(msg))
	}
}
