// Package webhook receives provider event callbacks and feeds them to
// the ingest service. The payload shape follows the Evolution API:
// an event name plus a data object keyed by that event.
package webhook

import (
	"ZapDesk/entity"
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/lib/api/response"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/service/ingest"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type Core interface {
	Verify(ctx context.Context, instanceID, key string) error
	RecordMessage(ctx context.Context, instanceID string, in ingest.InboundMessage) (*entity.Message, error)
	RecordStatus(ctx context.Context, instanceID string, u ingest.StatusUpdate) error
}

type eventRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type messageUpsertData struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	PushName string `json:"pushName"`
	Message  struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
		ImageMessage struct {
			URL      string `json:"url"`
			Caption  string `json:"caption"`
			Mimetype string `json:"mimetype"`
		} `json:"imageMessage"`
		AudioMessage struct {
			URL      string `json:"url"`
			Mimetype string `json:"mimetype"`
		} `json:"audioMessage"`
		VideoMessage struct {
			URL      string `json:"url"`
			Caption  string `json:"caption"`
			Mimetype string `json:"mimetype"`
		} `json:"videoMessage"`
		DocumentMessage struct {
			URL      string `json:"url"`
			Caption  string `json:"caption"`
			Mimetype string `json:"mimetype"`
		} `json:"documentMessage"`
	} `json:"message"`
	MessageTimestamp int64 `json:"messageTimestamp"`
}

type messageUpdateData struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		ID        string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
}

// normalize flattens the per-type message envelope into one record.
func (d *messageUpsertData) normalize() ingest.InboundMessage {
	in := ingest.InboundMessage{
		MessageID: d.Key.ID,
		RemoteJid: d.Key.RemoteJid,
		PushName:  d.PushName,
		FromMe:    d.Key.FromMe,
		Type:      entity.MessageText,
		Content:   d.Message.Conversation,
	}
	if d.MessageTimestamp > 0 {
		in.Timestamp = time.Unix(d.MessageTimestamp, 0).UTC()
	}

	m := d.Message
	switch {
	case m.ExtendedTextMessage.Text != "":
		in.Content = m.ExtendedTextMessage.Text
	case m.ImageMessage.URL != "":
		in.Type = entity.MessageImage
		in.Content = m.ImageMessage.Caption
		in.MediaURL = m.ImageMessage.URL
		in.Mimetype = m.ImageMessage.Mimetype
	case m.AudioMessage.URL != "":
		in.Type = entity.MessageAudio
		in.MediaURL = m.AudioMessage.URL
		in.Mimetype = m.AudioMessage.Mimetype
	case m.VideoMessage.URL != "":
		in.Type = entity.MessageVideo
		in.Content = m.VideoMessage.Caption
		in.MediaURL = m.VideoMessage.URL
		in.Mimetype = m.VideoMessage.Mimetype
	case m.DocumentMessage.URL != "":
		in.Type = entity.MessageDocument
		in.Content = m.DocumentMessage.Caption
		in.MediaURL = m.DocumentMessage.URL
		in.Mimetype = m.DocumentMessage.Mimetype
	}
	return in
}

// Receive handles one provider callback. The instance id rides in the
// path and the instance api key in the apikey header, mirroring how the
// provider itself authenticates.
func Receive(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.webhook")

		instanceID := chi.URLParam(r, "instanceID")
		logger := log.With(
			mod,
			slog.String("instance_id", instanceID),
		)

		if err := handler.Verify(r.Context(), instanceID, r.Header.Get("apikey")); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Unknown instance"))
			case errors.Is(err, ingest.ErrBadWebhookKey):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Invalid webhook key"))
			default:
				logger.Error("webhook verify failed", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Failed to verify webhook"))
			}
			return
		}

		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode webhook body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		switch req.Event {
		case "messages.upsert":
			var data messageUpsertData
			if err := json.Unmarshal(req.Data, &data); err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid message payload"))
				return
			}
			if _, err := handler.RecordMessage(r.Context(), instanceID, data.normalize()); err != nil {
				logger.Error("failed to record message", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Failed to record message"))
				return
			}

		case "messages.update":
			var data messageUpdateData
			if err := json.Unmarshal(req.Data, &data); err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid status payload"))
				return
			}
			err := handler.RecordStatus(r.Context(), instanceID, ingest.StatusUpdate{
				MessageID: data.Key.ID,
				RemoteJid: data.Key.RemoteJid,
				Status:    data.Status,
			})
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				logger.Error("failed to record status", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Failed to record status"))
				return
			}

		default:
			// Providers send many event kinds; only message traffic matters here.
			logger.Debug("ignoring webhook event", slog.String("event", req.Event))
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
