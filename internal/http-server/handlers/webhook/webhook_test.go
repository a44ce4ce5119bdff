package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"ZapDesk/entity"
	"ZapDesk/internal/service/ingest"
)

type fakeCore struct {
	verifyErr error
	messages  []ingest.InboundMessage
	statuses  []ingest.StatusUpdate
}

var _ Core = (*fakeCore)(nil)

func (f *fakeCore) Verify(_ context.Context, _, _ string) error {
	return f.verifyErr
}

func (f *fakeCore) RecordMessage(_ context.Context, _ string, in ingest.InboundMessage) (*entity.Message, error) {
	f.messages = append(f.messages, in)
	return &entity.Message{ID: "row-1", MessageID: in.MessageID}, nil
}

func (f *fakeCore) RecordStatus(_ context.Context, _ string, u ingest.StatusUpdate) error {
	f.statuses = append(f.statuses, u)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(core Core) http.Handler {
	r := chi.NewRouter()
	r.Post("/webhook/{instanceID}", Receive(testLogger(), core))
	return r
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/i1", strings.NewReader(body))
	req.Header.Set("apikey", "hook-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReceiveTextMessage(t *testing.T) {
	core := &fakeCore{}
	rec := post(testRouter(core), `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999@s.whatsapp.net", "fromMe": false, "id": "WA1"},
			"pushName": "Maria",
			"message": {"conversation": "oi"},
			"messageTimestamp": 1770000000
		}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(core.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(core.messages))
	}
	in := core.messages[0]
	if in.MessageID != "WA1" || in.PushName != "Maria" || in.Content != "oi" {
		t.Errorf("message = %+v", in)
	}
	if in.Type != entity.MessageText {
		t.Errorf("type = %q, want text", in.Type)
	}
	if in.Timestamp.IsZero() {
		t.Error("timestamp not set from messageTimestamp")
	}
}

func TestReceiveImageMessage(t *testing.T) {
	core := &fakeCore{}
	rec := post(testRouter(core), `{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "5511999@s.whatsapp.net", "id": "WA2"},
			"message": {"imageMessage": {"url": "https://cdn/img.jpg", "caption": "look", "mimetype": "image/jpeg"}}
		}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	in := core.messages[0]
	if in.Type != entity.MessageImage || in.MediaURL != "https://cdn/img.jpg" || in.Content != "look" {
		t.Errorf("message = %+v", in)
	}
}

func TestReceiveStatusUpdate(t *testing.T) {
	core := &fakeCore{}
	rec := post(testRouter(core), `{
		"event": "messages.update",
		"data": {"key": {"remoteJid": "5511999@s.whatsapp.net", "id": "WA1"}, "status": "READ"}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(core.statuses) != 1 || core.statuses[0].Status != "READ" {
		t.Errorf("statuses = %+v", core.statuses)
	}
}

func TestReceiveBadKey(t *testing.T) {
	core := &fakeCore{verifyErr: ingest.ErrBadWebhookKey}
	rec := post(testRouter(core), `{"event": "messages.upsert", "data": {}}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(core.messages) != 0 {
		t.Error("message recorded despite failed verification")
	}
}

func TestReceiveIgnoresUnknownEvents(t *testing.T) {
	core := &fakeCore{}
	rec := post(testRouter(core), `{"event": "presence.update", "data": {}}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for ignored event", rec.Code)
	}
	if len(core.messages) != 0 || len(core.statuses) != 0 {
		t.Error("unknown event reached the ingest service")
	}
}
