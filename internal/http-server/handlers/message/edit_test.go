package message

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"ZapDesk/entity"
	"ZapDesk/internal/service/messaging"
)

type fakeCore struct {
	sendResult *entity.Message
	editResult *entity.Message
	editErr    error
	history    []entity.MessageVersion
}

var (
	_ Core   = (*fakeCore)(nil)
	_ Sender = (*fakeCore)(nil)
)

func (f *fakeCore) Send(_ context.Context, _ messaging.SendParams) (*entity.Message, error) {
	return f.sendResult, nil
}

func (f *fakeCore) EditMessage(_ context.Context, _, _, _ string) (*entity.Message, error) {
	return f.editResult, f.editErr
}

func (f *fakeCore) EditHistory(_ context.Context, _, _ string) ([]entity.MessageVersion, error) {
	return f.history, nil
}

func (f *fakeCore) React(_ context.Context, _, _, _, _ string) (*entity.Reaction, error) {
	return &entity.Reaction{}, nil
}

func (f *fakeCore) Reactions(_ context.Context, _ string) ([]entity.Reaction, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(core *fakeCore) http.Handler {
	r := chi.NewRouter()
	r.Post("/conversations/{id}/messages", Send(testLogger(), core))
	r.Patch("/conversations/{id}/messages/{messageID}", Edit(testLogger(), core))
	r.Get("/conversations/{id}/messages/{messageID}/history", History(testLogger(), core))
	return r
}

func TestSendHandlerRejectsUnknownType(t *testing.T) {
	router := testRouter(&fakeCore{})

	req := httptest.NewRequest(http.MethodPost,
		"/conversations/c1/messages", strings.NewReader(`{"content":"x","message_type":"sticker"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown message_type", rec.Code)
	}
}

func TestSendHandlerDefaultsToText(t *testing.T) {
	sent := &entity.Message{ID: "row-1", MessageType: entity.MessageText}
	router := testRouter(&fakeCore{sendResult: sent})

	req := httptest.NewRequest(http.MethodPost,
		"/conversations/c1/messages", strings.NewReader(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEditHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"window closed", messaging.ErrEditWindowClosed, http.StatusUnprocessableEntity},
		{"not own message", messaging.ErrNotOwnMessage, http.StatusForbidden},
		{"empty content", messaging.ErrEmptyMessage, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			router := testRouter(&fakeCore{editErr: c.err})

			req := httptest.NewRequest(http.MethodPatch,
				"/conversations/c1/messages/WA1", strings.NewReader(`{"content":"x"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Success {
				t.Error("success = true on error response")
			}
			if body.Error == "" {
				t.Error("error message empty")
			}
		})
	}
}

func TestEditHandlerSuccess(t *testing.T) {
	edited := &entity.Message{ID: "row-1", Content: "fixed"}
	router := testRouter(&fakeCore{editResult: edited})

	req := httptest.NewRequest(http.MethodPatch,
		"/conversations/c1/messages/WA1", strings.NewReader(`{"content":"fixed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    entity.Message `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Data.Content != "fixed" {
		t.Errorf("body = %+v", body)
	}
}

func TestEditHandlerBadBody(t *testing.T) {
	router := testRouter(&fakeCore{})

	req := httptest.NewRequest(http.MethodPatch,
		"/conversations/c1/messages/WA1", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryHandler(t *testing.T) {
	router := testRouter(&fakeCore{history: []entity.MessageVersion{
		{Content: "original"},
		{Content: "current", Current: true},
	}})

	req := httptest.NewRequest(http.MethodGet,
		"/conversations/c1/messages/WA1/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []entity.MessageVersion `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || !body.Data[1].Current {
		t.Errorf("data = %+v", body.Data)
	}
}
