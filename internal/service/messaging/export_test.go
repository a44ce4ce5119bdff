package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/csvx"
)

func TestExportCSV(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	seed(repo, entity.ProviderMock)
	seedMessage(repo, "WA1", false, now)
	svc := newTestService(repo, &fakeGateway{})

	data, contentType, err := svc.Export(context.Background(), "c1", ExportCSV)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "text/csv" {
		t.Errorf("content type = %q", contentType)
	}

	headers, rows, err := csvx.Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if headers[0] != "timestamp" || headers[1] != "direction" {
		t.Errorf("headers = %v", headers)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][1] != "contact" {
		t.Errorf("direction = %q, want contact", rows[0][1])
	}
	if rows[0][3] != "original text" {
		t.Errorf("content = %q", rows[0][3])
	}
}

func TestExportJSONBundle(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	seed(repo, entity.ProviderMock)
	seedMessage(repo, "WA1", true, now)
	svc := newTestService(repo, &fakeGateway{})

	if _, err := svc.AddNote(context.Background(), "c1", "agent-a", "VIP customer"); err != nil {
		t.Fatal(err)
	}

	data, contentType, err := svc.Export(context.Background(), "c1", ExportJSON)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}

	var bundle ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle.Conversation == nil || bundle.Conversation.ID != "c1" {
		t.Error("bundle missing conversation")
	}
	if bundle.Contact == nil || bundle.Contact.Name != "Maria" {
		t.Error("bundle missing contact")
	}
	if len(bundle.Messages) != 1 || len(bundle.Notes) != 1 {
		t.Errorf("messages = %d, notes = %d", len(bundle.Messages), len(bundle.Notes))
	}
}

func TestExportUnknownFormat(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, entity.ProviderMock)
	svc := newTestService(repo, &fakeGateway{})

	if _, _, err := svc.Export(context.Background(), "c1", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
