package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ZapDesk/entity"
	repository "ZapDesk/internal/database"
	"ZapDesk/internal/gateway"
)

type fakeRepo struct {
	conversations map[string]*entity.Conversation
	contacts      map[string]*entity.Contact
	instances     map[string]*entity.Instance
	secrets       map[string]*entity.InstanceSecret
	messages      map[string]*entity.Message // keyed by message_id
	history       []entity.EditHistoryEntry
	reactions     map[string]*entity.Reaction // keyed by message_id+reactor
	notes         []entity.ConversationNote
	contactNotes  map[string]string

	inserted   []entity.Message
	editsMade  int
	insertFail error
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]*entity.Conversation),
		contacts:      make(map[string]*entity.Contact),
		instances:     make(map[string]*entity.Instance),
		secrets:       make(map[string]*entity.InstanceSecret),
		messages:      make(map[string]*entity.Message),
		reactions:     make(map[string]*entity.Reaction),
		contactNotes:  make(map[string]string),
	}
}

func (f *fakeRepo) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) GetContact(_ context.Context, id string) (*entity.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) GetInstance(_ context.Context, id string) (*entity.Instance, error) {
	i, ok := f.instances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return i, nil
}

func (f *fakeRepo) GetInstanceSecret(_ context.Context, instanceID string) (*entity.InstanceSecret, error) {
	s, ok := f.secrets[instanceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) InsertMessage(_ context.Context, m *entity.Message) (*entity.Message, error) {
	if f.insertFail != nil {
		return nil, f.insertFail
	}
	saved := *m
	saved.ID = "row-" + m.MessageID
	f.messages[m.MessageID] = &saved
	f.inserted = append(f.inserted, saved)
	return &saved, nil
}

func (f *fakeRepo) GetMessage(_ context.Context, messageID, conversationID string) (*entity.Message, error) {
	m, ok := f.messages[messageID]
	if !ok || m.ConversationID != conversationID {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) ApplyEdit(_ context.Context, m *entity.Message, newContent string, editedAt time.Time) (*entity.Message, error) {
	f.editsMade++
	// History rows reference the row id, mirroring the store's foreign key.
	f.history = append(f.history, entity.EditHistoryEntry{
		MessageID:       m.ID,
		ConversationID:  m.ConversationID,
		PreviousContent: m.Content,
		EditedAt:        editedAt,
	})
	stored := f.messages[m.MessageID]
	if stored.OriginalContent == nil {
		original := stored.Content
		stored.OriginalContent = &original
	}
	stored.Content = newContent
	stored.EditedAt = &editedAt
	return stored, nil
}

func (f *fakeRepo) ListEditHistory(_ context.Context, messageID string) ([]entity.EditHistoryEntry, error) {
	var out []entity.EditHistoryEntry
	for _, e := range f.history {
		if e.MessageID == messageID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertReaction(_ context.Context, r *entity.Reaction) (*entity.Reaction, error) {
	key := r.MessageID + "|" + r.ReactorJid
	if existing, ok := f.reactions[key]; ok {
		existing.Emoji = r.Emoji
		return existing, nil
	}
	saved := *r
	f.reactions[key] = &saved
	return &saved, nil
}

func (f *fakeRepo) ListReactions(_ context.Context, conversationID string) ([]entity.Reaction, error) {
	var out []entity.Reaction
	for _, r := range f.reactions {
		if r.ConversationID == conversationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateNote(_ context.Context, n *entity.ConversationNote) (*entity.ConversationNote, error) {
	saved := *n
	f.notes = append(f.notes, saved)
	return &saved, nil
}

func (f *fakeRepo) ListNotes(_ context.Context, conversationID string) ([]entity.ConversationNote, error) {
	var out []entity.ConversationNote
	for _, n := range f.notes {
		if n.ConversationID == conversationID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetNotePinned(_ context.Context, _ string, _ bool) error { return nil }
func (f *fakeRepo) DeleteNote(_ context.Context, _ string) error            { return nil }

func (f *fakeRepo) ListMessages(_ context.Context, conversationID string) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateConversationStatus(_ context.Context, conversationID, status string) error {
	c, ok := f.conversations[conversationID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeRepo) UpdateContactNotes(_ context.Context, contactID, notes string) error {
	if _, ok := f.contacts[contactID]; !ok {
		return repository.ErrNotFound
	}
	f.contactNotes[contactID] = notes
	return nil
}

type fakeGateway struct {
	sendTextCalls int
	updateCalls   int
	sendErr       error
	updateErr     error
	responseID    string
}

var _ Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) SendText(_ context.Context, _ gateway.Target, _ gateway.SendTextRequest) (*gateway.SendResponse, error) {
	g.sendTextCalls++
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	resp := &gateway.SendResponse{}
	resp.Key.ID = g.responseID
	resp.Key.RemoteJid = "5511999999999@s.whatsapp.net"
	return resp, nil
}

func (g *fakeGateway) SendMedia(_ context.Context, _ gateway.Target, _ gateway.SendMediaRequest) (*gateway.SendResponse, error) {
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	resp := &gateway.SendResponse{}
	resp.Key.ID = g.responseID
	return resp, nil
}

func (g *fakeGateway) UpdateMessage(_ context.Context, _ gateway.Target, _, _, _ string) error {
	g.updateCalls++
	return g.updateErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(repo *fakeRepo, providerType string) {
	repo.conversations["c1"] = &entity.Conversation{ID: "c1", InstanceID: "i1", ContactID: "ct1"}
	repo.contacts["ct1"] = &entity.Contact{ID: "ct1", PhoneNumber: "5511999999999", Name: "Maria"}
	repo.instances["i1"] = &entity.Instance{ID: "i1", InstanceName: "main", ProviderType: providerType}
	repo.secrets["i1"] = &entity.InstanceSecret{InstanceID: "i1", ApiURL: "http://gw", ApiKey: "k"}
}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	svc := NewService(repo, gw, testLogger())
	return svc
}

func TestSendTextThroughGateway(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, entity.ProviderSelfHosted)
	gw := &fakeGateway{responseID: "WA123"}
	svc := newTestService(repo, gw)

	msg, err := svc.Send(context.Background(), SendParams{
		ConversationID: "c1",
		Content:        "hello",
		MessageType:    entity.MessageText,
	})
	if err != nil {
		t.Fatal(err)
	}
	if gw.sendTextCalls != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.sendTextCalls)
	}
	if msg.MessageID != "WA123" {
		t.Errorf("message_id = %q, want WA123", msg.MessageID)
	}
	if !msg.IsFromMe || msg.Status != entity.StatusSent {
		t.Errorf("message = %+v", msg)
	}
}

func TestSendMockSkipsGateway(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, entity.ProviderMock)
	gw := &fakeGateway{responseID: "never"}
	svc := newTestService(repo, gw)

	msg, err := svc.Send(context.Background(), SendParams{
		ConversationID: "c1",
		Content:        "hello",
		MessageType:    entity.MessageText,
	})
	if err != nil {
		t.Fatal(err)
	}
	if gw.sendTextCalls != 0 {
		t.Errorf("gateway calls = %d, want 0 for mock instance", gw.sendTextCalls)
	}
	if !strings.HasPrefix(msg.MessageID, "mock_") {
		t.Errorf("message_id = %q, want mock_ prefix", msg.MessageID)
	}
}

func TestSendGatewayFailureInsertsNothing(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, entity.ProviderSelfHosted)
	gw := &fakeGateway{sendErr: errors.New("boom")}
	svc := newTestService(repo, gw)

	_, err := svc.Send(context.Background(), SendParams{
		ConversationID: "c1",
		Content:        "hello",
		MessageType:    entity.MessageText,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.inserted) != 0 {
		t.Errorf("inserted = %d, want 0 after gateway failure", len(repo.inserted))
	}
}

func TestSetContactNotes(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, entity.ProviderSelfHosted)
	svc := newTestService(repo, &fakeGateway{})

	if err := svc.SetContactNotes(context.Background(), "c1", "prefers email"); err != nil {
		t.Fatal(err)
	}
	if repo.contactNotes["ct1"] != "prefers email" {
		t.Errorf("notes = %q", repo.contactNotes["ct1"])
	}

	if err := svc.SetContactNotes(context.Background(), "missing", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSendValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.Send(context.Background(), SendParams{
		ConversationID: "c1", MessageType: entity.MessageText,
	})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}

	_, err = svc.Send(context.Background(), SendParams{
		ConversationID: "c1", MessageType: entity.MessageImage,
	})
	if !errors.Is(err, ErrMissingMedia) {
		t.Errorf("err = %v, want ErrMissingMedia", err)
	}
}
