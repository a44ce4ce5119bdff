package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ZapDesk/internal/config"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/realtime"
)

// Change-feed event tables. Edit history rides on the messages topic;
// secrets, rules and profiles never publish.
const (
	contactsTable    = "contacts"
	convosTable      = "conversations"
	messagesTable    = "messages"
	reactionsTable   = "reactions"
	notesTable       = "conversation_notes"
	summariesTable   = "conversation_summaries"
	assignmentsTable = "assignment_records"
	instancesTable   = "instances"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ErrAssigneeChanged is returned when a compare-and-swap assignment update
// loses to a concurrent change.
var ErrAssigneeChanged = errors.New("assignee changed concurrently")

//go:embed schema.sql
var schemaSQL string

// Publisher receives a change event after each successful mutation.
type Publisher interface {
	Publish(ctx context.Context, event realtime.Event)
}

type Postgres struct {
	pool *pgxpool.Pool
	feed Publisher
	log  *slog.Logger
}

func NewPostgres(ctx context.Context, conf *config.Config, feed Publisher, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, conf.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{
		pool: pool,
		feed: feed,
		log:  logger.With(sl.Module("postgres")),
	}, nil
}

// EnsureSchema applies the embedded schema. All statements are
// IF NOT EXISTS so repeated startups are safe.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) publish(ctx context.Context, event realtime.Event) {
	if p.feed == nil {
		return
	}
	p.feed.Publish(ctx, event)
}

func (p *Postgres) findError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("postgres find: %w", err)
}
