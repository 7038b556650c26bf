package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// StatusEventArgs carries a committed status change for asynchronous
// processing. River serializes this as JSON into its job queue table. It is
// a snapshot taken at publish time, so the worker never needs to query the
// database.
type StatusEventArgs struct {
	Event      string `json:"event"`
	EntityKind string `json:"kind"`
	EntityID   string `json:"entity_id"`
	Status     string `json:"status"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StatusEventArgs) Kind() string { return "status.changed" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a domain event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	_, err := p.client.Insert(ctx, StatusEventArgs{
		Event:      ev.Name,
		EntityKind: string(ev.Kind),
		EntityID:   ev.EntityID,
		Status:     string(ev.Status),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing status event job: %w", err)
	}
	return nil
}
