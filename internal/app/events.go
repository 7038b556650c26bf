package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// eventSink publishes domain events after a workflow's transaction has
// committed. Publish failures are logged, not propagated: the state change
// is already durable and must not be reported as failed.
type eventSink struct {
	publisher domain.EventPublisher
	log       *logrus.Logger
}

func (e eventSink) publish(ctx context.Context, name string, kind domain.Kind, entityID string, status domain.Status) {
	ev := domain.Event{
		Name:     name,
		Kind:     kind,
		EntityID: entityID,
		Status:   status,
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"event":     name,
			"entity_id": entityID,
		}).Warn("failed to publish domain event")
	}
}

// actorContext serializes the acting caller into a status record's context
// field, so the ledger records who drove each change.
func actorContext(actor domain.Actor) json.RawMessage {
	b, err := json.Marshal(map[string]string{
		"actor_id":   actor.ID,
		"actor_role": string(actor.Role),
	})
	if err != nil {
		return nil
	}
	return b
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}
