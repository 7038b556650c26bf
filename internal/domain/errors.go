package domain

import (
	"fmt"
	"time"
)

// NotFoundError is returned when an entity or status record does not exist.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidTransitionError is returned when a transition is not allowed from
// the entity's current status. It carries the attempted transition and the
// current status for diagnostics.
type InvalidTransitionError struct {
	Kind       Kind
	Current    Status
	Transition Transition
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %q is not valid for %s in status %q", e.Transition, e.Kind, e.Current)
}

// ConflictError is returned on exclusivity violations: a duplicate rate for
// a (teacher, lesson type) pair, a second acceptance of an already-accepted
// quote, a lesson that already exists for a quote.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// AuthorizationError is returned when the actor is not permitted to act on
// the entity.
type AuthorizationError struct {
	ActorID string
	Action  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %q is not allowed to %s", e.ActorID, e.Action)
}

// ExpiredError is returned when a quote's wall-clock deadline has passed.
type ExpiredError struct {
	QuoteID   string
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("quote %q expired at %s", e.QuoteID, e.ExpiresAt.UTC().Format(time.RFC3339))
}
