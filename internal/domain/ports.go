package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the query and mutation surface shared by autocommit access and
// transactions. All status writes still flow through the transition engine;
// workflows use these methods for entity CRUD and the engine uses the
// generic EntityRef/status methods at the bottom.
type Store interface {
	CreateLessonRequest(ctx context.Context, r LessonRequest) error
	GetLessonRequest(ctx context.Context, id string) (LessonRequest, error)

	CreateQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, id string) (Quote, error)
	QuotesByRequest(ctx context.Context, requestID string) ([]Quote, error)
	// OverdueQuotes returns quotes still in a live status whose expires_at
	// deadline is at or before now.
	OverdueQuotes(ctx context.Context, now time.Time) ([]Quote, error)

	CreateLesson(ctx context.Context, l Lesson) error
	GetLesson(ctx context.Context, id string) (Lesson, error)
	LessonByQuote(ctx context.Context, quoteID string) (Lesson, error)

	CreateLessonPlan(ctx context.Context, p LessonPlan) error
	GetLessonPlan(ctx context.Context, id string) (LessonPlan, error)

	CreateMilestone(ctx context.Context, m Milestone) error
	GetMilestone(ctx context.Context, id string) (Milestone, error)
	MilestonesByPlan(ctx context.Context, planID string) ([]Milestone, error)

	CreateHourlyRate(ctx context.Context, r HourlyRate) error
	GetHourlyRate(ctx context.Context, id string) (HourlyRate, error)
	RatesByTeacherAndType(ctx context.Context, teacherID, lessonType string) ([]HourlyRate, error)
	RatesByTeacher(ctx context.Context, teacherID string) ([]HourlyRate, error)

	// EntityRef resolves any statusful entity to its identity and current
	// status pointer.
	EntityRef(ctx context.Context, kind Kind, id string) (EntityRef, error)
	// SetCurrentStatus repoints the entity's current status reference.
	SetCurrentStatus(ctx context.Context, kind Kind, id, statusID string) error
	// AppendStatus inserts a status record. Records are never updated or
	// deleted afterward.
	AppendStatus(ctx context.Context, rec StatusRecord) error
	GetStatusRecord(ctx context.Context, id string) (StatusRecord, error)
	// StatusHistory returns all records for an owner, oldest first.
	StatusHistory(ctx context.Context, kind Kind, ownerID string) ([]StatusRecord, error)
}

// Tx is a Store scoped to one database transaction. Writes made through it
// become visible only on commit.
type Tx interface {
	Store
}

// Repository is the persistence port. WithTx runs fn inside a single
// transaction that serializes against concurrent writers; it commits when
// fn returns nil and rolls back otherwise, retrying a bounded number of
// times when the store reports a retryable contention failure.
type Repository interface {
	Store
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// TransitionValidator checks whether a transition is valid for a kind from
// the current status and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, kind Kind, current Status, transition Transition) (Status, error)
}

// Event is a committed status change, published for asynchronous fan-out.
type Event struct {
	Name     string
	Kind     Kind
	EntityID string
	Status   Status
	Context  json.RawMessage
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
