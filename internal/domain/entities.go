package domain

import (
	"encoding/json"
	"time"
)

// StatusRecord is an immutable fact: the owner entity reached the given
// status at CreatedAt. Records are append-only; they are never updated or
// deleted. Context carries optional free-form JSON (who triggered the
// change, why).
type StatusRecord struct {
	ID        string
	OwnerKind Kind
	OwnerID   string
	Status    Status
	Context   json.RawMessage
	CreatedAt time.Time
}

// EntityRef is the minimal view of a statusful entity the transition engine
// needs: its identity and the pointer to its current status record.
type EntityRef struct {
	Kind            Kind
	ID              string
	CurrentStatusID string
}

// LessonRequest is a student's ask for a lesson. It is the parent of
// competing quotes and carries no status ledger of its own.
type LessonRequest struct {
	ID         string
	StudentID  string
	LessonType string
	Notes      string
	CreatedAt  time.Time
}

// Quote is a teacher's priced offer against a lesson request. At most one
// quote per request ever reaches "accepted".
type Quote struct {
	ID              string
	RequestID       string
	TeacherID       string
	AmountCents     int64
	ExpiresAt       time.Time
	CurrentStatusID string
	Status          Status
	CreatedAt       time.Time
}

// Live reports whether the quote can still be acted on: its current status
// is non-terminal and its wall-clock deadline has not passed.
func (q Quote) Live(now time.Time) bool {
	return !IsTerminal(KindQuote, q.Status) && q.ExpiresAt.After(now)
}

// Lesson is the confirmed booking created when a quote is accepted. It is
// linked 1:1 to the accepted quote.
type Lesson struct {
	ID              string
	QuoteID         string
	RequestID       string
	TeacherID       string
	StudentID       string
	CurrentStatusID string
	Status          Status
	CreatedAt       time.Time
}

// LessonPlan groups milestones a teacher lays out for a student.
type LessonPlan struct {
	ID              string
	TeacherID       string
	StudentID       string
	Title           string
	CurrentStatusID string
	Status          Status
	CreatedAt       time.Time
}

// Milestone is one step of a lesson plan. Its status is independent of its
// siblings.
type Milestone struct {
	ID              string
	PlanID          string
	Title           string
	Position        int
	CurrentStatusID string
	Status          Status
	CreatedAt       time.Time
}

// HourlyRate is a teacher's price for one lesson type. For a given
// (teacher, lesson type) pair at most one rate may be active at a time.
type HourlyRate struct {
	ID              string
	TeacherID       string
	LessonType      string
	AmountCents     int64
	CurrentStatusID string
	Status          Status
	CreatedAt       time.Time
}

// Role identifies which side of the marketplace an actor is on.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Actor is the caller identity supplied per call by the auth layer. The
// engine uses it only for ownership checks inside workflows.
type Actor struct {
	ID   string
	Role Role
}
