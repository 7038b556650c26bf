package domain

// Kind identifies which lifecycle an entity follows. Each kind has its own
// status enumeration and transition table.
type Kind string

const (
	KindQuote      Kind = "quote"
	KindLesson     Kind = "lesson"
	KindMilestone  Kind = "milestone"
	KindLessonPlan Kind = "lesson_plan"
	KindHourlyRate Kind = "hourly_rate"

	// Label-only kinds; they have no status lifecycle and appear only in
	// errors and ownership metadata.
	KindLessonRequest Kind = "lesson_request"
	KindStatusRecord  Kind = "status_record"
)

// Status represents a lifecycle state of a statusful entity.
type Status string

const (
	// Quote lifecycle.
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusExpired   Status = "expired"

	// Lesson lifecycle.
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"

	// Shared by milestones and lesson plans.
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// Hourly rate lifecycle.
	StatusActive      Status = "active"
	StatusDeactivated Status = "deactivated"
)

// Transition represents an action that triggers a state change.
type Transition string

const (
	TransitionAccept        Transition = "accept"
	TransitionReject        Transition = "reject"
	TransitionWithdraw      Transition = "withdraw"
	TransitionExpire        Transition = "expire"
	TransitionStartProgress Transition = "start_progress"
	TransitionComplete      Transition = "complete"
	TransitionCancel        Transition = "cancel"
	TransitionActivate      Transition = "activate"
	TransitionDeactivate    Transition = "deactivate"
)

// Edge defines a valid state change: a transition moves an entity from Src to Dst.
type Edge struct {
	Transition Transition
	Src        Status
	Dst        Status
}

// Transitions is the per-kind allow-list of valid state changes. Any
// (status, transition) pair not present here is invalid; statuses with no
// outgoing edge are terminal. This is domain knowledge consumed by the FSM
// adapter.
var Transitions = map[Kind][]Edge{
	KindQuote: {
		{Transition: TransitionAccept, Src: StatusRequested, Dst: StatusAccepted},
		{Transition: TransitionReject, Src: StatusRequested, Dst: StatusRejected},
		{Transition: TransitionWithdraw, Src: StatusRequested, Dst: StatusWithdrawn},
		{Transition: TransitionExpire, Src: StatusRequested, Dst: StatusExpired},
	},
	KindLesson: {
		{Transition: TransitionStartProgress, Src: StatusConfirmed, Dst: StatusInProgress},
		{Transition: TransitionComplete, Src: StatusInProgress, Dst: StatusCompleted},
		{Transition: TransitionCancel, Src: StatusConfirmed, Dst: StatusCancelled},
	},
	KindMilestone: {
		{Transition: TransitionStartProgress, Src: StatusCreated, Dst: StatusInProgress},
		{Transition: TransitionComplete, Src: StatusInProgress, Dst: StatusCompleted},
	},
	KindLessonPlan: {
		{Transition: TransitionStartProgress, Src: StatusCreated, Dst: StatusInProgress},
		{Transition: TransitionComplete, Src: StatusInProgress, Dst: StatusCompleted},
		{Transition: TransitionWithdraw, Src: StatusCreated, Dst: StatusWithdrawn},
	},
	KindHourlyRate: {
		{Transition: TransitionActivate, Src: StatusCreated, Dst: StatusActive},
		{Transition: TransitionDeactivate, Src: StatusActive, Dst: StatusDeactivated},
		// Rates are reactivated through the status path, never recreated.
		{Transition: TransitionActivate, Src: StatusDeactivated, Dst: StatusActive},
	},
}

// initialStatuses maps each kind to the status its entities are born with.
var initialStatuses = map[Kind]Status{
	KindQuote:      StatusRequested,
	KindLesson:     StatusConfirmed,
	KindMilestone:  StatusCreated,
	KindLessonPlan: StatusCreated,
	KindHourlyRate: StatusCreated,
}

// InitialStatus returns the status an entity of the given kind starts in.
func InitialStatus(kind Kind) Status {
	return initialStatuses[kind]
}

// ResultingStatus returns the destination status for applying the transition
// from the current status, or false if the pair is not in the allow-list.
func ResultingStatus(kind Kind, current Status, transition Transition) (Status, bool) {
	for _, e := range Transitions[kind] {
		if e.Src == current && e.Transition == transition {
			return e.Dst, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status has no outgoing transitions for the
// given kind.
func IsTerminal(kind Kind, status Status) bool {
	for _, e := range Transitions[kind] {
		if e.Src == status {
			return false
		}
	}
	return true
}
