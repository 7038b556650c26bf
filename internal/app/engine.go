package app

import (
	"context"
	"encoding/json"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// Engine drives all status changes. It is the single choke point: workflows
// request transitions here and never write status rows directly.
type Engine struct {
	ledger    *Ledger
	validator domain.TransitionValidator
}

// NewEngine creates a transition engine over the given ledger and validator.
func NewEngine(ledger *Ledger, validator domain.TransitionValidator) *Engine {
	return &Engine{
		ledger:    ledger,
		validator: validator,
	}
}

// Apply validates the transition against the entity's current status and,
// if valid, appends a new status record and repoints the entity at it. All
// reads and writes happen inside the caller's transaction, so the
// read-validate-write sequence is atomic with whatever else the workflow
// does in the same transaction.
func (e *Engine) Apply(ctx context.Context, tx domain.Tx, kind domain.Kind, entityID string, transition domain.Transition, recCtx json.RawMessage) (domain.StatusRecord, error) {
	current, err := e.ledger.Current(ctx, tx, kind, entityID)
	if err != nil {
		return domain.StatusRecord{}, err
	}

	next, err := e.validator.Apply(ctx, kind, current.Status, transition)
	if err != nil {
		return domain.StatusRecord{}, err
	}

	rec, err := e.ledger.Append(ctx, tx, kind, entityID, next, recCtx)
	if err != nil {
		return domain.StatusRecord{}, err
	}

	if err := tx.SetCurrentStatus(ctx, kind, entityID, rec.ID); err != nil {
		return domain.StatusRecord{}, err
	}

	return rec, nil
}

// Init appends the initial status record for a newly created entity. The
// caller must insert the entity row with its current-status pointer set to
// the returned record, in the same transaction, so no entity ever exists
// without a status.
func (e *Engine) Init(ctx context.Context, tx domain.Tx, kind domain.Kind, entityID string, recCtx json.RawMessage) (domain.StatusRecord, error) {
	return e.ledger.Append(ctx, tx, kind, entityID, domain.InitialStatus(kind), recCtx)
}
