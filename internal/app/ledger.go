package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// Ledger is the append-only status history of statusful entities. Records
// are immutable facts; corrections happen by appending, never by editing.
// The ledger never commits on its own: every write runs inside a
// transaction supplied by the caller.
type Ledger struct{}

// NewLedger creates a status ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append writes a new status record for the owner inside the caller's
// transaction. It does not move the owner's current-status pointer; that is
// the engine's job.
func (l *Ledger) Append(ctx context.Context, tx domain.Store, kind domain.Kind, ownerID string, status domain.Status, recCtx json.RawMessage) (domain.StatusRecord, error) {
	rec := domain.StatusRecord{
		ID:        newID(),
		OwnerKind: kind,
		OwnerID:   ownerID,
		Status:    status,
		Context:   recCtx,
		CreatedAt: time.Now().UTC(),
	}

	if err := tx.AppendStatus(ctx, rec); err != nil {
		return domain.StatusRecord{}, fmt.Errorf("appending status record: %w", err)
	}
	return rec, nil
}

// Current resolves the owner's current status record through its
// current-status pointer. Resolving by pointer rather than "latest by
// timestamp" keeps the answer unambiguous when records share a timestamp.
// A missing owner or dangling pointer surfaces as NotFound.
func (l *Ledger) Current(ctx context.Context, tx domain.Store, kind domain.Kind, ownerID string) (domain.StatusRecord, error) {
	ref, err := tx.EntityRef(ctx, kind, ownerID)
	if err != nil {
		return domain.StatusRecord{}, err
	}

	rec, err := tx.GetStatusRecord(ctx, ref.CurrentStatusID)
	if err != nil {
		return domain.StatusRecord{}, fmt.Errorf("resolving current status of %s %q: %w", kind, ownerID, err)
	}
	return rec, nil
}

// History returns every status record for the owner, oldest first.
func (l *Ledger) History(ctx context.Context, tx domain.Store, kind domain.Kind, ownerID string) ([]domain.StatusRecord, error) {
	if _, err := tx.EntityRef(ctx, kind, ownerID); err != nil {
		return nil, err
	}
	return tx.StatusHistory(ctx, kind, ownerID)
}
