package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// seedQuoteRow inserts a quote with its initial status record through the
// engine, the way workflows do, and returns its ID.
func seedQuoteRow(t *testing.T, env *testEnv) string {
	t.Helper()

	req := env.mustRequest(t, "student-1")
	quote := env.mustQuote(t, req.ID, "teacher-1", time.Hour)
	return quote.ID
}

func TestEngineApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quoteID := seedQuoteRow(t, env)

	var rec domain.StatusRecord
	err := env.repo.WithTx(ctx, func(tx domain.Tx) error {
		var err error
		rec, err = env.engine.Apply(ctx, tx, domain.KindQuote, quoteID, domain.TransitionReject, nil)
		return err
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if rec.Status != domain.StatusRejected {
		t.Errorf("record Status = %q, want %q", rec.Status, domain.StatusRejected)
	}

	// The entity's current-status pointer moved to the new record.
	ref, err := env.repo.EntityRef(ctx, domain.KindQuote, quoteID)
	if err != nil {
		t.Fatalf("EntityRef failed: %v", err)
	}
	if ref.CurrentStatusID != rec.ID {
		t.Errorf("CurrentStatusID = %q, want %q", ref.CurrentStatusID, rec.ID)
	}
}

func TestEngineApply_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quoteID := seedQuoteRow(t, env)

	err := env.repo.WithTx(ctx, func(tx domain.Tx) error {
		_, err := env.engine.Apply(ctx, tx, domain.KindQuote, quoteID, domain.TransitionComplete, nil)
		return err
	})

	var trErr *domain.InvalidTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if trErr.Kind != domain.KindQuote {
		t.Errorf("Kind = %q, want %q", trErr.Kind, domain.KindQuote)
	}
	if trErr.Current != domain.StatusRequested {
		t.Errorf("Current = %q, want %q", trErr.Current, domain.StatusRequested)
	}

	// The rejected transaction left no trace on the ledger.
	records, err := env.repo.StatusHistory(ctx, domain.KindQuote, quoteID)
	if err != nil {
		t.Fatalf("StatusHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestEngineApply_UnknownEntity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.repo.WithTx(ctx, func(tx domain.Tx) error {
		_, err := env.engine.Apply(ctx, tx, domain.KindQuote, "nonexistent", domain.TransitionAccept, nil)
		return err
	})

	var nfErr *domain.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// TestLedgerCurrent_PointerNotLatest verifies current status resolution
// follows the pointer even when a newer record exists for the same owner.
func TestLedgerCurrent_PointerNotLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quoteID := seedQuoteRow(t, env)

	// Append a stray record without moving the pointer.
	err := env.repo.WithTx(ctx, func(tx domain.Tx) error {
		_, err := env.ledger.Append(ctx, tx, domain.KindQuote, quoteID, domain.StatusWithdrawn, nil)
		return err
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rec, err := env.ledger.Current(ctx, env.repo, domain.KindQuote, quoteID)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if rec.Status != domain.StatusRequested {
		t.Errorf("Status = %q, want %q (pointer, not latest record)", rec.Status, domain.StatusRequested)
	}
}

func TestLedgerAppend_ContextSurvives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quoteID := seedQuoteRow(t, env)

	recCtx := json.RawMessage(`{"actor_id":"student-1"}`)
	err := env.repo.WithTx(ctx, func(tx domain.Tx) error {
		_, err := env.engine.Apply(ctx, tx, domain.KindQuote, quoteID, domain.TransitionReject, recCtx)
		return err
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	records, err := env.ledger.History(ctx, env.repo, domain.KindQuote, quoteID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if string(records[1].Context) != string(recCtx) {
		t.Errorf("Context = %s, want %s", records[1].Context, recCtx)
	}
}

func TestLedgerHistory_UnknownOwner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.History(context.Background(), env.repo, domain.KindQuote, "nonexistent")

	var nfErr *domain.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
