package domain_test

import (
	"testing"
	"time"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

func TestNotFoundError_Error(t *testing.T) {
	err := &domain.NotFoundError{Kind: domain.KindQuote, ID: "q-1"}
	want := `quote "q-1" not found`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestInvalidTransitionError_Error(t *testing.T) {
	err := &domain.InvalidTransitionError{
		Kind:       domain.KindQuote,
		Current:    domain.StatusAccepted,
		Transition: domain.TransitionAccept,
	}
	want := `transition "accept" is not valid for quote in status "accepted"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAuthorizationError_Error(t *testing.T) {
	err := &domain.AuthorizationError{ActorID: "s-1", Action: "accept quote q-1"}
	want := `actor "s-1" is not allowed to accept quote q-1`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExpiredError_Error(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := &domain.ExpiredError{QuoteID: "q-1", ExpiresAt: at}
	want := `quote "q-1" expired at 2026-03-01T12:00:00Z`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
