package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

func TestRequestCreate_And_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.mustRequest(t, "student-1")

	got, err := env.requests.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.StudentID != "student-1" {
		t.Errorf("StudentID = %q, want %q", got.StudentID, "student-1")
	}
}

func TestRequestQuotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.mustRequest(t, "student-1")
	env.mustQuote(t, req.ID, "teacher-1", time.Hour)
	env.mustQuote(t, req.ID, "teacher-2", time.Hour)

	quotes, err := env.requests.Quotes(ctx, req.ID)
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(quotes) != 2 {
		t.Errorf("got %d quotes, want 2", len(quotes))
	}
}

func TestRequestQuotes_UnknownRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.Quotes(context.Background(), "nonexistent")

	var nfErr *domain.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
