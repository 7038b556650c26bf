package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/adapter/fsm"
	handler "github.com/harmonia-labs/lessonbook/internal/adapter/http"
	"github.com/harmonia-labs/lessonbook/internal/adapter/sqlite"
	"github.com/harmonia-labs/lessonbook/internal/app"
	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// smokePublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type smokePublisher struct{}

func (p *smokePublisher) Publish(_ context.Context, _ domain.Event) error {
	return nil
}

// TestSmoke wires the stack like main() and verifies it responds.
func TestSmoke(t *testing.T) {
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	ledger := app.NewLedger()
	engine := app.NewEngine(ledger, fsm.New())
	pub := &smokePublisher{}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("lessonbook", "0.1.0"))
	handler.Register(api, handler.Services{
		Requests: app.NewRequestService(repo),
		Quotes:   app.NewQuoteService(repo, engine, ledger, pub, log),
		Lessons:  app.NewLessonService(repo, engine, ledger, pub, log),
		Rates:    app.NewRateService(repo, engine, ledger, pub, log),
		Plans:    app.NewPlanService(repo, engine, ledger, pub, log),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		srv.URL+"/api/v1/lesson-requests", strings.NewReader(`{"lesson_type":"guitar"}`))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "student-1")
	req.Header.Set("X-Actor-Role", "student")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var created handler.RequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Error("ID should not be empty")
	}
}
