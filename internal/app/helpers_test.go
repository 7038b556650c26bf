package app_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/adapter/fsm"
	"github.com/harmonia-labs/lessonbook/internal/adapter/sqlite"
	"github.com/harmonia-labs/lessonbook/internal/app"
	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// recordingPublisher captures published events for assertions. It is safe
// for concurrent use because the accept race test publishes from multiple
// goroutines.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) named(name string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.Event
	for _, ev := range p.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// testEnv wires the services against a real in-memory SQLite repository, so
// workflow tests cover the same transactional paths production uses.
type testEnv struct {
	repo     *sqlite.Repository
	engine   *app.Engine
	ledger   *app.Ledger
	pub      *recordingPublisher
	requests *app.RequestService
	quotes   *app.QuoteService
	lessons  *app.LessonService
	rates    *app.RateService
	plans    *app.PlanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	ledger := app.NewLedger()
	engine := app.NewEngine(ledger, fsm.New())
	pub := &recordingPublisher{}

	return &testEnv{
		repo:     repo,
		engine:   engine,
		ledger:   ledger,
		pub:      pub,
		requests: app.NewRequestService(repo),
		quotes:   app.NewQuoteService(repo, engine, ledger, pub, log),
		lessons:  app.NewLessonService(repo, engine, ledger, pub, log),
		rates:    app.NewRateService(repo, engine, ledger, pub, log),
		plans:    app.NewPlanService(repo, engine, ledger, pub, log),
	}
}

func student(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleStudent}
}

func teacher(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleTeacher}
}

func (e *testEnv) mustRequest(t *testing.T, studentID string) domain.LessonRequest {
	t.Helper()
	req, err := e.requests.Create(context.Background(), student(studentID), "guitar", "")
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	return req
}

func (e *testEnv) mustQuote(t *testing.T, requestID, teacherID string, expiresIn time.Duration) domain.Quote {
	t.Helper()
	q, err := e.quotes.Submit(context.Background(), teacher(teacherID), requestID, 5000, time.Now().Add(expiresIn))
	if err != nil {
		t.Fatalf("submitting quote: %v", err)
	}
	return q
}
