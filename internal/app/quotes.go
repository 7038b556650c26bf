package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// QuoteService orchestrates the quote lifecycle, including the acceptance
// workflow that turns one quote into a confirmed lesson and retires its
// rivals.
type QuoteService struct {
	repo   domain.Repository
	engine *Engine
	ledger *Ledger
	eventSink
}

// NewQuoteService creates a service with the given adapters.
func NewQuoteService(repo domain.Repository, engine *Engine, ledger *Ledger, publisher domain.EventPublisher, log *logrus.Logger) *QuoteService {
	return &QuoteService{
		repo:      repo,
		engine:    engine,
		ledger:    ledger,
		eventSink: eventSink{publisher: publisher, log: log},
	}
}

// Submit records a teacher's priced offer against a lesson request. The
// quote and its initial "requested" status record are created in one
// transaction. A teacher may quote a request once, and no quotes may be
// added once a request has an accepted quote.
func (s *QuoteService) Submit(ctx context.Context, actor domain.Actor, requestID string, amountCents int64, expiresAt time.Time) (domain.Quote, error) {
	if actor.Role != domain.RoleTeacher {
		return domain.Quote{}, &domain.AuthorizationError{ActorID: actor.ID, Action: "submit a quote"}
	}

	var quote domain.Quote
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		req, err := tx.GetLessonRequest(ctx, requestID)
		if err != nil {
			return err
		}

		siblings, err := tx.QuotesByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		for _, q := range siblings {
			if q.TeacherID == actor.ID {
				return &domain.ConflictError{Reason: "teacher already quoted this lesson request"}
			}
			if q.Status == domain.StatusAccepted {
				return &domain.ConflictError{Reason: "lesson request already has an accepted quote"}
			}
		}

		quote = domain.Quote{
			ID:          newID(),
			RequestID:   req.ID,
			TeacherID:   actor.ID,
			AmountCents: amountCents,
			ExpiresAt:   expiresAt.UTC(),
			CreatedAt:   time.Now().UTC(),
		}

		rec, err := s.engine.Init(ctx, tx, domain.KindQuote, quote.ID, actorContext(actor))
		if err != nil {
			return err
		}
		quote.CurrentStatusID = rec.ID
		quote.Status = rec.Status

		return tx.CreateQuote(ctx, quote)
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.publish(ctx, "quote.submitted", domain.KindQuote, quote.ID, quote.Status)
	return quote, nil
}

// Accept atomically transitions the quote to "accepted", creates the
// confirmed lesson linked to it, and force-expires every other live quote
// for the same lesson request. Everything happens in one transaction: if
// any step fails, no partial state survives. Only the student who owns the
// lesson request may accept.
func (s *QuoteService) Accept(ctx context.Context, actor domain.Actor, quoteID string) (domain.Lesson, error) {
	var lesson domain.Lesson
	var retired []string

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		retired = retired[:0]

		quote, err := tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}

		req, err := tx.GetLessonRequest(ctx, quote.RequestID)
		if err != nil {
			return err
		}

		if actor.Role != domain.RoleStudent || actor.ID != req.StudentID {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("accept quote %s", quoteID)}
		}

		// Re-accepting an already-accepted quote is a conflict, not a no-op.
		if quote.Status == domain.StatusAccepted {
			return &domain.ConflictError{Reason: "quote is already accepted"}
		}

		now := time.Now().UTC()
		if !quote.ExpiresAt.After(now) {
			return &domain.ExpiredError{QuoteID: quote.ID, ExpiresAt: quote.ExpiresAt}
		}

		if _, err := tx.LessonByQuote(ctx, quote.ID); err == nil {
			return &domain.ConflictError{Reason: "lesson already exists for this quote"}
		} else if !isNotFound(err) {
			return err
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindQuote, quote.ID, domain.TransitionAccept, actorContext(actor)); err != nil {
			return err
		}

		lesson = domain.Lesson{
			ID:        newID(),
			QuoteID:   quote.ID,
			RequestID: req.ID,
			TeacherID: quote.TeacherID,
			StudentID: req.StudentID,
			CreatedAt: now,
		}
		rec, err := s.engine.Init(ctx, tx, domain.KindLesson, lesson.ID, actorContext(actor))
		if err != nil {
			return err
		}
		lesson.CurrentStatusID = rec.ID
		lesson.Status = rec.Status
		if err := tx.CreateLesson(ctx, lesson); err != nil {
			return err
		}

		siblings, err := tx.QuotesByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID == quote.ID || !sib.Live(now) {
				continue
			}
			if _, err := s.engine.Apply(ctx, tx, domain.KindQuote, sib.ID, domain.TransitionExpire, nil); err != nil {
				return err
			}
			retired = append(retired, sib.ID)
		}
		return nil
	})
	if err != nil {
		return domain.Lesson{}, err
	}

	s.publish(ctx, "quote.accepted", domain.KindQuote, quoteID, domain.StatusAccepted)
	s.publish(ctx, "lesson.confirmed", domain.KindLesson, lesson.ID, lesson.Status)
	for _, id := range retired {
		s.publish(ctx, "quote.expired", domain.KindQuote, id, domain.StatusExpired)
	}
	return lesson, nil
}

// Reject lets the owning student decline a quote.
func (s *QuoteService) Reject(ctx context.Context, actor domain.Actor, quoteID string) (domain.Quote, error) {
	quote, err := s.transition(ctx, actor, quoteID, domain.TransitionReject, func(q domain.Quote, req domain.LessonRequest) bool {
		return actor.Role == domain.RoleStudent && actor.ID == req.StudentID
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.publish(ctx, "quote.rejected", domain.KindQuote, quote.ID, quote.Status)
	return quote, nil
}

// Withdraw lets the owning teacher retract a quote.
func (s *QuoteService) Withdraw(ctx context.Context, actor domain.Actor, quoteID string) (domain.Quote, error) {
	quote, err := s.transition(ctx, actor, quoteID, domain.TransitionWithdraw, func(q domain.Quote, _ domain.LessonRequest) bool {
		return actor.Role == domain.RoleTeacher && actor.ID == q.TeacherID
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.publish(ctx, "quote.withdrawn", domain.KindQuote, quote.ID, quote.Status)
	return quote, nil
}

// transition applies a single quote transition with an ownership check,
// inside one transaction, and returns the updated quote.
func (s *QuoteService) transition(ctx context.Context, actor domain.Actor, quoteID string, tr domain.Transition, allowed func(domain.Quote, domain.LessonRequest) bool) (domain.Quote, error) {
	var quote domain.Quote
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		q, err := tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}

		req, err := tx.GetLessonRequest(ctx, q.RequestID)
		if err != nil {
			return err
		}

		if !allowed(q, req) {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("%s quote %s", tr, quoteID)}
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindQuote, q.ID, tr, actorContext(actor)); err != nil {
			return err
		}

		quote, err = tx.GetQuote(ctx, quoteID)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// ExpireOverdue transitions every live quote past its deadline to
// "expired", one transaction per quote. Quotes that lose a race with a
// concurrent accept or reject are skipped. Returns the number expired.
func (s *QuoteService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.OverdueQuotes(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, q := range overdue {
		err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
			_, err := s.engine.Apply(ctx, tx, domain.KindQuote, q.ID, domain.TransitionExpire, nil)
			return err
		})
		if err != nil {
			var trErr *domain.InvalidTransitionError
			if errors.As(err, &trErr) {
				// The quote reached a terminal status since we listed it.
				continue
			}
			return expired, err
		}

		expired++
		s.publish(ctx, "quote.expired", domain.KindQuote, q.ID, domain.StatusExpired)
	}
	return expired, nil
}

// Get returns a quote with its current status.
func (s *QuoteService) Get(ctx context.Context, id string) (domain.Quote, error) {
	return s.repo.GetQuote(ctx, id)
}

// History returns the quote's full status ledger, oldest first.
func (s *QuoteService) History(ctx context.Context, id string) ([]domain.StatusRecord, error) {
	return s.ledger.History(ctx, s.repo, domain.KindQuote, id)
}
