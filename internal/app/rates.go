package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// RateService manages teacher hourly rates and enforces the exclusivity
// invariant: for a given (teacher, lesson type) pair at most one rate is
// ever active. "Active" is derived from the status ledger, so the check and
// the transition run inside one transaction rather than relying on a
// uniqueness constraint alone.
type RateService struct {
	repo   domain.Repository
	engine *Engine
	ledger *Ledger
	eventSink
}

// NewRateService creates a service with the given adapters.
func NewRateService(repo domain.Repository, engine *Engine, ledger *Ledger, publisher domain.EventPublisher, log *logrus.Logger) *RateService {
	return &RateService{
		repo:      repo,
		engine:    engine,
		ledger:    ledger,
		eventSink: eventSink{publisher: publisher, log: log},
	}
}

// Create registers a new rate for the acting teacher in the initial
// "created" status. It conflicts when any rate, active or not, already
// exists for the (teacher, lesson type) pair: existing rates are
// reactivated through SetStatus, never recreated.
func (s *RateService) Create(ctx context.Context, actor domain.Actor, lessonType string, amountCents int64) (domain.HourlyRate, error) {
	if actor.Role != domain.RoleTeacher {
		return domain.HourlyRate{}, &domain.AuthorizationError{ActorID: actor.ID, Action: "create a rate"}
	}

	var rate domain.HourlyRate
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		existing, err := tx.RatesByTeacherAndType(ctx, actor.ID, lessonType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &domain.ConflictError{Reason: "rate already exists for this teacher and lesson type"}
		}

		rate = domain.HourlyRate{
			ID:          newID(),
			TeacherID:   actor.ID,
			LessonType:  lessonType,
			AmountCents: amountCents,
			CreatedAt:   time.Now().UTC(),
		}

		rec, err := s.engine.Init(ctx, tx, domain.KindHourlyRate, rate.ID, actorContext(actor))
		if err != nil {
			return err
		}
		rate.CurrentStatusID = rec.ID
		rate.Status = rec.Status

		return tx.CreateHourlyRate(ctx, rate)
	})
	if err != nil {
		return domain.HourlyRate{}, err
	}

	s.publish(ctx, "rate.created", domain.KindHourlyRate, rate.ID, rate.Status)
	return rate, nil
}

// SetStatus applies an activate/deactivate transition to a rate. Activation
// conflicts while any other rate for the same (teacher, lesson type) pair
// is active; the check and the transition share one transaction so two
// concurrent activations cannot both pass it.
func (s *RateService) SetStatus(ctx context.Context, actor domain.Actor, rateID string, transition domain.Transition) (domain.HourlyRate, error) {
	var rate domain.HourlyRate
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		r, err := tx.GetHourlyRate(ctx, rateID)
		if err != nil {
			return err
		}

		if actor.Role != domain.RoleTeacher || actor.ID != r.TeacherID {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("%s rate %s", transition, rateID)}
		}

		if transition == domain.TransitionActivate {
			siblings, err := tx.RatesByTeacherAndType(ctx, r.TeacherID, r.LessonType)
			if err != nil {
				return err
			}
			for _, sib := range siblings {
				if sib.ID != r.ID && sib.Status == domain.StatusActive {
					return &domain.ConflictError{Reason: "another rate is already active for this teacher and lesson type"}
				}
			}
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindHourlyRate, r.ID, transition, actorContext(actor)); err != nil {
			return err
		}

		rate, err = tx.GetHourlyRate(ctx, rateID)
		return err
	})
	if err != nil {
		return domain.HourlyRate{}, err
	}

	s.publish(ctx, "rate."+string(rate.Status), domain.KindHourlyRate, rate.ID, rate.Status)
	return rate, nil
}

// Get returns a rate with its current status.
func (s *RateService) Get(ctx context.Context, id string) (domain.HourlyRate, error) {
	return s.repo.GetHourlyRate(ctx, id)
}

// List returns all rates for a teacher.
func (s *RateService) List(ctx context.Context, teacherID string) ([]domain.HourlyRate, error) {
	return s.repo.RatesByTeacher(ctx, teacherID)
}

// History returns the rate's full status ledger, oldest first.
func (s *RateService) History(ctx context.Context, id string) ([]domain.StatusRecord, error) {
	return s.ledger.History(ctx, s.repo, domain.KindHourlyRate, id)
}
