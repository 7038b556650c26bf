package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// LessonService drives the lifecycle of confirmed lessons. Lessons are only
// ever created by the quote acceptance workflow; this service moves them
// through start/complete/cancel.
type LessonService struct {
	repo   domain.Repository
	engine *Engine
	ledger *Ledger
	eventSink
}

// NewLessonService creates a service with the given adapters.
func NewLessonService(repo domain.Repository, engine *Engine, ledger *Ledger, publisher domain.EventPublisher, log *logrus.Logger) *LessonService {
	return &LessonService{
		repo:      repo,
		engine:    engine,
		ledger:    ledger,
		eventSink: eventSink{publisher: publisher, log: log},
	}
}

// Transition applies a lifecycle transition to a lesson. The teacher drives
// start and completion; either party may cancel a confirmed lesson.
func (s *LessonService) Transition(ctx context.Context, actor domain.Actor, lessonID string, transition domain.Transition) (domain.Lesson, error) {
	var lesson domain.Lesson
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		l, err := tx.GetLesson(ctx, lessonID)
		if err != nil {
			return err
		}

		var allowed bool
		switch transition {
		case domain.TransitionCancel:
			allowed = actor.ID == l.TeacherID || actor.ID == l.StudentID
		default:
			allowed = actor.Role == domain.RoleTeacher && actor.ID == l.TeacherID
		}
		if !allowed {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("%s lesson %s", transition, lessonID)}
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindLesson, l.ID, transition, actorContext(actor)); err != nil {
			return err
		}

		lesson, err = tx.GetLesson(ctx, lessonID)
		return err
	})
	if err != nil {
		return domain.Lesson{}, err
	}

	s.publish(ctx, "lesson."+string(lesson.Status), domain.KindLesson, lesson.ID, lesson.Status)
	return lesson, nil
}

// Get returns a lesson with its current status.
func (s *LessonService) Get(ctx context.Context, id string) (domain.Lesson, error) {
	return s.repo.GetLesson(ctx, id)
}

// History returns the lesson's full status ledger, oldest first.
func (s *LessonService) History(ctx context.Context, id string) ([]domain.StatusRecord, error) {
	return s.ledger.History(ctx, s.repo, domain.KindLesson, id)
}
