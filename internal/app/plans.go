package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// PlanService manages lesson plans and their milestones. Milestone statuses
// are independent of each other; finishing one never moves its siblings.
type PlanService struct {
	repo   domain.Repository
	engine *Engine
	ledger *Ledger
	eventSink
}

// NewPlanService creates a service with the given adapters.
func NewPlanService(repo domain.Repository, engine *Engine, ledger *Ledger, publisher domain.EventPublisher, log *logrus.Logger) *PlanService {
	return &PlanService{
		repo:      repo,
		engine:    engine,
		ledger:    ledger,
		eventSink: eventSink{publisher: publisher, log: log},
	}
}

// Create lays out a new plan for a student, born in the "created" status.
func (s *PlanService) Create(ctx context.Context, actor domain.Actor, studentID, title string) (domain.LessonPlan, error) {
	if actor.Role != domain.RoleTeacher {
		return domain.LessonPlan{}, &domain.AuthorizationError{ActorID: actor.ID, Action: "create a lesson plan"}
	}

	var plan domain.LessonPlan
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		plan = domain.LessonPlan{
			ID:        newID(),
			TeacherID: actor.ID,
			StudentID: studentID,
			Title:     title,
			CreatedAt: time.Now().UTC(),
		}

		rec, err := s.engine.Init(ctx, tx, domain.KindLessonPlan, plan.ID, actorContext(actor))
		if err != nil {
			return err
		}
		plan.CurrentStatusID = rec.ID
		plan.Status = rec.Status

		return tx.CreateLessonPlan(ctx, plan)
	})
	if err != nil {
		return domain.LessonPlan{}, err
	}

	s.publish(ctx, "plan.created", domain.KindLessonPlan, plan.ID, plan.Status)
	return plan, nil
}

// AddMilestone appends a milestone to a plan the actor owns.
func (s *PlanService) AddMilestone(ctx context.Context, actor domain.Actor, planID, title string, position int) (domain.Milestone, error) {
	var milestone domain.Milestone
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		plan, err := tx.GetLessonPlan(ctx, planID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleTeacher || actor.ID != plan.TeacherID {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("add a milestone to plan %s", planID)}
		}

		milestone = domain.Milestone{
			ID:        newID(),
			PlanID:    plan.ID,
			Title:     title,
			Position:  position,
			CreatedAt: time.Now().UTC(),
		}

		rec, err := s.engine.Init(ctx, tx, domain.KindMilestone, milestone.ID, actorContext(actor))
		if err != nil {
			return err
		}
		milestone.CurrentStatusID = rec.ID
		milestone.Status = rec.Status

		return tx.CreateMilestone(ctx, milestone)
	})
	if err != nil {
		return domain.Milestone{}, err
	}

	s.publish(ctx, "milestone.created", domain.KindMilestone, milestone.ID, milestone.Status)
	return milestone, nil
}

// TransitionPlan applies a lifecycle transition to a plan the actor owns.
func (s *PlanService) TransitionPlan(ctx context.Context, actor domain.Actor, planID string, transition domain.Transition) (domain.LessonPlan, error) {
	var plan domain.LessonPlan
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		p, err := tx.GetLessonPlan(ctx, planID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleTeacher || actor.ID != p.TeacherID {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("%s plan %s", transition, planID)}
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindLessonPlan, p.ID, transition, actorContext(actor)); err != nil {
			return err
		}

		plan, err = tx.GetLessonPlan(ctx, planID)
		return err
	})
	if err != nil {
		return domain.LessonPlan{}, err
	}

	s.publish(ctx, "plan."+string(plan.Status), domain.KindLessonPlan, plan.ID, plan.Status)
	return plan, nil
}

// TransitionMilestone applies a lifecycle transition to one milestone.
// Authorization goes through the owning plan's teacher.
func (s *PlanService) TransitionMilestone(ctx context.Context, actor domain.Actor, milestoneID string, transition domain.Transition) (domain.Milestone, error) {
	var milestone domain.Milestone
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		m, err := tx.GetMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}

		plan, err := tx.GetLessonPlan(ctx, m.PlanID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleTeacher || actor.ID != plan.TeacherID {
			return &domain.AuthorizationError{ActorID: actor.ID, Action: fmt.Sprintf("%s milestone %s", transition, milestoneID)}
		}

		if _, err := s.engine.Apply(ctx, tx, domain.KindMilestone, m.ID, transition, actorContext(actor)); err != nil {
			return err
		}

		milestone, err = tx.GetMilestone(ctx, milestoneID)
		return err
	})
	if err != nil {
		return domain.Milestone{}, err
	}

	s.publish(ctx, "milestone."+string(milestone.Status), domain.KindMilestone, milestone.ID, milestone.Status)
	return milestone, nil
}

// Get returns a plan and its milestones in position order.
func (s *PlanService) Get(ctx context.Context, id string) (domain.LessonPlan, []domain.Milestone, error) {
	plan, err := s.repo.GetLessonPlan(ctx, id)
	if err != nil {
		return domain.LessonPlan{}, nil, err
	}

	milestones, err := s.repo.MilestonesByPlan(ctx, id)
	if err != nil {
		return domain.LessonPlan{}, nil, err
	}
	return plan, milestones, nil
}

// MilestoneHistory returns a milestone's full status ledger, oldest first.
func (s *PlanService) MilestoneHistory(ctx context.Context, id string) ([]domain.StatusRecord, error) {
	return s.ledger.History(ctx, s.repo, domain.KindMilestone, id)
}
