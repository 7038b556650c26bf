package app

import (
	"context"
	"time"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// RequestService handles lesson request intake. Requests carry no status
// ledger of their own; their lifecycle is expressed through the quotes that
// compete for them.
type RequestService struct {
	repo domain.Repository
}

// NewRequestService creates a service with the given repository.
func NewRequestService(repo domain.Repository) *RequestService {
	return &RequestService{repo: repo}
}

// Create opens a new lesson request for the acting student.
func (s *RequestService) Create(ctx context.Context, actor domain.Actor, lessonType, notes string) (domain.LessonRequest, error) {
	if actor.Role != domain.RoleStudent {
		return domain.LessonRequest{}, &domain.AuthorizationError{ActorID: actor.ID, Action: "open a lesson request"}
	}

	req := domain.LessonRequest{
		ID:         newID(),
		StudentID:  actor.ID,
		LessonType: lessonType,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.CreateLessonRequest(ctx, req); err != nil {
		return domain.LessonRequest{}, err
	}
	return req, nil
}

// Get returns a lesson request by ID.
func (s *RequestService) Get(ctx context.Context, id string) (domain.LessonRequest, error) {
	return s.repo.GetLessonRequest(ctx, id)
}

// Quotes returns every quote submitted against a request, with current
// statuses.
func (s *RequestService) Quotes(ctx context.Context, id string) ([]domain.Quote, error) {
	if _, err := s.repo.GetLessonRequest(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.QuotesByRequest(ctx, id)
}
