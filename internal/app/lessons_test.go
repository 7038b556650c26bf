package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// mustLesson confirms a lesson by accepting a fresh quote.
func mustLesson(t *testing.T, env *testEnv) domain.Lesson {
	t.Helper()

	req := env.mustRequest(t, "student-1")
	quote := env.mustQuote(t, req.ID, "teacher-1", time.Hour)

	lesson, err := env.quotes.Accept(context.Background(), student("student-1"), quote.ID)
	require.NoError(t, err)
	return lesson
}

func TestLessonLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lesson := mustLesson(t, env)

	started, err := env.lessons.Transition(ctx, teacher("teacher-1"), lesson.ID, domain.TransitionStartProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, started.Status)

	completed, err := env.lessons.Transition(ctx, teacher("teacher-1"), lesson.ID, domain.TransitionComplete)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	history, err := env.lessons.History(ctx, lesson.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.StatusConfirmed, history[0].Status)
	assert.Equal(t, domain.StatusInProgress, history[1].Status)
	assert.Equal(t, domain.StatusCompleted, history[2].Status)
}

func TestLessonCancel_ByStudent(t *testing.T) {
	env := newTestEnv(t)
	lesson := mustLesson(t, env)

	cancelled, err := env.lessons.Transition(context.Background(), student("student-1"), lesson.ID, domain.TransitionCancel)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestLessonCancel_AfterStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lesson := mustLesson(t, env)

	_, err := env.lessons.Transition(ctx, teacher("teacher-1"), lesson.ID, domain.TransitionStartProgress)
	require.NoError(t, err)

	// Cancellation is only offered from "confirmed".
	_, err = env.lessons.Transition(ctx, student("student-1"), lesson.ID, domain.TransitionCancel)

	var trErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.StatusInProgress, trErr.Current)
}

func TestLessonComplete_SkippingStart(t *testing.T) {
	env := newTestEnv(t)
	lesson := mustLesson(t, env)

	_, err := env.lessons.Transition(context.Background(), teacher("teacher-1"), lesson.ID, domain.TransitionComplete)

	var trErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
}

func TestLessonStart_StudentForbidden(t *testing.T) {
	env := newTestEnv(t)
	lesson := mustLesson(t, env)

	_, err := env.lessons.Transition(context.Background(), student("student-1"), lesson.ID, domain.TransitionStartProgress)

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestLessonTransition_Outsider(t *testing.T) {
	env := newTestEnv(t)
	lesson := mustLesson(t, env)

	_, err := env.lessons.Transition(context.Background(), student("student-9"), lesson.ID, domain.TransitionCancel)

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}
