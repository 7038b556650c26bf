package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

func mustRate(t *testing.T, env *testEnv, teacherID, lessonType string) domain.HourlyRate {
	t.Helper()
	rate, err := env.rates.Create(context.Background(), teacher(teacherID), lessonType, 5000)
	require.NoError(t, err)
	return rate
}

func TestCreateRate(t *testing.T) {
	env := newTestEnv(t)

	rate := mustRate(t, env, "teacher-1", "guitar")

	assert.Equal(t, "teacher-1", rate.TeacherID)
	assert.Equal(t, "guitar", rate.LessonType)
	assert.Equal(t, domain.StatusCreated, rate.Status)
	assert.NotEmpty(t, rate.CurrentStatusID)
}

func TestCreateRate_StudentForbidden(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rates.Create(context.Background(), student("student-1"), "guitar", 5000)

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestCreateRate_DuplicatePair(t *testing.T) {
	env := newTestEnv(t)

	mustRate(t, env, "teacher-1", "guitar")

	_, err := env.rates.Create(context.Background(), teacher("teacher-1"), "guitar", 6000)

	var cfErr *domain.ConflictError
	require.ErrorAs(t, err, &cfErr)
}

func TestCreateRate_SamePairDifferentTeacher(t *testing.T) {
	env := newTestEnv(t)

	mustRate(t, env, "teacher-1", "guitar")
	mustRate(t, env, "teacher-2", "guitar")

	rates, err := env.rates.List(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Len(t, rates, 1)
}

func TestRateLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rate := mustRate(t, env, "teacher-1", "guitar")

	active, err := env.rates.SetStatus(ctx, teacher("teacher-1"), rate.ID, domain.TransitionActivate)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, active.Status)

	deactivated, err := env.rates.SetStatus(ctx, teacher("teacher-1"), rate.ID, domain.TransitionDeactivate)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeactivated, deactivated.Status)

	// Deactivated is not terminal: the rate can come back.
	reactivated, err := env.rates.SetStatus(ctx, teacher("teacher-1"), rate.ID, domain.TransitionActivate)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, reactivated.Status)

	history, err := env.rates.History(ctx, rate.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.StatusCreated, history[0].Status)
	assert.Equal(t, domain.StatusActive, history[3].Status)
}

func TestRateActivate_AlreadyActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rate := mustRate(t, env, "teacher-1", "guitar")

	_, err := env.rates.SetStatus(ctx, teacher("teacher-1"), rate.ID, domain.TransitionActivate)
	require.NoError(t, err)

	_, err = env.rates.SetStatus(ctx, teacher("teacher-1"), rate.ID, domain.TransitionActivate)

	var trErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.StatusActive, trErr.Current)
}

func TestRateDeactivate_FromCreated(t *testing.T) {
	env := newTestEnv(t)

	rate := mustRate(t, env, "teacher-1", "guitar")

	_, err := env.rates.SetStatus(context.Background(), teacher("teacher-1"), rate.ID, domain.TransitionDeactivate)

	var trErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
}

func TestRateSetStatus_WrongTeacher(t *testing.T) {
	env := newTestEnv(t)

	rate := mustRate(t, env, "teacher-1", "guitar")

	_, err := env.rates.SetStatus(context.Background(), teacher("teacher-2"), rate.ID, domain.TransitionActivate)

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestListRates(t *testing.T) {
	env := newTestEnv(t)

	mustRate(t, env, "teacher-1", "guitar")
	mustRate(t, env, "teacher-1", "piano")
	mustRate(t, env, "teacher-2", "guitar")

	rates, err := env.rates.List(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}
