package progress

import (
	"context"
	"testing"
	"time"

	"github.com/bariatricaemcasa/backend/internal/program/exercises"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverMock struct {
	plans map[int][]exercises.Exercise
}

func (r *resolverMock) ResolveDay(_ context.Context, _ string, day int) ([]exercises.Exercise, error) {
	plan, ok := r.plans[day]
	if !ok || len(plan) == 0 {
		return nil, exercises.ErrNoContentForDay
	}
	return plan, nil
}

func (r *resolverMock) TotalCaloriesForDays(_ context.Context, days []int) (int, error) {
	var total int
	for _, day := range days {
		for _, e := range r.plans[day] {
			total += e.CaloriesEstimate
		}
	}
	return total, nil
}

func dayPlan(day, count int) []exercises.Exercise {
	plan := make([]exercises.Exercise, 0, count)
	for i := 1; i <= count; i++ {
		plan = append(plan, exercises.Exercise{
			ID:               day*100 + i,
			DayNumber:        day,
			ExerciseOrder:    i,
			CaloriesEstimate: 10,
			Difficulty:       exercises.DifficultyLight,
		})
	}
	return plan
}

func newTestService(plans map[int][]exercises.Exercise) (*Service, *repoMock) {
	repo := NewMockProgressRepo()
	resolver := &resolverMock{plans: plans}
	return NewService(repo, resolver, resolver), repo
}

func TestService_RecordCompletion_DayWalkthrough(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 3),
	})

	// first exercise done, day in progress
	result, err := service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Progress.CompletedExercises)
	assert.Equal(t, 3, result.TotalExercises)
	assert.False(t, result.Progress.IsDayCompleted)
	assert.Nil(t, result.Progress.CompletionDate)
	assert.Empty(t, result.Signals)
	assert.Equal(t, DayStateInProgress, result.Progress.State())

	// same exercise again, count must not move
	result, err = service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Progress.CompletedExercises)
	assert.Empty(t, result.Signals)

	result, err = service.RecordCompletion(ctx, "user-1", 1, 102)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Progress.CompletedExercises)
	assert.Empty(t, result.Signals)

	// last one completes the day, exactly one signal
	result, err = service.RecordCompletion(ctx, "user-1", 1, 103)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Progress.CompletedExercises)
	assert.True(t, result.Progress.IsDayCompleted)
	require.NotNil(t, result.Progress.CompletionDate)
	assert.Equal(t, []Signal{SignalDayCompleted}, result.Signals)
	assert.Equal(t, DayStateCompleted, result.Progress.State())
}

func TestService_RecordCompletion_CompletedDayStaysCompleted(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 2),
	})

	_, err := service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	result, err := service.RecordCompletion(ctx, "user-1", 1, 102)
	require.NoError(t, err)
	require.Equal(t, []Signal{SignalDayCompleted}, result.Signals)
	firstCompletionDate := *result.Progress.CompletionDate

	// re-completing after the day is done refreshes nothing but the
	// completion timestamp of the exercise itself
	before, ok := repo.completionTime("user-1", 101)
	require.True(t, ok)
	service.now = func() time.Time { return time.Now().Add(time.Hour) }

	result, err = service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	assert.Empty(t, result.Signals)
	assert.True(t, result.Progress.IsDayCompleted)
	assert.Equal(t, firstCompletionDate, *result.Progress.CompletionDate)

	after, ok := repo.completionTime("user-1", 101)
	require.True(t, ok)
	assert.True(t, after.After(before))
}

func TestService_RecordCompletion_FinalDay(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		FinalDay: dayPlan(FinalDay, 1),
	})

	result, err := service.RecordCompletion(ctx, "user-1", FinalDay, FinalDay*100+1)
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalDayCompleted, SignalProgramCompleted}, result.Signals)

	// and never again
	result, err = service.RecordCompletion(ctx, "user-1", FinalDay, FinalDay*100+1)
	require.NoError(t, err)
	assert.Empty(t, result.Signals)
}

func TestService_RecordCompletion_Errors(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 2),
	})

	_, err := service.RecordCompletion(ctx, "user-1", 1, 999)
	assert.ErrorIs(t, err, ErrExerciseNotInDay)

	_, err = service.RecordCompletion(ctx, "user-1", 9, 101)
	assert.ErrorIs(t, err, exercises.ErrNoContentForDay)
}

func TestService_RecordCompletion_ExerciseGone(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 2),
	})

	// exercise deleted from the catalog while the plan was cached
	repo.upsertCompletionErr = ErrExerciseGone
	_, err := service.RecordCompletion(ctx, "user-1", 1, 101)
	assert.ErrorIs(t, err, ErrExerciseGone)
}

func TestService_GetDayOverview(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 3),
	})

	_, err := service.RecordCompletion(ctx, "user-1", 1, 102)
	require.NoError(t, err)

	overview, err := service.GetDayOverview(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Len(t, overview.Exercises, 3)
	assert.Equal(t, []int{102}, overview.CompletedIDs)
	require.NotNil(t, overview.Progress)
	assert.Equal(t, 1, overview.Progress.CompletedExercises)
	assert.False(t, overview.NoContent)

	// day without catalog content is not an error
	overview, err = service.GetDayOverview(ctx, "user-1", 15)
	require.NoError(t, err)
	assert.True(t, overview.NoContent)
	assert.Empty(t, overview.Exercises)
	assert.Empty(t, overview.CompletedIDs)
	assert.Nil(t, overview.Progress)
}

func TestService_GetSummary(t *testing.T) {
	ctx := context.Background()
	plans := map[int][]exercises.Exercise{
		1: dayPlan(1, 2),
		2: dayPlan(2, 3),
		3: dayPlan(3, 1),
	}
	service, _ := newTestService(plans)

	summary, err := service.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CompletedDays)
	assert.Equal(t, 1, summary.CurrentDay)
	assert.Equal(t, FinalDay, summary.TotalDays)
	assert.Zero(t, summary.CaloriesBurned)
	assert.False(t, summary.ProgramCompleted)

	// complete day 1 fully, start day 2
	for _, e := range plans[1] {
		_, err := service.RecordCompletion(ctx, "user-1", 1, e.ID)
		require.NoError(t, err)
	}
	_, err = service.RecordCompletion(ctx, "user-1", 2, 201)
	require.NoError(t, err)

	summary, err = service.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)
	assert.Equal(t, 2, summary.CurrentDay)
	assert.Equal(t, 20, summary.CaloriesBurned)
	require.Len(t, summary.Days, 2)
	assert.Equal(t, DayStateCompleted, summary.Days[0].State())
	assert.Equal(t, DayStateInProgress, summary.Days[1].State())
}

func TestService_UpdateDayNotes(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 2),
	})

	// notes allowed before any exercise is done
	weight := 97.5
	dp, err := service.UpdateDayNotes(ctx, "user-1", 1, "felt good today", &weight)
	require.NoError(t, err)
	assert.Equal(t, "felt good today", dp.Notes)
	require.NotNil(t, dp.WeightCheck)
	assert.Equal(t, 97.5, *dp.WeightCheck)
	assert.Equal(t, DayStateNotStarted, dp.State())

	// completions keep the note
	result, err := service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	assert.Equal(t, "felt good today", result.Progress.Notes)

	// re-writing replaces the note and weight
	dp, err = service.UpdateDayNotes(ctx, "user-1", 1, "knees hurt", nil)
	require.NoError(t, err)
	assert.Equal(t, "knees hurt", dp.Notes)
	assert.Nil(t, dp.WeightCheck)
	assert.Equal(t, 1, dp.CompletedExercises)

	_, err = service.UpdateDayNotes(ctx, "user-1", 31, "nope", nil)
	assert.ErrorIs(t, err, exercises.ErrInvalidDay)
}

func TestService_RestartProgress(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(map[int][]exercises.Exercise{
		1: dayPlan(1, 1),
	})

	_, err := service.RecordCompletion(ctx, "user-1", 1, 101)
	require.NoError(t, err)
	_, err = service.RecordCompletion(ctx, "user-2", 1, 101)
	require.NoError(t, err)

	require.NoError(t, service.RestartProgress(ctx, "user-1"))

	summary, err := service.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Days)
	assert.Equal(t, 1, summary.CurrentDay)

	// other users untouched
	summary, err = service.GetSummary(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedDays)
}
