package exercises

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProfileMissing = errors.New("profile not found")

type prefsMock struct {
	goal       Goal
	difficulty Difficulty
	err        error
}

func (p *prefsMock) GetPreferences(_ context.Context, _ string) (Goal, Difficulty, error) {
	if p.err != nil {
		return "", "", p.err
	}
	return p.goal, p.difficulty, nil
}

func goalPtr(g Goal) *Goal {
	return &g
}

func TestResolver_ResolveDay_TierOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()

	// day 3 has a full spread of rows
	tier1, err := repo.Add(ctx, Exercise{
		DayNumber: 3, ExerciseOrder: 1, Title: "respiracao diafragmatica",
		Difficulty: DifficultyLight, TargetAudience: goalPtr(GoalBariatricPrep),
	})
	require.NoError(t, err)
	tier2, err := repo.Add(ctx, Exercise{
		DayNumber: 3, ExerciseOrder: 2, Title: "caminhada leve",
		Difficulty: DifficultyHeavy, TargetAudience: goalPtr(GoalBariatricPrep),
	})
	require.NoError(t, err)
	_, err = repo.Add(ctx, Exercise{
		DayNumber: 3, ExerciseOrder: 3, Title: "alongamento",
		Difficulty: DifficultyLight,
	})
	require.NoError(t, err)

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalBariatricPrep,
		difficulty: DifficultyLight,
	})

	// audience and difficulty both match one row
	resolved, err := resolver.ResolveDay(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, tier1.ID, resolved[0].ID)

	// no difficulty match within audience, falls back to audience only
	resolver = NewResolver(repo, &prefsMock{
		goal:       GoalBariatricPrep,
		difficulty: DifficultyMedium,
	})
	resolved, err = resolver.ResolveDay(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, tier1.ID, resolved[0].ID)
	assert.Equal(t, tier2.ID, resolved[1].ID)
}

func TestResolver_ResolveDay_AudienceAgnosticTier(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()

	// nothing targets lose_weight, only agnostic rows exist for day 5
	agnostic, err := repo.Add(ctx, Exercise{
		DayNumber: 5, ExerciseOrder: 1, Title: "mobilidade de quadril",
		Difficulty: DifficultyMedium,
	})
	require.NoError(t, err)
	_, err = repo.Add(ctx, Exercise{
		DayNumber: 5, ExerciseOrder: 2, Title: "prancha",
		Difficulty: DifficultyHeavy, TargetAudience: goalPtr(GoalMaintainWeight),
	})
	require.NoError(t, err)

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyMedium,
	})

	resolved, err := resolver.ResolveDay(ctx, "user-1", 5)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, agnostic.ID, resolved[0].ID)
}

func TestResolver_ResolveDay_LastTierTakesAnything(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()

	// single row on day 12: wrong audience, wrong difficulty
	only, err := repo.Add(ctx, Exercise{
		DayNumber: 12, ExerciseOrder: 1, Title: "agachamento na cadeira",
		Difficulty: DifficultyHeavy, TargetAudience: goalPtr(GoalMaintainWeight),
	})
	require.NoError(t, err)

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalBariatricIndicated,
		difficulty: DifficultyLight,
	})

	resolved, err := resolver.ResolveDay(ctx, "user-1", 12)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, only.ID, resolved[0].ID)
}

func TestResolver_ResolveDay_AgnosticWrongDifficulty(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()

	// day 8 only has audience-agnostic medium rows, so a heavy
	// lose_weight user gets them through the day-only fallback
	first, err := repo.Add(ctx, Exercise{
		DayNumber: 8, ExerciseOrder: 1, Title: "remada elastica",
		Difficulty: DifficultyMedium,
	})
	require.NoError(t, err)
	second, err := repo.Add(ctx, Exercise{
		DayNumber: 8, ExerciseOrder: 2, Title: "ponte de gluteos",
		Difficulty: DifficultyMedium,
	})
	require.NoError(t, err)

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyHeavy,
	})

	resolved, err := resolver.ResolveDay(ctx, "user-1", 8)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, first.ID, resolved[0].ID)
	assert.Equal(t, second.ID, resolved[1].ID)
}

func TestResolver_ResolveDay_NoContent(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(NewMockExercisesRepo(), &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyMedium,
	})

	resolved, err := resolver.ResolveDay(ctx, "user-1", 7)
	assert.ErrorIs(t, err, ErrNoContentForDay)
	assert.Empty(t, resolved)
}

func TestResolver_ResolveDay_InvalidDay(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(NewMockExercisesRepo(), &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyMedium,
	})

	for _, day := range []int{0, -1, ProgramDays + 1} {
		_, err := resolver.ResolveDay(ctx, "user-1", day)
		assert.ErrorIs(t, err, ErrInvalidDay)
	}
}

func TestResolver_ResolveDay_ProfileErrPassthrough(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(NewMockExercisesRepo(), &prefsMock{err: errProfileMissing})

	_, err := resolver.ResolveDay(ctx, "user-1", 1)
	assert.ErrorIs(t, err, errProfileMissing)
}

func TestResolver_ResolveDay_Cache(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()
	_, err := repo.Add(ctx, Exercise{
		DayNumber: 1, ExerciseOrder: 1, Title: "caminhada",
		Difficulty: DifficultyLight,
	})
	require.NoError(t, err)

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyLight,
	})

	resolved, err := resolver.ResolveDay(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	// repo breaks, cached plan still served
	repo.listForDayErr = errors.New("db gone")
	resolved, err = resolver.ResolveDay(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	resolver.InvalidateCache()
	_, err = resolver.ResolveDay(ctx, "user-1", 1)
	assert.Error(t, err)
}

func TestResolver_ResolveDay_Deterministic(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()
	for i := 5; i >= 1; i-- {
		_, err := repo.Add(ctx, Exercise{
			DayNumber: 2, ExerciseOrder: i, Title: "exercicio",
			Difficulty: DifficultyMedium,
		})
		require.NoError(t, err)
	}

	resolver := NewResolver(repo, &prefsMock{
		goal:       GoalLoseWeight,
		difficulty: DifficultyMedium,
	})

	first, err := resolver.ResolveDay(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i].ExerciseOrder, first[i-1].ExerciseOrder)
	}

	second, err := resolver.ResolveDay(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
