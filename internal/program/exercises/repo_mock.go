package exercises

import (
	"context"
	"sort"
)

type repoMock struct {
	exercises map[int]*Exercise
	nextID    int

	listForDayErr error
}

func NewMockExercisesRepo() *repoMock {
	return &repoMock{
		exercises: make(map[int]*Exercise),
		nextID:    1,
	}
}

func (r *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	exercise.ID = r.nextID
	r.nextID++
	r.exercises[exercise.ID] = &exercise
	return &exercise, nil
}

func (r *repoMock) Update(_ context.Context, exercise *Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return ErrExerciseNotFound
	}
	r.exercises[exercise.ID] = exercise
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Exercise, error) {
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	if _, ok := r.exercises[id]; !ok {
		return ErrExerciseNotFound
	}
	delete(r.exercises, id)
	return nil
}

func (r *repoMock) List(_ context.Context, params ListParams) ([]Exercise, error) {
	var exercises []Exercise
	for _, e := range r.exercises {
		if params.DayNumber != 0 && e.DayNumber != params.DayNumber {
			continue
		}
		if params.Difficulty != "" && e.Difficulty != params.Difficulty {
			continue
		}
		if params.Audience != "" && (e.TargetAudience == nil || *e.TargetAudience != params.Audience) {
			continue
		}
		exercises = append(exercises, *e)
	}
	sort.Slice(exercises, func(i, j int) bool {
		if exercises[i].DayNumber != exercises[j].DayNumber {
			return exercises[i].DayNumber < exercises[j].DayNumber
		}
		return exercises[i].ExerciseOrder < exercises[j].ExerciseOrder
	})
	return exercises, nil
}

func (r *repoMock) ListForDay(_ context.Context, params DayQueryParams) ([]Exercise, error) {
	if r.listForDayErr != nil {
		return nil, r.listForDayErr
	}
	var exercises []Exercise
	for _, e := range r.exercises {
		if e.DayNumber != params.DayNumber {
			continue
		}
		if params.Difficulty != "" && e.Difficulty != params.Difficulty {
			continue
		}
		if params.Audience != "" && (e.TargetAudience == nil || *e.TargetAudience != params.Audience) {
			continue
		}
		if params.AudienceAgnosticOnly && e.TargetAudience != nil {
			continue
		}
		exercises = append(exercises, *e)
	}
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].ExerciseOrder < exercises[j].ExerciseOrder
	})
	return exercises, nil
}

func (r *repoMock) TotalCaloriesForDays(_ context.Context, days []int) (int, error) {
	daysSet := make(map[int]bool)
	for _, d := range days {
		daysSet[d] = true
	}
	var total int
	for _, e := range r.exercises {
		if daysSet[e.DayNumber] {
			total += e.CaloriesEstimate
		}
	}
	return total, nil
}
