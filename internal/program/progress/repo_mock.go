package progress

import (
	"context"
	"sort"
	"time"
)

type completionKey struct {
	userID     string
	exerciseID int
}

type dayKey struct {
	userID    string
	dayNumber int
}

type repoMock struct {
	completions         map[completionKey]*Completion
	days                map[dayKey]*DayProgress
	nextID              int
	upsertCompletionErr error
}

func NewMockProgressRepo() *repoMock {
	return &repoMock{
		completions: make(map[completionKey]*Completion),
		days:        make(map[dayKey]*DayProgress),
		nextID:      1,
	}
}

func (r *repoMock) UpsertCompletion(_ context.Context, completion Completion) (*Completion, error) {
	if r.upsertCompletionErr != nil {
		return nil, r.upsertCompletionErr
	}
	key := completionKey{userID: completion.UserID, exerciseID: completion.ExerciseID}
	if existing, ok := r.completions[key]; ok {
		existing.DayNumber = completion.DayNumber
		existing.CompletedAt = completion.CompletedAt
		c := *existing
		return &c, nil
	}
	completion.ID = r.nextID
	r.nextID++
	r.completions[key] = &completion
	return &completion, nil
}

func (r *repoMock) ListCompletions(_ context.Context, userID string, dayNumber int) ([]Completion, error) {
	var completions []Completion
	for _, c := range r.completions {
		if c.UserID == userID && c.DayNumber == dayNumber {
			completions = append(completions, *c)
		}
	}
	sort.Slice(completions, func(i, j int) bool {
		return completions[i].CompletedAt.Before(completions[j].CompletedAt)
	})
	return completions, nil
}

func (r *repoMock) CountCompletions(ctx context.Context, userID string, dayNumber int) (int, error) {
	completions, err := r.ListCompletions(ctx, userID, dayNumber)
	if err != nil {
		return 0, err
	}
	return len(completions), nil
}

func (r *repoMock) GetDayProgress(_ context.Context, userID string, dayNumber int) (*DayProgress, error) {
	dp, ok := r.days[dayKey{userID: userID, dayNumber: dayNumber}]
	if !ok {
		return nil, ErrDayProgressNotFound
	}
	c := *dp
	return &c, nil
}

func (r *repoMock) UpsertDayProgress(_ context.Context, dp DayProgress) (*DayProgress, error) {
	key := dayKey{userID: dp.UserID, dayNumber: dp.DayNumber}
	if existing, ok := r.days[key]; ok {
		existing.CompletedExercises = dp.CompletedExercises
		existing.IsDayCompleted = existing.IsDayCompleted || dp.IsDayCompleted
		if existing.CompletionDate == nil {
			existing.CompletionDate = dp.CompletionDate
		}
		c := *existing
		return &c, nil
	}
	dp.ID = r.nextID
	r.nextID++
	if !dp.IsDayCompleted {
		dp.CompletionDate = nil
	}
	r.days[key] = &dp
	c := dp
	return &c, nil
}

func (r *repoMock) UpsertDayNotes(_ context.Context, userID string, dayNumber int, notes string, weightCheck *float64) error {
	key := dayKey{userID: userID, dayNumber: dayNumber}
	if existing, ok := r.days[key]; ok {
		existing.Notes = notes
		existing.WeightCheck = weightCheck
		return nil
	}
	r.days[key] = &DayProgress{
		ID:          r.nextID,
		UserID:      userID,
		DayNumber:   dayNumber,
		Notes:       notes,
		WeightCheck: weightCheck,
	}
	r.nextID++
	return nil
}

func (r *repoMock) ListDayProgress(_ context.Context, userID string) ([]DayProgress, error) {
	var days []DayProgress
	for _, dp := range r.days {
		if dp.UserID == userID {
			days = append(days, *dp)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].DayNumber < days[j].DayNumber
	})
	return days, nil
}

func (r *repoMock) DeleteAllForUser(_ context.Context, userID string) error {
	for key, c := range r.completions {
		if c.UserID == userID {
			delete(r.completions, key)
		}
	}
	for key, dp := range r.days {
		if dp.UserID == userID {
			delete(r.days, key)
		}
	}
	return nil
}

// completionTime helps tests assert timestamp refreshes.
func (r *repoMock) completionTime(userID string, exerciseID int) (time.Time, bool) {
	c, ok := r.completions[completionKey{userID: userID, exerciseID: exerciseID}]
	if !ok {
		return time.Time{}, false
	}
	return c.CompletedAt, true
}
