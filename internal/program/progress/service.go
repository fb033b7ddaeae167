package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrExerciseNotInDay = errors.New("exercise not part of the day plan")

type progressRepo interface {
	UpsertCompletion(ctx context.Context, completion Completion) (*Completion, error)
	ListCompletions(ctx context.Context, userID string, dayNumber int) ([]Completion, error)
	CountCompletions(ctx context.Context, userID string, dayNumber int) (int, error)
	GetDayProgress(ctx context.Context, userID string, dayNumber int) (*DayProgress, error)
	UpsertDayProgress(ctx context.Context, dp DayProgress) (*DayProgress, error)
	UpsertDayNotes(ctx context.Context, userID string, dayNumber int, notes string, weightCheck *float64) error
	ListDayProgress(ctx context.Context, userID string) ([]DayProgress, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}

type dayResolver interface {
	ResolveDay(ctx context.Context, userID string, day int) ([]exercises.Exercise, error)
}

type caloriesSource interface {
	TotalCaloriesForDays(ctx context.Context, days []int) (int, error)
}

// CompletionResult is what a single completion produced: the updated
// rollup plus the milestones crossed by it. Signals is empty when the
// completion changed nothing milestone-wise.
type CompletionResult struct {
	Progress       DayProgress `json:"progress"`
	TotalExercises int         `json:"totalExercises"`
	Signals        []Signal    `json:"signals,omitempty"`
}

// DayOverview is the full state of one program day for a user.
type DayOverview struct {
	DayNumber    int                  `json:"dayNumber"`
	Exercises    []exercises.Exercise `json:"exercises"`
	CompletedIDs []int                `json:"completedIds"`
	Progress     *DayProgress         `json:"progress,omitempty"`
	NoContent    bool                 `json:"noContent"`
}

// Summary is the whole-program dashboard view.
type Summary struct {
	Days             []DayProgress `json:"days"`
	CompletedDays    int           `json:"completedDays"`
	CurrentDay       int           `json:"currentDay"`
	TotalDays        int           `json:"totalDays"`
	CaloriesBurned   int           `json:"caloriesBurned"`
	ProgramCompleted bool          `json:"programCompleted"`
}

type Service struct {
	repo     progressRepo
	resolver dayResolver
	calories caloriesSource
	now      func() time.Time
}

func NewService(repo progressRepo, resolver dayResolver, calories caloriesSource) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		calories: calories,
		now:      time.Now,
	}
}

// RecordCompletion stores a completion and recomputes the day rollup
// from the completion rows. Completing the same exercise again is a
// no-op apart from a refreshed timestamp. The returned result carries
// milestone signals for the day and, on the final day, the program.
func (s *Service) RecordCompletion(ctx context.Context, userID string, day, exerciseID int) (_ *CompletionResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.service.recordcompletion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	dayPlan, err := s.resolver.ResolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	inPlan := false
	for _, e := range dayPlan {
		if e.ID == exerciseID {
			inPlan = true
			break
		}
	}
	if !inPlan {
		return nil, fmt.Errorf("%w: exercise %d, day %d", ErrExerciseNotInDay, exerciseID, day)
	}

	prev, err := s.repo.GetDayProgress(ctx, userID, day)
	if err != nil && !errors.Is(err, ErrDayProgressNotFound) {
		return nil, fmt.Errorf("get day progress: %w", err)
	}

	if _, err := s.repo.UpsertCompletion(ctx, Completion{
		UserID:      userID,
		ExerciseID:  exerciseID,
		DayNumber:   day,
		CompletedAt: s.now(),
	}); err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}

	count, err := s.repo.CountCompletions(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	dayCompleted := count >= len(dayPlan)
	var completionDate *time.Time
	if dayCompleted {
		now := s.now()
		completionDate = &now
	}

	stored, err := s.repo.UpsertDayProgress(ctx, DayProgress{
		UserID:             userID,
		DayNumber:          day,
		CompletedExercises: count,
		IsDayCompleted:     dayCompleted,
		CompletionDate:     completionDate,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert day progress: %w", err)
	}

	return &CompletionResult{
		Progress:       *stored,
		TotalExercises: len(dayPlan),
		Signals:        MilestoneSignals(prev, *stored),
	}, nil
}

// GetDayOverview returns the resolved plan plus completion state for
// one day. A day without catalog content is not an error here, the
// overview just comes back empty and flagged.
func (s *Service) GetDayOverview(ctx context.Context, userID string, day int) (_ *DayOverview, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.service.getdayoverview")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))

	overview := &DayOverview{
		DayNumber:    day,
		Exercises:    []exercises.Exercise{},
		CompletedIDs: []int{},
	}

	dayPlan, err := s.resolver.ResolveDay(ctx, userID, day)
	if err != nil {
		if !errors.Is(err, exercises.ErrNoContentForDay) {
			return nil, err
		}
		overview.NoContent = true
	}
	overview.Exercises = append(overview.Exercises, dayPlan...)

	completions, err := s.repo.ListCompletions(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	for _, c := range completions {
		overview.CompletedIDs = append(overview.CompletedIDs, c.ExerciseID)
	}

	dp, err := s.repo.GetDayProgress(ctx, userID, day)
	if err != nil && !errors.Is(err, ErrDayProgressNotFound) {
		return nil, fmt.Errorf("get day progress: %w", err)
	}
	overview.Progress = dp

	return overview, nil
}

// GetSummary builds the dashboard view of the whole program.
func (s *Service) GetSummary(ctx context.Context, userID string) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.service.getsummary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	days, err := s.repo.ListDayProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list day progress: %w", err)
	}
	if days == nil {
		days = []DayProgress{}
	}

	var completedDayNumbers []int
	programCompleted := false
	for _, dp := range days {
		if !dp.IsDayCompleted {
			continue
		}
		completedDayNumbers = append(completedDayNumbers, dp.DayNumber)
		if dp.DayNumber == FinalDay {
			programCompleted = true
		}
	}

	caloriesBurned, err := s.calories.TotalCaloriesForDays(ctx, completedDayNumbers)
	if err != nil {
		return nil, fmt.Errorf("total calories: %w", err)
	}

	currentDay := len(completedDayNumbers) + 1
	if currentDay > FinalDay {
		currentDay = FinalDay
	}

	return &Summary{
		Days:             days,
		CompletedDays:    len(completedDayNumbers),
		CurrentDay:       currentDay,
		TotalDays:        FinalDay,
		CaloriesBurned:   caloriesBurned,
		ProgramCompleted: programCompleted,
	}, nil
}

// UpdateDayNotes stores the free-text note and optional weight check
// of a day. The day does not need any completions yet.
func (s *Service) UpdateDayNotes(ctx context.Context, userID string, day int, notes string, weightCheck *float64) (_ *DayProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.service.updatedaynotes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))

	if day < 1 || day > FinalDay {
		return nil, exercises.ErrInvalidDay
	}

	if err := s.repo.UpsertDayNotes(ctx, userID, day, notes, weightCheck); err != nil {
		return nil, fmt.Errorf("upsert day notes: %w", err)
	}

	dp, err := s.repo.GetDayProgress(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("get day progress: %w", err)
	}
	return dp, nil
}

// RestartProgress drops all progress of a user so the program can
// start from day one again.
func (s *Service) RestartProgress(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.service.restart")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.repo.DeleteAllForUser(ctx, userID)
}
