package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"
	"github.com/bariatricaemcasa/backend/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrDayProgressNotFound = errors.New("day progress not found")

	// ErrExerciseGone marks a completion referencing an exercise that
	// was deleted from the catalog after the day plan was resolved.
	ErrExerciseGone = errors.New("exercise no longer in the catalog")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// UpsertCompletion records a completion, or refreshes its timestamp if
// the user already completed that exercise. One row per user and
// exercise, guaranteed by the unique constraint.
func (r *Repo) UpsertCompletion(ctx context.Context, completion Completion) (_ *Completion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.upsertcompletion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", completion.ExerciseID))
	span.SetAttributes(attribute.Int("day", completion.DayNumber))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise_completion
				(user_id, exercise_id, day_number, completed_at)
				VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, exercise_id) DO UPDATE SET
				day_number = EXCLUDED.day_number,
				completed_at = EXCLUDED.completed_at
			RETURNING id;`,
		completion.UserID, completion.ExerciseID, completion.DayNumber, completion.CompletedAt,
	)
	if err != nil {
		return nil, completionWriteError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, completionWriteError(err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, completionWriteError(err)
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	completion.ID = id
	return &completion, nil
}

// completionWriteError maps a foreign key violation on the exercise id
// to ErrExerciseGone. The plan cache can serve an exercise for a short
// while after an admin deleted it.
func completionWriteError(err error) error {
	if pkg.IsForeignKeyViolationError(err) {
		return fmt.Errorf("%w: %s", ErrExerciseGone, err)
	}
	return err
}

func (r *Repo) ListCompletions(ctx context.Context, userID string, dayNumber int) (_ []Completion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listcompletions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", dayNumber))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, exercise_id, day_number, completed_at
			FROM exercise_completion
			WHERE user_id = $1 AND day_number = $2
			ORDER BY completed_at;`,
		userID, dayNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var completions []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.ExerciseID, &c.DayNumber, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, nil
}

// CountCompletions recounts a user's completions for a day straight
// from the completion rows. The day rollup is always recomputed from
// this count, never incremented.
func (r *Repo) CountCompletions(ctx context.Context, userID string, dayNumber int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.countcompletions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", dayNumber))

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM exercise_completion WHERE user_id = $1 AND day_number = $2;`,
		userID, dayNumber,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("query row: %w", err)
	}

	return count, nil
}

func (r *Repo) GetDayProgress(ctx context.Context, userID string, dayNumber int) (_ *DayProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.getdayprogress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", dayNumber))

	var dp DayProgress
	err = r.db.QueryRow(
		ctx,
		`
			SELECT id, user_id, day_number, completed_exercises, is_day_completed,
				completion_date, COALESCE(notes, ''), weight_check
			FROM daily_progress
			WHERE user_id = $1 AND day_number = $2;`,
		userID, dayNumber,
	).Scan(
		&dp.ID, &dp.UserID, &dp.DayNumber, &dp.CompletedExercises, &dp.IsDayCompleted,
		&dp.CompletionDate, &dp.Notes, &dp.WeightCheck,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDayProgressNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &dp, nil
}

// UpsertDayProgress writes the recomputed rollup for a user's day.
// A completed day stays completed, and the first completion date is
// kept on repeated writes.
func (r *Repo) UpsertDayProgress(ctx context.Context, dp DayProgress) (_ *DayProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.upsertdayprogress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", dp.DayNumber))
	span.SetAttributes(attribute.Bool("completed", dp.IsDayCompleted))

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO daily_progress
				(user_id, day_number, completed_exercises, is_day_completed, completion_date)
				VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, day_number) DO UPDATE SET
				completed_exercises = EXCLUDED.completed_exercises,
				is_day_completed = daily_progress.is_day_completed OR EXCLUDED.is_day_completed,
				completion_date = COALESCE(daily_progress.completion_date, EXCLUDED.completion_date)
			RETURNING id, is_day_completed, completion_date, COALESCE(notes, ''), weight_check;`,
		dp.UserID, dp.DayNumber, dp.CompletedExercises, dp.IsDayCompleted, dp.CompletionDate,
	).Scan(&dp.ID, &dp.IsDayCompleted, &dp.CompletionDate, &dp.Notes, &dp.WeightCheck)
	if err != nil {
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &dp, nil
}

// UpsertDayNotes stores the free-text note and optional weight check of
// a day without touching the completion rollup.
func (r *Repo) UpsertDayNotes(ctx context.Context, userID string, dayNumber int, notes string, weightCheck *float64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.upsertdaynotes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", dayNumber))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO daily_progress
				(user_id, day_number, completed_exercises, is_day_completed, notes, weight_check)
				VALUES ($1, $2, 0, FALSE, $3, $4)
			ON CONFLICT (user_id, day_number) DO UPDATE SET
				notes = EXCLUDED.notes,
				weight_check = EXCLUDED.weight_check;`,
		userID, dayNumber, notes, weightCheck,
	)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// ListDayProgress returns all rollup rows of a user, ordered by day.
func (r *Repo) ListDayProgress(ctx context.Context, userID string) (_ []DayProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listdayprogress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, user_id, day_number, completed_exercises, is_day_completed,
				completion_date, COALESCE(notes, ''), weight_check
			FROM daily_progress
			WHERE user_id = $1
			ORDER BY day_number;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var days []DayProgress
	for rows.Next() {
		var dp DayProgress
		if err := rows.Scan(
			&dp.ID, &dp.UserID, &dp.DayNumber, &dp.CompletedExercises,
			&dp.IsDayCompleted, &dp.CompletionDate, &dp.Notes, &dp.WeightCheck,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		days = append(days, dp)
	}
	return days, nil
}

// DeleteAllForUser wipes all completions and rollups of a user in one
// transaction. Used by program restart.
func (r *Repo) DeleteAllForUser(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.deleteallforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`DELETE FROM exercise_completion WHERE user_id = $1;`,
			userID,
		); err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		if _, err := tx.Exec(
			ctx,
			`DELETE FROM daily_progress WHERE user_id = $1;`,
			userID,
		); err != nil {
			return fmt.Errorf("delete daily progress: %w", err)
		}
		return nil
	})
}
