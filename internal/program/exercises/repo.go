package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrExerciseNotFound = errors.New("exercise not found")

// DayQueryParams narrows a day's exercise set. Zero values of
// Difficulty and Audience mean "do not filter on this column".
// AudienceAgnosticOnly keeps only rows without a target audience.
type DayQueryParams struct {
	DayNumber            int
	Difficulty           Difficulty
	Audience             Goal
	AudienceAgnosticOnly bool
}

type ListParams struct {
	DayNumber  int
	Difficulty Difficulty
	Audience   Goal
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var audience *string
	if exercise.TargetAudience != nil {
		a := string(*exercise.TargetAudience)
		audience = &a
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO exercise
				(day_number, exercise_order, title, description, instructions,
				 duration_minutes, calories_estimate, difficulty, target_audience,
				 video_id, image_url, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id;`,
		exercise.DayNumber, exercise.ExerciseOrder, exercise.Title, exercise.Description,
		exercise.Instructions, exercise.DurationMinutes, exercise.CaloriesEstimate,
		exercise.Difficulty, audience, exercise.VideoID, exercise.ImageURL, exercise.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", id))

	exercise.ID = id
	return &exercise, nil
}

func (r *Repo) Update(ctx context.Context, exercise *Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", exercise.ID))

	var audience *string
	if exercise.TargetAudience != nil {
		a := string(*exercise.TargetAudience)
		audience = &a
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exercise SET
			day_number = $1, exercise_order = $2, title = $3, description = $4,
			instructions = $5, duration_minutes = $6, calories_estimate = $7,
			difficulty = $8, target_audience = $9, video_id = $10, image_url = $11
		WHERE id = $12;`,
		exercise.DayNumber, exercise.ExerciseOrder, exercise.Title, exercise.Description,
		exercise.Instructions, exercise.DurationMinutes, exercise.CaloriesEstimate,
		exercise.Difficulty, audience, exercise.VideoID, exercise.ImageURL, exercise.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, day_number, exercise_order, title, description, instructions,
				duration_minutes, calories_estimate, difficulty, target_audience,
				video_id, image_url, created_at
			FROM exercise
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}

	return &exercises[0], nil
}

// List returns catalog exercises, optionally narrowed by day, difficulty
// and target audience, ordered by day and position within the day.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day_number", params.DayNumber))
	span.SetAttributes(attribute.String("difficulty", string(params.Difficulty)))
	span.SetAttributes(attribute.String("audience", string(params.Audience)))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, day_number, exercise_order, title, description, instructions,
				duration_minutes, calories_estimate, difficulty, target_audience,
				video_id, image_url, created_at
			FROM exercise
				WHERE ($1::int = 0 OR day_number = $1)
				AND ($2::text = '' OR difficulty = $2)
				AND ($3::text = '' OR target_audience = $3)
			ORDER BY day_number, exercise_order;`,
		params.DayNumber, string(params.Difficulty), string(params.Audience),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	return exercises, nil
}

// ListForDay returns the exercises of a single program day in their
// in-day order, filtered per params. Used by the resolver tiers.
func (r *Repo) ListForDay(ctx context.Context, params DayQueryParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listforday")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day_number", params.DayNumber))
	span.SetAttributes(attribute.String("difficulty", string(params.Difficulty)))
	span.SetAttributes(attribute.String("audience", string(params.Audience)))
	span.SetAttributes(attribute.Bool("audience-agnostic-only", params.AudienceAgnosticOnly))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, day_number, exercise_order, title, description, instructions,
				duration_minutes, calories_estimate, difficulty, target_audience,
				video_id, image_url, created_at
			FROM exercise
				WHERE day_number = $1
				AND ($2::text = '' OR difficulty = $2)
				AND ($3::text = '' OR target_audience = $3)
				AND ($4::boolean IS FALSE OR target_audience IS NULL)
			ORDER BY exercise_order;`,
		params.DayNumber, string(params.Difficulty), string(params.Audience),
		params.AudienceAgnosticOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	return exercises, nil
}

// TotalCaloriesForDays sums the calorie estimates of all exercises
// belonging to the given program days.
func (r *Repo) TotalCaloriesForDays(ctx context.Context, days []int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.totalcalories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", len(days)))

	if len(days) == 0 {
		return 0, nil
	}

	var total int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(calories_estimate), 0) FROM exercise WHERE day_number = ANY($1);`,
		days,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("query row: %w", err)
	}

	return total, nil
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		var audience *string
		if err := rows.Scan(
			&e.ID, &e.DayNumber, &e.ExerciseOrder, &e.Title, &e.Description,
			&e.Instructions, &e.DurationMinutes, &e.CaloriesEstimate, &e.Difficulty,
			&audience, &e.VideoID, &e.ImageURL, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if audience != nil {
			g := Goal(*audience)
			e.TargetAudience = &g
		}
		exercises = append(exercises, e)
	}
	return exercises, nil
}
