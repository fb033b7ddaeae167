package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `
	id, user_id, name, email, password_hash, age, height_cm, weight_kg,
	current_bmi, goal, preferred_difficulty, program_start_date, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, profile Profile) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var difficulty *string
	if profile.PreferredDifficulty != nil {
		d := string(*profile.PreferredDifficulty)
		difficulty = &d
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO user_profile
				(user_id, name, email, password_hash, age, height_cm, weight_kg,
				 current_bmi, goal, preferred_difficulty, program_start_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id;`,
		profile.UserID, profile.Name, profile.Email, profile.PasswordHash, profile.Age,
		profile.HeightCm, profile.WeightKg, profile.CurrentBMI, profile.Goal,
		difficulty, profile.ProgramStartDate, profile.CreatedAt,
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

	span.SetAttributes(attribute.Int("profile.id", id))

	profile.ID = id
	return &profile, nil
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.getbyuserid")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(
		ctx,
		`SELECT `+profileColumns+` FROM user_profile WHERE user_id = $1;`,
		userID,
	)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.getbyemail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(
		ctx,
		`SELECT `+profileColumns+` FROM user_profile WHERE email = $1;`,
		email,
	)
}

// GetPreferences returns the resolver inputs of a user: the goal and
// the preferred difficulty, defaulted when never picked.
func (r *Repo) GetPreferences(ctx context.Context, userID string) (_ exercises.Goal, _ exercises.Difficulty, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.getpreferences")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var goal string
	var difficulty *string
	err = r.db.QueryRow(
		ctx,
		`SELECT goal, preferred_difficulty FROM user_profile WHERE user_id = $1;`,
		userID,
	).Scan(&goal, &difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrProfileNotFound
		}
		return "", "", fmt.Errorf("query row: %w", err)
	}

	if difficulty == nil {
		return exercises.Goal(goal), DefaultDifficulty, nil
	}
	return exercises.Goal(goal), exercises.Difficulty(*difficulty), nil
}

func (r *Repo) UpdatePreferredDifficulty(ctx context.Context, userID string, difficulty exercises.Difficulty) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.updatedifficulty")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("difficulty", string(difficulty)))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE user_profile SET preferred_difficulty = $1 WHERE user_id = $2;`,
		difficulty, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repo) UpdateMeasurements(ctx context.Context, userID string, weightKg, bmi float64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.updatemeasurements")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE user_profile SET weight_kg = $1, current_bmi = $2 WHERE user_id = $3;`,
		weightKg, bmi, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// UpdateForRestart resets the program related fields of a profile.
func (r *Repo) UpdateForRestart(
	ctx context.Context,
	userID string,
	goal exercises.Goal,
	difficulty exercises.Difficulty,
	startDate time.Time,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.updateforrestart")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("goal", string(goal)))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE user_profile SET goal = $1, preferred_difficulty = $2, program_start_date = $3 WHERE user_id = $4;`,
		goal, difficulty, startDate, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*Profile, error) {
	var p Profile
	var difficulty *string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.PasswordHash, &p.Age,
		&p.HeightCm, &p.WeightKg, &p.CurrentBMI, &p.Goal, &difficulty,
		&p.ProgramStartDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}
	if difficulty != nil {
		d := exercises.Difficulty(*difficulty)
		p.PreferredDifficulty = &d
	}
	return &p, nil
}
