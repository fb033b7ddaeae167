package profiles

import (
	"context"
	"time"

	"github.com/bariatricaemcasa/backend/internal/program/exercises"

	"github.com/jackc/pgx/v5/pgconn"
)

type repoMock struct {
	profiles map[string]*Profile
	nextID   int
}

func NewMockProfilesRepo() *repoMock {
	return &repoMock{
		profiles: make(map[string]*Profile),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, profile Profile) (*Profile, error) {
	for _, p := range r.profiles {
		if p.Email == profile.Email {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	profile.ID = r.nextID
	r.nextID++
	r.profiles[profile.UserID] = &profile
	return &profile, nil
}

func (r *repoMock) GetByUserID(_ context.Context, userID string) (*Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*Profile, error) {
	for _, p := range r.profiles {
		if p.Email == email {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *repoMock) GetPreferences(ctx context.Context, userID string) (exercises.Goal, exercises.Difficulty, error) {
	p, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return p.Goal, p.EffectiveDifficulty(), nil
}

func (r *repoMock) UpdatePreferredDifficulty(_ context.Context, userID string, difficulty exercises.Difficulty) error {
	p, ok := r.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.PreferredDifficulty = &difficulty
	return nil
}

func (r *repoMock) UpdateMeasurements(_ context.Context, userID string, weightKg, bmi float64) error {
	p, ok := r.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.WeightKg = weightKg
	p.CurrentBMI = bmi
	return nil
}

func (r *repoMock) UpdateForRestart(
	_ context.Context,
	userID string,
	goal exercises.Goal,
	difficulty exercises.Difficulty,
	startDate time.Time,
) error {
	p, ok := r.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.Goal = goal
	p.PreferredDifficulty = &difficulty
	p.ProgramStartDate = startDate
	return nil
}
