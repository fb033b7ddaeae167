package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bariatricaemcasa/backend/internal/auth"
	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"
	"github.com/bariatricaemcasa/backend/pkg"
)

var ErrEmailTaken = errors.New("email already registered")

const userIDLength = 16

type profilesRepo interface {
	Add(ctx context.Context, profile Profile) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdatePreferredDifficulty(ctx context.Context, userID string, difficulty exercises.Difficulty) error
	UpdateMeasurements(ctx context.Context, userID string, weightKg, bmi float64) error
	UpdateForRestart(ctx context.Context, userID string, goal exercises.Goal, difficulty exercises.Difficulty, startDate time.Time) error
}

type progressWiper interface {
	RestartProgress(ctx context.Context, userID string) error
}

type CreateProfileParams struct {
	Name                string                `json:"name"`
	Email               string                `json:"email"`
	Password            string                `json:"password"`
	Age                 int                   `json:"age"`
	HeightCm            float64               `json:"heightCm"`
	WeightKg            float64               `json:"weightKg"`
	Goal                exercises.Goal        `json:"goal"`
	PreferredDifficulty *exercises.Difficulty `json:"preferredDifficulty,omitempty"`
}

type RestartParams struct {
	Goal                exercises.Goal       `json:"goal"`
	PreferredDifficulty exercises.Difficulty `json:"preferredDifficulty"`
}

type Service struct {
	repo  profilesRepo
	wiper progressWiper
	now   func() time.Time
}

func NewService(repo profilesRepo, wiper progressWiper) *Service {
	return &Service{
		repo:  repo,
		wiper: wiper,
		now:   time.Now,
	}
}

// Create registers a new user profile at the end of onboarding. The
// program starts on the creation day.
func (s *Service) Create(ctx context.Context, params CreateProfileParams) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profiles.service.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	passwordHash, err := pkg.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := pkg.GenerateRandomString(userIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now()
	profile, err := s.repo.Add(ctx, Profile{
		UserID:              userID,
		Name:                params.Name,
		Email:               strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash:        passwordHash,
		Age:                 params.Age,
		HeightCm:            params.HeightCm,
		WeightKg:            params.WeightKg,
		CurrentBMI:          CalculateBMI(params.WeightKg, params.HeightCm),
		Goal:                params.Goal,
		PreferredDifficulty: params.PreferredDifficulty,
		ProgramStartDate:    now,
		CreatedAt:           now,
	})
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("add profile: %w", err)
	}

	return profile, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// VerifyCredentials checks a login attempt and returns the user ID on
// success. Unknown emails and wrong passwords are indistinguishable to
// the caller.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profiles.service.verifycredentials")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", auth.ErrWrongCredentials
		}
		return "", fmt.Errorf("get by email: %w", err)
	}

	if !pkg.CheckPasswordHash(password, profile.PasswordHash) {
		return "", auth.ErrWrongCredentials
	}

	return profile.UserID, nil
}

func (s *Service) UpdatePreferredDifficulty(ctx context.Context, userID string, difficulty exercises.Difficulty) error {
	return s.repo.UpdatePreferredDifficulty(ctx, userID, difficulty)
}

// UpdateMeasurements stores a new weight and recomputes the BMI from
// the stored height. Used by the final day remeasurement.
func (s *Service) UpdateMeasurements(ctx context.Context, userID string, weightKg float64) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profiles.service.updatemeasurements")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	bmi := CalculateBMI(weightKg, profile.HeightCm)
	if err := s.repo.UpdateMeasurements(ctx, userID, weightKg, bmi); err != nil {
		return nil, fmt.Errorf("update measurements: %w", err)
	}

	profile.WeightKg = weightKg
	profile.CurrentBMI = bmi
	return profile, nil
}

// Restart resets the profile's program fields and wipes all recorded
// progress, so day one starts fresh.
func (s *Service) Restart(ctx context.Context, userID string, params RestartParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profiles.service.restart")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.repo.UpdateForRestart(
		ctx, userID, params.Goal, params.PreferredDifficulty, s.now(),
	); err != nil {
		return err
	}

	return s.wiper.RestartProgress(ctx, userID)
}
