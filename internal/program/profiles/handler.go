package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/bariatricaemcasa/backend/internal/auth"
	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/telemetry/metrics"
	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"
	"github.com/bariatricaemcasa/backend/pkg"
)

type profilesService interface {
	Create(ctx context.Context, params CreateProfileParams) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
	UpdatePreferredDifficulty(ctx context.Context, userID string, difficulty exercises.Difficulty) error
	UpdateMeasurements(ctx context.Context, userID string, weightKg float64) (*Profile, error)
	Restart(ctx context.Context, userID string, params RestartParams) error
}

type UpdateDifficultyRequest struct {
	Difficulty exercises.Difficulty `json:"difficulty"`
}

type UpdateMeasurementsRequest struct {
	WeightKg float64 `json:"weightKg"`
}

type Handler struct {
	service        profilesService
	metricsManager *metrics.Manager
}

func NewHandler(service profilesService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

// WriteProfileNotFound sends a 404 with a hint that the client should
// send the user back through onboarding.
func WriteProfileNotFound(w http.ResponseWriter) {
	pkg.WriteResponseBytes(
		w, pkg.ContentType.JSON,
		[]byte(`{"error":"profile not found","redirect":"onboarding"}`),
		http.StatusNotFound,
	)
}

// HandleCreate finishes onboarding: it registers the profile and makes
// the program start on day one.
func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params CreateProfileParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("create profile, unmarshal json params: %s", err)
		http.Error(w, "create profile failed", http.StatusBadRequest)
		return
	}

	if params.Name == "" || params.Email == "" || params.Password == "" {
		http.Error(w, "error, name, email or password empty", http.StatusBadRequest)
		return
	}
	if !params.Goal.IsValid() {
		http.Error(w, "error, invalid goal", http.StatusBadRequest)
		return
	}
	if params.PreferredDifficulty != nil && !params.PreferredDifficulty.IsValid() {
		http.Error(w, "error, invalid difficulty", http.StatusBadRequest)
		return
	}
	if params.HeightCm <= 0 || params.WeightKg <= 0 {
		http.Error(w, "error, invalid measurements", http.StatusBadRequest)
		return
	}

	profile, err := handler.service.Create(ctx, params)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		log.Errorf("failed to create profile: %s", err)
		http.Error(w, "error, failed to create profile", http.StatusInternalServerError)
		return
	}

	log.Debugf("profile created for user %s", profile.UserID)

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal created profile: %s", err)
		http.Error(w, "error, failed to create profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusCreated)
}

// HandleGet serves the profile of the logged in user. A missing
// profile means onboarding never finished.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	profile, err := handler.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			WriteProfileNotFound(w)
			return
		}
		log.Errorf("failed to get profile for user %s: %s", userID, err)
		http.Error(w, "error, failed to get profile", http.StatusInternalServerError)
		return
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "error, failed to get profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, profileJson)
}

func (handler *Handler) HandleUpdateDifficulty(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.updatedifficulty")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req UpdateDifficultyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "update difficulty failed", http.StatusBadRequest)
		return
	}
	if !req.Difficulty.IsValid() {
		http.Error(w, "error, invalid difficulty", http.StatusBadRequest)
		return
	}

	if err := handler.service.UpdatePreferredDifficulty(ctx, userID, req.Difficulty); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			WriteProfileNotFound(w)
			return
		}
		log.Errorf("failed to update difficulty for user %s: %s", userID, err)
		http.Error(w, "error, failed to update difficulty", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

// HandleUpdateMeasurements stores the remeasured weight, typically
// right after the final program day, and returns the refreshed BMI.
func (handler *Handler) HandleUpdateMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.updatemeasurements")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req UpdateMeasurementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "update measurements failed", http.StatusBadRequest)
		return
	}
	if req.WeightKg <= 0 {
		http.Error(w, "error, invalid weight", http.StatusBadRequest)
		return
	}

	profile, err := handler.service.UpdateMeasurements(ctx, userID, req.WeightKg)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			WriteProfileNotFound(w)
			return
		}
		log.Errorf("failed to update measurements for user %s: %s", userID, err)
		http.Error(w, "error, failed to update measurements", http.StatusInternalServerError)
		return
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "error, failed to update measurements", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, profileJson)
}

// HandleRestart starts the program over: profile program fields reset,
// all progress wiped.
func (handler *Handler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.restart")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var params RestartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "restart failed", http.StatusBadRequest)
		return
	}
	if !params.Goal.IsValid() {
		http.Error(w, "error, invalid goal", http.StatusBadRequest)
		return
	}
	if !params.PreferredDifficulty.IsValid() {
		http.Error(w, "error, invalid difficulty", http.StatusBadRequest)
		return
	}

	if err := handler.service.Restart(ctx, userID, params); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			WriteProfileNotFound(w)
			return
		}
		log.Errorf("failed to restart program for user %s: %s", userID, err)
		http.Error(w, "error, failed to restart program", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterProgramRestarts.Inc()
	log.Infof("user %s restarted the program", userID)

	pkg.WriteTextResponseOK(w, "restarted")
}
