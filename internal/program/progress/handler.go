package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/bariatricaemcasa/backend/internal/auth"
	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/program/profiles"
	"github.com/bariatricaemcasa/backend/internal/telemetry/metrics"
	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"
	"github.com/bariatricaemcasa/backend/pkg"
)

type progressService interface {
	RecordCompletion(ctx context.Context, userID string, day, exerciseID int) (*CompletionResult, error)
	GetDayOverview(ctx context.Context, userID string, day int) (*DayOverview, error)
	GetSummary(ctx context.Context, userID string) (*Summary, error)
	UpdateDayNotes(ctx context.Context, userID string, day int, notes string, weightCheck *float64) (*DayProgress, error)
}

type CompleteExerciseRequest struct {
	ExerciseID int `json:"exerciseId"`
}

type DayNotesRequest struct {
	Notes       string   `json:"notes"`
	WeightCheck *float64 `json:"weightCheck,omitempty"`
}

type Handler struct {
	service        progressService
	metricsManager *metrics.Manager
}

func NewHandler(service progressService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

// HandleGetDay serves the day plan together with the user's completion
// state for it.
func (handler *Handler) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.getday")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	day, err := dayFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	overview, err := handler.service.GetDayOverview(ctx, userID, day)
	if err != nil {
		handler.writeProgressError(w, day, err)
		return
	}

	overviewJson, err := json.Marshal(overview)
	if err != nil {
		log.Errorf("failed to marshal day %d overview: %s", day, err)
		http.Error(w, "error, failed to get day", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, overviewJson)
}

// HandleCompleteExercise records one completed exercise and returns
// the updated day rollup plus any milestones crossed.
func (handler *Handler) HandleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.complete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	day, err := dayFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CompleteExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("complete exercise, unmarshal json params: %s", err)
		http.Error(w, "complete exercise failed", http.StatusBadRequest)
		return
	}
	if req.ExerciseID <= 0 {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	result, err := handler.service.RecordCompletion(ctx, userID, day, req.ExerciseID)
	if err != nil {
		handler.writeProgressError(w, day, err)
		return
	}

	handler.metricsManager.CounterExerciseCompletions.Inc()
	for _, signal := range result.Signals {
		switch signal {
		case SignalDayCompleted:
			log.Debugf("user %s completed day %d", userID, day)
			handler.metricsManager.CounterDaysCompleted.Inc()
		case SignalProgramCompleted:
			log.Infof("user %s completed the program", userID)
			handler.metricsManager.CounterProgramsCompleted.Inc()
		}
	}

	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("failed to marshal completion result: %s", err)
		http.Error(w, "complete exercise failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resultJson)
}

// HandleUpdateDayNotes stores the note and optional weight check of a
// program day.
func (handler *Handler) HandleUpdateDayNotes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.daynotes")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	day, err := dayFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req DayNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update day notes, unmarshal json params: %s", err)
		http.Error(w, "update day notes failed", http.StatusBadRequest)
		return
	}

	dp, err := handler.service.UpdateDayNotes(ctx, userID, day, req.Notes, req.WeightCheck)
	if err != nil {
		handler.writeProgressError(w, day, err)
		return
	}

	dpJson, err := json.Marshal(dp)
	if err != nil {
		log.Errorf("failed to marshal day %d notes: %s", day, err)
		http.Error(w, "update day notes failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, dpJson)
}

// HandleGetSummary serves the program dashboard.
func (handler *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.summary")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	summary, err := handler.service.GetSummary(ctx, userID)
	if err != nil {
		log.Errorf("get summary for user %s: %s", userID, err)
		http.Error(w, "error, failed to get summary", http.StatusInternalServerError)
		return
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal summary: %s", err)
		http.Error(w, "error, failed to get summary", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, summaryJson)
}

func (handler *Handler) writeProgressError(w http.ResponseWriter, day int, err error) {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound):
		profiles.WriteProfileNotFound(w)
	case errors.Is(err, exercises.ErrInvalidDay):
		http.Error(w, "error, invalid day", http.StatusBadRequest)
	case errors.Is(err, exercises.ErrNoContentForDay):
		http.Error(w, "no content for day", http.StatusNotFound)
	case errors.Is(err, ErrExerciseNotInDay):
		http.Error(w, "exercise not part of the day plan", http.StatusBadRequest)
	case errors.Is(err, ErrExerciseGone):
		http.Error(w, "exercise no longer in the catalog", http.StatusBadRequest)
	default:
		log.Errorf("progress request for day %d: %s", day, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func dayFromRequest(r *http.Request) (int, error) {
	dayStr := mux.Vars(r)["day"]
	if dayStr == "" {
		return 0, errors.New("error, day empty")
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return 0, errors.New("error, day NaN")
	}
	return day, nil
}
