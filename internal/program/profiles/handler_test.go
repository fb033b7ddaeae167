package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bariatricaemcasa/backend/internal/auth"
	"github.com/bariatricaemcasa/backend/internal/program/exercises"
	"github.com/bariatricaemcasa/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfilesTestRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/profile", handler.HandleCreate).Methods("POST")
	r.HandleFunc("/profile", handler.HandleGet).Methods("GET")
	r.HandleFunc("/profile/difficulty", handler.HandleUpdateDifficulty).Methods("PUT")
	r.HandleFunc("/profile/measurements", handler.HandleUpdateMeasurements).Methods("PUT")
	r.HandleFunc("/profile/restart", handler.HandleRestart).Methods("POST")
	return r
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_Create(t *testing.T) {
	service := NewService(NewMockProfilesRepo(), &wiperMock{})
	router := newProfilesTestRouter(NewHandler(service, metrics.NewTestManager()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, "POST", "/profile", createParams()))
	require.Equal(t, http.StatusCreated, rr.Code)

	var profile Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.NotEmpty(t, profile.UserID)
	assert.Empty(t, profile.PasswordHash)

	// duplicate email
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, "POST", "/profile", createParams()))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_Create_Invalid(t *testing.T) {
	service := NewService(NewMockProfilesRepo(), &wiperMock{})
	router := newProfilesTestRouter(NewHandler(service, metrics.NewTestManager()))

	for name, mutate := range map[string]func(*CreateProfileParams){
		"empty name":     func(p *CreateProfileParams) { p.Name = "" },
		"empty email":    func(p *CreateProfileParams) { p.Email = "" },
		"empty password": func(p *CreateProfileParams) { p.Password = "" },
		"bad goal":       func(p *CreateProfileParams) { p.Goal = "get_swole" },
		"zero height":    func(p *CreateProfileParams) { p.HeightCm = 0 },
		"zero weight":    func(p *CreateProfileParams) { p.WeightKg = 0 },
	} {
		params := createParams()
		mutate(&params)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, jsonRequest(t, "POST", "/profile", params))
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
}

func TestHandler_GetAndUpdate(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMockProfilesRepo(), &wiperMock{})
	router := newProfilesTestRouter(NewHandler(service, metrics.NewTestManager()))

	profile, err := service.Create(ctx, createParams())
	require.NoError(t, err)

	// get without user context
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// get as the user
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(httptest.NewRequest("GET", "/profile", nil), profile.UserID))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, profile.UserID, got.UserID)

	// unknown user, onboarding not finished
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(httptest.NewRequest("GET", "/profile", nil), "ghost"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redirect":"onboarding"`)

	// difficulty update
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(
		jsonRequest(t, "PUT", "/profile/difficulty", UpdateDifficultyRequest{Difficulty: exercises.DifficultyHeavy}),
		profile.UserID,
	))
	require.Equal(t, http.StatusOK, rr.Code)
	updated, err := service.Get(ctx, profile.UserID)
	require.NoError(t, err)
	assert.Equal(t, exercises.DifficultyHeavy, updated.EffectiveDifficulty())

	// invalid difficulty
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(
		jsonRequest(t, "PUT", "/profile/difficulty", UpdateDifficultyRequest{Difficulty: "brutal"}),
		profile.UserID,
	))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// remeasurement
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(
		jsonRequest(t, "PUT", "/profile/measurements", UpdateMeasurementsRequest{WeightKg: 90}),
		profile.UserID,
	))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.InDelta(t, 33.1, got.CurrentBMI, 0.01)
}

func TestHandler_Restart(t *testing.T) {
	ctx := context.Background()
	wiper := &wiperMock{}
	service := NewService(NewMockProfilesRepo(), wiper)
	metricsManager := metrics.NewTestManager()
	router := newProfilesTestRouter(NewHandler(service, metricsManager))

	profile, err := service.Create(ctx, createParams())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(
		jsonRequest(t, "POST", "/profile/restart", RestartParams{
			Goal:                exercises.GoalMaintainWeight,
			PreferredDifficulty: exercises.DifficultyLight,
		}),
		profile.UserID,
	))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{profile.UserID}, wiper.wiped)
	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterProgramRestarts), 0.01)

	// invalid goal
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(
		jsonRequest(t, "POST", "/profile/restart", RestartParams{
			Goal:                "get_swole",
			PreferredDifficulty: exercises.DifficultyLight,
		}),
		profile.UserID,
	))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
