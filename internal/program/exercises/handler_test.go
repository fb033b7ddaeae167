package exercises

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidatorMock struct {
	calls int
}

func (i *invalidatorMock) InvalidateCache() {
	i.calls++
}

func newTestRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/exercises", handler.HandleList).Methods("GET")
	r.HandleFunc("/exercises", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/exercises/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/exercises/{id}", handler.HandleUpdate).Methods("PUT")
	r.HandleFunc("/exercises/{id}", handler.HandleDelete).Methods("DELETE")
	return r
}

func TestHandler_Add(t *testing.T) {
	repo := NewMockExercisesRepo()
	invalidator := &invalidatorMock{}
	router := newTestRouter(NewHandler(repo, invalidator))

	body, err := json.Marshal(Exercise{
		DayNumber:        1,
		ExerciseOrder:    1,
		Title:            "caminhada leve",
		Description:      gofakeit.Sentence(8),
		Instructions:     gofakeit.Paragraph(1, 3, 8, " "),
		DurationMinutes:  10,
		CaloriesEstimate: 40,
		Difficulty:       DifficultyLight,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/exercises", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var added Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, "caminhada leve", added.Title)
	assert.False(t, added.CreatedAt.IsZero())
	assert.Equal(t, 1, invalidator.calls)
}

func TestHandler_Add_Invalid(t *testing.T) {
	repo := NewMockExercisesRepo()
	invalidator := &invalidatorMock{}
	router := newTestRouter(NewHandler(repo, invalidator))

	for name, exercise := range map[string]Exercise{
		"empty title":      {DayNumber: 1, Difficulty: DifficultyLight},
		"day out of range": {DayNumber: 31, Title: "x", Difficulty: DifficultyLight},
		"bad difficulty":   {DayNumber: 1, Title: "x", Difficulty: "brutal"},
		"bad audience":     {DayNumber: 1, Title: "x", Difficulty: DifficultyLight, TargetAudience: goalPtr("get_swole")},
		"day zero":         {DayNumber: 0, Title: "x", Difficulty: DifficultyLight},
	} {
		body, err := json.Marshal(exercise)
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/exercises", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
	assert.Zero(t, invalidator.calls)
}

func TestHandler_GetListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMockExercisesRepo()
	invalidator := &invalidatorMock{}
	router := newTestRouter(NewHandler(repo, invalidator))

	added, err := repo.Add(ctx, Exercise{
		DayNumber: 2, ExerciseOrder: 1, Title: "alongamento",
		Difficulty: DifficultyMedium,
	})
	require.NoError(t, err)

	// get
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/exercises/%d", added.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, added.ID, got.ID)

	// get unknown
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/exercises/999", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// list filtered by day
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/exercises?day=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var listResp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Total)

	// update
	added.Title = "alongamento de ombros"
	body, err := json.Marshal(added)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("PUT", fmt.Sprintf("/exercises/%d", added.ID), bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	updated, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "alongamento de ombros", updated.Title)
	assert.Equal(t, 1, invalidator.calls)

	// delete
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/exercises/%d", added.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	_, err = repo.Get(ctx, added.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	assert.Equal(t, 2, invalidator.calls)

	// delete unknown
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/exercises/999", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
