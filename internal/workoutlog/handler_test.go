package workoutlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/workoutlog"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPlanChecker struct {
	existingPlans map[int]int // plan id -> owner user id
	returnErr     error
}

func (c *testPlanChecker) PlanExists(_ context.Context, planID, userID int) (bool, error) {
	if c.returnErr != nil {
		return false, c.returnErr
	}
	owner, ok := c.existingPlans[planID]
	return ok && owner == userID, nil
}

type handlerTestSuite struct {
	repo    *workoutlog.TestRepo
	plans   *testPlanChecker
	handler *workoutlog.Handler
	router  *mux.Router
}

func newHandlerTestSuite(t *testing.T) *handlerTestSuite {
	t.Helper()
	repo := workoutlog.NewTestRepo()
	plans := &testPlanChecker{existingPlans: map[int]int{}}
	handler := workoutlog.NewHandler(repo, plans, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return &handlerTestSuite{
		repo:    repo,
		plans:   plans,
		handler: handler,
		router:  router,
	}
}

func (s *handlerTestSuite) request(t *testing.T, method, target string, body []byte, userID int) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Add(t *testing.T) {
	suite := newHandlerTestSuite(t)

	reqBody := []byte(`{"completedExercises":5,"waterIntakeMl":700,"durationSeconds":3600,"notes":"leg day"}`)
	rr := suite.request(t, "POST", "/logs", reqBody, 42)
	require.Equal(t, http.StatusCreated, rr.Code)

	var added workoutlog.WorkoutLog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, 42, added.UserID)
	assert.Equal(t, 5, added.CompletedExercises)
	assert.Equal(t, 700, added.WaterIntakeMl)
	assert.Equal(t, "leg day", added.Notes)
	// date was not sent, it falls back to the current time
	assert.WithinDuration(t, time.Now(), added.Date, time.Minute)

	stored, err := suite.repo.Get(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.UserID, stored.UserID)
}

func TestHandler_Add_IDsMonotonic(t *testing.T) {
	suite := newHandlerTestSuite(t)

	for i := 1; i <= 3; i++ {
		rr := suite.request(t, "POST", "/logs", []byte(`{"durationSeconds":60}`), 42)
		require.Equal(t, http.StatusCreated, rr.Code)
		var added workoutlog.WorkoutLog
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
		assert.Equal(t, i, added.ID)
	}
}

func TestHandler_Add_Unauthorized(t *testing.T) {
	suite := newHandlerTestSuite(t)
	rr := suite.request(t, "POST", "/logs", []byte(`{}`), 0)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Add_NegativeFieldsRejected(t *testing.T) {
	suite := newHandlerTestSuite(t)

	for _, tc := range []struct {
		body  string
		field string
	}{
		{`{"completedExercises":-1}`, "completedExercises"},
		{`{"waterIntakeMl":-200}`, "waterIntakeMl"},
		{`{"durationSeconds":-5}`, "durationSeconds"},
	} {
		rr := suite.request(t, "POST", "/logs", []byte(tc.body), 42)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "field "+tc.field+" must not be negative")
	}

	count, err := suite.repo.Count(context.Background(), workoutlog.ListParams{UserID: 42})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandler_Add_UnknownPlanRejected(t *testing.T) {
	suite := newHandlerTestSuite(t)
	suite.plans.existingPlans[7] = 42

	rr := suite.request(t, "POST", "/logs", []byte(`{"workoutId":666,"durationSeconds":60}`), 42)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "workout plan not found")

	// referencing another user's plan behaves the same as a missing one
	rr = suite.request(t, "POST", "/logs", []byte(`{"workoutId":7,"durationSeconds":60}`), 43)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = suite.request(t, "POST", "/logs", []byte(`{"workoutId":7,"durationSeconds":60}`), 42)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestHandler_Get(t *testing.T) {
	suite := newHandlerTestSuite(t)
	added := addTestLog(t, suite.repo, 42, time.Now().Add(-time.Hour), 300, 1800)

	rr := suite.request(t, "GET", fmt.Sprintf("/logs/%d", added.ID), nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)
	var gotten workoutlog.WorkoutLog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotten))
	assert.Equal(t, added.ID, gotten.ID)

	// other users or unknown ids get the same not found response
	rr = suite.request(t, "GET", fmt.Sprintf("/logs/%d", added.ID), nil, 43)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = suite.request(t, "GET", "/logs/12345", nil, 42)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = suite.request(t, "GET", "/logs/nan", nil, 42)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List(t *testing.T) {
	suite := newHandlerTestSuite(t)

	day := func(d int) time.Time {
		return time.Date(2025, 3, d, 10, 0, 0, 0, time.UTC)
	}
	addTestLog(t, suite.repo, 42, day(1), 100, 600)
	addTestLog(t, suite.repo, 42, day(5), 200, 600)
	addTestLog(t, suite.repo, 42, day(9), 300, 600)
	addTestLog(t, suite.repo, 43, day(5), 999, 999)

	rr := suite.request(t, "GET", "/logs", nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)
	var listResp workoutlog.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
	require.Equal(t, 3, listResp.Total)
	// newest first
	assert.True(t, listResp.Logs[0].Date.Equal(day(9)))
	assert.True(t, listResp.Logs[1].Date.Equal(day(5)))
	assert.True(t, listResp.Logs[2].Date.Equal(day(1)))

	// bounds are inclusive on both ends
	rr = suite.request(t, "GET", "/logs?from=2025-03-05&to=2025-03-09", nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
	require.Equal(t, 2, listResp.Total)
	assert.True(t, listResp.Logs[0].Date.Equal(day(9)))
	assert.True(t, listResp.Logs[1].Date.Equal(day(5)))

	rr = suite.request(t, "GET", "/logs?from=banana", nil, 42)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List_Empty(t *testing.T) {
	suite := newHandlerTestSuite(t)
	rr := suite.request(t, "GET", "/logs", nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)
	var listResp workoutlog.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
	assert.Zero(t, listResp.Total)
	assert.NotNil(t, listResp.Logs)
	assert.Empty(t, listResp.Logs)
}

func TestHandler_List_StableOrderForSameDate(t *testing.T) {
	suite := newHandlerTestSuite(t)

	sameDate := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	first := addTestLog(t, suite.repo, 42, sameDate, 100, 600)
	second := addTestLog(t, suite.repo, 42, sameDate, 200, 600)

	for i := 0; i < 5; i++ {
		rr := suite.request(t, "GET", "/logs", nil, 42)
		require.Equal(t, http.StatusOK, rr.Code)
		var listResp workoutlog.ListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listResp))
		require.Equal(t, 2, listResp.Total)
		assert.Equal(t, first.ID, listResp.Logs[0].ID)
		assert.Equal(t, second.ID, listResp.Logs[1].ID)
	}
}

func TestHandler_Stats(t *testing.T) {
	suite := newHandlerTestSuite(t)

	now := time.Now()
	for i, water := range []int{100, 200, 300, 400, 500} {
		addTestLog(t, suite.repo, 42, now.AddDate(0, 0, -(i+1)), water, 600)
	}

	rr := suite.request(t, "GET", "/logs/stats", nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)

	var workoutStats workoutlog.WorkoutStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workoutStats))
	assert.Equal(t, 5, workoutStats.TotalWorkouts)
	assert.Equal(t, 1500, workoutStats.TotalWaterIntake)
	assert.InDelta(t, 300.0, workoutStats.AverageWaterPerWorkout, 0.0001)
	assert.InDelta(t, 41.6667, workoutStats.CompletionPercentage, 0.01)
	require.NotNil(t, workoutStats.LastWorkoutDate)
}

func TestHandler_Stats_InvalidDaysFallsBackToDefault(t *testing.T) {
	suite := newHandlerTestSuite(t)

	now := time.Now()
	addTestLog(t, suite.repo, 42, now.AddDate(0, 0, -20), 500, 600)

	// a 20 day old log is only visible through the default 30 day window
	for _, daysParam := range []string{"banana", "-3", "0", ""} {
		target := "/logs/stats"
		if daysParam != "" {
			target += "?days=" + daysParam
		}
		rr := suite.request(t, "GET", target, nil, 42)
		require.Equal(t, http.StatusOK, rr.Code)
		var workoutStats workoutlog.WorkoutStats
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workoutStats))
		assert.Equal(t, 1, workoutStats.TotalWorkouts, "days param %q", daysParam)
	}

	// an explicit shorter window excludes it
	rr := suite.request(t, "GET", "/logs/stats?days=7", nil, 42)
	require.Equal(t, http.StatusOK, rr.Code)
	var workoutStats workoutlog.WorkoutStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workoutStats))
	assert.Zero(t, workoutStats.TotalWorkouts)
}

func TestHandler_Stats_Unauthorized(t *testing.T) {
	suite := newHandlerTestSuite(t)
	rr := suite.request(t, "GET", "/logs/stats", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
