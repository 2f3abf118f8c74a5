package workoutlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// planChecker lets the handler verify that a referenced workout plan
// actually exists (and belongs to the user) before accepting a log.
type planChecker interface {
	PlanExists(ctx context.Context, planID, userID int) (bool, error)
}

type ListResponse struct {
	Logs  []WorkoutLog `json:"logs"`
	Total int          `json:"total"`
}

type Handler struct {
	repo           logsRepo
	analyzer       *Analyzer
	plans          planChecker
	metricsManager *metrics.Manager
}

func NewHandler(repo logsRepo, plans planChecker, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		analyzer:       NewAnalyzer(repo),
		plans:          plans,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/logs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout-log")
	router.HandleFunc("/logs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workout-logs")
	router.HandleFunc("/logs/stats", handler.HandleStats).Methods("GET", "OPTIONS").Name("workout-stats")
	router.HandleFunc("/logs/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout-log")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var workoutLog WorkoutLog
	if err := json.NewDecoder(r.Body).Decode(&workoutLog); err != nil {
		log.Tracef("new workout log, unmarshal json params: %s", err)
		http.Error(w, "add workout log failed", http.StatusBadRequest)
		return
	}

	if field, ok := invalidNumericField(workoutLog); !ok {
		http.Error(w, "error, field "+field+" must not be negative", http.StatusBadRequest)
		return
	}

	workoutLog.UserID = userID
	if workoutLog.Date.IsZero() {
		workoutLog.Date = handler.analyzer.NowFunc()
	}

	if workoutLog.WorkoutID != nil {
		exists, err := handler.plans.PlanExists(ctx, *workoutLog.WorkoutID, userID)
		if err != nil {
			log.Errorf("failed to check workout plan %d: %s", *workoutLog.WorkoutID, err)
			http.Error(w, "error, failed to add new workout log", http.StatusInternalServerError)
			return
		}
		if !exists {
			http.Error(w, "workout plan not found", http.StatusNotFound)
			return
		}
	}

	addedLog, err := handler.repo.Add(ctx, workoutLog)
	if err != nil {
		log.Errorf("failed to add new workout log for user %d: %s", userID, err)
		http.Error(w, "error, failed to add new workout log", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutLogs.Inc()

	addedLogJson, err := json.Marshal(addedLog)
	if err != nil {
		log.Errorf("failed to marshal new workout log: %s", err)
		http.Error(w, "error, failed to add new workout log", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout log added: %s", addedLogJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedLogJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	workoutLog, err := handler.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrLogNotFound) {
		log.Errorf("failed to get workout log %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// logs belong to a user - do not leak other users' logs
	if errors.Is(err, ErrLogNotFound) || workoutLog.UserID != userID {
		http.Error(w, "workout log not found", http.StatusNotFound)
		return
	}

	logJson, err := json.Marshal(workoutLog)
	if err != nil {
		log.Errorf("failed to marshal workout log: %s", err)
		http.Error(w, "failed to marshal workout log", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, logJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	params := ListParams{UserID: userID}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			http.Error(w, "invalid from format (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		params.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			http.Error(w, "invalid to format (expected YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		// end of the selected day, so the bound stays inclusive
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, time.UTC)
		params.To = &to
	}

	logs, err := handler.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list workout logs error: %s", err)
		http.Error(w, "failed to get workout logs", http.StatusInternalServerError)
		return
	}

	listResponseJson, err := json.Marshal(ListResponse{
		Logs:  logs,
		Total: len(logs),
	})
	if err != nil {
		log.Errorf("marshal workout logs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listResponseJson, http.StatusOK)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	// a non-numeric or non-positive window silently falls back to the
	// default, it does not produce an error
	windowDays := DefaultStatsWindowDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days <= 0 {
			log.Tracef("workout stats, invalid days param [%s], using default %d", daysStr, DefaultStatsWindowDays)
		} else {
			windowDays = days
		}
	}

	workoutStats, err := handler.analyzer.WorkoutStats(ctx, userID, windowDays)
	if err != nil {
		log.Errorf("failed to get workout stats for user %d: %s", userID, err)
		http.Error(w, "failed to get workout stats", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(workoutStats)
	if err != nil {
		log.Errorf("failed to marshal workout stats: %s", err)
		http.Error(w, "failed to marshal workout stats", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, statsJson, http.StatusOK)
}

// invalidNumericField returns the name of the first negative numeric
// field, if any.
func invalidNumericField(workoutLog WorkoutLog) (string, bool) {
	switch {
	case workoutLog.CompletedExercises < 0:
		return "completedExercises", false
	case workoutLog.WaterIntakeMl < 0:
		return "waterIntakeMl", false
	case workoutLog.DurationSeconds < 0:
		return "durationSeconds", false
	}
	return "", true
}
