package workoutlog

import (
	"context"
	"sort"
	"sync"
)

var _ logsRepo = (*TestRepo)(nil)

// TestRepo is an in-memory logsRepo used in unit tests and local
// development. Identifier assignment is atomic under the mutex, listing
// keeps the insertion order stable for logs sharing the same date.
type TestRepo struct {
	mutex  sync.RWMutex
	logs   map[int]WorkoutLog
	nextID int
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		logs:   make(map[int]WorkoutLog),
		nextID: 1,
	}
}

func (r *TestRepo) Add(_ context.Context, workoutLog WorkoutLog) (*WorkoutLog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutLog.ID = r.nextID
	r.nextID++
	r.logs[workoutLog.ID] = workoutLog

	return &workoutLog, nil
}

func (r *TestRepo) Get(_ context.Context, id int) (*WorkoutLog, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	workoutLog, ok := r.logs[id]
	if !ok {
		return nil, ErrLogNotFound
	}
	return &workoutLog, nil
}

func (r *TestRepo) List(_ context.Context, params ListParams) ([]WorkoutLog, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	logs := make([]WorkoutLog, 0)
	for _, workoutLog := range r.logs {
		if workoutLog.UserID != params.UserID {
			continue
		}
		if params.From != nil && workoutLog.Date.Before(*params.From) {
			continue
		}
		if params.To != nil && workoutLog.Date.After(*params.To) {
			continue
		}
		logs = append(logs, workoutLog)
	}

	// most recent first; equal dates keep their creation order
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Date.Equal(logs[j].Date) {
			return logs[i].ID < logs[j].ID
		}
		return logs[i].Date.After(logs[j].Date)
	})

	return logs, nil
}

func (r *TestRepo) Count(ctx context.Context, params ListParams) (int, error) {
	logs, err := r.List(ctx, params)
	if err != nil {
		return -1, err
	}
	return len(logs), nil
}
