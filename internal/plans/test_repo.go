package plans

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ plansRepo = (*TestRepo)(nil)

// TestRepo is an in-memory plansRepo for unit tests.
type TestRepo struct {
	mutex  sync.RWMutex
	plans  map[int]Plan
	nextID int
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		plans:  make(map[int]Plan),
		nextID: 1,
	}
}

func (r *TestRepo) Add(_ context.Context, plan Plan) (*Plan, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	plan.ID = r.nextID
	r.nextID++
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	for i := range plan.Exercises {
		plan.Exercises[i].ID = i + 1
		plan.Exercises[i].PlanID = plan.ID
		plan.Exercises[i].Position = i
	}
	r.plans[plan.ID] = plan

	return &plan, nil
}

func (r *TestRepo) Get(_ context.Context, id int) (*Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plan, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &plan, nil
}

func (r *TestRepo) List(_ context.Context, userID int) ([]Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	userPlans := make([]Plan, 0)
	for _, plan := range r.plans {
		if plan.UserID == userID {
			userPlans = append(userPlans, plan)
		}
	}

	sort.SliceStable(userPlans, func(i, j int) bool {
		if userPlans[i].CreatedAt.Equal(userPlans[j].CreatedAt) {
			return userPlans[i].ID > userPlans[j].ID
		}
		return userPlans[i].CreatedAt.After(userPlans[j].CreatedAt)
	})

	return userPlans, nil
}

func (r *TestRepo) Delete(_ context.Context, id, userID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	plan, ok := r.plans[id]
	if !ok || plan.UserID != userID {
		return ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *TestRepo) PlanExists(_ context.Context, planID, userID int) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plan, ok := r.plans[planID]
	return ok && plan.UserID == userID, nil
}
