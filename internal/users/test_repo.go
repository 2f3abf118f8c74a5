package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*TestRepo)(nil)

// TestRepo is an in-memory usersRepo for unit tests.
type TestRepo struct {
	mutex  sync.RWMutex
	users  map[int]User
	nextID int
}

func NewTestRepo() *TestRepo {
	return &TestRepo{
		users:  make(map[int]User),
		nextID: 1,
	}
}

func (r *TestRepo) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, ErrUsernameTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID] = user

	return &user, nil
}

func (r *TestRepo) Get(_ context.Context, id int) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *TestRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}
