package memory

import (
	"context"

	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// UserRepo is the in-memory user repository
type UserRepo struct {
	store *Store
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	copy := u
	return &copy, nil
}

// Create creates a new user
func (r *UserRepo) Create(ctx context.Context, user *shared.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.users[user.ID] = *user
	return nil
}
