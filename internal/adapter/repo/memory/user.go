package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"adwork/internal/domain"
)

// UserRepository keeps accounts in a process-local map.
type UserRepository struct {
	mu    sync.Mutex
	items map[string]domain.User
}

// NewUserRepository constructs an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[string]domain.User)}
}

// Create stores a new account, rejecting duplicate email addresses.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	r.items[user.ID] = *user
	return nil
}

// GetByID returns a copy of the account or domain.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := user
	return &out, nil
}

// GetByEmail looks an account up by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.items {
		if strings.EqualFold(user.Email, email) {
			out := user
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// AdjustCredits applies delta atomically and returns the new balance. A
// negative result fails with domain.ErrInsufficientCred and leaves the
// balance untouched.
func (r *UserRepository) AdjustCredits(ctx context.Context, userID string, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.items[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	next := user.Credits + delta
	if next < 0 {
		return user.Credits, domain.ErrInsufficientCred
	}
	user.Credits = next
	user.UpdatedAt = time.Now().UTC()
	r.items[userID] = user
	return next, nil
}

// SetPlan switches the plan and resets the credit balance in one step.
func (r *UserRepository) SetPlan(ctx context.Context, userID string, plan domain.Plan, credits int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.items[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.Plan = plan
	user.Credits = credits
	user.UpdatedAt = time.Now().UTC()
	r.items[userID] = user
	return nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
