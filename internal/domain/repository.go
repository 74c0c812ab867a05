package domain

import "context"

// GenerationRepository persists ad-generation records. UpdateStatus merges
// only the provided fields, always bumps UpdatedAt, and reports ErrNotFound
// for unknown ids instead of failing hard.
type GenerationRepository interface {
	Create(ctx context.Context, gen *Generation) error
	FindByID(ctx context.Context, id string) (*Generation, error)
	FindByUser(ctx context.Context, userID string, page, pageSize int) ([]Generation, int, error)
	UpdateStatus(ctx context.Context, id string, update GenerationUpdate) (*Generation, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserRepository defines access methods for accounts and their credit balance.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// AdjustCredits applies delta atomically and returns the new balance.
	// A delta that would push the balance below zero fails with
	// ErrInsufficientCred and leaves the balance untouched.
	AdjustCredits(ctx context.Context, userID string, delta int) (int, error)
	SetPlan(ctx context.Context, userID string, plan Plan, credits int) error
}

// PostRepository persists community posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, page, pageSize int) ([]Post, int, error)
	ListByUser(ctx context.Context, userID string) ([]Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, likeCount int, err error)
	Delete(ctx context.Context, id string) (bool, error)
}
