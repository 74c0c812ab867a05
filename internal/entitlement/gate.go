package entitlement

import (
	"context"
	"fmt"

	"adwork/internal/domain"
)

// GenerationCost is the credit price of one ad generation.
const GenerationCost = 1

// Gate answers entitlement questions for the HTTP layer. It holds no state
// of its own: balances live with the user repository, and deductions go
// through its atomic AdjustCredits.
type Gate struct {
	users domain.UserRepository
}

// NewGate builds a credit gate over the given user repository.
func NewGate(users domain.UserRepository) *Gate {
	return &Gate{users: users}
}

// Balance returns the user's current credit balance.
func (g *Gate) Balance(ctx context.Context, userID string) (int, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("entitlement: load user: %w", err)
	}
	return user.Credits, nil
}

// Require checks that the user can afford n credits without spending them.
// A balance below n fails with domain.ErrInsufficientCred.
func (g *Gate) Require(ctx context.Context, userID string, n int) error {
	balance, err := g.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < n {
		return domain.ErrInsufficientCred
	}
	return nil
}

// Deduct spends n credits and returns the remaining balance. The underlying
// repository applies the delta atomically, so a concurrent spend that would
// overdraw fails with domain.ErrInsufficientCred instead of going negative.
func (g *Gate) Deduct(ctx context.Context, userID string, n int) (int, error) {
	if n <= 0 {
		return g.Balance(ctx, userID)
	}
	return g.users.AdjustCredits(ctx, userID, -n)
}

// Refund returns n credits to the user, used when a paid action is rolled
// back after deduction.
func (g *Gate) Refund(ctx context.Context, userID string, n int) (int, error) {
	if n <= 0 {
		return g.Balance(ctx, userID)
	}
	return g.users.AdjustCredits(ctx, userID, n)
}
