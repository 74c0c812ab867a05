package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adwork/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

const userColumns = `id, email, name, password_hash, avatar_url, plan, credits, country, created_at, updated_at`

// Create inserts a new account. A duplicate email fails with
// domain.ErrDuplicateEmail.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	query := `
INSERT INTO users (id, email, name, password_hash, avatar_url, plan, credits, country)
VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
ON CONFLICT (email) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.AvatarURL,
		user.Plan,
		user.Credits,
		user.Country,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateEmail
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail fetches a user by email, case-insensitively.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	return scanUser(row)
}

// AdjustCredits applies the delta in a single statement so concurrent spends
// cannot push the balance below zero.
func (r *UserRepositoryPG) AdjustCredits(ctx context.Context, userID string, delta int) (int, error) {
	query := `
UPDATE users
SET credits = credits + $2,
    updated_at = NOW()
WHERE id = $1
  AND credits + $2 >= 0
RETURNING credits;
`
	var balance int
	if err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row matched: either the user is unknown or the balance
			// would have gone negative.
			if _, lookupErr := r.GetByID(ctx, userID); lookupErr != nil {
				return 0, lookupErr
			}
			return 0, domain.ErrInsufficientCred
		}
		return 0, err
	}
	return balance, nil
}

// SetPlan switches the account plan and resets the credit balance.
func (r *UserRepositoryPG) SetPlan(ctx context.Context, userID string, plan domain.Plan, credits int) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET plan = $2,
    credits = $3,
    updated_at = NOW()
WHERE id = $1;
`, userID, plan, credits)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.Plan,
		&u.Credits,
		&u.Country,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
