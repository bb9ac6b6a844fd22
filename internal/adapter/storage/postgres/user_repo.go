package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository. Holdings are persisted as a
// single JSONB document on the users row, so one row lock covers every
// balance and authorization flag of the user.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a new user and populates user.ID.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (client_id, holdings, created_at, updated_at)
		VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		u.ClientID, u.Holdings, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by ID (without locking).
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, client_id, holdings, created_at, updated_at
		FROM users WHERE id = $1`

	return scanUser(r.pool.QueryRow(ctx, query, id), "get user by id")
}

// GetByIDForUpdate fetches a user by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	query := `SELECT id, client_id, holdings, created_at, updated_at
		FROM users WHERE id = $1 FOR UPDATE`

	return scanUser(tx.QueryRow(ctx, query, id), "get user for update")
}

// UpdateHoldings replaces the user's holdings document within a transaction.
func (r *UserRepo) UpdateHoldings(ctx context.Context, tx pgx.Tx, userID int64, holdings domain.Holdings) error {
	query := `UPDATE users SET holdings = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, holdings, userID)
	if err != nil {
		return fmt.Errorf("update user holdings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", userID)
	}
	return nil
}

func scanUser(row pgx.Row, op string) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.ClientID, &u.Holdings, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
