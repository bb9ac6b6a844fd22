package postgres

import (
	"context"
	"errors"
	"fmt"

	"custodial-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ClientRepo implements ports.ClientRepository.
type ClientRepo struct {
	pool Pool
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(pool Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

// Create inserts the API key and the client referencing it in one
// transaction, populating key.ID and client.ID.
func (r *ClientRepo) Create(ctx context.Context, c *domain.Client, k *domain.Key) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create client: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	keyQuery := `INSERT INTO keys (secret, created_at) VALUES ($1, $2) RETURNING id`
	if err := tx.QueryRow(ctx, keyQuery, k.Secret, k.CreatedAt).Scan(&k.ID); err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	c.KeyID = k.ID

	clientQuery := `INSERT INTO clients (name, username, password_hash, key_id, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := tx.QueryRow(ctx, clientQuery,
		c.Name, c.Username, c.PasswordHash, c.KeyID, c.CreatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create client: %w", err)
	}
	return nil
}

// GetByID fetches a client by ID.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `SELECT id, name, username, password_hash, key_id, created_at
		FROM clients WHERE id = $1`

	return scanClient(r.pool.QueryRow(ctx, query, id), "get client by id")
}

// GetByUsername fetches a client by its operator username.
func (r *ClientRepo) GetByUsername(ctx context.Context, username string) (*domain.Client, error) {
	query := `SELECT id, name, username, password_hash, key_id, created_at
		FROM clients WHERE username = $1`

	return scanClient(r.pool.QueryRow(ctx, query, username), "get client by username")
}

// GetKey fetches an API key by ID.
func (r *ClientRepo) GetKey(ctx context.Context, keyID int64) (*domain.Key, error) {
	query := `SELECT id, secret, created_at FROM keys WHERE id = $1`

	k := &domain.Key{}
	err := r.pool.QueryRow(ctx, query, keyID).Scan(&k.ID, &k.Secret, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get key by id: %w", err)
	}
	return k, nil
}

func scanClient(row pgx.Row, op string) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.Username, &c.PasswordHash, &c.KeyID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
