package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new journal entry within a database transaction and
// populates t.ID.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (usd_amount, user_id, client_id, dedupe_key, complete, inc_time, complete_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := tx.QueryRow(ctx, query,
		t.USDAmount, t.UserID, t.ClientID, t.DedupeKey,
		t.Complete, t.IncTime, t.CompleteTime,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a journal entry by ID (without locking).
func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT id, usd_amount, user_id, client_id, dedupe_key, complete, inc_time, complete_time
		FROM transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id), "get transaction by id")
}

// GetByIDForUpdate fetches a journal entry by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error) {
	query := `SELECT id, usd_amount, user_id, client_id, dedupe_key, complete, inc_time, complete_time
		FROM transactions WHERE id = $1 FOR UPDATE`

	return scanTransaction(tx.QueryRow(ctx, query, id), "get transaction for update")
}

// DedupeKeyExists reports whether a journal entry of the client carries the
// dedupe key. Keys are scoped per client, matching the dedupe cache.
// Called under the user row lock so check and insert are race-free.
func (r *TransactionRepo) DedupeKeyExists(ctx context.Context, tx pgx.Tx, clientID int64, dedupeKey string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE dedupe_key = $1 AND client_id = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, dedupeKey, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check dedupe key exists: %w", err)
	}
	return exists, nil
}

// MarkComplete sets complete and the completion timestamp within a database
// transaction.
func (r *TransactionRepo) MarkComplete(ctx context.Context, tx pgx.Tx, id int64, completeTime time.Time) error {
	query := `UPDATE transactions SET complete = TRUE, complete_time = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, completeTime, id)
	if err != nil {
		return fmt.Errorf("mark transaction complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %d", id)
	}
	return nil
}

// List fetches journal entries with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("client_id = $%d", argIdx))
	args = append(args, params.ClientID)
	argIdx++

	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *params.UserID)
		argIdx++
	}
	if params.Complete != nil {
		conditions = append(conditions, fmt.Sprintf("complete = $%d", argIdx))
		args = append(args, *params.Complete)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, usd_amount, user_id, client_id, dedupe_key, complete, inc_time, complete_time
		FROM transactions %s ORDER BY inc_time DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.USDAmount, &t.UserID, &t.ClientID,
			&t.DedupeKey, &t.Complete, &t.IncTime, &t.CompleteTime,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

func scanTransaction(row pgx.Row, op string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.USDAmount, &t.UserID, &t.ClientID,
		&t.DedupeKey, &t.Complete, &t.IncTime, &t.CompleteTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
