package ports

import (
	"context"
	"time"

	"custodial-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for custodial users.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; the user row lock is the serialization point for all settlement.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error)
	UpdateHoldings(ctx context.Context, tx pgx.Tx, userID int64, holdings domain.Holdings) error
}

// ClientRepository defines persistence operations for integration tenants
// and their API keys. Client and key rows are read-only during settlement.
type ClientRepository interface {
	// Create inserts the key and the client referencing it, atomically.
	Create(ctx context.Context, client *domain.Client, key *domain.Key) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByUsername(ctx context.Context, username string) (*domain.Client, error)
	GetKey(ctx context.Context, keyID int64) (*domain.Key, error)
}

// TransactionRepository defines persistence for the settlement journal.
type TransactionRepository interface {
	// Create inserts a new journal entry and populates txn.ID.
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	// GetByIDForUpdate locks the journal row for the duration of the
	// enclosing transaction.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error)
	// DedupeKeyExists reports whether a journal entry of the client already
	// carries the given dedupe key. Keys are scoped per client, so two
	// clients may reuse the same key. Called under the user row lock so the
	// check and the subsequent insert are race-free.
	DedupeKeyExists(ctx context.Context, tx pgx.Tx, clientID int64, dedupeKey string) (bool, error)
	// MarkComplete sets complete=true and the completion timestamp. Must be
	// the last mutation of a successful settlement.
	MarkComplete(ctx context.Context, tx pgx.Tx, id int64, completeTime time.Time) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing journal entries.
type TransactionListParams struct {
	ClientID int64
	UserID   *int64
	Complete *bool
	Page     int
	PageSize int
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
