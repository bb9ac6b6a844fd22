package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[int64]*domain.User)}
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.Holdings = make(domain.Holdings, len(u.Holdings))
	for sym, h := range u.Holdings {
		cp.Holdings[sym] = h
	}
	return &cp
}

func (r *inMemoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *inMemoryUserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryUserRepo) UpdateHoldings(ctx context.Context, tx pgx.Tx, userID int64, holdings domain.Holdings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Holdings = make(domain.Holdings, len(holdings))
	for sym, h := range holdings {
		u.Holdings[sym] = h
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Client Repo ---

type inMemoryClientRepo struct {
	mu        sync.RWMutex
	nextID    int64
	nextKeyID int64
	clients   map[int64]*domain.Client
	keys      map[int64]*domain.Key
}

func newInMemoryClientRepo() *inMemoryClientRepo {
	return &inMemoryClientRepo{
		clients: make(map[int64]*domain.Client),
		keys:    make(map[int64]*domain.Key),
	}
}

func (r *inMemoryClientRepo) Create(ctx context.Context, client *domain.Client, key *domain.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.Username == client.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.nextKeyID++
	key.ID = r.nextKeyID
	r.keys[key.ID] = key
	client.KeyID = key.ID

	r.nextID++
	client.ID = r.nextID
	r.clients[client.ID] = client
	return nil
}

func (r *inMemoryClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *inMemoryClientRepo) GetByUsername(ctx context.Context, username string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if c.Username == username {
			return c, nil
		}
	}
	return nil, nil
}

func (r *inMemoryClientRepo) GetKey(ctx context.Context, keyID int64) (*domain.Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[keyID]
	if !ok {
		return nil, nil
	}
	return k, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	nextID       int64
	transactions map[int64]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[int64]*domain.Transaction)}
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	return &cp
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	txn.ID = r.nextID
	r.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *inMemoryTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransactionRepo) DedupeKeyExists(ctx context.Context, tx pgx.Tx, clientID int64, dedupeKey string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.ClientID == clientID && t.DedupeKey != nil && *t.DedupeKey == dedupeKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryTransactionRepo) MarkComplete(ctx context.Context, tx pgx.Tx, id int64, completeTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.Complete = true
	t.CompleteTime = &completeTime
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.ClientID != params.ClientID {
			continue
		}
		if params.UserID != nil && t.UserID != *params.UserID {
			continue
		}
		if params.Complete != nil && t.Complete != *params.Complete {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IncTime.After(result[j].IncTime)
	})
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Transactor ---

// lockingTransactor serializes all transactions behind a single mutex,
// standing in for the user row lock: only one settlement runs between
// Begin and Commit/Rollback at a time.
type lockingTransactor struct {
	mu sync.Mutex
}

func newLockingTransactor() *lockingTransactor {
	return &lockingTransactor{}
}

func (t *lockingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx is a pgx.Tx that holds the transactor lock until it finishes.
// Commit and a deferred Rollback may both run; only the first releases.
type lockedTx struct {
	release *sync.Mutex
	done    bool
}

func (t *lockedTx) finish() {
	if !t.done {
		t.done = true
		t.release.Unlock()
	}
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *lockedTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }
