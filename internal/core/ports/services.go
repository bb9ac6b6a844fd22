package ports

import (
	"context"
	"time"

	"custodial-exchange/internal/core/domain"
)

// PriceOracle converts between USD and crypto amounts. Implementations must
// keep ToUSD the exact multiplicative inverse of ToCrypto per symbol.
type PriceOracle interface {
	ToCrypto(usd float64, symbol domain.Symbol) (float64, error)
	ToUSD(amount float64, symbol domain.Symbol) (float64, error)
}

// AccessService is the access guard: every workflow entry point passes both
// checks before the ledger or journal is touched.
type AccessService interface {
	// Authorize validates the presented API key for the client in constant
	// time and returns the client.
	Authorize(ctx context.Context, clientID int64, presentedKey string) (*domain.Client, error)
	// AuthorizeOwnership verifies the target user belongs to the client.
	AuthorizeOwnership(client *domain.Client, user *domain.User) error
}

// DedupeCache is the redis fast path for sell replay rejection. The
// authoritative dedupe check stays in the journal under the user row lock;
// this layer only short-circuits obvious replays.
type DedupeCache interface {
	// Seen reports whether the dedupe key was already consumed by the client.
	Seen(ctx context.Context, clientID int64, dedupeKey string) (bool, error)
	// Mark records a consumed dedupe key, best-effort after commit.
	Mark(ctx context.Context, clientID int64, dedupeKey string, ttl time.Duration) error
}

// HashService handles operator password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for the provisioning surface.
type TokenService interface {
	Generate(clientID int64, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ClientID int64
	Username string
}

// --- Service Ports (Business Logic) ---

// SettlementService is the core workflow: converting confirmed payments and
// sell orders into balance mutations plus journal records, atomically.
type SettlementService interface {
	Buy(ctx context.Context, req BuyRequest) (*domain.Transaction, error)
	Sell(ctx context.Context, req SellRequest) (*domain.Transaction, error)
}

// BuyRequest consumes a pre-confirmed incoming payment and credits currency.
type BuyRequest struct {
	Client        *domain.Client
	UserID        int64
	Symbol        domain.Symbol
	USDAmount     float64
	TransactionID int64
}

// SellRequest debits currency and records outgoing proceeds.
type SellRequest struct {
	Client    *domain.Client
	UserID    int64
	Symbol    domain.Symbol
	Amount    float64
	DedupeKey string
}

// AccountService serves the client-facing read operations.
type AccountService interface {
	ListAuthorizations(ctx context.Context, client *domain.Client, userID int64) (*AuthorizationSummary, error)
	GetBalances(ctx context.Context, client *domain.Client, userID int64) (*BalanceSummary, error)
}

// AuthorizationSummary lists the currencies a user may trade.
type AuthorizationSummary struct {
	UserID   int64
	Provider string
	Symbols  []domain.Symbol
}

// BalanceSummary lists a user's non-zero holdings.
type BalanceSummary struct {
	UserID   int64
	Provider string
	Balances map[domain.Symbol]float64
}

// AuthService registers integration tenants and issues dashboard tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for client registration.
type RegisterRequest struct {
	Username     string
	Password     string
	ProviderName string
}

// RegisterResponse holds the registration result. The API key is plaintext,
// shown only at registration.
type RegisterResponse struct {
	ClientID int64
	APIKey   string
}

// ProvisioningService is the operator surface: creating users, granting
// per-symbol authorizations, and recording externally confirmed payments
// that the buy workflow later consumes.
type ProvisioningService interface {
	CreateUser(ctx context.Context, clientID int64, authorized []domain.Symbol) (*domain.User, error)
	SetAuthorizations(ctx context.Context, clientID, userID int64, grants map[domain.Symbol]bool) (*domain.User, error)
	// RecordPayment creates a pending journal entry for a confirmed incoming
	// USD payment.
	RecordPayment(ctx context.Context, clientID, userID int64, usdAmount float64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
