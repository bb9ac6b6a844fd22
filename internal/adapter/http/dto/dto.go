package dto

// RegisterRequest is the request body for client registration.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	ProviderName string `json:"provider_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
// The API key is shown only here, at registration.
type RegisterResponse struct {
	ClientID int64  `json:"client_id"`
	APIKey   string `json:"api_key"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateUserRequest is the request body for provisioning a custodial user.
type CreateUserRequest struct {
	Authorizations []string `json:"authorizations"`
}

// SetAuthorizationsRequest is the request body for updating per-symbol
// trading grants. Symbols absent from the map keep their current flag.
type SetAuthorizationsRequest struct {
	Grants map[string]bool `json:"grants" binding:"required"`
}

// RecordPaymentRequest is the request body for journaling a confirmed
// incoming USD payment.
type RecordPaymentRequest struct {
	UserID    int64   `json:"user_id" binding:"required,gt=0"`
	USDAmount float64 `json:"usd_amount" binding:"required,gt=0"`
}

// BuyRequest is the request body for the buy settlement.
type BuyRequest struct {
	UserID        int64   `json:"user_id" binding:"required,gt=0"`
	Symbol        string  `json:"symbol" binding:"required"`
	USDAmount     float64 `json:"usd_amount" binding:"required,gt=0"`
	TransactionID int64   `json:"transaction_id" binding:"required,gt=0"`
}

// SellRequest is the request body for the sell settlement.
type SellRequest struct {
	UserID    int64   `json:"user_id" binding:"required,gt=0"`
	Symbol    string  `json:"symbol" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	DedupeKey string  `json:"dedupe_key" binding:"required,max=100"`
}

// UserResponse is the response body for a provisioned user.
type UserResponse struct {
	ID             int64    `json:"id"`
	ClientID       int64    `json:"client_id"`
	Authorizations []string `json:"authorizations"`
}

// TransactionResponse is the response body for journal entries.
type TransactionResponse struct {
	ID           int64   `json:"id"`
	USDAmount    float64 `json:"usd_amount"`
	UserID       int64   `json:"user_id"`
	DedupeKey    *string `json:"dedupe_key,omitempty"`
	Complete     bool    `json:"complete"`
	IncTime      string  `json:"inc_time"`
	CompleteTime *string `json:"complete_time,omitempty"`
}

// AuthorizationsResponse lists the currencies a user may trade.
type AuthorizationsResponse struct {
	UserID   int64    `json:"user_id"`
	Provider string   `json:"provider"`
	Symbols  []string `json:"symbols"`
}

// BalancesResponse lists a user's non-zero holdings.
type BalancesResponse struct {
	UserID   int64              `json:"user_id"`
	Provider string             `json:"provider"`
	Balances map[string]float64 `json:"balances"`
}

// TransactionListResponse wraps a paginated journal listing.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}
