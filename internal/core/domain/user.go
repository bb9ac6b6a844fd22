package domain

import "time"

// Holding is one user's position in a single currency: the balance held and
// whether the user is authorized to trade it.
type Holding struct {
	Balance    float64 `json:"balance"`
	Authorized bool    `json:"authorized"`
}

// Holdings maps each supported symbol to its holding. Persisted as a single
// JSONB document on the users row; iterate via AcceptedSymbols for stable
// ordering.
type Holdings map[Symbol]Holding

// NewHoldings returns a zero-balance holdings map with the given symbols
// authorized.
func NewHoldings(authorized ...Symbol) Holdings {
	h := make(Holdings, len(AcceptedSymbols))
	for _, sym := range AcceptedSymbols {
		h[sym] = Holding{}
	}
	for _, sym := range authorized {
		if entry, ok := h[sym]; ok {
			entry.Authorized = true
			h[sym] = entry
		}
	}
	return h
}

// User is a custodial account: per-symbol balances and authorization flags,
// owned by exactly one client. Balances are mutated only by the settlement
// workflow while the user row is exclusively locked.
type User struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Holdings  Holdings  `json:"holdings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Balance returns the held amount of sym, zero for unknown symbols.
func (u *User) Balance(sym Symbol) float64 {
	return u.Holdings[sym].Balance
}

// IsAuthorized reports whether the user may trade sym.
func (u *User) IsAuthorized(sym Symbol) bool {
	return u.Holdings[sym].Authorized
}

// AdjustBalance applies balance += delta for sym. The caller must already
// have validated sufficiency and hold the user row lock; no re-validation
// happens here.
func (u *User) AdjustBalance(sym Symbol, delta float64) {
	entry := u.Holdings[sym]
	entry.Balance += delta
	u.Holdings[sym] = entry
}

// SetAuthorized flips the per-symbol trading authorization flag.
func (u *User) SetAuthorized(sym Symbol, authorized bool) {
	entry := u.Holdings[sym]
	entry.Authorized = authorized
	u.Holdings[sym] = entry
}

// AuthorizedSymbols returns the symbols the user may trade, in canonical
// order.
func (u *User) AuthorizedSymbols() []Symbol {
	syms := make([]Symbol, 0, len(AcceptedSymbols))
	for _, sym := range AcceptedSymbols {
		if u.Holdings[sym].Authorized {
			syms = append(syms, sym)
		}
	}
	return syms
}

// NonZeroBalances returns the user's holdings with a non-zero balance, keyed
// by symbol.
func (u *User) NonZeroBalances() map[Symbol]float64 {
	balances := make(map[Symbol]float64)
	for _, sym := range AcceptedSymbols {
		if b := u.Holdings[sym].Balance; b != 0 {
			balances[sym] = b
		}
	}
	return balances
}
