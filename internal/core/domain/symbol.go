package domain

// Symbol is a supported currency code.
type Symbol string

const (
	SymbolBTC  Symbol = "BTC"
	SymbolETH  Symbol = "ETH"
	SymbolDOGE Symbol = "DOGE"
	SymbolUSDT Symbol = "USDT"
	SymbolBNB  Symbol = "BNB"
)

// AcceptedSymbols is the fixed set of tradable currencies, in canonical
// order. All per-symbol iteration in the system goes through this slice so
// that responses are deterministic.
var AcceptedSymbols = []Symbol{SymbolBTC, SymbolETH, SymbolDOGE, SymbolUSDT, SymbolBNB}

// IsAccepted returns true if s is in the supported set.
func (s Symbol) IsAccepted() bool {
	for _, accepted := range AcceptedSymbols {
		if s == accepted {
			return true
		}
	}
	return false
}
