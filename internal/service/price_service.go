package service

import (
	"custodial-exchange/internal/core/domain"
	"custodial-exchange/pkg/apperror"
)

// conversionRates maps each supported symbol to the crypto amount acquired
// per USD. In a real deployment this would be a pricing API; the fixed table
// stands in for it.
var conversionRates = map[domain.Symbol]float64{
	domain.SymbolBTC:  0.0000233678,
	domain.SymbolETH:  0.00030321,
	domain.SymbolDOGE: 8.10,
	domain.SymbolUSDT: 1,
	domain.SymbolBNB:  0.00234261,
}

// FixedPriceOracle implements ports.PriceOracle over the static rate table.
// Stateless and deterministic: ToUSD is the exact multiplicative inverse of
// ToCrypto for the same symbol.
type FixedPriceOracle struct{}

// NewFixedPriceOracle creates a new FixedPriceOracle.
func NewFixedPriceOracle() *FixedPriceOracle {
	return &FixedPriceOracle{}
}

// ToCrypto converts a USD amount into the crypto amount acquired.
func (o *FixedPriceOracle) ToCrypto(usd float64, symbol domain.Symbol) (float64, error) {
	rate, ok := conversionRates[symbol]
	if !ok {
		return 0, apperror.ErrUnknownSymbol(string(symbol))
	}
	return usd * rate, nil
}

// ToUSD converts a crypto amount into the USD to be paid out.
func (o *FixedPriceOracle) ToUSD(amount float64, symbol domain.Symbol) (float64, error) {
	rate, ok := conversionRates[symbol]
	if !ok {
		return 0, apperror.ErrUnknownSymbol(string(symbol))
	}
	return amount / rate, nil
}
