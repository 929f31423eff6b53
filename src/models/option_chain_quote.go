package models

import "time"

// OptionChainQuote is one raw contract quote from a provider option chain:
// enough to derive Greeks (strike + implied volatility + expiration), no
// pre-computed sensitivities.
type OptionChainQuote struct {
	Symbol            OptionSymbol
	Underlying        StockSymbol
	OptionType        OptionType
	Strike            float64
	ImpliedVolatility float64
	Expiration        time.Time
	UnderlyingPrice   float64
}
