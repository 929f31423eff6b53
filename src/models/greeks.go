package models

import "time"

// Greeks holds the five standard Black-Scholes sensitivities. Vega and Rho
// are scaled per 1 percentage point change in volatility and rate. Theta
// follows the per-year closed form and is typically negative for long
// positions; callers must not re-normalize it.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ContractGreeks tags a Greeks snapshot with the contract it was computed for.
type ContractGreeks struct {
	Symbol    OptionSymbol `json:"symbol"`
	Timestamp time.Time    `json:"timestamp"`
	Greeks    Greeks       `json:"greeks"`
}
