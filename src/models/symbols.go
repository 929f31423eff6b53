package models

import "strings"

type StockSymbol string

func (s StockSymbol) String() string {
	return string(s)
}

type OptionSymbol string

func (s OptionSymbol) String() string {
	return string(s)
}

// NoPrefix strips polygon's "O:" contract prefix, e.g. O:AAPL240119C00100000 -> AAPL240119C00100000.
func (s OptionSymbol) NoPrefix() string {
	if strings.HasPrefix(string(s), "O:") {
		return string(s)[2:]
	}

	return string(s)
}
