package models

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// OptionSymbolComponents holds the parsed parts of an OCC option symbol.
type OptionSymbolComponents struct {
	Underlying  StockSymbol
	Expiration  time.Time
	OptionType  OptionType
	StrikePrice float64
	Symbol      OptionSymbol
}

// NewOptionSymbolComponents parses an OCC symbol of the form
// UNDERLYING + YYMMDD + C/P + 8-digit strike (price * 1000), with an
// optional "O:" prefix, e.g. O:AAPL240119C00100000.
func NewOptionSymbolComponents(symbol OptionSymbol) (*OptionSymbolComponents, error) {
	ticker := symbol.NoPrefix()

	// the underlying runs up to the first digit
	underlyingEnd := -1
	for i, r := range ticker {
		if unicode.IsDigit(r) {
			underlyingEnd = i
			break
		}
	}

	if underlyingEnd <= 0 || len(ticker) < underlyingEnd+6+1+8 {
		return nil, fmt.Errorf("NewOptionSymbolComponents: malformed option symbol: %s", symbol)
	}

	underlying := ticker[:underlyingEnd]

	expiration, err := time.ParseInLocation("060102", ticker[underlyingEnd:underlyingEnd+6], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: failed to parse expiration of %s: %w", symbol, err)
	}

	var optionType OptionType
	switch ticker[underlyingEnd+6] {
	case 'C':
		optionType = Call
	case 'P':
		optionType = Put
	default:
		return nil, fmt.Errorf("NewOptionSymbolComponents: invalid option type in symbol: %s", symbol)
	}

	strikeRaw, err := strconv.Atoi(ticker[underlyingEnd+7:])
	if err != nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: failed to parse strike of %s: %w", symbol, err)
	}

	return &OptionSymbolComponents{
		Underlying:  StockSymbol(underlying),
		Expiration:  expiration,
		OptionType:  optionType,
		StrikePrice: float64(strikeRaw) / 1000,
		Symbol:      symbol,
	}, nil
}
