package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionSymbolComponents(t *testing.T) {
	t.Run("polygon style symbol", func(t *testing.T) {
		components, err := NewOptionSymbolComponents("O:AAPL240119C00190000")
		require.NoError(t, err)

		assert.Equal(t, StockSymbol("AAPL"), components.Underlying)
		assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), components.Expiration)
		assert.Equal(t, Call, components.OptionType)
		assert.InDelta(t, 190.0, components.StrikePrice, 1e-9)
	})

	t.Run("no prefix put with fractional strike", func(t *testing.T) {
		components, err := NewOptionSymbolComponents("SPY240621P00547500")
		require.NoError(t, err)

		assert.Equal(t, StockSymbol("SPY"), components.Underlying)
		assert.Equal(t, Put, components.OptionType)
		assert.InDelta(t, 547.5, components.StrikePrice, 1e-9)
	})

	t.Run("malformed symbols", func(t *testing.T) {
		for _, symbol := range []OptionSymbol{"", "AAPL", "240119C00190000", "AAPL240119X00190000", "AAPL240119C0019"} {
			_, err := NewOptionSymbolComponents(symbol)
			assert.Error(t, err, "expected error for %q", symbol)
		}
	})
}
