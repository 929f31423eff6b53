package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmalloy/options-desk/src/models"
)

type mockProvider struct {
	aggregates           []*models.AggregateBar
	aggregatesErr        error
	fetchAggregatesCalls int

	snapshot    *OptionSnapshot
	snapshotErr error

	chain    []models.OptionChainQuote
	chainErr error

	previousClose      float64
	previousCloseCalls int
}

func (m *mockProvider) FetchAggregates(ctx context.Context, req AggregatesRequest) ([]*models.AggregateBar, error) {
	m.fetchAggregatesCalls++

	if m.aggregatesErr != nil {
		return nil, m.aggregatesErr
	}

	return m.aggregates, nil
}

func (m *mockProvider) FetchOptionSnapshot(ctx context.Context, contract models.OptionSymbol) (*OptionSnapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}

	return m.snapshot, nil
}

func (m *mockProvider) FetchOptionChain(ctx context.Context, underlying models.StockSymbol, optionType models.OptionType) ([]models.OptionChainQuote, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}

	return m.chain, nil
}

func (m *mockProvider) FetchPreviousClose(ctx context.Context, ticker models.StockSymbol) (float64, error) {
	m.previousCloseCalls++
	return m.previousClose, nil
}

type mockStore struct {
	bars   []*models.AggregateBar
	greeks []*models.OptionGreeksRecord

	saveAggregatesErr error
	failGreeksFor     map[models.OptionSymbol]bool
}

func (m *mockStore) FindAggregates(ticker models.StockSymbol, start, end time.Time) (CacheLookup, error) {
	var found []*models.AggregateBar
	for _, bar := range m.bars {
		if bar.Ticker == ticker.String() && !bar.Date.Before(start) && !bar.Date.After(end) {
			found = append(found, bar)
		}
	}

	return CacheLookup{Bars: found, Hit: len(found) > 0}, nil
}

func (m *mockStore) SaveAggregates(bars []*models.AggregateBar) error {
	if m.saveAggregatesErr != nil {
		return m.saveAggregatesErr
	}

	m.bars = append(m.bars, bars...)
	return nil
}

func (m *mockStore) SaveOptionGreeks(record *models.OptionGreeksRecord) error {
	if m.failGreeksFor[models.OptionSymbol(record.Ticker)] {
		return models.NewStorageError("save option greeks", fmt.Errorf("connection lost"))
	}

	m.greeks = append(m.greeks, record)
	return nil
}

func day(date string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}

	return d
}

func TestFetchAggregates(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit does not consult the provider", func(t *testing.T) {
		store := &mockStore{
			bars: []*models.AggregateBar{
				models.NewAggregateBar("AAPL", day("2024-01-02"), 187.15, 188.44, 183.89, 185.64, 82488700),
			},
		}
		provider := &mockProvider{}
		gateway := NewGateway(store, provider, 0.01)

		bars, err := gateway.FetchAggregates(ctx, "AAPL", 1, "day", "2024-01-02", "2024-01-02")
		require.NoError(t, err)

		require.Len(t, bars, 1)
		assert.Equal(t, "AAPL", bars[0].Ticker)
		assert.Equal(t, 0, provider.fetchAggregatesCalls)
	})

	t.Run("cache miss fetches, persists and returns provider bars", func(t *testing.T) {
		providerBars := []*models.AggregateBar{
			models.NewAggregateBar("MSFT", day("2024-01-02"), 373.86, 375.90, 366.50, 370.87, 25258600),
			models.NewAggregateBar("MSFT", day("2024-01-03"), 369.01, 371.93, 367.24, 370.60, 23083500),
			models.NewAggregateBar("MSFT", day("2024-01-04"), 370.67, 373.10, 367.17, 367.94, 20901500),
		}
		store := &mockStore{}
		provider := &mockProvider{aggregates: providerBars}
		gateway := NewGateway(store, provider, 0.01)

		bars, err := gateway.FetchAggregates(ctx, "MSFT", 1, "day", "2024-01-02", "2024-01-04")
		require.NoError(t, err)

		assert.Len(t, bars, 3)
		assert.Len(t, store.bars, 3)
		assert.Equal(t, 1, provider.fetchAggregatesCalls)
	})

	t.Run("cached bars for another ticker are not a hit", func(t *testing.T) {
		store := &mockStore{
			bars: []*models.AggregateBar{
				models.NewAggregateBar("AAPL", day("2024-01-02"), 187.15, 188.44, 183.89, 185.64, 82488700),
			},
		}
		provider := &mockProvider{
			aggregates: []*models.AggregateBar{
				models.NewAggregateBar("TSLA", day("2024-01-02"), 250.08, 251.25, 244.41, 248.42, 104654200),
			},
		}
		gateway := NewGateway(store, provider, 0.01)

		bars, err := gateway.FetchAggregates(ctx, "TSLA", 1, "day", "2024-01-02", "2024-01-02")
		require.NoError(t, err)

		require.Len(t, bars, 1)
		assert.Equal(t, "TSLA", bars[0].Ticker)
		assert.Equal(t, 1, provider.fetchAggregatesCalls)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		gateway := NewGateway(&mockStore{}, &mockProvider{}, 0.01)

		var invalidInputErr *models.InvalidInputError

		_, err := gateway.FetchAggregates(ctx, "", 1, "day", "2024-01-02", "2024-01-03")
		assert.ErrorAs(t, err, &invalidInputErr)

		_, err = gateway.FetchAggregates(ctx, "AAPL", 0, "day", "2024-01-02", "2024-01-03")
		assert.ErrorAs(t, err, &invalidInputErr)

		_, err = gateway.FetchAggregates(ctx, "AAPL", 1, "day", "not-a-date", "2024-01-03")
		assert.ErrorAs(t, err, &invalidInputErr)

		_, err = gateway.FetchAggregates(ctx, "AAPL", 1, "day", "2024-01-03", "2024-01-02")
		assert.ErrorAs(t, err, &invalidInputErr)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		store := &mockStore{}
		provider := &mockProvider{
			aggregatesErr: models.NewProviderError("list aggregates", fmt.Errorf("rate limited")),
		}
		gateway := NewGateway(store, provider, 0.01)

		_, err := gateway.FetchAggregates(ctx, "AAPL", 1, "day", "2024-01-02", "2024-01-03")
		require.Error(t, err)

		var providerErr *models.ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Empty(t, store.bars)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		store := &mockStore{
			saveAggregatesErr: models.NewStorageError("save aggregates", fmt.Errorf("connection lost")),
		}
		provider := &mockProvider{
			aggregates: []*models.AggregateBar{
				models.NewAggregateBar("AAPL", day("2024-01-02"), 187.15, 188.44, 183.89, 185.64, 82488700),
			},
		}
		gateway := NewGateway(store, provider, 0.01)

		_, err := gateway.FetchAggregates(ctx, "AAPL", 1, "day", "2024-01-02", "2024-01-02")
		require.Error(t, err)

		var storageErr *models.StorageError
		assert.ErrorAs(t, err, &storageErr)
	})
}

func TestFetchOptionGreeks(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a snapshot and returns the greeks", func(t *testing.T) {
		store := &mockStore{}
		provider := &mockProvider{
			snapshot: &OptionSnapshot{
				Contract: "O:AAPL240119C00190000",
				Greeks:   models.Greeks{Delta: 0.52, Gamma: 0.031, Theta: -14.2, Vega: 0.11},
			},
		}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return day("2024-01-05") }

		greeks, err := gateway.FetchOptionGreeks(ctx, "O:AAPL240119C00190000")
		require.NoError(t, err)

		assert.InDelta(t, 0.52, greeks.Delta, 1e-9)

		require.Len(t, store.greeks, 1)
		assert.Equal(t, "O:AAPL240119C00190000", store.greeks[0].Ticker)
		assert.Equal(t, day("2024-01-05"), store.greeks[0].Date)
		assert.Nil(t, store.greeks[0].Rho)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		store := &mockStore{}
		provider := &mockProvider{
			snapshotErr: models.NewProviderError("option contract snapshot", fmt.Errorf("no greeks in response")),
		}
		gateway := NewGateway(store, provider, 0.01)

		_, err := gateway.FetchOptionGreeks(ctx, "O:AAPL240119C00190000")
		require.Error(t, err)

		var providerErr *models.ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Empty(t, store.greeks)
	})

	t.Run("empty contract is rejected", func(t *testing.T) {
		gateway := NewGateway(&mockStore{}, &mockProvider{}, 0.01)

		_, err := gateway.FetchOptionGreeks(ctx, "")

		var invalidInputErr *models.InvalidInputError
		assert.ErrorAs(t, err, &invalidInputErr)
	})
}

func chainQuote(symbol string, strike float64, iv float64, expiration time.Time) models.OptionChainQuote {
	return models.OptionChainQuote{
		Symbol:            models.OptionSymbol(symbol),
		Underlying:        "AAPL",
		OptionType:        models.Call,
		Strike:            strike,
		ImpliedVolatility: iv,
		Expiration:        expiration,
		UnderlyingPrice:   185.64,
	}
}

func TestFetchOptionGreeksDerived(t *testing.T) {
	ctx := context.Background()
	now := day("2024-01-05")

	t.Run("computes and persists greeks for the nearest expiration", func(t *testing.T) {
		near := day("2024-01-19")
		far := day("2024-02-16")

		store := &mockStore{}
		provider := &mockProvider{
			chain: []models.OptionChainQuote{
				chainQuote("O:AAPL240119C00180000", 180, 0.24, near),
				chainQuote("O:AAPL240119C00190000", 190, 0.22, near),
				chainQuote("O:AAPL240216C00190000", 190, 0.25, far),
			},
		}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return now }

		results, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.Call)
		require.NoError(t, err)

		require.Len(t, results, 2)
		require.Len(t, store.greeks, 2)

		for _, result := range results {
			assert.Equal(t, now, result.Timestamp)
			assert.GreaterOrEqual(t, result.Greeks.Delta, 0.0)
			assert.LessOrEqual(t, result.Greeks.Delta, 1.0)
		}

		// the far expiration must not have been touched
		for _, record := range store.greeks {
			assert.NotEqual(t, "O:AAPL240216C00190000", record.Ticker)
			assert.NotNil(t, record.Rho)
		}
	})

	t.Run("one contract's storage failure does not abort the batch", func(t *testing.T) {
		expiration := day("2024-01-19")

		var chain []models.OptionChainQuote
		for i := 0; i < 5; i++ {
			strike := 170.0 + float64(i)*10
			symbol := fmt.Sprintf("O:AAPL240119C%08d", int(strike*1000))
			chain = append(chain, chainQuote(symbol, strike, 0.22, expiration))
		}

		store := &mockStore{
			failGreeksFor: map[models.OptionSymbol]bool{
				chain[2].Symbol: true,
			},
		}
		provider := &mockProvider{chain: chain}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return now }

		results, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.Call)
		require.NoError(t, err)

		assert.Len(t, results, 4)
		assert.Len(t, store.greeks, 4)

		for _, result := range results {
			assert.NotEqual(t, chain[2].Symbol, result.Symbol)
		}
	})

	t.Run("zero implied volatility is skipped, not fatal", func(t *testing.T) {
		expiration := day("2024-01-19")

		store := &mockStore{}
		provider := &mockProvider{
			chain: []models.OptionChainQuote{
				chainQuote("O:AAPL240119C00180000", 180, 0, expiration),
				chainQuote("O:AAPL240119C00190000", 190, 0.22, expiration),
			},
		}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return now }

		results, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.Call)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, models.OptionSymbol("O:AAPL240119C00190000"), results[0].Symbol)
	})

	t.Run("falls back to previous close when the chain has no spot price", func(t *testing.T) {
		expiration := day("2024-01-19")

		quote := chainQuote("O:AAPL240119C00180000", 180, 0.24, expiration)
		quote.UnderlyingPrice = 0

		store := &mockStore{}
		provider := &mockProvider{
			chain:         []models.OptionChainQuote{quote},
			previousClose: 185.64,
		}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return now }

		results, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.Call)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, 1, provider.previousCloseCalls)
	})

	t.Run("fully expired chain is an error", func(t *testing.T) {
		store := &mockStore{}
		provider := &mockProvider{
			chain: []models.OptionChainQuote{
				chainQuote("O:AAPL230120C00180000", 180, 0.24, day("2023-01-20")),
			},
		}
		gateway := NewGateway(store, provider, 0.01)
		gateway.now = func() time.Time { return now }

		_, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.Call)
		require.Error(t, err)

		var providerErr *models.ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Empty(t, store.greeks)
	})

	t.Run("invalid option type is rejected", func(t *testing.T) {
		gateway := NewGateway(&mockStore{}, &mockProvider{}, 0.01)

		_, err := gateway.FetchOptionGreeksDerived(ctx, "AAPL", models.OptionType("straddle"))

		var invalidInputErr *models.InvalidInputError
		assert.ErrorAs(t, err, &invalidInputErr)
	})
}
