package marketdata

import (
	"context"
	"time"

	"github.com/cmalloy/options-desk/src/models"
)

// AggregatesRequest describes one historical bar fetch against the provider.
type AggregatesRequest struct {
	Ticker     models.StockSymbol
	Multiplier int
	Timespan   string
	Start      time.Time
	End        time.Time
}

// OptionSnapshot is a provider supplied Greeks snapshot for a single
// contract. Rho is nil when the provider response omits it.
type OptionSnapshot struct {
	Contract models.OptionSymbol
	Greeks   models.Greeks
	Rho      *float64
}

// MarketDataProvider is the remote read API behind the gateway. Failures
// surface as *models.ProviderError.
type MarketDataProvider interface {
	FetchAggregates(ctx context.Context, req AggregatesRequest) ([]*models.AggregateBar, error)
	FetchOptionSnapshot(ctx context.Context, contract models.OptionSymbol) (*OptionSnapshot, error)
	FetchOptionChain(ctx context.Context, underlying models.StockSymbol, optionType models.OptionType) ([]models.OptionChainQuote, error)
	FetchPreviousClose(ctx context.Context, ticker models.StockSymbol) (float64, error)
}
