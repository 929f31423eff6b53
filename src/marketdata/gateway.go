package marketdata

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cmalloy/options-desk/src/models"
	"github.com/cmalloy/options-desk/src/pricing"
)

// Gateway mediates between the persistent cache, the market data provider
// and the pricing engine: prefer cache, fall back to provider, always
// persist new data. Construct one at the composition root and pass it by
// reference; it holds no global state.
type Gateway struct {
	store        MarketStore
	provider     MarketDataProvider
	riskFreeRate float64
	now          func() time.Time
}

func NewGateway(store MarketStore, provider MarketDataProvider, riskFreeRate float64) *Gateway {
	return &Gateway{
		store:        store,
		provider:     provider,
		riskFreeRate: riskFreeRate,
		now:          time.Now,
	}
}

// FetchAggregates returns OHLCV bars for ticker between startDate and
// endDate (inclusive, YYYY-MM-DD, normalized to UTC midnight). If the cache
// holds any bars for the ticker inside the window they are returned as-is
// and the provider is not consulted; there is no partial-range
// reconciliation. On a miss the provider response is fully resolved in
// memory, persisted in one all-or-nothing transaction, and returned.
func (g *Gateway) FetchAggregates(ctx context.Context, ticker models.StockSymbol, multiplier int, timespan string, startDate, endDate string) ([]*models.AggregateBar, error) {
	if ticker == "" {
		return nil, models.NewInvalidInputError("ticker is required")
	}

	if multiplier <= 0 {
		return nil, models.NewInvalidInputError(fmt.Sprintf("multiplier must be positive, got %d", multiplier))
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return nil, models.NewInvalidInputError(fmt.Sprintf("invalid start date %q: %v", startDate, err))
	}

	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return nil, models.NewInvalidInputError(fmt.Sprintf("invalid end date %q: %v", endDate, err))
	}

	if end.Before(start) {
		return nil, models.NewInvalidInputError(fmt.Sprintf("start date %s is after end date %s", startDate, endDate))
	}

	lookup, err := g.store.FindAggregates(ticker, start, end)
	if err != nil {
		return nil, err
	}

	if lookup.Hit {
		log.Infof("FetchAggregates: cache hit for %s [%s, %s]: %d bars", ticker, startDate, endDate, len(lookup.Bars))
		return lookup.Bars, nil
	}

	log.Infof("FetchAggregates: cache miss for %s [%s, %s], fetching from provider", ticker, startDate, endDate)

	// resolve the network fetch fully before the write transaction opens
	bars, err := g.provider.FetchAggregates(ctx, AggregatesRequest{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		Start:      start,
		End:        end,
	})
	if err != nil {
		log.Errorf("FetchAggregates: provider fetch failed for %s: %v", ticker, err)
		return nil, err
	}

	if err := g.store.SaveAggregates(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// FetchOptionGreeks fetches a provider computed Greeks snapshot for one
// contract, appends an OptionGreeksRecord stamped with the current time and
// returns the greeks. Nothing is persisted when the provider call fails or
// the response carries no greeks.
func (g *Gateway) FetchOptionGreeks(ctx context.Context, contract models.OptionSymbol) (*models.Greeks, error) {
	if contract == "" {
		return nil, models.NewInvalidInputError("contract symbol is required")
	}

	snapshot, err := g.provider.FetchOptionSnapshot(ctx, contract)
	if err != nil {
		log.Errorf("FetchOptionGreeks: snapshot fetch failed for %s: %v", contract, err)
		return nil, err
	}

	record := models.NewOptionGreeksRecord(snapshot.Contract, g.now(), snapshot.Greeks, snapshot.Rho)
	if err := g.store.SaveOptionGreeks(record); err != nil {
		return nil, err
	}

	greeks := snapshot.Greeks
	if snapshot.Rho != nil {
		greeks.Rho = *snapshot.Rho
	}

	return &greeks, nil
}

// FetchOptionGreeksDerived computes Greeks for every contract of the nearest
// upcoming expiration of the underlying's chain, using the contract's strike
// and implied volatility, the chain's spot price and the configured risk
// free rate. Each computed record is persisted immediately; one contract's
// failure is logged and skipped, not fatal to the batch. The returned slice
// holds whatever subset succeeded.
func (g *Gateway) FetchOptionGreeksDerived(ctx context.Context, underlying models.StockSymbol, optionType models.OptionType) ([]models.ContractGreeks, error) {
	if underlying == "" {
		return nil, models.NewInvalidInputError("underlying symbol is required")
	}

	if err := optionType.Validate(); err != nil {
		return nil, err
	}

	chain, err := g.provider.FetchOptionChain(ctx, underlying, optionType)
	if err != nil {
		log.Errorf("FetchOptionGreeksDerived: chain fetch failed for %s: %v", underlying, err)
		return nil, err
	}

	now := g.now()

	expiration, contracts := nearestExpiration(chain, now)
	if len(contracts) == 0 {
		return nil, models.NewProviderError("options chain", fmt.Errorf("no unexpired %s contracts for %s", optionType, underlying))
	}

	spot, err := g.resolveSpotPrice(ctx, underlying, contracts)
	if err != nil {
		return nil, err
	}

	yearsToExpiry := expiration.Sub(now).Hours() / 24 / 365

	var results []models.ContractGreeks
	for _, quote := range contracts {
		greeks, err := pricing.Greeks(spot, quote.Strike, yearsToExpiry, g.riskFreeRate, quote.ImpliedVolatility, optionType)
		if err != nil {
			log.Warnf("FetchOptionGreeksDerived: skipping %s: %v", quote.Symbol, err)
			continue
		}

		record := models.NewOptionGreeksRecord(quote.Symbol, now, greeks, &greeks.Rho)
		if err := g.store.SaveOptionGreeks(record); err != nil {
			log.Errorf("FetchOptionGreeksDerived: failed to persist %s: %v", quote.Symbol, err)
			continue
		}

		results = append(results, models.ContractGreeks{
			Symbol:    quote.Symbol,
			Timestamp: now,
			Greeks:    greeks,
		})
	}

	log.Infof("FetchOptionGreeksDerived: computed %d/%d %s greeks for %s expiring %s", len(results), len(contracts), optionType, underlying, expiration.Format("2006-01-02"))

	return results, nil
}

func (g *Gateway) resolveSpotPrice(ctx context.Context, underlying models.StockSymbol, contracts []models.OptionChainQuote) (float64, error) {
	for _, quote := range contracts {
		if quote.UnderlyingPrice > 0 {
			return quote.UnderlyingPrice, nil
		}
	}

	spot, err := g.provider.FetchPreviousClose(ctx, underlying)
	if err != nil {
		log.Errorf("resolveSpotPrice: previous close fetch failed for %s: %v", underlying, err)
		return 0, err
	}

	return spot, nil
}

// nearestExpiration groups the chain by expiration date and returns the
// soonest one that has not yet passed, together with its contracts.
func nearestExpiration(quotes []models.OptionChainQuote, now time.Time) (time.Time, []models.OptionChainQuote) {
	grouped := make(map[time.Time][]models.OptionChainQuote)
	for _, quote := range quotes {
		grouped[quote.Expiration] = append(grouped[quote.Expiration], quote)
	}

	var closest time.Time
	for expiration := range grouped {
		if expiration.Before(now) {
			continue
		}

		if closest.IsZero() || expiration.Before(closest) {
			closest = expiration
		}
	}

	if closest.IsZero() {
		return time.Time{}, nil
	}

	return closest, grouped[closest]
}
