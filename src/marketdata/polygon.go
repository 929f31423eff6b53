package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/cmalloy/options-desk/src/models"
)

// PolygonProvider implements MarketDataProvider on top of the polygon.io
// REST client.
type PolygonProvider struct {
	client *polygon.Client
}

func NewPolygonProvider(apiKey string) *PolygonProvider {
	return &PolygonProvider{
		client: polygon.New(apiKey),
	}
}

func (p *PolygonProvider) FetchAggregates(ctx context.Context, req AggregatesRequest) ([]*models.AggregateBar, error) {
	log.Debugf("PolygonProvider: fetching aggregates for %s from %s to %s", req.Ticker, req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))

	params := polygonmodels.ListAggsParams{
		Ticker:     req.Ticker.String(),
		Multiplier: req.Multiplier,
		Timespan:   polygonmodels.Timespan(req.Timespan),
		From:       polygonmodels.Millis(req.Start),
		To:         polygonmodels.Millis(req.End),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := p.client.ListAggs(ctx, params)

	var bars []*models.AggregateBar
	for iter.Next() {
		item := iter.Item()
		bars = append(bars, models.NewAggregateBar(
			req.Ticker,
			time.Time(item.Timestamp),
			item.Open,
			item.High,
			item.Low,
			item.Close,
			int64(item.Volume),
		))
	}

	if err := iter.Err(); err != nil {
		return nil, models.NewProviderError("list aggregates", err)
	}

	return bars, nil
}

func (p *PolygonProvider) FetchOptionSnapshot(ctx context.Context, contract models.OptionSymbol) (*OptionSnapshot, error) {
	components, err := models.NewOptionSymbolComponents(contract)
	if err != nil {
		return nil, models.NewInvalidInputError(err.Error())
	}

	resp, err := p.client.GetOptionContractSnapshot(ctx, &polygonmodels.GetOptionContractSnapshotParams{
		UnderlyingAsset: components.Underlying.String(),
		OptionContract:  contract.String(),
	})
	if err != nil {
		return nil, models.NewProviderError("option contract snapshot", err)
	}

	greeks := resp.Results.Greeks
	if greeks.Delta == 0 && greeks.Gamma == 0 && greeks.Theta == 0 && greeks.Vega == 0 {
		return nil, models.NewProviderError("option contract snapshot", fmt.Errorf("no greeks in response for %s", contract))
	}

	// polygon does not report rho
	return &OptionSnapshot{
		Contract: contract,
		Greeks: models.Greeks{
			Delta: greeks.Delta,
			Gamma: greeks.Gamma,
			Theta: greeks.Theta,
			Vega:  greeks.Vega,
		},
	}, nil
}

func (p *PolygonProvider) FetchOptionChain(ctx context.Context, underlying models.StockSymbol, optionType models.OptionType) ([]models.OptionChainQuote, error) {
	iter := p.client.ListOptionsChainSnapshot(ctx, &polygonmodels.ListOptionsChainParams{
		UnderlyingAsset: underlying.String(),
	})

	var quotes []models.OptionChainQuote
	for iter.Next() {
		item := iter.Item()

		if !strings.EqualFold(item.Details.ContractType, string(optionType)) {
			continue
		}

		quotes = append(quotes, models.OptionChainQuote{
			Symbol:            models.OptionSymbol(item.Details.Ticker),
			Underlying:        underlying,
			OptionType:        optionType,
			Strike:            item.Details.StrikePrice,
			ImpliedVolatility: item.ImpliedVolatility,
			Expiration:        time.Time(item.Details.ExpirationDate),
			UnderlyingPrice:   item.UnderlyingAsset.Price,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, models.NewProviderError("options chain snapshot", err)
	}

	return quotes, nil
}

func (p *PolygonProvider) FetchPreviousClose(ctx context.Context, ticker models.StockSymbol) (float64, error) {
	resp, err := p.client.GetPreviousCloseAgg(ctx, polygonmodels.GetPreviousCloseAggParams{
		Ticker: ticker.String(),
	}.WithAdjusted(true))
	if err != nil {
		return 0, models.NewProviderError("previous close", err)
	}

	if len(resp.Results) == 0 {
		return 0, models.NewProviderError("previous close", fmt.Errorf("no results for %s", ticker))
	}

	return resp.Results[0].Close, nil
}
