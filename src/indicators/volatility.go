package indicators

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/cmalloy/options-desk/src/models"
)

// tradingDaysPerYear annualizes daily log returns.
const tradingDaysPerYear = 252

// RealizedVolatility computes the annualized volatility of daily log
// returns over the given bars. It needs at least three bars, i.e. two
// returns, to be meaningful. The result is directly usable as a sigma
// estimate for the pricing engine.
func RealizedVolatility(bars []*models.AggregateBar) (float64, error) {
	if len(bars) < 3 {
		return 0, fmt.Errorf("RealizedVolatility: need at least 3 bars, got %d", len(bars))
	}

	logReturns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		curr := bars[i].Close
		if prev <= 0 || curr <= 0 {
			return 0, fmt.Errorf("RealizedVolatility: non-positive close at bar %d", i)
		}

		logReturns = append(logReturns, math.Log(curr/prev))
	}

	sd, err := stats.StandardDeviationSample(logReturns)
	if err != nil {
		return 0, fmt.Errorf("RealizedVolatility: failed to calculate the standard deviation: %v", err)
	}

	return sd * math.Sqrt(tradingDaysPerYear), nil
}
