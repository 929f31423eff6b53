package marketdata

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cmalloy/options-desk/src/models"
)

type aggregateBarCSV struct {
	Ticker string  `csv:"ticker"`
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// ExportAggregatesCSV writes bars as CSV, one row per trading day.
func ExportAggregatesCSV(w io.Writer, bars []*models.AggregateBar) error {
	rows := make([]*aggregateBarCSV, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, &aggregateBarCSV{
			Ticker: bar.Ticker,
			Date:   bar.Date.Format("2006-01-02"),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("ExportAggregatesCSV: failed to marshal csv: %w", err)
	}

	return nil
}
