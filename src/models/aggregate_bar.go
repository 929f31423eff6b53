package models

import (
	"time"

	"gorm.io/gorm"
)

// AggregateBar is one OHLCV bar for a ticker on a trading day. Bars are
// immutable once persisted; (ticker, date) is the effective cache key.
type AggregateBar struct {
	gorm.Model
	Ticker string    `gorm:"column:ticker;type:text;not null;index:idx_ticker_date"`
	Date   time.Time `gorm:"column:date;type:timestamptz;not null;index:idx_ticker_date"`
	Open   float64   `gorm:"column:open;type:numeric;not null"`
	High   float64   `gorm:"column:high;type:numeric;not null"`
	Low    float64   `gorm:"column:low;type:numeric;not null"`
	Close  float64   `gorm:"column:close;type:numeric;not null"`
	Volume int64     `gorm:"column:volume;type:bigint;not null"`
}

func NewAggregateBar(ticker StockSymbol, date time.Time, open, high, low, close float64, volume int64) *AggregateBar {
	return &AggregateBar{
		Ticker: string(ticker),
		Date:   date.UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}
