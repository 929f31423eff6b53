package models

import (
	"time"

	"github.com/google/uuid"
)

// OptionGreeksRecord is one Greeks snapshot for an option contract at a point
// in time. Records are append only: repeated fetches add new snapshots rather
// than overwrite. Rho is nullable because some provider responses omit it.
type OptionGreeksRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	Ticker    string    `gorm:"column:ticker;type:text;not null;index:idx_option_ticker"`
	Date      time.Time `gorm:"column:date;type:timestamptz;not null"`
	Delta     float64   `gorm:"column:delta;type:numeric;not null"`
	Gamma     float64   `gorm:"column:gamma;type:numeric;not null"`
	Theta     float64   `gorm:"column:theta;type:numeric;not null"`
	Vega      float64   `gorm:"column:vega;type:numeric;not null"`
	Rho       *float64  `gorm:"column:rho;type:numeric"`
}

func NewOptionGreeksRecord(contract OptionSymbol, date time.Time, greeks Greeks, rho *float64) *OptionGreeksRecord {
	return &OptionGreeksRecord{
		ID:     uuid.New(),
		Ticker: string(contract),
		Date:   date.UTC(),
		Delta:  greeks.Delta,
		Gamma:  greeks.Gamma,
		Theta:  greeks.Theta,
		Vega:   greeks.Vega,
		Rho:    rho,
	}
}
