package marketdata

import (
	"time"

	"gorm.io/gorm"

	"github.com/cmalloy/options-desk/src/models"
)

// CacheLookup is the explicit result of a cache probe: either a hit carrying
// the cached bars, or a miss. The hit criterion is deliberately coarse (any
// bars for the ticker inside the window count as a hit, with no partial-range
// reconciliation); see Gateway.FetchAggregates.
type CacheLookup struct {
	Bars []*models.AggregateBar
	Hit  bool
}

// MarketStore is the persistent cache behind the gateway. Failures surface
// as *models.StorageError.
type MarketStore interface {
	FindAggregates(ticker models.StockSymbol, start, end time.Time) (CacheLookup, error)
	SaveAggregates(bars []*models.AggregateBar) error
	SaveOptionGreeks(record *models.OptionGreeksRecord) error
}

// PostgresMarketStore implements MarketStore on a gorm connection.
type PostgresMarketStore struct {
	db *gorm.DB
}

func NewPostgresMarketStore(db *gorm.DB) *PostgresMarketStore {
	return &PostgresMarketStore{db: db}
}

func (s *PostgresMarketStore) FindAggregates(ticker models.StockSymbol, start, end time.Time) (CacheLookup, error) {
	var bars []*models.AggregateBar

	tx := s.db.Where("ticker = ? AND date >= ? AND date <= ?", ticker.String(), start, end).Order("date asc").Find(&bars)
	if tx.Error != nil {
		return CacheLookup{}, models.NewStorageError("find aggregates", tx.Error)
	}

	return CacheLookup{Bars: bars, Hit: len(bars) > 0}, nil
}

// SaveAggregates persists all bars of one fetch in a single transaction:
// either every bar is written or none is.
func (s *PostgresMarketStore) SaveAggregates(bars []*models.AggregateBar) error {
	if len(bars) == 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&bars).Error
	})
	if err != nil {
		return models.NewStorageError("save aggregates", err)
	}

	return nil
}

func (s *PostgresMarketStore) SaveOptionGreeks(record *models.OptionGreeksRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return models.NewStorageError("save option greeks", err)
	}

	return nil
}
