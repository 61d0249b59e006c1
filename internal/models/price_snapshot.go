package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceSnapshot records observed asset prices for one timestamp bucket.
// Complete marks that every tracked asset has a price in the bucket; only
// complete snapshots may serve as settlement boundaries.
type PriceSnapshot struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Timestamp int64          `gorm:"not null;uniqueIndex"`
	Prices    datatypes.JSON `gorm:"type:jsonb;not null"`
	Complete  bool           `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (PriceSnapshot) TableName() string {
	return "price_snapshots"
}

func (s *PriceSnapshot) PriceMap() (map[string]decimal.Decimal, error) {
	prices := map[string]decimal.Decimal{}
	if err := json.Unmarshal(s.Prices, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

func EncodePrices(prices map[string]decimal.Decimal) (datatypes.JSON, error) {
	raw, err := json.Marshal(prices)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
