package models

import (
	"time"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
)

// CurrentPrice is the latest known price snapshot for one (store, product).
// Replaced wholesale on every ingestion for that key.
type CurrentPrice struct {
	StoreID              string         `gorm:"column:store_id;primaryKey"`
	Barcode              string         `gorm:"column:barcode;primaryKey"`
	PriceMinor           int64          `gorm:"column:price_minor"`
	Quantity             *float64       `gorm:"column:quantity"`
	QtyUnit              enums.UnitKind `gorm:"column:qty_unit"`
	UnitPriceMinorPer100 *int64         `gorm:"column:unit_price_minor_per100"`
	HasPromo             bool           `gorm:"column:has_promo"`
	RewardTypes          string         `gorm:"column:reward_types"`
	LastSeenAt           time.Time      `gorm:"column:last_seen_at"`
}

func (CurrentPrice) TableName() string { return "current_prices" }
