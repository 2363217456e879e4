package models

import "time"

// PriceObservation is one immutable historical data point. Rows are never
// updated or deleted; a primary-key collision on re-ingestion is expected
// and swallowed by the appender.
type PriceObservation struct {
	StoreID              string    `gorm:"column:store_id;primaryKey"`
	Barcode              string    `gorm:"column:barcode;primaryKey"`
	ObservedAt           time.Time `gorm:"column:observed_at;primaryKey"`
	PriceMinor           int64     `gorm:"column:price_minor"`
	UnitPriceMinorPer100 *int64    `gorm:"column:unit_price_minor_per100"`
	HasPromo             bool      `gorm:"column:has_promo"`
	RewardTypes          string    `gorm:"column:reward_types"`
	SourceFile           string    `gorm:"column:source_file"`
}

func (PriceObservation) TableName() string { return "price_observations" }
