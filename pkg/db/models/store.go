package models

import "time"

// Store is one physical branch reporting prices. Metadata accretes across
// runs; rows are never deleted.
type Store struct {
	StoreID    string    `gorm:"column:store_id;primaryKey"`
	ChainID    *string   `gorm:"column:chain_id"`
	Name       *string   `gorm:"column:name"`
	City       *string   `gorm:"column:city"`
	Address    *string   `gorm:"column:address"`
	LastSeenAt time.Time `gorm:"column:last_seen_at"`
}

func (Store) TableName() string { return "stores" }
