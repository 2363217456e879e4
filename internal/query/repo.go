package query

import (
	"context"
	"time"

	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	"gorm.io/gorm"
)

// SearchHit is one row of the catalog search: a product joined with the
// current price at one store, cheapest-effective-price first.
type SearchHit struct {
	Barcode              string         `json:"barcode"`
	Name                 *string        `json:"name"`
	Manufacturer         *string        `json:"manufacturer"`
	StoreID              string         `json:"store_id"`
	PriceMinor           int64          `json:"price_minor"`
	Quantity             *float64       `json:"quantity"`
	QtyUnit              enums.UnitKind `json:"qty_unit"`
	UnitPriceMinorPer100 *int64         `json:"unit_price_minor_per100"`
	HasPromo             bool           `json:"has_promo"`
	RewardTypes          string         `json:"reward_types"`
	LastSeenAt           time.Time      `json:"last_seen_at"`
}

// StorePrice is the current price of one product at one store, enriched
// with the store's display metadata.
type StorePrice struct {
	StoreID              string         `json:"store_id"`
	StoreName            *string        `json:"store_name"`
	City                 *string        `json:"city"`
	PriceMinor           int64          `json:"price_minor"`
	Quantity             *float64       `json:"quantity"`
	QtyUnit              enums.UnitKind `json:"qty_unit"`
	UnitPriceMinorPer100 *int64         `json:"unit_price_minor_per100"`
	HasPromo             bool           `json:"has_promo"`
	RewardTypes          string         `json:"reward_types"`
	LastSeenAt           time.Time      `json:"last_seen_at"`
}

// HistoryPoint is one observation from the append-only price history.
type HistoryPoint struct {
	StoreID              string    `json:"store_id"`
	ObservedAt           time.Time `json:"observed_at"`
	PriceMinor           int64     `json:"price_minor"`
	UnitPriceMinorPer100 *int64    `json:"unit_price_minor_per100"`
	HasPromo             bool      `json:"has_promo"`
	RewardTypes          string    `json:"reward_types"`
}

const searchQuery = `
SELECT p.barcode,
       p.name,
       p.manufacturer,
       cp.store_id,
       cp.price_minor,
       cp.quantity,
       cp.qty_unit,
       cp.unit_price_minor_per100,
       cp.has_promo,
       cp.reward_types,
       cp.last_seen_at
FROM products p
JOIN current_prices cp ON cp.barcode = p.barcode
WHERE p.name LIKE ?
ORDER BY COALESCE(cp.unit_price_minor_per100, cp.price_minor) ASC, p.name ASC
LIMIT ?
`

const searchByStoreQuery = `
SELECT p.barcode,
       p.name,
       p.manufacturer,
       cp.store_id,
       cp.price_minor,
       cp.quantity,
       cp.qty_unit,
       cp.unit_price_minor_per100,
       cp.has_promo,
       cp.reward_types,
       cp.last_seen_at
FROM products p
JOIN current_prices cp ON cp.barcode = p.barcode
WHERE p.name LIKE ? AND cp.store_id = ?
ORDER BY COALESCE(cp.unit_price_minor_per100, cp.price_minor) ASC, p.name ASC
LIMIT ?
`

const storePricesQuery = `
SELECT cp.store_id,
       s.name AS store_name,
       s.city,
       cp.price_minor,
       cp.quantity,
       cp.qty_unit,
       cp.unit_price_minor_per100,
       cp.has_promo,
       cp.reward_types,
       cp.last_seen_at
FROM current_prices cp
LEFT JOIN stores s ON s.store_id = cp.store_id
WHERE cp.barcode = ?
ORDER BY COALESCE(cp.unit_price_minor_per100, cp.price_minor) ASC, cp.store_id ASC
`

const historyQuery = `
SELECT store_id,
       observed_at,
       price_minor,
       unit_price_minor_per100,
       has_promo,
       reward_types
FROM price_observations
WHERE barcode = ? AND observed_at >= ?
ORDER BY observed_at ASC, store_id ASC
`

const historyByStoreQuery = `
SELECT store_id,
       observed_at,
       price_minor,
       unit_price_minor_per100,
       has_promo,
       reward_types
FROM price_observations
WHERE barcode = ? AND store_id = ? AND observed_at >= ?
ORDER BY observed_at ASC
`

// Repository is the read side of the catalog. It never writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Search matches product names by substring and returns each match with its
// per-store current price, ordered by effective price per comparable unit.
// An empty name matches everything; storeID narrows to one store.
func (r *Repository) Search(ctx context.Context, name, storeID string, limit int) ([]SearchHit, error) {
	var hits []SearchHit
	tx := r.db.WithContext(ctx)
	var err error
	if storeID != "" {
		err = tx.Raw(searchByStoreQuery, "%"+name+"%", storeID, limit).Scan(&hits).Error
	} else {
		err = tx.Raw(searchQuery, "%"+name+"%", limit).Scan(&hits).Error
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// StorePrices lists every store's current price for one barcode, cheapest
// first. An unknown barcode yields an empty slice, not an error.
func (r *Repository) StorePrices(ctx context.Context, barcode string) ([]StorePrice, error) {
	var prices []StorePrice
	err := r.db.WithContext(ctx).
		Raw(storePricesQuery, barcode).
		Scan(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// FindProduct loads product metadata for one barcode.
func (r *Repository) FindProduct(ctx context.Context, barcode string) (*ProductInfo, error) {
	var info ProductInfo
	err := r.db.WithContext(ctx).
		Raw(`SELECT barcode, name, manufacturer, country, description FROM products WHERE barcode = ?`, barcode).
		Scan(&info).Error
	if err != nil {
		return nil, err
	}
	if info.Barcode == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &info, nil
}

// History returns observations for one barcode since the given time,
// oldest first. storeID narrows to one store when non-empty.
func (r *Repository) History(ctx context.Context, barcode, storeID string, since time.Time) ([]HistoryPoint, error) {
	var points []HistoryPoint
	tx := r.db.WithContext(ctx)
	var err error
	if storeID != "" {
		err = tx.Raw(historyByStoreQuery, barcode, storeID, since).Scan(&points).Error
	} else {
		err = tx.Raw(historyQuery, barcode, since).Scan(&points).Error
	}
	if err != nil {
		return nil, err
	}
	return points, nil
}

// ProductInfo is the chain-global product metadata returned by read paths.
type ProductInfo struct {
	Barcode      string  `json:"barcode"`
	Name         *string `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Country      *string `json:"country"`
	Description  *string `json:"description"`
}
