package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// DefaultSearchLimit caps search pages when the caller asks for nothing.
	DefaultSearchLimit = 50
	// MaxSearchLimit is the hard ceiling for one search page.
	MaxSearchLimit = 200
	// DefaultHistoryDays is the history window when the caller asks for nothing.
	DefaultHistoryDays = 30
	// MaxHistoryDays is the widest history window one request may ask for.
	MaxHistoryDays = 365
)

// Item bundles a product with its per-store current prices.
type Item struct {
	Product ProductInfo  `json:"product"`
	Prices  []StorePrice `json:"prices"`
}

// Service is the read-only catalog API backing the HTTP surface.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService wires the read-only query service.
func NewService(client *db.Client, logg *logger.Logger) *Service {
	return &Service{
		repo: NewRepository(client.DB()),
		logg: logg,
	}
}

// Search finds products by name substring, optionally within one store.
// An empty query lists the whole catalog, cheapest first; the limit is
// clamped into [1, MaxSearchLimit].
func (s *Service) Search(ctx context.Context, name, storeID string, limit int) ([]SearchHit, error) {
	name = strings.TrimSpace(name)
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	hits, err := s.repo.Search(ctx, name, storeID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "searching products")
	}
	return hits, nil
}

// Item loads one product and its current prices. With a store id only that
// store's price is returned; otherwise all stores, cheapest first.
func (s *Service) Item(ctx context.Context, barcode, storeID string) (*Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	product, err := s.repo.FindProduct(ctx, barcode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown barcode")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading product")
	}

	prices, err := s.repo.StorePrices(ctx, barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading store prices")
	}
	if storeID != "" {
		filtered := prices[:0]
		for _, p := range prices {
			if p.StoreID == storeID {
				filtered = append(filtered, p)
			}
		}
		prices = filtered
	}

	return &Item{Product: *product, Prices: prices}, nil
}

// History returns the observation series for one barcode over the last
// `days` days, oldest first. The window is clamped into [1, MaxHistoryDays].
func (s *Service) History(ctx context.Context, barcode, storeID string, days int) ([]HistoryPoint, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}

	if _, err := s.repo.FindProduct(ctx, barcode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown barcode")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading product")
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(time.Second)
	points, err := s.repo.History(ctx, barcode, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading history")
	}
	return points, nil
}
