package ingest

import "github.com/pharmwatch/pharmwatch-backend/pkg/db/models"

// MergeProduct folds an incoming product row into the stored one. Product
// metadata accretes across stores and days: an incoming nil never erases a
// previously known value.
func MergeProduct(existing, incoming models.Product) models.Product {
	return models.Product{
		Barcode:      existing.Barcode,
		Name:         coalesce(incoming.Name, existing.Name),
		Manufacturer: coalesce(incoming.Manufacturer, existing.Manufacturer),
		Country:      coalesce(incoming.Country, existing.Country),
		Description:  coalesce(incoming.Description, existing.Description),
	}
}

// MergeStore folds incoming store metadata into the stored row. Descriptive
// fields keep the existing value when the incoming one is absent; the chain
// id and last-seen timestamp always take the incoming value.
func MergeStore(existing, incoming models.Store) models.Store {
	return models.Store{
		StoreID:    existing.StoreID,
		ChainID:    incoming.ChainID,
		Name:       coalesce(incoming.Name, existing.Name),
		City:       coalesce(incoming.City, existing.City),
		Address:    coalesce(incoming.Address, existing.Address),
		LastSeenAt: incoming.LastSeenAt,
	}
}

func coalesce(incoming, existing *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}
