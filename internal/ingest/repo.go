package ingest

import (
	"context"
	"errors"

	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles the write side of the catalog and history tables. All
// methods are expected to run on a transaction handle so a batch commits or
// rolls back as a whole.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB (or transaction) to ingestion writes.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// UpsertStore applies the keep-existing-when-absent merge to the store row.
func (r *Repository) UpsertStore(ctx context.Context, incoming models.Store) error {
	var existing models.Store
	err := r.db.WithContext(ctx).First(&existing, "store_id = ?", incoming.StoreID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&incoming).Error
	}
	if err != nil {
		return err
	}
	merged := MergeStore(existing, incoming)
	return r.db.WithContext(ctx).Save(&merged).Error
}

// UpsertProduct applies the field-level COALESCE merge to the product row.
func (r *Repository) UpsertProduct(ctx context.Context, incoming models.Product) error {
	var existing models.Product
	err := r.db.WithContext(ctx).First(&existing, "barcode = ?", incoming.Barcode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&incoming).Error
	}
	if err != nil {
		return err
	}
	merged := MergeProduct(existing, incoming)
	return r.db.WithContext(ctx).Save(&merged).Error
}

// ReplaceCurrentPrice replaces the whole snapshot for (store, barcode). A
// stale current price is strictly wrong once a fresher observation exists,
// so no field-level merge applies here.
func (r *Repository) ReplaceCurrentPrice(ctx context.Context, cp models.CurrentPrice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "barcode"}},
			UpdateAll: true,
		}).
		Create(&cp).Error
}

// AppendObservation inserts one history row. A primary-key collision means
// the batch was already recorded for this observation time; it reports
// inserted=false and no error.
func (r *Repository) AppendObservation(ctx context.Context, obs models.PriceObservation) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&obs)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RecordIngestedFile remembers that a source file reached the database.
func (r *Repository) RecordIngestedFile(ctx context.Context, f models.IngestedFile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&f).Error
}

// WasIngested reports whether a file with this identity was loaded before.
func (r *Repository) WasIngested(ctx context.Context, storeID string, kind enums.FileKind, publishedTS string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IngestedFile{}).
		Where("store_id = ? AND kind = ? AND published_ts = ?", storeID, kind, publishedTS).
		Count(&count).Error
	return count > 0, err
}
