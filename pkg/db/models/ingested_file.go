package models

import "github.com/pharmwatch/pharmwatch-backend/pkg/enums"

// IngestedFile records one source file that has been pulled into the
// database, keyed by (store, kind, published timestamp) with a content
// hash so re-ingestion of an identical file is detectable.
type IngestedFile struct {
	StoreID       string         `gorm:"column:store_id;primaryKey"`
	Kind          enums.FileKind `gorm:"column:kind;primaryKey"`
	PublishedTS   string         `gorm:"column:published_ts;primaryKey"`
	IntegrityHash string         `gorm:"column:integrity_hash"`
}

func (IngestedFile) TableName() string { return "files_ingested" }
