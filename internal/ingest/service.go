package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pharmwatch/pharmwatch-backend/internal/merge"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pharmwatch/pharmwatch-backend/pkg/metrics"
	"gorm.io/gorm"
)

// Job describes one ingestion batch: one store, one observation timestamp.
// Records may be handed over in memory; otherwise they are read from the
// canonical file at CanonicalPath.
type Job struct {
	StoreID      string `validate:"required"`
	ChainID      string
	StoreName    *string
	StoreCity    *string
	StoreAddress *string

	// ObservedAt defaults to the current time, truncated to the second.
	ObservedAt time.Time

	CanonicalPath string
	Records       []merge.CanonicalRecord
}

// Counts reports the observable side effects of one batch.
type Counts struct {
	RowsRead              int `json:"rows_read"`
	ProductsUpserted      int `json:"products_upserted"`
	CurrentPricesUpserted int `json:"current_prices_upserted"`
	ObservationsAppended  int `json:"observations_appended"`
	ObservationsDuplicate int `json:"observations_duplicate"`
	RowsSkipped           int `json:"rows_skipped"`
}

// Service runs ingestion batches. One Run is a single transaction: either
// the whole batch's writes commit or none do.
type Service struct {
	client   *db.Client
	logg     *logger.Logger
	metrics  *metrics.IngestMetrics
	validate *validator.Validate
}

// NewService wires the ingestion service. Metrics may be nil.
func NewService(client *db.Client, logg *logger.Logger, m *metrics.IngestMetrics) *Service {
	return &Service{
		client:   client,
		logg:     logg,
		metrics:  m,
		validate: validator.New(),
	}
}

// Run executes one batch and returns its counts. Input problems surface as
// VALIDATION_ERROR or MISSING_SOURCE before any write happens; storage
// failures roll the whole transaction back.
func (s *Service) Run(ctx context.Context, job Job) (Counts, error) {
	var counts Counts

	if err := s.validate.Struct(job); err != nil {
		return counts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingestion job")
	}
	if len(job.Records) == 0 && job.CanonicalPath == "" {
		return counts, pkgerrors.New(pkgerrors.CodeValidation, "either records or a canonical file path is required")
	}

	observedAt := job.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	observedAt = observedAt.Truncate(time.Second)

	records := job.Records
	sourceFile := ""
	integrityHash := ""
	if records == nil {
		var err error
		records, err = merge.ReadCanonicalFile(job.CanonicalPath)
		if err != nil {
			return counts, err
		}
		sourceFile = filepath.Base(job.CanonicalPath)
		integrityHash, err = HashFile(job.CanonicalPath)
		if err != nil {
			return counts, fmt.Errorf("hashing %s: %w", job.CanonicalPath, err)
		}
	}
	counts.RowsRead = len(records)

	ctx = s.logg.WithBatch(ctx, job.StoreID, observedAt)
	s.logg.Info(ctx, "ingest.batch.start")
	start := time.Now()

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		store := models.Store{
			StoreID:    job.StoreID,
			ChainID:    emptyToNil(job.ChainID),
			Name:       job.StoreName,
			City:       job.StoreCity,
			Address:    job.StoreAddress,
			LastSeenAt: observedAt,
		}
		if err := repo.UpsertStore(ctx, store); err != nil {
			return fmt.Errorf("upserting store %s: %w", job.StoreID, err)
		}

		for _, rec := range records {
			if !rec.Persistable() {
				counts.RowsSkipped++
				continue
			}

			product := models.Product{
				Barcode:      rec.Barcode,
				Name:         rec.Name,
				Manufacturer: rec.Manufacturer,
				Country:      rec.Country,
				Description:  rec.Description,
			}
			if err := repo.UpsertProduct(ctx, product); err != nil {
				return fmt.Errorf("upserting product %s: %w", rec.Barcode, err)
			}
			counts.ProductsUpserted++

			current := models.CurrentPrice{
				StoreID:              job.StoreID,
				Barcode:              rec.Barcode,
				PriceMinor:           *rec.PriceMinor,
				Quantity:             rec.Quantity,
				QtyUnit:              rec.UnitKind,
				UnitPriceMinorPer100: rec.UnitPriceMinorPer100,
				HasPromo:             rec.HasPromo,
				RewardTypes:          rec.RewardTypesJoined(),
				LastSeenAt:           observedAt,
			}
			if err := repo.ReplaceCurrentPrice(ctx, current); err != nil {
				return fmt.Errorf("replacing current price %s/%s: %w", job.StoreID, rec.Barcode, err)
			}
			counts.CurrentPricesUpserted++

			obs := models.PriceObservation{
				StoreID:              job.StoreID,
				Barcode:              rec.Barcode,
				ObservedAt:           observedAt,
				PriceMinor:           *rec.PriceMinor,
				UnitPriceMinorPer100: rec.UnitPriceMinorPer100,
				HasPromo:             rec.HasPromo,
				RewardTypes:          rec.RewardTypesJoined(),
				SourceFile:           sourceFile,
			}
			inserted, err := repo.AppendObservation(ctx, obs)
			if err != nil {
				return fmt.Errorf("appending observation %s/%s: %w", job.StoreID, rec.Barcode, err)
			}
			if inserted {
				counts.ObservationsAppended++
			} else {
				counts.ObservationsDuplicate++
			}
		}

		if sourceFile != "" {
			ingested := models.IngestedFile{
				StoreID:       job.StoreID,
				Kind:          enums.FileKindMerged,
				PublishedTS:   observedAt.Format(time.RFC3339),
				IntegrityHash: integrityHash,
			}
			if err := repo.RecordIngestedFile(ctx, ingested); err != nil {
				return fmt.Errorf("recording ingested file %s: %w", sourceFile, err)
			}
		}

		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "ingest.batch.failed", err)
		return Counts{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "batch rolled back")
	}

	s.metrics.ObserveDuration(job.StoreID, time.Since(start))
	s.metrics.AddRowsRead(job.StoreID, counts.RowsRead)
	s.metrics.AddRowsSkipped(job.StoreID, counts.RowsSkipped)
	s.metrics.AddObservations(job.StoreID, counts.ObservationsAppended)
	s.metrics.AddDuplicates(job.StoreID, counts.ObservationsDuplicate)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"rows_read":              counts.RowsRead,
		"rows_skipped":           counts.RowsSkipped,
		"observations_appended":  counts.ObservationsAppended,
		"observations_duplicate": counts.ObservationsDuplicate,
	})
	s.logg.Info(ctx, "ingest.batch.complete")

	return counts, nil
}

// HashFile returns the hex sha256 of a file's contents, the integrity
// hash stored alongside every ingested source file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
