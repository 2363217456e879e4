package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmwatch/pharmwatch-backend/internal/feed"
	"github.com/pharmwatch/pharmwatch-backend/internal/ingest"
	"github.com/pharmwatch/pharmwatch-backend/internal/merge"
	"github.com/pharmwatch/pharmwatch-backend/internal/portal"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
	"github.com/pharmwatch/pharmwatch-backend/pkg/enums"
	pkgerrors "github.com/pharmwatch/pharmwatch-backend/pkg/errors"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
)

// Options selects what one daily run covers: one branch, one store id,
// one calendar day.
type Options struct {
	Branch  string `validate:"required"`
	StoreID string `validate:"required"`

	// Date is an ISO day; empty means today.
	Date string

	// Limit bounds how many portal grid rows are scanned per category.
	Limit int
}

// Result reports what a run produced.
type Result struct {
	Date          string        `json:"date"`
	StoreID       string        `json:"store_id"`
	PriceArchive  string        `json:"price_archive"`
	PromoArchive  string        `json:"promo_archive"`
	CanonicalPath string        `json:"canonical_path"`
	Counts        ingest.Counts `json:"counts"`
}

// Runner drives the daily flow: fetch portal archives, normalize and
// merge them into the canonical day file, then load the database.
type Runner struct {
	portal   *portal.Client
	ingestor *ingest.Service
	client   *db.Client
	cfg      *config.Config
	logg     *logger.Logger
	validate *validator.Validate
}

// NewRunner wires the pipeline from its parts.
func NewRunner(portalClient *portal.Client, ingestor *ingest.Service, client *db.Client, cfg *config.Config, logg *logger.Logger) *Runner {
	return &Runner{
		portal:   portalClient,
		ingestor: ingestor,
		client:   client,
		cfg:      cfg,
		logg:     logg,
		validate: validator.New(),
	}
}

const defaultGridLimit = 200

// Run executes the whole day for one store. Steps that find no usable
// source fail fast with MISSING_SOURCE before anything is written.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := r.validate.Struct(opts); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pipeline options")
	}
	if opts.Date == "" {
		opts.Date = time.Now().UTC().Format("2006-01-02")
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultGridLimit
	}

	ctx = r.logg.WithFields(ctx, map[string]any{
		"store_id": opts.StoreID,
		"date":     opts.Date,
	})
	r.logg.Info(ctx, "pipeline.start")

	rawDir := filepath.Join(r.cfg.Portal.DataDir, "raw")
	csvDir := filepath.Join(r.cfg.Portal.DataDir, "csv")

	for _, category := range []portal.Category{portal.CategoryPriceFull, portal.CategoryPromoFull} {
		if err := r.fetchCategory(ctx, opts, category, rawDir); err != nil {
			return nil, err
		}
	}

	pricePath, err := portal.LatestLocal(rawDir, string(portal.CategoryPriceFull), opts.StoreID, opts.Date)
	if err != nil {
		return nil, err
	}
	promoPath, err := portal.LatestLocal(rawDir, string(portal.CategoryPromoFull), opts.StoreID, opts.Date)
	if err != nil {
		return nil, err
	}

	prices, promos, err := r.parseArchives(pricePath, promoPath, csvDir)
	if err != nil {
		return nil, err
	}

	records, skipped := merge.Join(prices, merge.AggregatePromotions(promos))
	if skipped > 0 {
		r.logg.Warn(r.logg.WithField(ctx, "rows_dropped", skipped), "pipeline.merge.dropped_rows")
	}

	canonicalPath := filepath.Join(r.cfg.Portal.DataDir, fmt.Sprintf("prices_with_promos.%s.%s.csv", opts.StoreID, opts.Date))
	if err := merge.WriteCanonicalFile(canonicalPath, records); err != nil {
		return nil, fmt.Errorf("writing canonical csv: %w", err)
	}

	counts, err := r.ingestor.Run(ctx, ingest.Job{
		StoreID:       opts.StoreID,
		ChainID:       r.cfg.Ingest.ChainID,
		StoreName:     &opts.Branch,
		ObservedAt:    observedAtFor(pricePath, opts.Date),
		CanonicalPath: canonicalPath,
	})
	if err != nil {
		return nil, err
	}

	if err := r.recordSources(ctx, opts.StoreID, pricePath, promoPath); err != nil {
		return nil, err
	}

	r.logg.Info(ctx, "pipeline.complete")
	return &Result{
		Date:          opts.Date,
		StoreID:       opts.StoreID,
		PriceArchive:  filepath.Base(pricePath),
		PromoArchive:  filepath.Base(promoPath),
		CanonicalPath: canonicalPath,
		Counts:        counts,
	}, nil
}

func (r *Runner) fetchCategory(ctx context.Context, opts Options, category portal.Category, rawDir string) error {
	rows, err := r.portal.List(ctx, opts.Branch, category, opts.Date, opts.Limit)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if row.DownloadURL == "" {
			continue
		}
		meta, ok := portal.ParseArchiveName(filepath.Base(row.DownloadURL))
		if ok && meta.StoreID != opts.StoreID {
			continue
		}
		if _, err := r.portal.Download(ctx, row.DownloadURL, rawDir); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) parseArchives(pricePath, promoPath, csvDir string) ([]feed.PriceRecord, []feed.PromoRecord, error) {
	priceLines, err := portal.ReadArchive(pricePath)
	if err != nil {
		return nil, nil, err
	}
	promoLines, err := portal.ReadArchive(promoPath)
	if err != nil {
		return nil, nil, err
	}

	// audit copies of both feeds, one CSV per archive
	priceCSV := filepath.Join(csvDir, csvName(pricePath))
	if err := portal.WriteFeedCSV(priceCSV, string(portal.CategoryPriceFull), priceLines); err != nil {
		return nil, nil, err
	}
	promoCSV := filepath.Join(csvDir, csvName(promoPath))
	if err := portal.WriteFeedCSV(promoCSV, string(portal.CategoryPromoFull), promoLines); err != nil {
		return nil, nil, err
	}

	prices := make([]feed.PriceRecord, 0, len(priceLines))
	for _, line := range priceLines {
		prices = append(prices, feed.NormalizePrice(line))
	}
	promos := make([]feed.PromoRecord, 0, len(promoLines))
	for _, line := range promoLines {
		promos = append(promos, feed.NormalizePromo(line))
	}
	return prices, promos, nil
}

// recordSources books the raw archives into files_ingested so a later run
// can tell an identical re-download from a fresh publication.
func (r *Runner) recordSources(ctx context.Context, storeID string, pricePath, promoPath string) error {
	repo := ingest.NewRepository(r.client.DB())
	for _, src := range []struct {
		path string
		kind enums.FileKind
	}{
		{pricePath, enums.FileKindPrices},
		{promoPath, enums.FileKindPromos},
	} {
		meta, ok := portal.ParseArchiveName(filepath.Base(src.path))
		if !ok {
			continue
		}
		hash, err := ingest.HashFile(src.path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", src.path, err)
		}
		record := models.IngestedFile{
			StoreID:       storeID,
			Kind:          src.kind,
			PublishedTS:   meta.PublishedTS,
			IntegrityHash: hash,
		}
		if err := repo.RecordIngestedFile(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "recording source file")
		}
	}
	return nil
}

// observedAtFor prefers the publish timestamp baked into the archive name;
// a malformed name falls back to 07:00 on the pipeline date.
func observedAtFor(pricePath, isoDate string) time.Time {
	if meta, ok := portal.ParseArchiveName(filepath.Base(pricePath)); ok {
		if ts, err := time.ParseInLocation("200601021504", meta.PublishedTS, time.UTC); err == nil {
			return ts
		}
	}
	if day, err := time.ParseInLocation("2006-01-02", isoDate, time.UTC); err == nil {
		return day.Add(7 * time.Hour)
	}
	return time.Now().UTC()
}

func csvName(archivePath string) string {
	base := filepath.Base(archivePath)
	for _, ext := range []string{".gz", ".xml"} {
		if filepath.Ext(base) == ext {
			base = base[:len(base)-len(ext)]
		}
	}
	return base + ".csv"
}
