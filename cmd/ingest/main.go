package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pharmwatch/pharmwatch-backend/internal/ingest"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pharmwatch/pharmwatch-backend/pkg/migrate"
)

// Loads one already-merged canonical day CSV into the catalog.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "ingest"})

	_ = godotenv.Load()

	csvPath := flag.String("csv", "", "canonical day CSV to ingest")
	storeID := flag.String("store-id", "", "store id the file belongs to, e.g. 072")
	storeName := flag.String("store-name", "", "optional branch display name")
	chainID := flag.String("chain-id", "", "chain id (defaults to configured chain)")
	observedAt := flag.String("observed-at", "", `observation time, "2006-01-02 15:04" (default: now)`)
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "ingest",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if *csvPath == "" || *storeID == "" {
		fmt.Fprintln(os.Stderr, "both -csv and -store-id are required")
		os.Exit(1)
	}

	job := ingest.Job{
		StoreID:       *storeID,
		ChainID:       *chainID,
		CanonicalPath: *csvPath,
	}
	if job.ChainID == "" {
		job.ChainID = cfg.Ingest.ChainID
	}
	if *storeName != "" {
		job.StoreName = storeName
	}
	if *observedAt != "" {
		ts, err := parseObservedAt(*observedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -observed-at: %v\n", err)
			os.Exit(1)
		}
		job.ObservedAt = ts
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRun(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	counts, err := ingest.NewService(dbClient, logg, nil).Run(ctx, job)
	if err != nil {
		logg.Error(ctx, "ingest failed", err)
		os.Exit(1)
	}

	out, _ := json.Marshal(counts)
	fmt.Println(string(out))
}

func parseObservedAt(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05", time.RFC3339} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+resource, err)
	os.Exit(1)
}
