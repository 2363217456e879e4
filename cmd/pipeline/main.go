package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmwatch/pharmwatch-backend/internal/ingest"
	"github.com/pharmwatch/pharmwatch-backend/internal/pipeline"
	"github.com/pharmwatch/pharmwatch-backend/internal/portal"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pharmwatch/pharmwatch-backend/pkg/metrics"
	"github.com/pharmwatch/pharmwatch-backend/pkg/migrate"
)

// Runs the whole daily flow for one branch: portal fetch, normalize,
// merge, load.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "pipeline"})

	_ = godotenv.Load()

	branch := flag.String("branch", "", "exact branch name as the portal lists it")
	storeID := flag.String("store-id", "", "store id, e.g. 072")
	date := flag.String("date", "", "ISO day to process (default: today)")
	limit := flag.Int("limit", 0, "max portal grid rows to scan per category")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "pipeline",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if *branch == "" || *storeID == "" {
		fmt.Fprintln(os.Stderr, "both -branch and -store-id are required")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRun(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	ingestMetrics := metrics.NewIngestMetrics(prometheus.NewRegistry())
	runner := pipeline.NewRunner(
		portal.NewClient(cfg.Portal, logg),
		ingest.NewService(dbClient, logg, ingestMetrics),
		dbClient,
		cfg,
		logg,
	)

	result, err := runner.Run(ctx, pipeline.Options{
		Branch:  *branch,
		StoreID: *storeID,
		Date:    *date,
		Limit:   *limit,
	})
	if err != nil {
		logg.Error(ctx, "pipeline failed", err)
		os.Exit(1)
	}

	out, _ := json.Marshal(result)
	fmt.Println(string(out))
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+resource, err)
	os.Exit(1)
}
