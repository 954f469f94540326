package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/admin"
	"github.com/scirec/provisioner/internal/metrics"
	"github.com/scirec/provisioner/internal/provision"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/internal/seed"
	"github.com/scirec/provisioner/internal/store/cache"
	"github.com/scirec/provisioner/internal/store/document"
	"github.com/scirec/provisioner/internal/store/relational"
	"github.com/scirec/provisioner/internal/store/search"
	"github.com/scirec/provisioner/pkg/config"
	appLogger "github.com/scirec/provisioner/pkg/logger"
)

func main() {
	destructive := flag.Bool("destructive", false, "drop and recreate every structure (data-losing; never use in production)")
	seedSample := flag.Bool("seed", false, "insert sample records after provisioning")
	serve := flag.Bool("serve", false, "keep running and expose /healthz, /report and /metrics")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	metrics.Init()

	appLogger.Info("Starting store provisioner",
		zap.Bool("destructive", *destructive),
		zap.Int("vector_dim", cfg.Elastic.VectorDim),
	)

	registry, err := schema.New(schema.Params{
		ArticlesIndex:  cfg.Elastic.ArticlesIndex,
		ProfilesIndex:  cfg.Elastic.ProfilesIndex,
		Dims:           cfg.Elastic.VectorDim,
		Shards:         cfg.Elastic.Shards,
		HNSWM:          cfg.Elastic.HNSWM,
		EFConstruction: cfg.Elastic.EFConstruction,
		EFSearch:       cfg.Elastic.EFSearch,
	})
	if err != nil {
		appLogger.Fatal("Invalid schema registry", zap.Error(err))
	}

	ctx := context.Background()

	searchClient, err := search.NewClient(cfg.Elastic, registry.Indexes)
	if err != nil {
		appLogger.Fatal("Failed to create Elasticsearch client", zap.Error(err))
	}

	documentClient, err := document.NewClient(ctx, cfg.Mongo, registry.Collections, cfg.Elastic.VectorDim)
	if err != nil {
		appLogger.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer documentClient.Close(context.Background())

	relationalClient, err := relational.NewClient(ctx, cfg.Postgres.URL, registry.Tables)
	if err != nil {
		appLogger.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer relationalClient.Close()

	cacheClient := cache.NewClient(cfg.Redis)
	defer cacheClient.Close()

	prober := provision.NewProber(
		cfg.Prober.MaxAttempts,
		time.Duration(cfg.Prober.DelaySec)*time.Second,
		time.Duration(cfg.Prober.TimeoutSec)*time.Second,
	)

	stores := []provision.Store{searchClient, documentClient, relationalClient, cacheClient}
	orchestrator := provision.NewOrchestrator(prober, stores)
	reporter := provision.NewReporter(stores)

	mode := provision.ModeIdempotent
	if *destructive {
		mode = provision.ModeDestructive
	}

	results, err := orchestrator.Provision(ctx, mode)
	if err != nil {
		appLogger.Fatal("Provisioning failed", zap.Error(err))
	}

	created, existing := 0, 0
	for _, r := range results {
		if r.Outcome == provision.OutcomeCreated {
			created++
		} else {
			existing++
		}
	}
	appLogger.Info("Provisioning complete",
		zap.Int("created", created),
		zap.Int("already_existing", existing),
	)

	if *seedSample {
		seeder := seed.New(searchClient, documentClient, relationalClient, cfg.Elastic.ArticlesIndex, cfg.Elastic.VectorDim)
		if err := seeder.Run(ctx); err != nil {
			appLogger.Fatal("Seeding failed", zap.Error(err))
		}
	}

	for _, r := range reporter.Report(ctx) {
		appLogger.Info("Structure status",
			zap.String("store", r.Store),
			zap.String("structure", r.Name),
			zap.Bool("exists", r.Exists),
			zap.Int64("approx_count", r.ApproxCount),
		)
	}

	if !*serve {
		return
	}

	app := admin.New(reporter)
	addr := fmt.Sprintf("%s:%d", cfg.Admin.Host, cfg.Admin.Port)
	appLogger.Info("Admin server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Admin server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	app.Shutdown()
}
