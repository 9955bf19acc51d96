package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-bargains/api"
	"auction-bargains/config"
	"auction-bargains/services"
	"auction-bargains/storage"
	"auction-bargains/utils"
)

func main() {
	mode := flag.String("mode", "all", "ingest | evaluate | serve | all")
	input := flag.String("input", "", "raw records file (.jsonl, .json or .csv); overrides INPUT_PATH")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.InputPath = *input
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("=== Auction bargain finder starting (mode: %s) ===", *mode)
	logger.Info("Config: db=%s | concurrency: %d | min comparables: %d | size tolerance: %.0f%%",
		cfg.DBDriver, cfg.MaxConcurrency, cfg.Scoring.MinComparables, cfg.Scoring.SizeTolerancePct*100)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Storage unavailable: %v", err)
		if cfg.DBDriver == "postgres" {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		os.Exit(1)
	}
	defer store.Close()

	a := &app{cfg: cfg, store: store, logger: logger}

	var runErr error
	switch *mode {
	case "ingest":
		runErr = a.ingest(ctx)
	case "evaluate":
		runErr = a.evaluate(ctx)
	case "serve":
		runErr = a.serve(ctx)
	case "all":
		if runErr = a.ingest(ctx); runErr == nil {
			if runErr = a.evaluate(ctx); runErr == nil {
				runErr = a.serve(ctx)
			}
		}
	default:
		runErr = fmt.Errorf("unknown mode %q", *mode)
	}
	if runErr != nil {
		logger.Error("%v", runErr)
		store.Close()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.Store, error) {
	store, err := storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "db ping", func() error { return store.Ping(ctx) }); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("[storage] Connected to %s", cfg.DBDriver)
	return store, nil
}

type app struct {
	cfg    *config.Config
	store  *storage.Store
	logger *utils.Logger
}

// ingest normalizes the raw records file and upserts the result.
func (a *app) ingest(ctx context.Context) error {
	if a.cfg.InputPath == "" {
		return errors.New("ingest: no input file (set INPUT_PATH or -input)")
	}
	raw, err := storage.ReadRawRecords(a.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	a.logger.Info("Read %d raw records from %s", len(raw), a.cfg.InputPath)

	normalizer := services.NewNormalizer(services.NewExtractor(a.cfg.Scoring), a.cfg.MaxConcurrency, a.logger)
	props := normalizer.Normalize(raw)
	if len(props) == 0 {
		return errors.New("ingest: every record was dropped during normalization")
	}

	if err := a.store.SaveProperties(ctx, props); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	a.logger.Info("Stored %d properties in %s", len(props), a.cfg.DBDriver)

	var snapshot storage.PropertyWriter
	snapshot, err = storage.NewCSVWriter(a.cfg.PropertiesCSVPath)
	if err != nil {
		a.logger.Warn("CSV snapshot skipped: %v", err)
		return nil
	}
	defer snapshot.Close()
	if err := snapshot.WriteProperties(props); err != nil {
		a.logger.Warn("CSV snapshot failed: %v", err)
	} else {
		a.logger.Info("Normalized properties saved to %s", a.cfg.PropertiesCSVPath)
	}
	return nil
}

// evaluate scores every stored auction against the stored market listings.
func (a *app) evaluate(ctx context.Context) error {
	auctions, err := a.store.FetchAuctions(ctx)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if len(auctions) == 0 {
		a.logger.Warn("No auctions stored; nothing to evaluate")
		return nil
	}

	corpus := storage.NewCachedCorpus(a.store, a.cfg.CorpusCacheTTL, a.logger)
	evaluator := services.NewEvaluator(corpus, a.cfg.Scoring, a.cfg.MaxConcurrency, a.logger)
	run, err := evaluator.Evaluate(ctx, auctions)
	if err != nil {
		return err
	}

	if err := a.store.SaveDeals(ctx, run.RunID, run.Results); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if err := storage.WriteDealsJSON(a.cfg.DealsJSONPath, run.RunID, run.Results); err != nil {
		a.logger.Error("JSON export failed: %v", err)
	} else {
		a.logger.Info("Deals exported to %s", a.cfg.DealsJSONPath)
	}

	insights := services.NewInsightService(a.logger, a.cfg.Scoring.BargainThresholdPct)
	insights.Print(os.Stdout, insights.Generate(run.Results))
	fmt.Printf("  Done. Run %s → %s | deals → %s\n\n", run.RunID, a.cfg.DBDriver, a.cfg.DealsJSONPath)
	return nil
}

// serve blocks until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	insights := services.NewInsightService(a.logger, a.cfg.Scoring.BargainThresholdPct)
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.NewHandler(a.store, insights, a.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.Info("[api] Listening on %s", a.cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	a.logger.Info("[api] Stopped")
	return nil
}
