// Command analyzer runs the market analytics pipeline: load the source
// tables, clean and validate them, derive the enriched catalog and market
// metrics, export the results and optionally serve the read-only summary
// API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carmarket/internal/config"
	"carmarket/internal/exporter"
	"carmarket/internal/infrastructure"
	"carmarket/internal/pipeline"
	"carmarket/internal/query"
	transporthttp "carmarket/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "analyzer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile = flag.String("config", "", "path to YAML config file")
		dataDir    = flag.String("data", "", "override data directory")
		format     = flag.String("export", exporter.FormatCSV, "export format: csv, xlsx or json")
		serve      = flag.Bool("serve", false, "serve the summary API after the run")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := pipeline.NewStore()
	runner := pipeline.NewRunner(cfg, store, logger)

	snap, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	exp := exporter.New(cfg.Paths.ReportsDir, logger)
	path, err := exp.Export(snap, *format)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.InfoContext(ctx, "export written", slog.String("path", path))

	if !*serve {
		return nil
	}
	return serveAPI(ctx, cfg, store, logger)
}

func serveAPI(ctx context.Context, cfg *config.Config, store *pipeline.Store, logger *slog.Logger) error {
	facade := query.New(store, logger)
	srv := transporthttp.NewServer(cfg.Server, facade, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("summary API listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
