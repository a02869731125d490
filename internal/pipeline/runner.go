// Package pipeline wires the processing stages into one run: load, clean,
// validate, enrich, analyze, publish. Each run constructs its outputs from
// scratch and publishes them as a single immutable snapshot; no stage
// mutates a prior stage's output in place.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carmarket/internal/analytics"
	"carmarket/internal/cleaner"
	"carmarket/internal/config"
	"carmarket/internal/features"
	"carmarket/internal/loader"
	"carmarket/internal/validator"
	"carmarket/pkg/contracts/domain"
)

// Runner executes pipeline runs against a snapshot store.
type Runner struct {
	loader    *loader.Loader
	cleaner   *cleaner.Cleaner
	validator *validator.Validator
	features  *features.Engineer
	analytics *analytics.Engine
	store     *Store
	logger    *slog.Logger
}

// NewRunner constructs the full stage chain from configuration. All state
// lives in the returned runner and store; nothing is process-global.
func NewRunner(cfg *config.Config, store *Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	p := cfg.Pipeline
	return &Runner{
		loader:    loader.New(p.Loader, cfg.Paths.DataDir, logger),
		cleaner:   cleaner.New(p.Cleaning, logger),
		validator: validator.New(p.Rules, p.Quality, logger),
		features:  features.New(p.Features, logger),
		analytics: analytics.New(p.Analytics, logger),
		store:     store,
		logger:    logger,
	}
}

// Store returns the snapshot store the runner publishes to.
func (r *Runner) Store() *Store { return r.store }

// Run executes one full pipeline pass and publishes the result. The
// returned snapshot is the one this run computed even when a newer run
// published first; callers needing the current snapshot read the store.
func (r *Runner) Run(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{
		RunID:   uuid.New().String(),
		Version: r.store.NextVersion(),
	}

	r.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("run_id", snap.RunID),
		slog.Uint64("version", snap.Version),
	)

	tables, err := r.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	var reports [3]domain.CleaningReport
	snap.Catalog, reports[0] = r.cleaner.CleanCatalog(tables.Catalog)
	snap.Prices, reports[1] = r.cleaner.CleanPrices(tables.Prices)
	snap.Sales, reports[2] = r.cleaner.CleanSales(tables.Sales)
	snap.CleaningReports = reports[:]

	catalogResult, catalogQuality := r.validator.QualityCatalog(snap.Catalog)
	priceResult, priceQuality := r.validator.QualityPrices(snap.Prices)
	salesResult, salesQuality := r.validator.QualitySales(snap.Sales)
	snap.Validations = []domain.ValidationResult{catalogResult, priceResult, salesResult}
	snap.Quality = []domain.QualityReport{catalogQuality, priceQuality, salesQuality}

	snap.Models = r.features.Enrich(snap.Catalog, snap.Prices, snap.Sales)

	snap.Shares = r.analytics.MarketShare(snap.Models, snap.Sales)
	snap.Concentration = r.analytics.Concentration(snap.Shares)
	snap.Outliers = r.collectOutliers(snap.Models)
	snap.Elasticities = r.analytics.Elasticities(snap.Prices, snap.Sales)
	snap.Clusters = r.analytics.Clusters(snap.Models)
	snap.Correlation = r.analytics.Correlation(snap.Models, nil)
	snap.KPI = r.analytics.KPIs(snap.Models, snap.Sales)
	snap.Insights = r.analytics.Insights(snap.Models, snap.Shares, snap.Concentration, snap.Outliers, snap.KPI)

	snap.GeneratedAt = time.Now().UTC()
	snap.Duration = time.Since(start)

	published := r.store.Publish(snap)
	r.logger.InfoContext(ctx, "pipeline run finished",
		slog.String("run_id", snap.RunID),
		slog.Uint64("version", snap.Version),
		slog.Bool("published", published),
		slog.Int("models", len(snap.Models)),
		slog.Duration("duration", snap.Duration),
	)
	return snap, nil
}

// collectOutliers runs IQR detection over both inspected fields for the
// snapshot's default outlier view; the z-score method remains callable
// through the analytics engine.
func (r *Runner) collectOutliers(models []domain.EnrichedModel) []domain.Outlier {
	var out []domain.Outlier
	for _, field := range []string{analytics.FieldPriceMean, analytics.FieldTotalSales} {
		flagged, err := r.analytics.Outliers(models, field, analytics.MethodIQR)
		if err != nil {
			continue
		}
		out = append(out, flagged...)
	}
	return out
}
