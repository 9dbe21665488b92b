// Package pipeline sequences extract → transform → load and is the
// sole boundary that decides run success or failure.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/M-Afifff/coingecko-project/internal/domain"
	"github.com/M-Afifff/coingecko-project/internal/observability"
	"github.com/M-Afifff/coingecko-project/internal/storage"
	"github.com/M-Afifff/coingecko-project/internal/transform"
)

// DefaultSnapshotLimit is the number of assets fetched per snapshot.
const DefaultSnapshotLimit = 50

// Extractor is the data-source surface the orchestrator drives.
// Satisfied by extract.Extractor.
type Extractor interface {
	FetchSnapshot(ctx context.Context, limit int) ([]domain.RawMarketRecord, error)
	FetchHistoricalRange(ctx context.Context, daysBack, limit int) ([]domain.RawMarketRecord, error)
	Healthy(ctx context.Context) bool
}

// Orchestrator runs the linear pipeline state machine:
// HEALTH_CHECK → EXTRACT → TRANSFORM → ENSURE_SCHEMA → LOAD → STATS.
// Any stage failure short-circuits to a failed RunResult; stage-level
// recovery and retries belong to the scheduler above.
type Orchestrator struct {
	extractor        Extractor
	transformer      *transform.Transformer
	store            storage.MarketStore
	snapshotLimit    int
	skipExistingDate bool
	logger           *log.Logger
	metrics          *observability.Metrics
}

// Options for creating an Orchestrator.
type Options struct {
	Extractor   Extractor
	Transformer *transform.Transformer
	Store       storage.MarketStore

	// SnapshotLimit is the per-run asset count. Default: 50.
	SnapshotLimit int

	// SkipExistingDate skips the load when rows already exist for the
	// batch's extraction date. Applies to snapshot runs only; it keys
	// run idempotency by extraction date so a re-invoked run after a
	// late failure cannot double-append.
	SkipExistingDate bool

	Logger  *log.Logger
	Metrics *observability.Metrics
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	limit := opts.SnapshotLimit
	if limit == 0 {
		limit = DefaultSnapshotLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}

	return &Orchestrator{
		extractor:        opts.Extractor,
		transformer:      opts.Transformer,
		store:            opts.Store,
		snapshotLimit:    limit,
		skipExistingDate: opts.SkipExistingDate,
		logger:           logger,
		metrics:          metrics,
	}
}

// Run executes one snapshot pipeline run and returns its RunResult.
// It never returns an error: failures become a RunResult with
// Success=false and the original error text.
func (o *Orchestrator) Run(ctx context.Context) *domain.RunResult {
	return o.run(ctx, 0)
}

// RunHistorical executes the identical state machine with the
// range-fetch path substituted for the snapshot fetch.
func (o *Orchestrator) RunHistorical(ctx context.Context, daysBack int) *domain.RunResult {
	return o.run(ctx, daysBack)
}

func (o *Orchestrator) run(ctx context.Context, daysBack int) *domain.RunResult {
	start := time.Now()
	mode := "snapshot"
	if daysBack > 0 {
		mode = "historical"
	}

	result := &domain.RunResult{
		RunID:         uuid.NewString(),
		DaysProcessed: daysBack,
	}

	o.logger.Printf("Starting %s pipeline run %s", mode, result.RunID)

	err := o.runStages(ctx, daysBack, result)
	result.DurationSeconds = time.Since(start).Seconds()

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		o.metrics.RunsTotal.WithLabelValues(mode, "failed").Inc()
		o.metrics.RunDuration.WithLabelValues(mode).Observe(result.DurationSeconds)
		o.logger.Printf("Pipeline run %s FAILED after %.2fs: %v", result.RunID, result.DurationSeconds, err)
		return result
	}

	result.Success = true
	o.metrics.RunsTotal.WithLabelValues(mode, "success").Inc()
	o.metrics.RunDuration.WithLabelValues(mode).Observe(result.DurationSeconds)
	o.metrics.LastSuccessfulRun.SetToCurrentTime()
	o.logger.Printf("Pipeline run %s completed: %d records in %.2fs",
		result.RunID, result.RecordsProcessed, result.DurationSeconds)
	return result
}

// runStages walks the state machine. The first failing stage aborts
// the walk; the caller converts the error into the failed RunResult.
func (o *Orchestrator) runStages(ctx context.Context, daysBack int, result *domain.RunResult) error {
	// Pre-flight health gate: no data movement unless both pass.
	o.logger.Printf("Running health checks")
	if !o.extractor.Healthy(ctx) {
		o.metrics.HealthCheckFailures.WithLabelValues("extractor").Inc()
		return &HealthCheckError{Component: "market API"}
	}
	if err := o.store.Ping(ctx); err != nil {
		o.metrics.HealthCheckFailures.WithLabelValues("store").Inc()
		o.logger.Printf("Store health check failed: %v", err)
		return &HealthCheckError{Component: "database"}
	}

	// Extract
	var raw []domain.RawMarketRecord
	var err error
	if daysBack > 0 {
		raw, err = o.extractor.FetchHistoricalRange(ctx, daysBack, o.snapshotLimit)
	} else {
		raw, err = o.extractor.FetchSnapshot(ctx, o.snapshotLimit)
	}
	if err != nil {
		return err
	}
	o.metrics.RecordsExtracted.Add(float64(len(raw)))

	// Transform
	cleaned, removed, err := o.transformer.Transform(raw)
	if err != nil {
		return err
	}
	o.metrics.RecordsCleaned.Add(float64(len(cleaned)))
	o.metrics.RecordsRemoved.Add(float64(removed))
	result.DataQuality = o.transformer.QualityReport(cleaned, removed)

	// Provision schema, then load
	if err := o.store.EnsureSchema(ctx); err != nil {
		return err
	}

	loaded, err := o.load(ctx, cleaned)
	if err != nil {
		return err
	}
	result.RecordsProcessed = loaded
	o.metrics.RecordsLoaded.Add(float64(loaded))

	// Post-load aggregate stats
	stats, err := o.store.LatestStats(ctx)
	if err != nil {
		return err
	}
	result.DatabaseStats = stats

	return nil
}

// load appends the batch, honoring the skip-existing-date policy.
func (o *Orchestrator) load(ctx context.Context, cleaned []domain.CleanedRecord) (int, error) {
	if o.skipExistingDate && len(cleaned) > 0 {
		existing, err := o.store.CountForDate(ctx, cleaned[0].ExtractedDate)
		if err != nil {
			return 0, err
		}
		if existing > 0 {
			o.logger.Printf("Skipping load: %d rows already persisted for %s",
				existing, cleaned[0].ExtractedDate.Format("2006-01-02"))
			return 0, nil
		}
	}

	appendStart := time.Now()
	loaded, err := o.store.Append(ctx, cleaned)
	if err != nil {
		return 0, err
	}
	o.metrics.AppendDuration.Observe(time.Since(appendStart).Seconds())
	return loaded, nil
}
