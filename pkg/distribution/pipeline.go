package distribution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/metrics"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/file"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/reconcile"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

// Fetcher delivers the raw records of one ledger.
type Fetcher interface {
	FetchAccounts(ctx context.Context) ([]snapshot.Record, error)
}

// Source is a named ledger and the fetcher that reads it.
type Source struct {
	Name    string
	Fetcher Fetcher
}

// GroundTruthReader returns the independently observed locked supply per ledger.
type GroundTruthReader func(ctx context.Context) (map[string]*amount.Amount, error)

type PipelineConfig struct {
	Exclusions *snapshot.ExclusionList
	CapFactor  *amount.Amount

	TreeWorkers int

	// SkipReconcile leaves the run unpublishable without reading ground truth.
	SkipReconcile bool

	// SnapshotFile, when set, receives the canonical snapshot artifact.
	SnapshotFile string
	// MetricsFile, when set, receives the metrics in text exposition format.
	MetricsFile string
}

// Pipeline runs one distribution: fetch both ledgers, merge, commit,
// reconcile and persist.
type Pipeline struct {
	config      *PipelineConfig
	sourceA     Source
	sourceB     Source
	groundTruth GroundTruthReader
	store       persistence.ISnapshotPersistence
	metrics     *metrics.Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline wires a pipeline. sourceA seeds the snapshot and sourceB is
// merged into it. groundTruth, store and recorder are optional.
func NewPipeline(
	cfg *PipelineConfig,
	sourceA, sourceB Source,
	groundTruth GroundTruthReader,
	store persistence.ISnapshotPersistence,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}
	if sourceA.Fetcher == nil || sourceB.Fetcher == nil {
		return nil, fmt.Errorf("both sources need a fetcher")
	}
	if sourceA.Name == sourceB.Name {
		return nil, fmt.Errorf("sources must have distinct names, both are %q", sourceA.Name)
	}
	if cfg.CapFactor == nil || cfg.CapFactor.IsZero() {
		return nil, amount.ErrZeroFactor
	}
	if !cfg.SkipReconcile && groundTruth == nil {
		return nil, fmt.Errorf("a ground truth reader is required unless reconciliation is skipped")
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		config:      cfg,
		sourceA:     sourceA,
		sourceB:     sourceB,
		groundTruth: groundTruth,
		store:       store,
		metrics:     recorder,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// RunResult is everything one run produced.
type RunResult struct {
	Record       *persistence.SnapshotRecord
	Distribution *Distribution
	Stats        *snapshot.MergeStats
	// Report is nil when reconciliation was skipped.
	Report *reconcile.Report
}

// ReconciliationErr returns the mismatch error of the run, if any.
func (r *RunResult) ReconciliationErr() error {
	if r.Report == nil {
		return nil
	}
	return r.Report.Err()
}

// Run executes the pipeline. A reconciliation mismatch is not an error: the
// run is stored with Publishable=false and the caller decides what to do.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	recordsA, recordsB, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	datasetA, err := snapshot.NewDataset(p.sourceA.Name, recordsA)
	if err != nil {
		return nil, err
	}
	datasetB, err := snapshot.NewDataset(p.sourceB.Name, recordsB)
	if err != nil {
		return nil, err
	}

	snap, stats, err := snapshot.Merge(datasetA, datasetB, p.config.Exclusions)
	if err != nil {
		return nil, fmt.Errorf("failed to merge datasets: %w", err)
	}
	p.logger.Sugar().Infow("Merged datasets",
		"sourceA", stats.SourceA,
		"sourceACount", stats.SourceACount,
		"sourceB", stats.SourceB,
		"sourceBCount", stats.SourceBCount,
		"updated", stats.Updated,
		"added", stats.Added,
		"excluded", stats.Excluded,
		"accounts", stats.Accounts,
	)
	p.metrics.ObserveMerge(stats.Updated, stats.Added, stats.Excluded, stats.Accounts)
	p.metrics.SetSnapshotTotal(snap.Total())

	start := time.Now()
	dist, err := NewDistribution(snap, p.config.TreeWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to build merkle tree: %w", err)
	}
	p.metrics.ObserveTree(dist.Tree().Depth(), time.Since(start))
	p.logger.Sugar().Infow("Built merkle tree", "root", dist.Root(), "leaves", snap.Len(), "depth", dist.Tree().Depth())

	var report *reconcile.Report
	if p.config.SkipReconcile {
		p.logger.Sugar().Warnw("Reconciliation skipped, run will not be publishable")
	} else {
		report, err = p.reconcile(ctx, snap)
		if err != nil {
			return nil, err
		}
	}

	record := persistence.NewSnapshotRecord(snap, dist.Root(), p.now())
	record.Stats = stats
	record.Reconciliation = report
	record.Publishable = report != nil && report.Valid

	// The artifact is only written once the run is durably stored
	if p.store != nil {
		if err := p.store.SaveSnapshot(record); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
		p.logger.Sugar().Infow("Persisted run", "runId", record.RunID, "publishable", record.Publishable)
	}

	if p.config.SnapshotFile != "" {
		if err := file.WriteSnapshotFile(p.config.SnapshotFile, snap); err != nil {
			return nil, err
		}
		p.logger.Sugar().Infow("Wrote snapshot file", "path", p.config.SnapshotFile)
	}

	p.metrics.MarkRun(record.CreatedAt)
	if p.config.MetricsFile != "" {
		if err := p.metrics.WriteTextfile(p.config.MetricsFile); err != nil {
			// Metrics are best effort and never fail a run
			p.logger.Sugar().Warnw("Failed to write metrics file", "path", p.config.MetricsFile, "error", err)
		}
	}

	return &RunResult{
		Record:       record,
		Distribution: dist,
		Stats:        stats,
		Report:       report,
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]snapshot.Record, []snapshot.Record, error) {
	var recordsA, recordsB []snapshot.Record

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recordsA, err = p.fetchSource(ctx, p.sourceA)
		return err
	})
	g.Go(func() error {
		var err error
		recordsB, err = p.fetchSource(ctx, p.sourceB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return recordsA, recordsB, nil
}

func (p *Pipeline) fetchSource(ctx context.Context, src Source) ([]snapshot.Record, error) {
	start := time.Now()
	records, err := src.Fetcher.FetchAccounts(ctx)
	if err != nil {
		p.metrics.IncFetchError(src.Name)
		return nil, fmt.Errorf("failed to fetch %s: %w", src.Name, err)
	}
	p.metrics.ObserveFetch(src.Name, len(records), time.Since(start))
	p.logger.Sugar().Infow("Fetched source", "source", src.Name, "records", len(records))
	return records, nil
}

func (p *Pipeline) reconcile(ctx context.Context, snap *snapshot.Snapshot) (*reconcile.Report, error) {
	groundTruth, err := p.groundTruth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth: %w", err)
	}

	report, err := reconcile.ReconcileSources(snap, groundTruth, p.config.CapFactor)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveReconciliation(report.GroundTruth, report.Valid)

	fields := []interface{}{
		"snapshotTotal", report.SnapshotTotal.String(),
		"groundTruth", report.GroundTruth.String(),
		"delta", report.Delta.String(),
		"capAdjustedTotal", report.CapAdjustedTotal.String(),
		"capDiscarded", report.CapDiscardedAmount.String(),
	}
	if report.Valid {
		p.logger.Sugar().Infow("Reconciliation passed", fields...)
	} else {
		p.logger.Sugar().Errorw("Reconciliation FAILED", fields...)
	}
	return report, nil
}
