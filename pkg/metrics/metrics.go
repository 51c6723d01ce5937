// Package metrics records distribution run figures for Prometheus. Runs are
// batch jobs, so the registry is written to a textfile for the node-exporter
// textfile collector rather than served over HTTP.
package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
)

const namespace = "distribution"

// Recorder exposes Prometheus metrics for a distribution run.
type Recorder struct {
	registry *prometheus.Registry

	sourceAccounts *prometheus.GaugeVec
	fetchDuration  *prometheus.HistogramVec
	fetchErrors    *prometheus.CounterVec
	mergeResult    *prometheus.GaugeVec
	accounts       prometheus.Gauge
	total          prometheus.Gauge
	groundTruth    prometheus.Gauge
	reconciled     prometheus.Gauge
	treeDepth      prometheus.Gauge
	treeDuration   prometheus.Histogram
	lastRun        prometheus.Gauge
}

// NewRecorder creates a recorder backed by its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		sourceAccounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_accounts",
			Help:      "Number of records fetched per source",
		}, []string{"source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken to fetch all pages from a source",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"source"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Source fetch failures",
		}, []string{"source"}),
		mergeResult: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merge_accounts",
			Help:      "Merge outcome counts grouped by kind (updated, added, excluded)",
		}, []string{"kind"}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_accounts",
			Help:      "Number of accounts in the canonical snapshot",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_total",
			Help:      "Snapshot total (float approximation, dashboards only)",
		}),
		groundTruth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ground_truth_total",
			Help:      "Observed on-chain locked supply (float approximation, dashboards only)",
		}),
		reconciled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconciliation_valid",
			Help:      "1 when the snapshot total matched ground truth exactly",
		}),
		treeDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_depth",
			Help:      "Number of hashing levels above the leaves",
		}),
		treeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_build_duration_seconds",
			Help:      "Latency of building the merkle tree",
			Buckets:   prometheus.DefBuckets,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}

	reg.MustRegister(
		r.sourceAccounts,
		r.fetchDuration,
		r.fetchErrors,
		r.mergeResult,
		r.accounts,
		r.total,
		r.groundTruth,
		r.reconciled,
		r.treeDepth,
		r.treeDuration,
		r.lastRun,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveFetch(source string, records int, d time.Duration) {
	r.sourceAccounts.WithLabelValues(source).Set(float64(records))
	r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Recorder) IncFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

func (r *Recorder) ObserveMerge(updated, added, excluded, accounts int) {
	r.mergeResult.WithLabelValues("updated").Set(float64(updated))
	r.mergeResult.WithLabelValues("added").Set(float64(added))
	r.mergeResult.WithLabelValues("excluded").Set(float64(excluded))
	r.accounts.Set(float64(accounts))
}

func (r *Recorder) SetSnapshotTotal(total *amount.Amount) {
	r.total.Set(approx(total))
}

func (r *Recorder) ObserveReconciliation(groundTruth *amount.Amount, valid bool) {
	r.groundTruth.Set(approx(groundTruth))
	if valid {
		r.reconciled.Set(1)
	} else {
		r.reconciled.Set(0)
	}
}

func (r *Recorder) ObserveTree(depth int, d time.Duration) {
	r.treeDepth.Set(float64(depth))
	r.treeDuration.Observe(d.Seconds())
}

// MarkRun stamps the completion time of a run.
func (r *Recorder) MarkRun(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. The write
// goes through a temporary file and a rename.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func approx(a *amount.Amount) float64 {
	if a == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}
