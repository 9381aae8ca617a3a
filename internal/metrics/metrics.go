// Package metrics exposes batch and dataset metrics through a private
// Prometheus registry. The CLI writes them out in the text exposition format
// for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"ioimpact/internal/batch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric the tool records.
type Registry struct {
	registry *prometheus.Registry

	// Batch metrics
	BatchCellsTotal   *prometheus.CounterVec
	BatchCellDuration *prometheus.HistogramVec
	BatchRunsTotal    *prometheus.CounterVec
	BatchRunDuration  prometheus.Histogram
	BatchRowsTotal    prometheus.Counter

	// Dataset metrics
	DatasetCoefficients *prometheus.GaugeVec
	DatasetSectors      *prometheus.GaugeVec
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initBatchMetrics()
	r.initDatasetMetrics()
	return r
}

func (r *Registry) initBatchMetrics() {
	r.BatchCellsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ioimpact_batch_cells_total",
			Help: "Batch cells computed, by coefficient type and status",
		},
		[]string{"coefficient_type", "status", "error_kind"},
	)

	r.BatchCellDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ioimpact_batch_cell_duration_seconds",
			Help:    "Time to compute and aggregate one batch cell",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"coefficient_type"},
	)

	r.BatchRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ioimpact_batch_runs_total",
			Help: "Batch runs, by exit code",
		},
		[]string{"exit_code"},
	)

	r.BatchRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ioimpact_batch_run_duration_seconds",
			Help:    "Wall time of a batch run",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.BatchRowsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ioimpact_batch_rows_total",
			Help: "Result rows produced by batch runs",
		},
	)
}

func (r *Registry) initDatasetMetrics() {
	r.DatasetCoefficients = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ioimpact_dataset_coefficients",
			Help: "Coefficients loaded per coefficient type",
		},
		[]string{"data_source", "coefficient_type"},
	)

	r.DatasetSectors = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ioimpact_dataset_sectors",
			Help: "Registered codes per index kind",
		},
		[]string{"kind"},
	)
}

// ObserveCell records one finished batch cell.
func (r *Registry) ObserveCell(typeID string, status batch.Status, errorKind string, d time.Duration) {
	r.BatchCellsTotal.WithLabelValues(typeID, string(status), errorKind).Inc()
	r.BatchCellDuration.WithLabelValues(typeID).Observe(d.Seconds())
}

// RecordRun records a finished batch run.
func (r *Registry) RecordRun(exitCode, rows int, d time.Duration) {
	r.BatchRunsTotal.WithLabelValues(fmt.Sprint(exitCode)).Inc()
	r.BatchRunDuration.Observe(d.Seconds())
	r.BatchRowsTotal.Add(float64(rows))
}

// SetDataset records the size of the loaded dataset.
func (r *Registry) SetDataset(source, typeID string, coefficients int) {
	r.DatasetCoefficients.WithLabelValues(source, typeID).Set(float64(coefficients))
}

// SetSectors records the number of registered codes of one index kind.
func (r *Registry) SetSectors(kind string, n int) {
	r.DatasetSectors.WithLabelValues(kind).Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
