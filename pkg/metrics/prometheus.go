package metrics

import (
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	reportsTotal  *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
	storesTotal   *prometheus.CounterVec
	storeLatency  prometheus.Histogram
	batchLatency  prometheus.Histogram
	importedRows  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the recorder's collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		reportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storemonitor_reports_total",
				Help: "Report jobs that reached a terminal state",
			},
			[]string{"status"},
		),
		reportLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storemonitor_report_duration_seconds",
				Help:    "Wall time of a report job",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		storesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storemonitor_report_stores_total",
				Help: "Stores evaluated by report jobs",
			},
			[]string{"result"},
		),
		storeLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storemonitor_store_duration_seconds",
				Help:    "Time to evaluate one store",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		batchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storemonitor_batch_duration_seconds",
				Help:    "Time to evaluate one store batch",
				Buckets: prometheus.DefBuckets,
			},
		),
		importedRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storemonitor_imported_rows_total",
				Help: "Rows loaded into each dataset",
			},
			[]string{"dataset"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storemonitor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) ReportFinished(status models.ReportStatus, d time.Duration) {
	r.reportsTotal.WithLabelValues(string(status)).Inc()
	r.reportLatency.WithLabelValues(string(status)).Observe(d.Seconds())
}

func (r *Recorder) StoreProcessed(result string, d time.Duration) {
	r.storesTotal.WithLabelValues(result).Inc()
	r.storeLatency.Observe(d.Seconds())
}

func (r *Recorder) BatchProcessed(d time.Duration) {
	r.batchLatency.Observe(d.Seconds())
}

func (r *Recorder) RowsImported(ds repository.Dataset, n int) {
	r.importedRows.WithLabelValues(string(ds)).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) ReportFinished(models.ReportStatus, time.Duration) {}
func (Nop) StoreProcessed(string, time.Duration)             {}
func (Nop) BatchProcessed(time.Duration)                     {}
func (Nop) RowsImported(repository.Dataset, int)             {}
func (Nop) RecordError(string)                               {}
