package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "epw_merge"

// Metrics holds the Prometheus counters, histograms, and gauges for a merge run.
type Metrics struct {
	FilesProcessed  prometheus.Counter
	FileErrors      prometheus.Counter
	RecordsDecoded  prometheus.Counter
	RowsMerged      prometheus.Counter
	PipelineRunning prometheus.Gauge

	FileProcessingDuration prometheus.Histogram

	// Comfort metrics.
	ComfortEvaluations *prometheus.CounterVec // labels: model, outcome={ok,failed}
	ComfortClamped     *prometheus.CounterVec // labels: model, input

	// Output metrics.
	ArtifactsWritten *prometheus.CounterVec   // labels: format={parquet,csv}
	WriteDuration    *prometheus.HistogramVec // labels: format
	ManifestsSent    *prometheus.CounterVec   // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.FilesProcessed,
		m.FileErrors,
		m.RecordsDecoded,
		m.RowsMerged,
		m.PipelineRunning,
		m.FileProcessingDuration,
		m.ComfortEvaluations,
		m.ComfortClamped,
		m.ArtifactsWritten,
		m.WriteDuration,
		m.ManifestsSent,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      help("EPW files decoded and merged."),
		}),
		FileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_errors_total",
			Help:      help("EPW files that aborted the run."),
		}),
		RecordsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      help("Hourly records decoded across all files."),
		}),
		RowsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_merged_total",
			Help:      help("Rows appended to the merged dataset."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while a merge is in progress, 0 otherwise."),
		}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_duration_seconds",
			Help:      help("Time to decode, project and merge one EPW file."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ComfortEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comfort_evaluations_total",
			Help:      help("Comfort model evaluations by model and outcome."),
		}, []string{"model", "outcome"}),
		ComfortClamped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comfort_inputs_clamped_total",
			Help:      help("Comfort inputs saturated to a model's bounds."),
		}, []string{"model", "input"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      help("Output files written by format."),
		}, []string{"format"}),
		WriteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      help("Time to write an output artifact."),
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"format"}),
		ManifestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifests_sent_total",
			Help:      help("Run manifests published by outcome."),
		}, []string{"outcome"}),
	}
}
