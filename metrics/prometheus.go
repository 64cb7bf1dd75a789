// Package metrics collects Prometheus metrics for a prediction run and
// exports them in the node-exporter textfile format once the run ends.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for a run
type Metrics struct {
	registry *prometheus.Registry

	// Inference metrics
	CropsScored       prometheus.Counter
	BatchesScored     prometheus.Counter
	InferenceDuration prometheus.Histogram

	// Fold metrics
	ClipsPredicted  *prometheus.CounterVec
	FoldDuration    *prometheus.GaugeVec
	CheckpointScore *prometheus.GaugeVec

	// Run metrics
	RunSuccess prometheus.Gauge
	LastRun    prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		CropsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "fold_predict_crops_total",
			Help: "Total number of spectrogram crops sent to the classifier",
		}),
		BatchesScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "fold_predict_batches_total",
			Help: "Total number of classifier calls",
		}),
		InferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fold_predict_inference_duration_seconds",
			Help:    "Time spent in one classifier call",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),

		ClipsPredicted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fold_predict_clips_total",
			Help: "Test clips predicted per fold",
		}, []string{"fold"}),
		FoldDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fold_predict_fold_duration_seconds",
			Help: "Wall time to predict the test set of a fold",
		}, []string{"fold"}),
		CheckpointScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fold_predict_checkpoint_score",
			Help: "Validation score embedded in the selected checkpoint name",
		}, []string{"fold"}),

		RunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fold_predict_last_run_success",
			Help: "1 if the last run blended all folds, 0 otherwise",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fold_predict_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// ObserveBatch records one classifier call.
func (m *Metrics) ObserveBatch(size int, elapsed time.Duration) {
	m.CropsScored.Add(float64(size))
	m.BatchesScored.Inc()
	m.InferenceDuration.Observe(elapsed.Seconds())
}

// ObserveClip counts one predicted clip of fold.
func (m *Metrics) ObserveClip(fold int) {
	m.ClipsPredicted.WithLabelValues(strconv.Itoa(fold)).Inc()
}

// ObserveFold records the selected checkpoint score and the fold wall time.
func (m *Metrics) ObserveFold(fold int, score float64, elapsed time.Duration) {
	label := strconv.Itoa(fold)
	m.CheckpointScore.WithLabelValues(label).Set(score)
	m.FoldDuration.WithLabelValues(label).Set(elapsed.Seconds())
}

// Finish stamps the run outcome.
func (m *Metrics) Finish(success bool, at time.Time) {
	if success {
		m.RunSuccess.Set(1)
	} else {
		m.RunSuccess.Set(0)
	}
	m.LastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the registry for export and tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes all metrics to path for a textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
