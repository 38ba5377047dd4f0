package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	batchRuns      *prometheus.CounterVec
	symbolOutcomes *prometheus.CounterVec
	stageLatency   *prometheus.HistogramVec
	predictedPrice *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		batchRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "baqi_prediction_batches_total",
				Help: "Total number of prediction batch runs started",
			},
			[]string{"mode"},
		),
		symbolOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "baqi_prediction_symbols_total",
				Help: "Per-symbol batch outcomes",
			},
			[]string{"symbol", "outcome"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "baqi_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		predictedPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "baqi_predicted_price",
				Help: "Latest horizon-end predicted price per symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordBatchStart records the start of a batch run.
func (r *Recorder) RecordBatchStart(mode string) {
	r.batchRuns.WithLabelValues(mode).Inc()
}

// RecordSymbolOutcome records a per-symbol batch outcome
// (completed, skipped, fetch_failed, model_failed, save_failed).
func (r *Recorder) RecordSymbolOutcome(symbol, outcome string) {
	r.symbolOutcomes.WithLabelValues(symbol, outcome).Inc()
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordPredictedPrice records the latest predicted price for a symbol.
func (r *Recorder) RecordPredictedPrice(symbol string, price float64) {
	r.predictedPrice.WithLabelValues(symbol).Set(price)
}
