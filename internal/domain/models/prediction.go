package models

import "time"

// ForecastHorizon is the number of future trading days a forecast covers.
const ForecastHorizon = 21

// SeedGeneratedAt is the generated_at sentinel of seed-tier cache documents.
const SeedGeneratedAt = "seed"

// Cache document sources.
const (
	SourceLive = "live"
	SourceSeed = "seed"
)

// DailyPrediction is one forecast day. Day is a 1-indexed trading-day offset
// from the forecast anchor date.
type DailyPrediction struct {
	Day             int     `json:"day"`
	PredictedPrice  float64 `json:"predicted_price"`
	UpsidePotential float64 `json:"upside_potential"`
	Confidence      float64 `json:"confidence"`

	// Populated only when a sentiment adjustment was applied to this day.
	BasePredictedPrice     float64  `json:"base_predicted_price,omitempty"`
	SentimentAdjustmentPct float64  `json:"sentiment_adjustment_pct,omitempty"`
	SentimentEvents        []string `json:"sentiment_events,omitempty"`
}

// ModelMetrics carries the external model's self-reported fit metrics.
type ModelMetrics map[string]float64

// Forecast is the model service's output for one symbol: the daily path
// plus whatever reasoning the model chose to report.
type Forecast struct {
	Predictions []DailyPrediction `json:"predictions"`
	Reasoning   map[string]any    `json:"reasoning,omitempty"`
}

// PredictionRecord is the full forecast for one symbol. Owned by the
// orchestrator while being computed; immutable once persisted until the
// next successful recomputation.
type PredictionRecord struct {
	Symbol           string            `json:"symbol"`
	Sector           string            `json:"sector"`
	CurrentPrice     float64           `json:"current_price"`
	DailyPredictions []DailyPrediction `json:"daily_predictions"`
	Metrics          ModelMetrics      `json:"metrics,omitempty"`
	Reasoning        map[string]any    `json:"prediction_reasoning,omitempty"`
}

// PredictionCache is the sole persisted artifact of the prediction store,
// rewritten whole after every successful per-symbol completion.
type PredictionCache struct {
	GeneratedAt string                      `json:"generated_at"`
	Source      string                      `json:"source"`
	Stocks      map[string]PredictionRecord `json:"stocks"`
}

// JobStatus is the observable state of the single background batch.
// Snapshots are always well-formed, including after a fatal abort.
type JobStatus struct {
	RunID         string     `json:"run_id,omitempty"`
	Running       bool       `json:"running"`
	Progress      int        `json:"progress"`
	CurrentSymbol string     `json:"current_symbol,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`
	StocksDone    int        `json:"stocks_done"`
	StocksTotal   int        `json:"stocks_total"`
}

// ProgressEvent is one live progress update emitted during a batch run.
type ProgressEvent struct {
	RunID   string    `json:"run_id"`
	Symbol  string    `json:"symbol"`
	Percent int       `json:"percent"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
