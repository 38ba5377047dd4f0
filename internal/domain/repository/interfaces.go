package repository

import (
	"context"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
)

// MarketData fetches the full historical OHLCV series for a symbol.
type MarketData interface {
	FetchSeries(ctx context.Context, symbol string) ([]models.Candle, error)
}

// ForecastModel is the external model service contract. PredictDaily must
// fail loudly when it cannot produce a horizon-length forecast.
type ForecastModel interface {
	Fit(ctx context.Context, symbol string, series []models.Candle) (models.ModelMetrics, error)
	PredictDaily(ctx context.Context, symbol string, series []models.Candle, horizon int) (*models.Forecast, error)
}

// SentimentSource serves the cached classifier output for a symbol. A miss
// yields a neutral placeholder, never an error.
type SentimentSource interface {
	Get(ctx context.Context, symbol string) models.SentimentResult
}

// EventPublisher emits batch lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishProgress(ctx context.Context, ev models.ProgressEvent) error
	PublishPrediction(ctx context.Context, rec models.PredictionRecord) error
	Close() error
}

// HistoryArchive persists fetched OHLCV series for later ad-hoc analysis.
type HistoryArchive interface {
	Init(ctx context.Context) error
	StoreSeries(ctx context.Context, symbol string, series []models.Candle) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordBatchStart(mode string)
	RecordSymbolOutcome(symbol, outcome string)
	RecordStageLatency(stage string, seconds float64)
	RecordPredictedPrice(symbol string, price float64)
}
