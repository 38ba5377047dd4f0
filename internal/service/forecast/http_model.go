package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
)

// ErrEmptyForecast means the model service answered but produced no
// daily path for the symbol.
var ErrEmptyForecast = errors.New("forecast: model returned no predictions")

// HTTPModel is a ForecastModel backed by the Python model service.
type HTTPModel struct {
	base    *ServiceBase
	retries int
}

// NewHTTPModel creates an HTTP-backed forecast model client.
func NewHTTPModel(serviceURL string, timeout time.Duration, retries int) drepo.ForecastModel {
	if retries <= 0 {
		retries = 1
	}
	return &HTTPModel{
		base:    NewServiceBase(serviceURL, timeout),
		retries: retries,
	}
}

type fitReq struct {
	Symbol string          `json:"symbol"`
	Series []models.Candle `json:"series"`
}

type fitResp struct {
	Metrics models.ModelMetrics `json:"metrics"`
}

// Fit trains the model on the full series and returns its fit metrics.
func (m *HTTPModel) Fit(ctx context.Context, symbol string, series []models.Candle) (models.ModelMetrics, error) {
	var resp fitResp
	if err := m.base.PostJSONWithRetry(ctx, "/fit", fitReq{Symbol: symbol, Series: series}, &resp, m.retries); err != nil {
		return nil, fmt.Errorf("fit %s: %w", symbol, err)
	}
	if resp.Metrics == nil {
		resp.Metrics = models.ModelMetrics{}
	}
	return resp.Metrics, nil
}

type predictReq struct {
	Symbol  string          `json:"symbol"`
	Series  []models.Candle `json:"series"`
	Horizon int             `json:"max_horizon"`
}

type predictResp struct {
	Predictions []models.DailyPrediction `json:"predictions"`
	Reasoning   map[string]any           `json:"reasoning"`
}

// PredictDaily requests the daily forecast path. The path is truncated to
// horizon days; an empty path is an error, a short one is the model's call.
func (m *HTTPModel) PredictDaily(ctx context.Context, symbol string, series []models.Candle, horizon int) (*models.Forecast, error) {
	var resp predictResp
	if err := m.base.PostJSONWithRetry(ctx, "/predict_daily", predictReq{Symbol: symbol, Series: series, Horizon: horizon}, &resp, m.retries); err != nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, err)
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyForecast, symbol)
	}
	if len(resp.Predictions) > horizon {
		resp.Predictions = resp.Predictions[:horizon]
	}
	return &models.Forecast{
		Predictions: resp.Predictions,
		Reasoning:   resp.Reasoning,
	}, nil
}

var _ drepo.ForecastModel = (*HTTPModel)(nil)
