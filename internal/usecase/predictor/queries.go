package predictor

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	"github.com/BurhanCantCode/BaqiAI/internal/service/sentiment"
	"github.com/BurhanCantCode/BaqiAI/internal/store"
)

// ErrNotFound is returned when no cached forecast exists for a symbol.
var ErrNotFound = errors.New("predictor: prediction not found")

// Query serves read-only forecast lookups from the tiered store, with
// optional sentiment adjustment on top.
type Query struct {
	store      *store.PredictionStore
	sentiments drepo.SentimentSource
	model      *sentiment.Model
	horizon    int
}

// NewQuery creates the forecast query usecase.
func NewQuery(st *store.PredictionStore, sentiments drepo.SentimentSource, model *sentiment.Model, horizon int) *Query {
	if horizon <= 0 {
		horizon = models.ForecastHorizon
	}
	return &Query{
		store:      st,
		sentiments: sentiments,
		model:      model,
		horizon:    horizon,
	}
}

// Predictions returns the best available cache document across all tiers,
// or ErrNotFound when no tier yields data.
func (q *Query) Predictions(ctx context.Context) (*models.PredictionCache, error) {
	doc := q.store.Load(ctx)
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Prediction returns the cached forecast for one symbol.
func (q *Query) Prediction(ctx context.Context, symbol string) (models.PredictionRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	doc := q.store.Load(ctx)
	if doc == nil {
		return models.PredictionRecord{}, ErrNotFound
	}
	rec, ok := doc.Stocks[symbol]
	if !ok {
		return models.PredictionRecord{}, ErrNotFound
	}
	return rec, nil
}

// AdjustedForecast is a cached forecast with sentiment adjustments applied.
type AdjustedForecast struct {
	Record     models.PredictionRecord  `json:"record"`
	Sentiment  models.SentimentResult   `json:"sentiment"`
	Adjustment models.AdjustmentSummary `json:"adjustment_summary"`
}

// AdjustedPrediction overlays the sentiment adjustment model on the cached
// forecast for one symbol. With nothing cached for the symbol it fails
// with ErrNotFound; with no usable sentiment the base forecast passes
// through unchanged under a neutral summary.
func (q *Query) AdjustedPrediction(ctx context.Context, symbol string) (*AdjustedForecast, error) {
	rec, err := q.Prediction(ctx, symbol)
	if err != nil {
		return nil, err
	}

	senti := q.sentiments.Get(ctx, rec.Symbol)
	adjustments := q.model.ComputeAdjustments(senti, q.horizon)

	rec.DailyPredictions = q.model.ApplyAdjustments(rec.DailyPredictions, adjustments, rec.CurrentPrice)
	return &AdjustedForecast{
		Record:     rec,
		Sentiment:  senti,
		Adjustment: q.model.Summarize(senti, adjustments),
	}, nil
}

// Sentiment returns the cached classifier output for a symbol, neutral
// placeholder included.
func (q *Query) Sentiment(ctx context.Context, symbol string) models.SentimentResult {
	return q.sentiments.Get(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// CacheInfo describes which tier is serving predictions and how fresh it is.
type CacheInfo struct {
	Exists      bool     `json:"exists"`
	Source      string   `json:"source,omitempty"`
	GeneratedAt string   `json:"generated_at,omitempty"`
	Fresh       bool     `json:"fresh"`
	StockCount  int      `json:"stock_count"`
	Symbols     []string `json:"symbols,omitempty"`
}

// Info reports cache provenance without returning the document body.
func (q *Query) Info(ctx context.Context) CacheInfo {
	doc := q.store.Load(ctx)
	if doc == nil {
		return CacheInfo{}
	}

	symbols := make([]string, 0, len(doc.Stocks))
	for sym := range doc.Stocks {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return CacheInfo{
		Exists:      true,
		Source:      doc.Source,
		GeneratedAt: doc.GeneratedAt,
		Fresh:       q.store.IsFresh(doc),
		StockCount:  len(doc.Stocks),
		Symbols:     symbols,
	}
}
