package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"
	"github.com/BurhanCantCode/BaqiAI/pkg/util"
)

// liveKey is the document key of the live prediction cache.
const liveKey = "psx:predictions"

// Option configures PredictionStore.
type Option func(*PredictionStore)

// PredictionStore serves the prediction cache document through a tiered
// fallback: the live document written by the batch, then pre-computed
// per-symbol seed files, then nothing. Only the live tier is ever written.
type PredictionStore struct {
	backend  cache.Service
	seedDir  string
	registry []models.Stock
	horizon  int
	maxAge   time.Duration
	logger   *applogger.Logger
	now      func() time.Time
}

// New creates a PredictionStore over the given document backend.
func New(backend cache.Service, seedDir string, registry []models.Stock, opts ...Option) *PredictionStore {
	s := &PredictionStore{
		backend:  backend,
		seedDir:  seedDir,
		registry: registry,
		horizon:  models.ForecastHorizon,
		maxAge:   24 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHorizon caps seed forecasts at n days.
func WithHorizon(n int) Option {
	return func(s *PredictionStore) {
		if n > 0 {
			s.horizon = n
		}
	}
}

// WithMaxAge sets the freshness window of the live document.
func WithMaxAge(d time.Duration) Option {
	return func(s *PredictionStore) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *PredictionStore) {
		s.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *PredictionStore) {
		s.now = now
	}
}

// Load returns the best available cache document, or nil when neither the
// live document nor any seed file yields usable data. A corrupt or empty
// live document falls through to the seed tier rather than erroring.
func (s *PredictionStore) Load(ctx context.Context) *models.PredictionCache {
	if doc := s.LoadLive(ctx); doc != nil {
		return doc
	}
	return s.loadSeed()
}

// LoadLive returns only the live-tier document, or nil when it is absent,
// corrupt or empty. Resume-mode batches seed their working set from here:
// seed-tier forecasts must never suppress recomputation.
func (s *PredictionStore) LoadLive(ctx context.Context) *models.PredictionCache {
	var doc models.PredictionCache
	err := s.backend.Get(ctx, liveKey, &doc)
	switch {
	case err == nil && len(doc.Stocks) > 0:
		return &doc
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.warn("live prediction document unreadable", applogger.Error(err))
	}
	return nil
}

// IsFresh reports whether doc was generated within the freshness window.
// Seed documents and documents with an unparseable timestamp are never fresh.
func (s *PredictionStore) IsFresh(doc *models.PredictionCache) bool {
	if doc == nil || doc.GeneratedAt == "" || doc.GeneratedAt == models.SeedGeneratedAt {
		return false
	}
	gen, ok := util.ParseTime(doc.GeneratedAt)
	if !ok {
		return false
	}
	return s.now().Sub(gen) < s.maxAge
}

// Save overwrites the live document with the given per-symbol records.
// Called after every successful symbol so a mid-batch crash loses at most
// the in-flight symbol.
func (s *PredictionStore) Save(ctx context.Context, stocks map[string]models.PredictionRecord) error {
	doc := models.PredictionCache{
		GeneratedAt: s.now().Format(time.RFC3339),
		Source:      models.SourceLive,
		Stocks:      stocks,
	}
	if err := s.backend.Set(ctx, liveKey, &doc, 0); err != nil {
		return fmt.Errorf("save prediction cache: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("prediction cache saved", applogger.Int("stocks", len(stocks)))
	}
	return nil
}

// seedFile is the on-disk shape of one pre-computed per-symbol forecast.
type seedFile struct {
	CurrentPrice     *float64                 `json:"current_price"`
	DailyPredictions []models.DailyPrediction `json:"daily_predictions"`
	Reasoning        map[string]any           `json:"prediction_reasoning"`
	Metrics          models.ModelMetrics      `json:"metrics"`
}

// loadSeed assembles a synthetic cache document from per-symbol seed files.
// Missing or corrupt files are skipped per symbol.
func (s *PredictionStore) loadSeed() *models.PredictionCache {
	if s.seedDir == "" {
		return nil
	}

	stocks := make(map[string]models.PredictionRecord)
	for _, stock := range s.registry {
		path, ok := s.findSeedFile(stock.Symbol)
		if !ok {
			continue
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			s.warn("seed file unreadable", applogger.String("symbol", stock.Symbol), applogger.Error(err))
			continue
		}
		var sf seedFile
		if err := json.Unmarshal(raw, &sf); err != nil {
			s.warn("seed file corrupt", applogger.String("symbol", stock.Symbol), applogger.Error(err))
			continue
		}

		daily := sf.DailyPredictions
		if len(daily) > s.horizon {
			daily = daily[:s.horizon]
		}
		stocks[stock.Symbol] = models.PredictionRecord{
			Symbol:           stock.Symbol,
			Sector:           stock.Sector,
			CurrentPrice:     seedCurrentPrice(sf),
			DailyPredictions: daily,
			Metrics:          sf.Metrics,
			Reasoning:        sf.Reasoning,
		}
	}

	if len(stocks) == 0 {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("loaded seed predictions", applogger.Int("stocks", len(stocks)))
	}
	return &models.PredictionCache{
		GeneratedAt: models.SeedGeneratedAt,
		Source:      models.SourceSeed,
		Stocks:      stocks,
	}
}

// findSeedFile locates the seed document for a symbol. Seed exports carry a
// vintage suffix in the filename, so match by prefix.
func (s *PredictionStore) findSeedFile(symbol string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.seedDir, symbol+"_research_predictions*.json"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// seedCurrentPrice prefers an explicit current price; otherwise it is
// derived from the first forecast day: price = predicted / (1 + upside/100).
func seedCurrentPrice(sf seedFile) float64 {
	if sf.CurrentPrice != nil {
		return *sf.CurrentPrice
	}
	if len(sf.DailyPredictions) == 0 {
		return 0
	}
	first := sf.DailyPredictions[0]
	upside := first.UpsidePotential / 100
	if upside == 0 {
		return first.PredictedPrice
	}
	return math.Round(first.PredictedPrice/(1+upside)*100) / 100
}

func (s *PredictionStore) warn(msg string, fields ...applogger.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}
