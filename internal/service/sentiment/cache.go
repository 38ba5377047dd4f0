package sentiment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"
	"github.com/BurhanCantCode/BaqiAI/pkg/util"
)

const keyPrefix = "psx:news:"

// Cache serves per-symbol classifier output. The read path never calls the
// classifier: population happens out of band through Put, and a miss is
// answered with a neutral placeholder rather than an error.
type Cache struct {
	backend  cache.Service
	freshFor time.Duration
	logger   *applogger.Logger
	now      func() time.Time
}

// CacheOption configures Cache.
type CacheOption func(*Cache)

// NewCache creates a sentiment cache over the given document backend.
func NewCache(backend cache.Service, opts ...CacheOption) *Cache {
	c := &Cache{
		backend:  backend,
		freshFor: 4 * time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithFreshFor sets the freshness window of cached sentiment.
func WithFreshFor(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.freshFor = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// Get returns the cached sentiment for symbol, or a neutral placeholder
// when nothing usable is cached. Stale documents are still returned; the
// caller decides what staleness means for its use case.
func (c *Cache) Get(ctx context.Context, symbol string) models.SentimentResult {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var result models.SentimentResult
	err := c.backend.Get(ctx, keyPrefix+symbol, &result)
	if err == nil {
		if c.logger != nil {
			c.logger.Debug("sentiment cache hit",
				applogger.String("symbol", symbol),
				applogger.Int("news_count", result.NewsCount),
			)
		}
		return result
	}
	if !errors.Is(err, cache.ErrCacheMiss) && c.logger != nil {
		c.logger.Warn("sentiment cache unreadable",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
	return Neutral(symbol)
}

// Put stores a classifier result for its symbol, stamping cached_at. The
// backend entry outlives the freshness window so stale-but-present data
// remains inspectable.
func (c *Cache) Put(ctx context.Context, result models.SentimentResult) error {
	symbol := strings.ToUpper(strings.TrimSpace(result.Symbol))
	result.Symbol = symbol
	result.CachedAt = c.now().Format(time.RFC3339)
	return c.backend.Set(ctx, keyPrefix+symbol, &result, 0)
}

// IsFresh reports whether the result was cached within the freshness window.
func (c *Cache) IsFresh(result models.SentimentResult) bool {
	if result.CachedAt == "" {
		return false
	}
	cachedAt, ok := util.ParseTime(result.CachedAt)
	if !ok {
		return false
	}
	return c.now().Sub(cachedAt) < c.freshFor
}

// Neutral is the placeholder served when no sentiment is cached: zero
// score, zero confidence, so downstream adjustments are a no-op.
func Neutral(symbol string) models.SentimentResult {
	return models.SentimentResult{
		Symbol:         symbol,
		Company:        symbol,
		NewsCount:      0,
		NewsItems:      []models.NewsItem{},
		SentimentScore: 0,
		Signal:         models.SignalNeutral,
		Confidence:     0,
		Summary:        "No cached news data available for this stock",
	}
}

var _ drepo.SentimentSource = (*Cache)(nil)
