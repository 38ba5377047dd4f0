package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var testRegistry = []models.Stock{
	{Symbol: "LUCK", Company: "Lucky Cement", Sector: "Cement"},
	{Symbol: "FFC", Company: "Fauji Fertilizer", Sector: "Fertilizer"},
}

func newTestStore(t *testing.T, opts ...Option) (*PredictionStore, cache.Service, string) {
	t.Helper()
	dataDir := t.TempDir()
	seedDir := t.TempDir()
	backend, err := cache.NewFileCache(dataDir)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return storeNow })}, opts...)
	return New(backend, seedDir, testRegistry, opts...), backend, seedDir
}

func writeSeedFile(t *testing.T, seedDir, symbol string, doc map[string]any) {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(seedDir, symbol+"_research_predictions_2026.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestSaveThenLoadLive(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	stocks := map[string]models.PredictionRecord{
		"LUCK": {
			Symbol:       "LUCK",
			Sector:       "Cement",
			CurrentPrice: 1250.5,
			DailyPredictions: []models.DailyPrediction{
				{Day: 1, PredictedPrice: 1260, UpsidePotential: 0.76, Confidence: 0.8},
			},
		},
	}
	require.NoError(t, s.Save(ctx, stocks))

	doc := s.Load(ctx)
	require.NotNil(t, doc)
	assert.Equal(t, models.SourceLive, doc.Source)
	assert.Equal(t, storeNow.Format(time.RFC3339), doc.GeneratedAt)
	require.Contains(t, doc.Stocks, "LUCK")
	assert.Equal(t, 1250.5, doc.Stocks["LUCK"].CurrentPrice)
	assert.True(t, s.IsFresh(doc))
}

func TestIsFresh(t *testing.T) {
	s, _, _ := newTestStore(t)

	cases := []struct {
		name string
		doc  *models.PredictionCache
		want bool
	}{
		{"nil document", nil, false},
		{"empty generated_at", &models.PredictionCache{}, false},
		{"seed sentinel", &models.PredictionCache{GeneratedAt: models.SeedGeneratedAt}, false},
		{"unparseable", &models.PredictionCache{GeneratedAt: "not-a-time"}, false},
		{"25 hours old", &models.PredictionCache{GeneratedAt: storeNow.Add(-25 * time.Hour).Format(time.RFC3339)}, false},
		{"exactly 24 hours old", &models.PredictionCache{GeneratedAt: storeNow.Add(-24 * time.Hour).Format(time.RFC3339)}, false},
		{"1 hour old", &models.PredictionCache{GeneratedAt: storeNow.Add(-time.Hour).Format(time.RFC3339)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.IsFresh(tc.doc))
		})
	}
}

func TestLoadFallsBackToSeedWhenLiveAbsent(t *testing.T) {
	s, _, seedDir := newTestStore(t)

	writeSeedFile(t, seedDir, "LUCK", map[string]any{
		"daily_predictions": []map[string]any{
			{"day": 1, "predicted_price": 110.0, "upside_potential": 10.0, "confidence": 0.7},
		},
	})

	doc := s.Load(context.Background())
	require.NotNil(t, doc)
	assert.Equal(t, models.SourceSeed, doc.Source)
	assert.Equal(t, models.SeedGeneratedAt, doc.GeneratedAt)
	assert.False(t, s.IsFresh(doc))

	rec := doc.Stocks["LUCK"]
	assert.Equal(t, "Cement", rec.Sector)
	// Derived: 110 / (1 + 10/100) = 100.
	assert.Equal(t, 100.0, rec.CurrentPrice)
}

func TestLoadFallsBackToSeedWhenLiveCorrupt(t *testing.T) {
	dataDir := t.TempDir()
	seedDir := t.TempDir()
	backend, err := cache.NewFileCache(dataDir)
	require.NoError(t, err)
	s := New(backend, seedDir, testRegistry, WithClock(func() time.Time { return storeNow }))

	// File cache stores key "psx:predictions" with separators flattened.
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "psx_predictions.json"), []byte("{not json"), 0o644))
	writeSeedFile(t, seedDir, "FFC", map[string]any{
		"current_price": 95.0,
		"daily_predictions": []map[string]any{
			{"day": 1, "predicted_price": 99.0, "upside_potential": 4.2, "confidence": 0.6},
		},
	})

	doc := s.Load(context.Background())
	require.NotNil(t, doc)
	assert.Equal(t, models.SourceSeed, doc.Source)
	// Explicit current_price wins over derivation.
	assert.Equal(t, 95.0, doc.Stocks["FFC"].CurrentPrice)
}

func TestLoadLiveIgnoresSeedTier(t *testing.T) {
	s, _, seedDir := newTestStore(t)
	writeSeedFile(t, seedDir, "LUCK", map[string]any{
		"daily_predictions": []map[string]any{
			{"day": 1, "predicted_price": 110.0, "upside_potential": 10.0},
		},
	})

	assert.Nil(t, s.LoadLive(context.Background()))
}

func TestLoadReturnsNilWithoutAnyTier(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Nil(t, s.Load(context.Background()))
}

func TestSeedTruncatesToHorizon(t *testing.T) {
	s, _, seedDir := newTestStore(t, WithHorizon(3))

	days := make([]map[string]any, 10)
	for i := range days {
		days[i] = map[string]any{"day": i + 1, "predicted_price": 100.0 + float64(i), "upside_potential": 1.0}
	}
	writeSeedFile(t, seedDir, "LUCK", map[string]any{"daily_predictions": days})

	doc := s.Load(context.Background())
	require.NotNil(t, doc)
	assert.Len(t, doc.Stocks["LUCK"].DailyPredictions, 3)
}

func TestSeedSkipsCorruptFilePerSymbol(t *testing.T) {
	s, _, seedDir := newTestStore(t)

	require.NoError(t, os.WriteFile(
		filepath.Join(seedDir, "LUCK_research_predictions_2026.json"), []byte("garbage"), 0o644))
	writeSeedFile(t, seedDir, "FFC", map[string]any{
		"daily_predictions": []map[string]any{
			{"day": 1, "predicted_price": 50.0, "upside_potential": 0.0},
		},
	})

	doc := s.Load(context.Background())
	require.NotNil(t, doc)
	assert.NotContains(t, doc.Stocks, "LUCK")
	require.Contains(t, doc.Stocks, "FFC")
	// Zero upside: fall back to the predicted price itself.
	assert.Equal(t, 50.0, doc.Stocks["FFC"].CurrentPrice)
}
