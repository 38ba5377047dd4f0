package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	backend, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return NewCache(backend, WithClock(func() time.Time { return testNow }))
}

func TestGetMissReturnsNeutralPlaceholder(t *testing.T) {
	c := newTestCache(t)

	got := c.Get(context.Background(), "luck")
	assert.Equal(t, "LUCK", got.Symbol)
	assert.Zero(t, got.SentimentScore)
	assert.Zero(t, got.Confidence)
	assert.Zero(t, got.NewsCount)
	assert.Equal(t, models.SignalNeutral, got.Signal)
	assert.Empty(t, got.NewsItems)
}

func TestPutThenGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := models.SentimentResult{
		Symbol:         "ffc",
		Company:        "Fauji Fertilizer",
		NewsCount:      2,
		NewsItems:      []models.NewsItem{{Title: "Dividend announced"}, {Title: "Output up"}},
		SentimentScore: 0.6,
		Signal:         models.SignalBuy,
		Confidence:     0.75,
	}
	require.NoError(t, c.Put(ctx, in))

	got := c.Get(ctx, "FFC")
	assert.Equal(t, "FFC", got.Symbol)
	assert.Equal(t, 0.6, got.SentimentScore)
	assert.Equal(t, models.SignalBuy, got.Signal)
	assert.Equal(t, testNow.Format(time.RFC3339), got.CachedAt)
	assert.True(t, c.IsFresh(got))
}

func TestStaleEntryStillReturned(t *testing.T) {
	backend, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	writeTime := testNow.Add(-6 * time.Hour)
	writer := NewCache(backend, WithClock(func() time.Time { return writeTime }))
	require.NoError(t, writer.Put(context.Background(), models.SentimentResult{
		Symbol:         "UBL",
		SentimentScore: -0.4,
		Signal:         models.SignalSell,
		Confidence:     0.9,
	}))

	reader := NewCache(backend, WithClock(func() time.Time { return testNow }))
	got := reader.Get(context.Background(), "UBL")

	// Staleness does not suppress the entry; the caller decides.
	assert.Equal(t, -0.4, got.SentimentScore)
	assert.False(t, reader.IsFresh(got))
}

func TestIsFreshBoundary(t *testing.T) {
	c := newTestCache(t)

	fresh := models.SentimentResult{CachedAt: testNow.Add(-3 * time.Hour).Format(time.RFC3339)}
	assert.True(t, c.IsFresh(fresh))

	boundary := models.SentimentResult{CachedAt: testNow.Add(-4 * time.Hour).Format(time.RFC3339)}
	assert.False(t, c.IsFresh(boundary))

	assert.False(t, c.IsFresh(models.SentimentResult{}))
	assert.False(t, c.IsFresh(models.SentimentResult{CachedAt: "garbage"}))
}
