package predictor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	"github.com/BurhanCantCode/BaqiAI/internal/store"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var batchRegistry = []models.Stock{
	{Symbol: "LUCK", Sector: "Cement"},
	{Symbol: "FFC", Sector: "Fertilizer"},
	{Symbol: "OGDC", Sector: "Energy"},
	{Symbol: "UBL", Sector: "Banking"},
	{Symbol: "SYS", Sector: "Tech"},
}

type fakeMarket struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	block chan struct{}
}

func (f *fakeMarket) FetchSeries(_ context.Context, symbol string) ([]models.Candle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if err, ok := f.fail[symbol]; ok {
		return nil, err
	}
	return makeSeries(10), nil
}

func (f *fakeMarket) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeModel struct {
	fitErr     error
	predictErr error
	panicOnFit bool
}

func (f *fakeModel) Fit(_ context.Context, _ string, _ []models.Candle) (models.ModelMetrics, error) {
	if f.panicOnFit {
		panic("model exploded")
	}
	if f.fitErr != nil {
		return nil, f.fitErr
	}
	return models.ModelMetrics{"rmse": 1.2}, nil
}

func (f *fakeModel) PredictDaily(_ context.Context, symbol string, series []models.Candle, horizon int) (*models.Forecast, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	last := series[len(series)-1].Close
	preds := make([]models.DailyPrediction, horizon)
	for i := range preds {
		preds[i] = models.DailyPrediction{
			Day:             i + 1,
			PredictedPrice:  last + float64(i+1),
			UpsidePotential: float64(i+1) / last * 100,
			Confidence:      0.8,
		}
	}
	return &models.Forecast{
		Predictions: preds,
		Reasoning:   map[string]any{"symbol": symbol},
	}, nil
}

func makeSeries(n int) []models.Candle {
	series := make([]models.Candle, n)
	for i := range series {
		d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		series[i] = models.Candle{
			Date:   d.Format("2006-01-02"),
			Open:   100 + float64(i),
			High:   101 + float64(i),
			Low:    99 + float64(i),
			Close:  100 + float64(i),
			Volume: 1000,
		}
	}
	return series
}

func newTestOrchestrator(t *testing.T, market *fakeMarket, model *fakeModel) (*Orchestrator, *store.PredictionStore) {
	t.Helper()
	backend, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	st := store.New(backend, t.TempDir(), batchRegistry,
		store.WithClock(func() time.Time { return batchNow }))

	o := New(market, model, st, batchRegistry,
		WithHorizon(5),
		WithClock(func() time.Time { return batchNow }),
	)
	return o, st
}

func TestBatchContinuesPastFetchFailure(t *testing.T) {
	market := &fakeMarket{fail: map[string]error{
		"FFC": errors.New("insufficient trading history"),
	}}
	o, st := newTestOrchestrator(t, market, &fakeModel{})

	o.run(context.Background(), ModeForce, "run-1")

	doc := st.LoadLive(context.Background())
	require.NotNil(t, doc)
	assert.Len(t, doc.Stocks, 4)
	assert.NotContains(t, doc.Stocks, "FFC")
	for _, sym := range []string{"LUCK", "OGDC", "UBL", "SYS"} {
		assert.Contains(t, doc.Stocks, sym)
	}

	status := o.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 100, status.Progress)
	assert.Empty(t, status.Error)
	require.NotNil(t, status.CompletedAt)
}

func TestRecordAssembly(t *testing.T) {
	market := &fakeMarket{}
	o, st := newTestOrchestrator(t, market, &fakeModel{})

	o.run(context.Background(), ModeForce, "run-1")

	doc := st.LoadLive(context.Background())
	require.NotNil(t, doc)
	rec := doc.Stocks["LUCK"]
	assert.Equal(t, "Cement", rec.Sector)
	// Last close of the fetched series is the anchor price.
	assert.Equal(t, 109.0, rec.CurrentPrice)
	assert.Len(t, rec.DailyPredictions, 5)
	assert.Equal(t, models.ModelMetrics{"rmse": 1.2}, rec.Metrics)
}

func TestResumeComputesOnlyMissing(t *testing.T) {
	market := &fakeMarket{}
	o, st := newTestOrchestrator(t, market, &fakeModel{})

	cached := map[string]models.PredictionRecord{
		"LUCK": {Symbol: "LUCK", CurrentPrice: 1},
		"FFC":  {Symbol: "FFC", CurrentPrice: 2},
	}
	require.NoError(t, st.Save(context.Background(), cached))

	o.run(context.Background(), ModeResume, "run-1")

	assert.Equal(t, []string{"OGDC", "UBL", "SYS"}, market.fetched())

	doc := st.LoadLive(context.Background())
	require.NotNil(t, doc)
	assert.Len(t, doc.Stocks, 5)
	// Cached records are retained verbatim.
	assert.Equal(t, 1.0, doc.Stocks["LUCK"].CurrentPrice)
}

func TestResumeIsIdempotent(t *testing.T) {
	market := &fakeMarket{}
	o, st := newTestOrchestrator(t, market, &fakeModel{})

	o.run(context.Background(), ModeResume, "run-1")
	first := st.LoadLive(context.Background())
	require.NotNil(t, first)
	require.Len(t, market.fetched(), 5)

	o.run(context.Background(), ModeResume, "run-2")
	second := st.LoadLive(context.Background())
	require.NotNil(t, second)

	assert.Len(t, market.fetched(), 5, "second resume must not refetch")
	assert.Equal(t, first.Stocks, second.Stocks)
}

func TestForceRecomputesEverything(t *testing.T) {
	market := &fakeMarket{}
	o, st := newTestOrchestrator(t, market, &fakeModel{})

	require.NoError(t, st.Save(context.Background(), map[string]models.PredictionRecord{
		"LUCK": {Symbol: "LUCK", CurrentPrice: 1},
	}))

	o.run(context.Background(), ModeForce, "run-1")

	assert.Len(t, market.fetched(), 5)
	doc := st.LoadLive(context.Background())
	require.NotNil(t, doc)
	assert.NotEqual(t, 1.0, doc.Stocks["LUCK"].CurrentPrice)
}

func TestStartConflict(t *testing.T) {
	block := make(chan struct{})
	market := &fakeMarket{block: block}
	o, _ := newTestOrchestrator(t, market, &fakeModel{})

	runID, err := o.Start(ModeForce)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	before := o.Status()
	_, err = o.Start(ModeResume)
	assert.ErrorIs(t, err, ErrBatchRunning)

	// The in-flight batch's state is untouched by the rejected start.
	after := o.Status()
	assert.Equal(t, before.RunID, after.RunID)
	assert.True(t, after.Running)

	close(block)
	waitForIdle(t, o)

	// Once idle, a new batch is accepted again.
	block2 := make(chan struct{})
	close(block2)
	market.block = block2
	next, err := o.Start(ModeResume)
	require.NoError(t, err)
	assert.NotEqual(t, runID, next)
	waitForIdle(t, o)
}

func TestProgressEventsMonotonic(t *testing.T) {
	market := &fakeMarket{}
	o, _ := newTestOrchestrator(t, market, &fakeModel{})

	var mu sync.Mutex
	var events []models.ProgressEvent
	o.Subscribe(func(ev models.ProgressEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	o.run(context.Background(), ModeForce, "run-1")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)

	prev := 0
	for _, ev := range events {
		require.GreaterOrEqual(t, ev.Percent, prev, "progress went backwards at %q", ev.Message)
		prev = ev.Percent
		assert.Equal(t, "run-1", ev.RunID)
	}

	last := events[len(events)-1]
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, "DONE", last.Symbol)
	assert.Contains(t, last.Message, "5/5")
}

func TestPanicLeavesWellFormedStatus(t *testing.T) {
	market := &fakeMarket{}
	o, _ := newTestOrchestrator(t, market, &fakeModel{panicOnFit: true})

	o.run(context.Background(), ModeForce, "run-1")

	status := o.Status()
	assert.False(t, status.Running)
	assert.NotEmpty(t, status.Error)
	require.NotNil(t, status.CompletedAt)
}

func waitForIdle(t *testing.T, o *Orchestrator) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if !o.Status().Running {
			return
		}
		select {
		case <-deadline:
			t.Fatal("batch did not finish in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
