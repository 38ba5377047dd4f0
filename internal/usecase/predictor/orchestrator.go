package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	"github.com/BurhanCantCode/BaqiAI/internal/store"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"

	"github.com/google/uuid"
)

// Mode selects how a batch treats previously computed symbols.
type Mode string

const (
	// ModeResume retains symbols already present in the live cache.
	ModeResume Mode = "resume"
	// ModeForce recomputes every symbol from an empty working set.
	ModeForce Mode = "force"
)

var (
	// ErrBatchRunning is returned when a batch is requested while one is
	// already in flight. Callers must not retry until the current batch ends.
	ErrBatchRunning = errors.New("predictor: batch already running")
)

// ProgressSink receives live progress events from a running batch.
type ProgressSink func(ev models.ProgressEvent)

// Option configures Orchestrator.
type Option func(*Orchestrator)

// Orchestrator runs the sequential per-symbol prediction batch. Exactly
// one batch may be active process-wide; a second start attempt conflicts
// immediately instead of queueing. Per-symbol failures are absorbed and
// the batch moves on; only a panic escaping the per-symbol guard records
// a batch-level error.
type Orchestrator struct {
	market   drepo.MarketData
	model    drepo.ForecastModel
	store    *store.PredictionStore
	registry []models.Stock
	horizon  int

	archive drepo.HistoryArchive
	events  drepo.EventPublisher
	metrics drepo.Metrics
	logger  *applogger.Logger
	now     func() time.Time

	mu     sync.Mutex
	status models.JobStatus
	sinks  []ProgressSink
}

// New creates a batch orchestrator over the given collaborators.
func New(market drepo.MarketData, model drepo.ForecastModel, st *store.PredictionStore, registry []models.Stock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		market:   market,
		model:    model,
		store:    st,
		registry: registry,
		horizon:  models.ForecastHorizon,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.status.StocksTotal = len(registry)
	return o
}

// WithHorizon sets the forecast horizon in trading days.
func WithHorizon(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.horizon = n
		}
	}
}

// WithArchive enables best-effort archival of fetched series.
func WithArchive(a drepo.HistoryArchive) Option {
	return func(o *Orchestrator) {
		o.archive = a
	}
}

// WithEvents enables batch event publishing.
func WithEvents(p drepo.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.events = p
	}
}

// WithMetrics enables pipeline metrics.
func WithMetrics(m drepo.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Start begins a batch asynchronously and returns its run ID immediately.
// Returns ErrBatchRunning when a batch is already active; the in-flight
// batch's status is left untouched in that case.
func (o *Orchestrator) Start(mode Mode) (string, error) {
	o.mu.Lock()
	if o.status.Running {
		o.mu.Unlock()
		return "", ErrBatchRunning
	}

	runID := uuid.NewString()
	started := o.now()
	o.status = models.JobStatus{
		RunID:       runID,
		Running:     true,
		Progress:    0,
		StartedAt:   &started,
		StocksTotal: len(o.registry),
	}
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RecordBatchStart(string(mode))
	}

	// The batch outlives the triggering request on purpose; mid-batch
	// cancellation is not supported.
	go o.run(context.Background(), mode, runID)

	return runID, nil
}

// Status returns a snapshot of the current job state. Never blocks on the
// running batch.
func (o *Orchestrator) Status() models.JobStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Subscribe registers a sink for live progress events. Sinks are invoked
// synchronously from the batch goroutine and must not block.
func (o *Orchestrator) Subscribe(sink ProgressSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sink)
}

// run executes the full registry sequentially. Exported behavior is
// observable only through Status, progress events and the store.
func (o *Orchestrator) run(ctx context.Context, mode Mode, runID string) {
	defer func() {
		if r := recover(); r != nil {
			o.finish(fmt.Sprintf("batch aborted: %v", r))
			if o.logger != nil {
				o.logger.Error("prediction batch aborted", applogger.Any("panic", r))
			}
		}
	}()

	working := make(map[string]models.PredictionRecord)
	if mode == ModeResume {
		if doc := o.store.LoadLive(ctx); doc != nil {
			for sym, rec := range doc.Stocks {
				working[sym] = rec
			}
			o.info("retaining cached predictions", applogger.Int("stocks", len(working)))
		}
	}

	total := len(o.registry)
	done := 0

	for i, stock := range o.registry {
		symbol := stock.Symbol
		pct := i * 100 / total

		o.setCurrent(symbol, pct)
		o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Starting prediction for %s (%d/%d)", symbol, i+1, total))

		if mode == ModeResume {
			if _, cached := working[symbol]; cached {
				o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Skipping %s (already cached)", symbol))
				o.recordOutcome(symbol, "skipped")
				done++
				o.setDone(done, (i+1)*100/total)
				continue
			}
		}

		if o.processSymbol(ctx, runID, stock, pct, working) {
			done++
		}
		o.setDone(done, (i+1)*100/total)
	}

	o.emit(ctx, runID, "DONE", 100, fmt.Sprintf("All predictions complete. %d/%d stocks successful.", len(working), total))
	o.finish("")
}

// processSymbol runs the fetch→fit→predict→persist pipeline for one symbol.
// Returns true when the symbol ended up in the working set.
func (o *Orchestrator) processSymbol(ctx context.Context, runID string, stock models.Stock, pct int, working map[string]models.PredictionRecord) bool {
	symbol := stock.Symbol

	o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Fetching historical data for %s...", symbol))
	series, err := o.timedFetch(ctx, symbol)
	if err != nil {
		o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Error on %s: %s", symbol, errBrief(err)))
		o.recordOutcome(symbol, "fetch_failed")
		o.warn("symbol fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}

	if o.archive != nil {
		if err := o.archive.StoreSeries(ctx, symbol, series); err != nil {
			o.warn("history archive write failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Training model for %s...", symbol))
	metrics, err := timed(o, "fit", func() (models.ModelMetrics, error) {
		return o.model.Fit(ctx, symbol, series)
	})
	if err != nil {
		o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Error on %s: %s", symbol, errBrief(err)))
		o.recordOutcome(symbol, "model_failed")
		o.warn("model fit failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}

	o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Generating %d-day forecast for %s...", o.horizon, symbol))
	forecast, err := timed(o, "predict", func() (*models.Forecast, error) {
		return o.model.PredictDaily(ctx, symbol, series, o.horizon)
	})
	if err != nil {
		o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Error on %s: %s", symbol, errBrief(err)))
		o.recordOutcome(symbol, "model_failed")
		o.warn("forecast failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}

	record := models.PredictionRecord{
		Symbol:           symbol,
		Sector:           stock.Sector,
		CurrentPrice:     series[len(series)-1].Close,
		DailyPredictions: forecast.Predictions,
		Metrics:          metrics,
		Reasoning:        forecast.Reasoning,
	}
	working[symbol] = record

	if err := o.store.Save(ctx, working); err != nil {
		// The record stays in the working set so a later save can still
		// persist it, but this symbol is not counted as completed.
		delete(working, symbol)
		o.emit(ctx, runID, symbol, pct, fmt.Sprintf("Error on %s: %s", symbol, errBrief(err)))
		o.recordOutcome(symbol, "save_failed")
		o.warn("incremental save failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}

	o.recordOutcome(symbol, "completed")
	if o.metrics != nil && len(record.DailyPredictions) > 0 {
		last := record.DailyPredictions[len(record.DailyPredictions)-1]
		o.metrics.RecordPredictedPrice(symbol, last.PredictedPrice)
	}
	if o.events != nil {
		if err := o.events.PublishPrediction(ctx, record); err != nil {
			o.warn("prediction event publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	o.info("symbol prediction complete",
		applogger.String("symbol", symbol),
		applogger.Int("days", len(record.DailyPredictions)),
	)
	return true
}

func (o *Orchestrator) timedFetch(ctx context.Context, symbol string) ([]models.Candle, error) {
	start := o.now()
	series, err := o.market.FetchSeries(ctx, symbol)
	if o.metrics != nil {
		o.metrics.RecordStageLatency("fetch", o.now().Sub(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("empty series for %s", symbol)
	}
	return series, nil
}

// timed wraps a pipeline stage with latency recording.
func timed[T any](o *Orchestrator, stage string, fn func() (T, error)) (T, error) {
	start := o.now()
	v, err := fn()
	if o.metrics != nil {
		o.metrics.RecordStageLatency(stage, o.now().Sub(start).Seconds())
	}
	return v, err
}

// emit fans a progress event out to subscribed sinks and the event
// publisher. Percent values are non-decreasing over a run.
func (o *Orchestrator) emit(ctx context.Context, runID, symbol string, percent int, message string) {
	ev := models.ProgressEvent{
		RunID:   runID,
		Symbol:  symbol,
		Percent: percent,
		Message: message,
		Time:    o.now(),
	}

	o.mu.Lock()
	sinks := make([]ProgressSink, len(o.sinks))
	copy(sinks, o.sinks)
	o.mu.Unlock()

	for _, sink := range sinks {
		sink(ev)
	}
	if o.events != nil {
		if err := o.events.PublishProgress(ctx, ev); err != nil {
			o.warn("progress event publish failed", applogger.Error(err))
		}
	}
}

func (o *Orchestrator) setCurrent(symbol string, pct int) {
	o.mu.Lock()
	o.status.CurrentSymbol = symbol
	if pct > o.status.Progress {
		o.status.Progress = pct
	}
	o.mu.Unlock()
}

func (o *Orchestrator) setDone(done, pct int) {
	o.mu.Lock()
	o.status.StocksDone = done
	if pct > o.status.Progress {
		o.status.Progress = pct
	}
	o.mu.Unlock()
}

func (o *Orchestrator) finish(errMsg string) {
	completed := o.now()
	o.mu.Lock()
	o.status.Running = false
	o.status.CurrentSymbol = ""
	o.status.CompletedAt = &completed
	o.status.Error = errMsg
	if errMsg == "" {
		o.status.Progress = 100
	}
	o.mu.Unlock()
}

func (o *Orchestrator) recordOutcome(symbol, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordSymbolOutcome(symbol, outcome)
	}
}

func (o *Orchestrator) info(msg string, fields ...applogger.Field) {
	if o.logger != nil {
		o.logger.Info(msg, fields...)
	}
}

func (o *Orchestrator) warn(msg string, fields ...applogger.Field) {
	if o.logger != nil {
		o.logger.Warn(msg, fields...)
	}
}

// errBrief trims error text for progress messages.
func errBrief(err error) string {
	s := err.Error()
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
