package di

import (
	"fmt"

	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	"github.com/BurhanCantCode/BaqiAI/internal/handler/api"
	"github.com/BurhanCantCode/BaqiAI/internal/handler/ws"
	internalrepo "github.com/BurhanCantCode/BaqiAI/internal/repository"
	"github.com/BurhanCantCode/BaqiAI/internal/service/forecast"
	"github.com/BurhanCantCode/BaqiAI/internal/service/psx"
	"github.com/BurhanCantCode/BaqiAI/internal/service/sentiment"
	"github.com/BurhanCantCode/BaqiAI/internal/store"
	"github.com/BurhanCantCode/BaqiAI/internal/usecase/predictor"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"
	pkgch "github.com/BurhanCantCode/BaqiAI/pkg/clickhouse"
	"github.com/BurhanCantCode/BaqiAI/pkg/config"
	pkgkafka "github.com/BurhanCantCode/BaqiAI/pkg/kafka"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"
	"github.com/BurhanCantCode/BaqiAI/pkg/metrics"
	"github.com/BurhanCantCode/BaqiAI/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideCacheBackend creates the document store backend. The file backend
// keeps one JSON document per key under the data dir; the redis backend is
// for deployments with more than one reader process.
func ProvideCacheBackend(cfg *config.Config) (cache.Service, error) {
	switch cfg.Store.Backend {
	case "redis":
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis backend: %w", err)
		}
		return c, nil
	default:
		c, err := cache.NewFileCache(cfg.Store.DataDir)
		if err != nil {
			return nil, fmt.Errorf("file backend: %w", err)
		}
		return c, nil
	}
}

// ProvideClickHouseClient creates the ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistoryArchive creates the OHLCV archive, or nil without ClickHouse.
func ProvideHistoryArchive(chClient *pkgch.Client, l *applogger.Logger) drepo.HistoryArchive {
	if chClient == nil {
		return nil
	}
	archive := internalrepo.NewCHHistoryArchive(chClient, "psx_ohlcv")
	if a, ok := archive.(interface{ SetLogger(*applogger.Logger) }); ok {
		a.SetLogger(l)
	}
	return archive
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the batch event publisher, or nil without Kafka.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.ProgressTopic, cfg.Kafka.PredictionTopic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideMarketData creates the PSX historical data client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) drepo.MarketData {
	return psx.NewClient(cfg.PSX.BaseURL,
		psx.WithStart(cfg.PSX.StartYear, cfg.PSX.StartMonth),
		psx.WithMinRecords(cfg.PSX.MinRecords),
		psx.WithRequestTimeout(cfg.PSX.RequestTimeout),
		psx.WithRequestsPerSec(cfg.PSX.RequestsPerSec),
		psx.WithLogger(l),
	)
}

// ProvideForecastModel creates the external model service client.
func ProvideForecastModel(cfg *config.Config) drepo.ForecastModel {
	return forecast.NewHTTPModel(cfg.Forecast.ServiceURL, cfg.Forecast.Timeout, cfg.Forecast.Retries)
}

// ProvidePredictionStore creates the tiered prediction store.
func ProvidePredictionStore(backend cache.Service, cfg *config.Config, l *applogger.Logger) *store.PredictionStore {
	return store.New(backend, cfg.Store.SeedDir, cfg.Registry(),
		store.WithHorizon(cfg.Forecast.Horizon),
		store.WithMaxAge(cfg.Store.MaxAge),
		store.WithLogger(l),
	)
}

// ProvideSentimentCache creates the per-symbol sentiment cache.
func ProvideSentimentCache(backend cache.Service, cfg *config.Config, l *applogger.Logger) drepo.SentimentSource {
	return sentiment.NewCache(backend,
		sentiment.WithFreshFor(cfg.Store.SentimentTTL),
		sentiment.WithLogger(l),
	)
}

// ProvideSentimentModel creates the adjustment model.
func ProvideSentimentModel() *sentiment.Model {
	return sentiment.NewModel()
}

// ProvideProgressHub creates the WebSocket progress hub.
func ProvideProgressHub(l *applogger.Logger) *ws.ProgressHub {
	return ws.NewProgressHub(l)
}

// ProvideOrchestrator creates the batch orchestrator.
func ProvideOrchestrator(
	market drepo.MarketData,
	model drepo.ForecastModel,
	st *store.PredictionStore,
	archive drepo.HistoryArchive,
	events drepo.EventPublisher,
	m drepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *predictor.Orchestrator {
	opts := []predictor.Option{
		predictor.WithHorizon(cfg.Forecast.Horizon),
		predictor.WithMetrics(m),
		predictor.WithLogger(l),
	}
	if archive != nil {
		opts = append(opts, predictor.WithArchive(archive))
	}
	if events != nil {
		opts = append(opts, predictor.WithEvents(events))
	}
	return predictor.New(market, model, st, cfg.Registry(), opts...)
}

// ProvideQuery creates the read-side forecast usecase.
func ProvideQuery(st *store.PredictionStore, sentiments drepo.SentimentSource, model *sentiment.Model, cfg *config.Config) *predictor.Query {
	return predictor.NewQuery(st, sentiments, model, cfg.Forecast.Horizon)
}

// ProvidePSXHandler creates the PSX API handler.
func ProvidePSXHandler(l *applogger.Logger, orch *predictor.Orchestrator, query *predictor.Query) *api.PSXHandler {
	return api.NewPSXHandler(l, orch, query)
}

// ProvideApp assembles the application and connects the progress hub to
// the orchestrator's event stream.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	backend cache.Service,
	chClient *pkgch.Client,
	events drepo.EventPublisher,
	archive drepo.HistoryArchive,
	orch *predictor.Orchestrator,
	hub *ws.ProgressHub,
	psxHandler *api.PSXHandler,
) *server.App {
	orch.Subscribe(hub.Broadcast)
	return server.New(cfg, l, backend, chClient, events, archive, psxHandler, hub)
}
