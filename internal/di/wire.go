//go:build wireinject
// +build wireinject

package di

import (
	"github.com/BurhanCantCode/BaqiAI/pkg/config"
	"github.com/BurhanCantCode/BaqiAI/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCacheBackend,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideHistoryArchive,
		ProvideEventPublisher,

		// Services
		ProvideMarketData,
		ProvideForecastModel,
		ProvidePredictionStore,
		ProvideSentimentCache,
		ProvideSentimentModel,

		// Use cases
		ProvideOrchestrator,
		ProvideQuery,

		// Delivery
		ProvideProgressHub,
		ProvidePSXHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
