//go:build wireinject
// +build wireinject

package di

import (
	"OptRisk/pkg/config"
	"OptRisk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideLogger,
		ProvideBytesCache,

		// Repositories
		ProvideCandleStore,
		ProvidePlanStore,
		ProvidePlanPublisher,
		ProvideTickPublisher,
		ProvideFeedStream,
		ProvideFlowProvider,

		// Use cases
		ProvideCandleAggregator,
		ProvideTickProcessor,
		ProvidePlanUseCase,
		ProvideReplanWatcher,
		ProvideQuoteCollector,
		ProvideKafkaTicksHandler,
		ProvideCandlesUseCase,

		// HTTP
		ProvidePlanHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
