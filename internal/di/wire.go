//go:build wireinject
// +build wireinject

package di

import (
	"StoreMonitor/pkg/config"
	"StoreMonitor/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideProfileCache,

		// Repositories
		ProvideStoreRepository,
		ProvideProfileInvalidator,
		ProvideReportRegistry,
		ProvideArtifactStore,
		ProvideReportEvents,

		// Engine and use cases
		ProvideCalculator,
		ProvideReportGenerator,
		ProvideReportQueue,
		ProvideLocalDispatcher,
		ProvideDispatcher,
		ProvideReportService,
		ProvideDataImporter,
		ProvideDiagnostics,
		ProvidePollBuffer,
		ProvideStatusPollHandler,

		// Transport
		ProvideRateLimiter,
		ProvideReportHandler,
		ProvideHTTPServer,
		ProvideStatusConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
