//go:build wireinject
// +build wireinject

package di

import (
	"taometrics/pkg/config"
	"taometrics/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetricsRecorder,

		// Infrastructure clients
		ProvideKVStore,
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Repositories
		ProvideMetricStore,
		ProvideArchiveStore,

		// Services
		ProvideTaostatsClient,
		ProvidePriceFeed,
		ProvideSnapshotIngest,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
