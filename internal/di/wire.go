//go:build wireinject
// +build wireinject

package di

import (
	"BlueprintScan/pkg/config"
	"BlueprintScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideFindingsPublisher,
		ProvideTickerStream,
		ProvideCandleStream,
		ProvideMarketData,

		// Use cases
		ProvideSymbolStore,
		ProvideBaselineProvider,
		ProvideHub,
		ProvideFeedCollector,

		// Transport
		ProvideAPIHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
