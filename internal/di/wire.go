//go:build wireinject
// +build wireinject

package di

import (
	"BDRScan/pkg/config"
	"BDRScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideCache,
		ProvideMetrics,
		ProvideLimiter,
		ProvideHub,

		// Provider clients
		ProvideQuoteLister,
		ProvideNewsProvider,
		ProvideFundamentalsProvider,
		ProvideMarketProvider,
		ProvideSnapshotSink,

		// Use cases
		ProvideRegistry,
		ProvideFundamentals,
		ProvideNews,
		ProvideMarkets,
		ProvideHistory,
		ProvideScanner,

		// HTTP surface
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
