package repository

import (
	"context"
	"time"

	"BDRScan/internal/domain/models"
)

// QuoteLister lists the raw instrument universe from the quote provider.
type QuoteLister interface {
	ListQuotes(ctx context.Context) ([]models.Symbol, error)
}

// NewsProvider fetches recent company news for a symbol.
type NewsProvider interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// CompanyProfile is the subset of provider fields the pipeline reads.
// Pointer fields are nil when the provider has no value.
type CompanyProfile struct {
	FieldCount   int
	MarketCap    float64
	ForwardPE    *float64
	TrailingPE   *float64
	PriceToBook  *float64
	DivYieldFrac *float64 // fraction, e.g. 0.021
	Sector       string
	Price        float64
	EarningsDate *time.Time
}

// PeriodStatement is one fiscal period of the two financial statements.
type PeriodStatement struct {
	NetIncome *float64
	Equity    *float64
}

// FundamentalsProvider fetches the profile and up to three recent
// fiscal-period statements for a symbol.
type FundamentalsProvider interface {
	Profile(ctx context.Context, symbol string) (*CompanyProfile, error)
	Statements(ctx context.Context, symbol string) ([]PeriodStatement, error)
}

// MarketProvider lists open prediction markets.
type MarketProvider interface {
	OpenMarkets(ctx context.Context, limit int) ([]models.Market, error)
}

// SnapshotSink receives the scored snapshots of a completed scan.
type SnapshotSink interface {
	Write(ctx context.Context, scanAt time.Time, snaps []models.FundamentalSnapshot) error
	Close() error
}

// ProgressNotifier receives progress events while a scan runs.
type ProgressNotifier interface {
	Notify(p models.ScanProgress)
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordProviderRequest(provider, result string)
	RecordCacheHit(provider string)
	RecordSymbolScanned(result string)
	RecordScanDuration(seconds float64)
	RecordSnapshotsRouted(backend string, n int)
}
