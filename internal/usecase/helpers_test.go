package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testCache(t *testing.T) cache.Service {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { mc.Close() })
	return mc
}

func fptr(v float64) *float64 { return &v }

type noopMetrics struct{}

func (noopMetrics) RecordProviderRequest(string, string) {}
func (noopMetrics) RecordCacheHit(string)                {}
func (noopMetrics) RecordSymbolScanned(string)           {}
func (noopMetrics) RecordScanDuration(float64)           {}
func (noopMetrics) RecordSnapshotsRouted(string, int)    {}

type fakeQuotes struct {
	symbols []models.Symbol
	err     error
	calls   int
}

func (f *fakeQuotes) ListQuotes(context.Context) ([]models.Symbol, error) {
	f.calls++
	return f.symbols, f.err
}

type fakeFundamentals struct {
	profiles map[string]*drepo.CompanyProfile
	stmts    map[string][]drepo.PeriodStatement
	calls    int
}

func (f *fakeFundamentals) Profile(_ context.Context, symbol string) (*drepo.CompanyProfile, error) {
	f.calls++
	p, ok := f.profiles[symbol]
	if !ok {
		return nil, models.NewFetchError(models.InsufficientData, "yahoo", symbol, errors.New("not found"))
	}
	return p, nil
}

func (f *fakeFundamentals) Statements(_ context.Context, symbol string) ([]drepo.PeriodStatement, error) {
	return f.stmts[symbol], nil
}

type fakeNews struct {
	items map[string][]models.NewsItem
}

func (f *fakeNews) CompanyNews(_ context.Context, symbol string, _, _ time.Time) ([]models.NewsItem, error) {
	return f.items[symbol], nil
}

type fakeMarkets struct {
	markets []models.Market
	err     error
}

func (f *fakeMarkets) OpenMarkets(context.Context, int) ([]models.Market, error) {
	return f.markets, f.err
}

type captureSink struct {
	scanAt time.Time
	snaps  []models.FundamentalSnapshot
	calls  int
}

func (c *captureSink) Write(_ context.Context, scanAt time.Time, snaps []models.FundamentalSnapshot) error {
	c.calls++
	c.scanAt = scanAt
	c.snaps = snaps
	return nil
}

func (c *captureSink) Close() error { return nil }

// statements builds three healthy fiscal periods yielding the given
// ROE percentage.
func statementsForROE(roePct float64) []drepo.PeriodStatement {
	equity := 1000.0
	income := equity * roePct / 100
	var out []drepo.PeriodStatement
	for i := 0; i < 3; i++ {
		out = append(out, drepo.PeriodStatement{NetIncome: fptr(income), Equity: fptr(equity)})
	}
	return out
}
