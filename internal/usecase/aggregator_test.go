package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/internal/service/ratelimit"
)

func newTestScanner(t *testing.T, quotes *fakeQuotes, funds *fakeFundamentals, sink drepo.SnapshotSink) (*Scanner, *History) {
	t.Helper()
	c := testCache(t)
	log := testLogger(t)
	history := NewHistory(100)

	registry := NewRegistry(quotes, c, log, time.Hour, 100, 2)
	fundamentals := NewFundamentals(funds, c, noopMetrics{}, log, time.Hour)
	news := NewNews(&fakeNews{items: map[string][]models.NewsItem{
		"AAPL": {{Headline: "Apple beats estimates", At: time.Now()}},
		"MSFT": {{Headline: "Microsoft guidance raised", At: time.Now()}},
	}}, c, noopMetrics{}, log, time.Hour, 7)
	markets := NewMarkets(&fakeMarkets{markets: marketsWithQuestions(
		"Will AAPL beat earnings?",
	)}, c, noopMetrics{}, log, time.Hour, 100)

	scanner := NewScanner(registry, fundamentals, news, markets, history, c,
		ratelimit.New(), noopMetrics{}, nil, sink, log,
		ScannerConfig{ProviderRPS: 1000, NewsCap: 50, SinkBackend: "test"})
	return scanner, history
}

func scanFixture() (*fakeQuotes, *fakeFundamentals) {
	quotes := &fakeQuotes{symbols: []models.Symbol{
		{BDRCode: "AAPL34", Name: "Apple"},
		{BDRCode: "MSFT34", Name: "Microsoft"},
		{BDRCode: "ZZZZ34", Name: "Ghost"},
	}}
	funds := &fakeFundamentals{
		profiles: map[string]*drepo.CompanyProfile{
			"AAPL": {FieldCount: 5, MarketCap: 3e12, ForwardPE: fptr(28), Price: 200, DivYieldFrac: fptr(0.005)},
			"MSFT": {FieldCount: 5, MarketCap: 2.8e12, ForwardPE: fptr(30), Price: 420, PriceToBook: fptr(2.5)},
		},
		stmts: map[string][]drepo.PeriodStatement{
			"AAPL": statementsForROE(30),
			"MSFT": statementsForROE(18),
		},
	}
	return quotes, funds
}

func TestAnalyzeEndToEnd(t *testing.T) {
	quotes, funds := scanFixture()
	sink := &captureSink{}
	scanner, history := newTestScanner(t, quotes, funds, sink)

	res, err := scanner.Analyze(context.Background(), &models.AnalyzeRequest{
		Limit: 50, AlertScore: 80, AlertROE: 25,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.Summary.UniverseSize != 3 {
		t.Fatalf("universe = %d", res.Summary.UniverseSize)
	}
	if res.Summary.Analyzed != 3 {
		t.Fatalf("analyzed = %d", res.Summary.Analyzed)
	}
	if len(res.Fundamentals) != 2 || res.Summary.WithoutData != 1 {
		t.Fatalf("fundamentals = %d, without data = %d", len(res.Fundamentals), res.Summary.WithoutData)
	}
	if res.Summary.Kept != 2 {
		t.Fatalf("kept = %d", res.Summary.Kept)
	}

	// AAPL (ROE 30 -> 85) ranks above MSFT (ROE 18 -> 70).
	if res.Ranked[0].Symbol != "AAPL" || res.Ranked[1].Symbol != "MSFT" {
		t.Fatalf("ranking = %v, %v", res.Ranked[0].Symbol, res.Ranked[1].Symbol)
	}

	if len(res.ScoreAlerts) != 1 || res.ScoreAlerts[0] != "AAPL" {
		t.Fatalf("score alerts = %v", res.ScoreAlerts)
	}
	if len(res.ROEAlerts) != 1 || res.ROEAlerts[0] != "AAPL" {
		t.Fatalf("roe alerts = %v", res.ROEAlerts)
	}

	if len(res.Markets) != 1 || res.Markets[0].Symbol != "AAPL" {
		t.Fatalf("markets = %v", res.Markets)
	}
	if len(res.News) != 2 {
		t.Fatalf("news = %d", len(res.News))
	}

	if sink.calls != 1 || len(sink.snaps) != 2 {
		t.Fatalf("sink calls = %d, snaps = %d", sink.calls, len(sink.snaps))
	}
	if history.Len() != 1 {
		t.Fatalf("history = %d", history.Len())
	}
}

func TestAnalyzeFilters(t *testing.T) {
	quotes, funds := scanFixture()
	scanner, _ := newTestScanner(t, quotes, funds, nil)

	res, err := scanner.Analyze(context.Background(), &models.AnalyzeRequest{
		Limit: 50, ROEMin: fptr(25), AlertScore: 100, AlertROE: 100,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Summary.Kept != 1 || res.Summary.FilteredOut != 1 {
		t.Fatalf("kept = %d, filtered = %d", res.Summary.Kept, res.Summary.FilteredOut)
	}
	if res.Ranked[0].Symbol != "AAPL" {
		t.Fatalf("kept symbol = %s", res.Ranked[0].Symbol)
	}
}

func TestAnalyzeMutualExclusion(t *testing.T) {
	quotes, funds := scanFixture()
	scanner, _ := newTestScanner(t, quotes, funds, nil)
	ctx := context.Background()

	// Hold the lock as a concurrent scan would.
	ok, err := scanner.cache.TryLock(ctx, "scan:lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("setup lock: ok=%v err=%v", ok, err)
	}

	if _, err := scanner.Analyze(ctx, &models.AnalyzeRequest{Limit: 10}); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}

func TestAnalyzeReleasesLock(t *testing.T) {
	quotes, funds := scanFixture()
	scanner, _ := newTestScanner(t, quotes, funds, nil)
	ctx := context.Background()

	if _, err := scanner.Analyze(ctx, &models.AnalyzeRequest{Limit: 10, AlertScore: 80, AlertROE: 25}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if _, err := scanner.Analyze(ctx, &models.AnalyzeRequest{Limit: 10, AlertScore: 80, AlertROE: 25}); err != nil {
		t.Fatalf("second scan should run after lock release: %v", err)
	}
}

func TestAnalyzeExplicitSymbols(t *testing.T) {
	quotes, funds := scanFixture()
	scanner, _ := newTestScanner(t, quotes, funds, nil)

	res, err := scanner.Analyze(context.Background(), &models.AnalyzeRequest{
		Symbols: []string{"aapl"}, AlertScore: 100, AlertROE: 100,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Summary.Analyzed != 1 || len(res.Fundamentals) != 1 {
		t.Fatalf("analyzed = %d", res.Summary.Analyzed)
	}
	if res.Fundamentals[0].BDRCode != "AAPL34" {
		t.Fatalf("BDR mapping not applied: %s", res.Fundamentals[0].BDRCode)
	}
}

func TestCompare(t *testing.T) {
	quotes, funds := scanFixture()
	scanner, _ := newTestScanner(t, quotes, funds, nil)

	snaps, missing, err := scanner.Compare(context.Background(), []string{"AAPL", "MSFT", "ZZZZ"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("snaps = %d", len(snaps))
	}
	if len(missing) != 1 || missing[0] != "ZZZZ" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestRecommendBuckets(t *testing.T) {
	snaps := []models.FundamentalSnapshot{
		{Symbol: "VAL", ROEPct: fptr(22), PE: fptr(15), Score: 85},
		{Symbol: "DIV", DivYieldPct: 5, ROEPct: fptr(5), Score: 45},
		{Symbol: "GRW", ROEPct: fptr(30), PE: fptr(35), Score: 85},
		{Symbol: "UND", ROEPct: fptr(16), PB: fptr(2), PE: fptr(12), Score: 70},
		{Symbol: "MEH", ROEPct: fptr(5), PE: fptr(50), Score: 35},
	}

	recs := recommend(snaps)
	byKind := map[models.RecommendationKind][]string{}
	for _, r := range recs {
		byKind[r.Kind] = r.Symbols
	}

	if got := byKind[models.RecommendValue]; len(got) != 1 || got[0] != "VAL" {
		t.Fatalf("value = %v", got)
	}
	if got := byKind[models.RecommendDividend]; len(got) != 1 || got[0] != "DIV" {
		t.Fatalf("dividend = %v", got)
	}
	if got := byKind[models.RecommendGrowth]; len(got) != 1 || got[0] != "GRW" {
		t.Fatalf("growth = %v", got)
	}
	if got := byKind[models.RecommendUndervalued]; len(got) != 1 || got[0] != "UND" {
		t.Fatalf("undervalued = %v", got)
	}
}

func TestRecommendTopThree(t *testing.T) {
	var snaps []models.FundamentalSnapshot
	for i, sym := range []string{"A", "B", "C", "D"} {
		snaps = append(snaps, models.FundamentalSnapshot{
			Symbol: sym, DivYieldPct: 5, Score: 90 - i,
		})
	}

	recs := recommend(snaps)
	if len(recs) != 1 {
		t.Fatalf("recs = %d", len(recs))
	}
	if len(recs[0].Symbols) != 3 {
		t.Fatalf("bucket size = %d, want 3", len(recs[0].Symbols))
	}
	if recs[0].Symbols[0] != "A" {
		t.Fatalf("top symbol = %s", recs[0].Symbols[0])
	}
}

func TestCorrelations(t *testing.T) {
	snaps := []models.FundamentalSnapshot{
		{Symbol: "A", ROEPct: fptr(10), PE: fptr(30), PB: fptr(1), DivYieldPct: 1, MarketCapB: 100, Score: 55},
		{Symbol: "B", ROEPct: fptr(20), PE: fptr(20), PB: fptr(2), DivYieldPct: 2, MarketCapB: 200, Score: 70},
		{Symbol: "C", ROEPct: fptr(30), PE: fptr(10), PB: fptr(3), DivYieldPct: 3, MarketCapB: 300, Score: 85},
	}

	corr := correlations(snaps)
	if corr == nil {
		t.Fatal("correlations = nil, want matrix")
	}
	if len(corr.Metrics) != 6 || len(corr.Matrix) != 6 {
		t.Fatalf("dimensions = %d metrics, %d rows", len(corr.Metrics), len(corr.Matrix))
	}

	approx := func(got, want float64) bool { return math.Abs(got-want) < 1e-9 }
	// roe correlates with itself and with the linear score, and is
	// perfectly anti-correlated with the descending pe column.
	if !approx(corr.Matrix[0][0], 1) {
		t.Fatalf("roe/roe = %v", corr.Matrix[0][0])
	}
	if !approx(corr.Matrix[0][5], 1) {
		t.Fatalf("roe/score = %v", corr.Matrix[0][5])
	}
	if !approx(corr.Matrix[0][1], -1) {
		t.Fatalf("roe/pe = %v", corr.Matrix[0][1])
	}
	if !approx(corr.Matrix[1][0], corr.Matrix[0][1]) {
		t.Fatalf("matrix not symmetric: %v vs %v", corr.Matrix[1][0], corr.Matrix[0][1])
	}
}

func TestCorrelationsNeedTwoCompleteRows(t *testing.T) {
	// The second row misses P/B, so only one complete row remains.
	snaps := []models.FundamentalSnapshot{
		{Symbol: "A", ROEPct: fptr(10), PE: fptr(30), PB: fptr(1), Score: 55},
		{Symbol: "B", ROEPct: fptr(20), PE: fptr(20), Score: 85},
	}
	if corr := correlations(snaps); corr != nil {
		t.Fatalf("correlations = %+v, want nil", corr)
	}
}

func TestRankStable(t *testing.T) {
	snaps := []models.FundamentalSnapshot{
		{Symbol: "BBB", Score: 70},
		{Symbol: "AAA", Score: 70},
		{Symbol: "CCC", Score: 85},
	}
	ranked := rankSnapshots(snaps)
	// Ties keep input order, so BBB stays ahead of AAA.
	if ranked[0].Symbol != "CCC" || ranked[1].Symbol != "BBB" || ranked[2].Symbol != "AAA" {
		t.Fatalf("order = %v %v %v", ranked[0].Symbol, ranked[1].Symbol, ranked[2].Symbol)
	}
}
