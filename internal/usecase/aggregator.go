package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/internal/service/ratelimit"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
	"BDRScan/pkg/util"
)

// ErrScanInProgress is returned when a second scan is requested while
// one is already running.
var ErrScanInProgress = errors.New("a scan is already running")

const scanLockTTL = 10 * time.Minute

// ScannerConfig carries the pacing and sizing knobs of a scan.
type ScannerConfig struct {
	ProviderRPS    float64
	InterCallDelay time.Duration
	NewsCap        int
	SinkBackend    string
}

// Scanner orchestrates a full analysis: universe resolution,
// per-symbol fundamentals, news and market signals, filtering, ranking
// and recommendation buckets. Individual symbol failures degrade the
// result instead of aborting it.
type Scanner struct {
	registry     *Registry
	fundamentals *Fundamentals
	news         *News
	markets      *Markets
	history      *History
	cache        cache.Service
	limiter      *ratelimit.Limiter
	metrics      drepo.Metrics
	progress     drepo.ProgressNotifier
	sink         drepo.SnapshotSink
	log          *applogger.Logger
	cfg          ScannerConfig

	mu   sync.Mutex
	last *models.AnalysisResult
}

// NewScanner wires the scan orchestrator.
func NewScanner(
	registry *Registry,
	fundamentals *Fundamentals,
	news *News,
	markets *Markets,
	history *History,
	c cache.Service,
	limiter *ratelimit.Limiter,
	metrics drepo.Metrics,
	progress drepo.ProgressNotifier,
	sink drepo.SnapshotSink,
	log *applogger.Logger,
	cfg ScannerConfig,
) *Scanner {
	if cfg.NewsCap <= 0 {
		cfg.NewsCap = 50
	}
	if cfg.ProviderRPS <= 0 {
		cfg.ProviderRPS = 20
	}
	return &Scanner{
		registry:     registry,
		fundamentals: fundamentals,
		news:         news,
		markets:      markets,
		history:      history,
		cache:        c,
		limiter:      limiter,
		metrics:      metrics,
		progress:     progress,
		sink:         sink,
		log:          log,
		cfg:          cfg,
	}
}

// Analyze runs one full scan. Only one scan may run at a time.
func (s *Scanner) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	ok, err := s.cache.TryLock(ctx, cache.NSScanLock, scanLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, ErrScanInProgress
	}
	defer func() {
		if err := s.cache.Unlock(context.Background(), cache.NSScanLock); err != nil {
			s.log.Warn("scan lock release failed", applogger.Error(err))
		}
	}()

	start := time.Now()
	result, err := s.run(ctx, req)
	s.metrics.RecordScanDuration(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	s.history.Add(models.HistoryEntry{
		Timestamp: result.At,
		Kind:      "analyze",
		Summary:   result.Summary,
	})

	if s.sink != nil && len(result.Fundamentals) > 0 {
		if err := s.sink.Write(ctx, result.At, result.Fundamentals); err != nil {
			s.log.Error("snapshot sink write failed", applogger.Error(err))
		} else {
			s.metrics.RecordSnapshotsRouted(s.cfg.SinkBackend, len(result.Fundamentals))
		}
	}

	return result, nil
}

// LastResult returns the most recent completed analysis, or nil when
// none has run yet.
func (s *Scanner) LastResult() *models.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Compare fetches side-by-side snapshots for an explicit symbol list.
// Symbols without usable data are reported in the second return value
// instead of failing the comparison.
func (s *Scanner) Compare(ctx context.Context, symbols []string) ([]models.FundamentalSnapshot, []string, error) {
	universe, err := s.registry.Universe(ctx)
	if err != nil {
		return nil, nil, err
	}

	var snaps []models.FundamentalSnapshot
	var missing []string
	for _, raw := range symbols {
		sym := util.NormalizeSymbol(raw)
		if err := s.limiter.Wait(ctx, "yahoo", s.cfg.ProviderRPS, s.cfg.ProviderRPS); err != nil {
			return nil, nil, err
		}

		snap, err := s.fundamentals.Fetch(ctx, sym, universe.Mapping[sym])
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			missing = append(missing, sym)
			continue
		}
		snaps = append(snaps, *snap)
	}
	return snaps, missing, nil
}

func (s *Scanner) run(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	universe, err := s.registry.Universe(ctx)
	if err != nil {
		return nil, err
	}

	targets := s.targets(universe, req)
	total := len(targets)
	s.notify(models.ScanProgress{Stage: "fundamentals", Total: total})

	result := &models.AnalysisResult{At: time.Now().UTC()}
	result.Summary.UniverseSize = len(universe.HomeCodes)

	for i, sym := range targets {
		if err := s.limiter.Wait(ctx, "yahoo", s.cfg.ProviderRPS, s.cfg.ProviderRPS); err != nil {
			return nil, err
		}

		snap, err := s.fundamentals.Fetch(ctx, sym.HomeCode, sym.BDRCode)
		switch {
		case err == nil:
			result.Fundamentals = append(result.Fundamentals, *snap)
			s.metrics.RecordSymbolScanned("ok")
		case errors.Is(err, models.ErrNoData):
			result.Summary.WithoutData++
			s.metrics.RecordSymbolScanned("no_data")
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			s.log.Warn("symbol scan failed",
				applogger.String("symbol", sym.HomeCode), applogger.Error(err))
			result.Summary.WithoutData++
			s.metrics.RecordSymbolScanned("error")
		}

		result.Summary.Analyzed++
		s.notify(models.ScanProgress{
			Stage:   "fundamentals",
			Done:    i + 1,
			Total:   total,
			Percent: (i + 1) * 100 / total,
			Symbol:  sym.HomeCode,
		})

		if s.cfg.InterCallDelay > 0 && i < total-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.InterCallDelay):
			}
		}
	}

	filters := req.Filters()
	var kept []models.FundamentalSnapshot
	for _, snap := range result.Fundamentals {
		if filters.Keep(&snap) {
			kept = append(kept, snap)
		} else {
			result.Summary.FilteredOut++
		}
	}
	result.Summary.Kept = len(kept)

	s.notify(models.ScanProgress{Stage: "signals", Total: len(kept)})
	s.collectSignals(ctx, result, kept)

	result.Ranked = rankSnapshots(kept)
	result.Recommendations = recommend(kept)

	for _, snap := range kept {
		if snap.Score >= req.AlertScore {
			result.ScoreAlerts = append(result.ScoreAlerts, snap.Symbol)
		}
		if snap.ROEPct != nil && *snap.ROEPct >= req.AlertROE {
			result.ROEAlerts = append(result.ROEAlerts, snap.Symbol)
		}
	}

	result.Correlations = correlations(kept)
	summarize(&result.Summary, kept)
	s.notify(models.ScanProgress{Stage: "done", Done: total, Total: total, Percent: 100})
	return result, nil
}

// targets resolves which symbols to scan: an explicit request list or
// the universe head up to the limit.
func (s *Scanner) targets(u *models.Universe, req *models.AnalyzeRequest) []models.Symbol {
	if len(req.Symbols) > 0 {
		var out []models.Symbol
		for _, raw := range req.Symbols {
			sym := util.NormalizeSymbol(raw)
			if bdr, ok := u.Mapping[sym]; ok {
				out = append(out, models.Symbol{HomeCode: sym, BDRCode: bdr})
			} else {
				out = append(out, models.Symbol{HomeCode: sym})
			}
		}
		return out
	}

	limit := req.Limit
	if limit <= 0 || limit > len(u.Symbols) {
		limit = len(u.Symbols)
	}
	return u.Symbols[:limit]
}

// collectSignals gathers news and market signals for the kept
// snapshots. Failures leave the corresponding slice empty.
func (s *Scanner) collectSignals(ctx context.Context, result *models.AnalysisResult, kept []models.FundamentalSnapshot) {
	newsTargets := kept
	if len(newsTargets) > s.cfg.NewsCap {
		newsTargets = newsTargets[:s.cfg.NewsCap]
	}

	for _, snap := range newsTargets {
		if err := s.limiter.Wait(ctx, "finnhub", s.cfg.ProviderRPS, s.cfg.ProviderRPS); err != nil {
			return
		}
		sig, err := s.news.Signal(ctx, snap.Symbol, snap.BDRCode, snap.EarningsDate, snap.DivYieldPct > 0)
		if err != nil {
			s.log.Warn("news signal failed",
				applogger.String("symbol", snap.Symbol), applogger.Error(err))
			continue
		}
		if sig == nil {
			continue
		}
		result.News = append(result.News, *sig)
	}

	symbols := make([]string, len(kept))
	for i, snap := range kept {
		symbols[i] = snap.Symbol
	}
	markets, err := s.markets.Signals(ctx, symbols)
	if err != nil {
		s.log.Warn("market signals failed", applogger.Error(err))
		return
	}
	result.Markets = markets
}

func (s *Scanner) notify(p models.ScanProgress) {
	if s.progress != nil {
		s.progress.Notify(p)
	}
}

// rankSnapshots orders by score descending; equal scores keep their
// input order.
func rankSnapshots(snaps []models.FundamentalSnapshot) []models.FundamentalSnapshot {
	out := make([]models.FundamentalSnapshot, len(snaps))
	copy(out, snaps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// recommend builds the four screening buckets, each ordered by its own
// metric (ROE, or yield for the dividend bucket) and cut to three.
func recommend(snaps []models.FundamentalSnapshot) []models.Recommendation {
	roeOf := func(s *models.FundamentalSnapshot) float64 {
		if s.ROEPct == nil {
			return 0
		}
		return *s.ROEPct
	}
	yieldOf := func(s *models.FundamentalSnapshot) float64 { return s.DivYieldPct }

	type bucket struct {
		kind   models.RecommendationKind
		reason string
		match  func(*models.FundamentalSnapshot) bool
		metric func(*models.FundamentalSnapshot) float64
	}

	buckets := []bucket{
		{models.RecommendValue, "high ROE at a modest earnings multiple", func(s *models.FundamentalSnapshot) bool {
			return s.ROEPct != nil && *s.ROEPct > 20 && s.PE != nil && *s.PE < 20
		}, roeOf},
		{models.RecommendDividend, "dividend yield above 4%", func(s *models.FundamentalSnapshot) bool {
			return s.DivYieldPct > 4
		}, yieldOf},
		{models.RecommendGrowth, "very high ROE with a growth multiple", func(s *models.FundamentalSnapshot) bool {
			return s.ROEPct != nil && *s.ROEPct > 25 && s.PE != nil && *s.PE > 30
		}, roeOf},
		{models.RecommendUndervalued, "strong ROE below 3x book value", func(s *models.FundamentalSnapshot) bool {
			return s.PB != nil && *s.PB < 3 && s.ROEPct != nil && *s.ROEPct > 15
		}, roeOf},
	}

	var out []models.Recommendation
	for _, b := range buckets {
		var matched []models.FundamentalSnapshot
		for i := range snaps {
			if b.match(&snaps[i]) {
				matched = append(matched, snaps[i])
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return b.metric(&matched[i]) > b.metric(&matched[j])
		})
		if len(matched) > 3 {
			matched = matched[:3]
		}
		symbols := make([]string, len(matched))
		for i := range matched {
			symbols[i] = matched[i].Symbol
		}
		out = append(out, models.Recommendation{Kind: b.kind, Symbols: symbols, Reason: b.reason})
	}
	return out
}

// correlationMetrics names the columns of the correlation matrix.
var correlationMetrics = []string{"roe", "pe", "pb", "div_yield", "market_cap", "score"}

// correlations computes the pairwise Pearson matrix over snapshots
// with every metric present. Nil when fewer than two complete rows
// remain.
func correlations(kept []models.FundamentalSnapshot) *models.MetricCorrelations {
	var rows [][]float64
	for i := range kept {
		s := &kept[i]
		if s.ROEPct == nil || s.PE == nil || s.PB == nil {
			continue
		}
		rows = append(rows, []float64{*s.ROEPct, *s.PE, *s.PB, s.DivYieldPct, s.MarketCapB, float64(s.Score)})
	}
	if len(rows) < 2 {
		return nil
	}

	n := len(correlationMetrics)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := pearson(rows, i, j)
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return &models.MetricCorrelations{Metrics: correlationMetrics, Matrix: matrix}
}

// pearson correlates columns a and b. Zero when either column has no
// variance, so the matrix stays JSON-encodable.
func pearson(rows [][]float64, a, b int) float64 {
	n := float64(len(rows))
	var ma, mb float64
	for _, r := range rows {
		ma += r[a]
		mb += r[b]
	}
	ma /= n
	mb /= n

	var cov, va, vb float64
	for _, r := range rows {
		da, db := r[a]-ma, r[b]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}

// summarize fills the aggregate stats over the kept snapshots.
func summarize(sum *models.AnalysisSummary, kept []models.FundamentalSnapshot) {
	var roeSum, peSum, divSum float64
	roeN, peN := 0, 0
	for i := range kept {
		s := &kept[i]
		if s.Status == models.StatusExcellent {
			sum.ExcellentCount++
		}
		if s.ROEPct != nil {
			roeSum += *s.ROEPct
			roeN++
		}
		if s.PE != nil {
			peSum += *s.PE
			peN++
		}
		divSum += s.DivYieldPct
	}
	if roeN > 0 {
		sum.MeanROE = roeSum / float64(roeN)
	}
	if peN > 0 {
		sum.MeanPE = peSum / float64(peN)
	}
	if len(kept) > 0 {
		sum.MeanDivYield = divSum / float64(len(kept))
	}
}
