package usecase

import (
	"context"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
)

// ROE samples outside this open interval are discarded as data noise
// (percent).
const (
	roeSampleMin = -100.0
	roeSampleMax = 500.0
)

// minProfileFields is the minimum number of populated profile fields
// needed to classify a company at all.
const minProfileFields = 5

// Fundamentals fetches, scores and memoizes the fundamental snapshot
// of a symbol.
type Fundamentals struct {
	provider drepo.FundamentalsProvider
	cache    cache.Service
	metrics  drepo.Metrics
	log      *applogger.Logger
	ttl      time.Duration
}

// NewFundamentals creates the fundamentals usecase.
func NewFundamentals(p drepo.FundamentalsProvider, c cache.Service, m drepo.Metrics, log *applogger.Logger, ttl time.Duration) *Fundamentals {
	return &Fundamentals{provider: p, cache: c, metrics: m, log: log, ttl: ttl}
}

// Fetch returns the scored snapshot for a home-market symbol.
// Returns models.ErrNoData (wrapped) when the provider answered but
// carried nothing usable; transient failures surface as FetchError.
func (f *Fundamentals) Fetch(ctx context.Context, symbol, bdrCode string) (*models.FundamentalSnapshot, error) {
	key := cache.Key(cache.NSFundamentals, symbol)

	var cached models.FundamentalSnapshot
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		f.metrics.RecordCacheHit("yahoo")
		return &cached, nil
	}

	profile, err := f.provider.Profile(ctx, symbol)
	if err != nil {
		if models.KindOf(err) == models.InsufficientData {
			return nil, models.ErrNoData
		}
		return nil, err
	}
	if profile.FieldCount < minProfileFields || profile.MarketCap <= 0 {
		return nil, models.ErrNoData
	}

	snap := &models.FundamentalSnapshot{
		Symbol:     symbol,
		BDRCode:    bdrCode,
		MarketCapB: profile.MarketCap / 1e9,
		PB:         profile.PriceToBook,
		Sector:     profile.Sector,
		Price:      profile.Price,
	}
	if profile.ForwardPE != nil {
		snap.PE = profile.ForwardPE
	} else if profile.TrailingPE != nil {
		snap.PE = profile.TrailingPE
	}
	if profile.DivYieldFrac != nil {
		snap.DivYieldPct = *profile.DivYieldFrac * 100
	}
	snap.EarningsDate = profile.EarningsDate

	// A statement failure leaves zero ROE samples, which rejects the
	// symbol below like any other unclassifiable one.
	stmts, err := f.provider.Statements(ctx, symbol)
	if err != nil {
		f.log.Warn("statement fetch failed",
			applogger.String("symbol", symbol), applogger.Error(err))
		stmts = nil
	}
	roe, samples := averageROE(stmts)
	if samples == 0 {
		return nil, models.ErrNoData
	}
	snap.ROEPct = roe
	snap.ROESamples = samples

	snap.Score, snap.Status = ScoreSnapshot(snap)

	if err := f.cache.Set(ctx, key, snap, f.ttl); err != nil {
		f.log.Warn("fundamentals cache write failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	}
	return snap, nil
}

// Invalidate drops memoized snapshots, either for one symbol or all.
func (f *Fundamentals) Invalidate(ctx context.Context, symbol string) error {
	if symbol == "" {
		return f.cache.DeleteByPattern(ctx, cache.NSFundamentals+":*")
	}
	return f.cache.Delete(ctx, cache.Key(cache.NSFundamentals, symbol))
}

// averageROE computes the mean return on equity over up to three
// fiscal periods. Samples with missing figures, zero equity or values
// outside the accepted range are skipped.
func averageROE(stmts []drepo.PeriodStatement) (*float64, int) {
	var sum float64
	n := 0
	for i, s := range stmts {
		if i >= 3 {
			break
		}
		if s.NetIncome == nil || s.Equity == nil || *s.Equity == 0 {
			continue
		}
		roe := *s.NetIncome / *s.Equity * 100
		if roe <= roeSampleMin || roe >= roeSampleMax {
			continue
		}
		sum += roe
		n++
	}
	if n == 0 {
		return nil, 0
	}
	avg := sum / float64(n)
	return &avg, n
}

// ScoreSnapshot derives the 0..100 quality score and status bucket.
// The base score follows the ROE ladder; a generous dividend nudges it
// up and a stretched P/E nudges it down.
func ScoreSnapshot(s *models.FundamentalSnapshot) (int, models.SnapshotStatus) {
	score := 40
	status := models.StatusWeak

	if s.ROEPct != nil {
		switch roe := *s.ROEPct; {
		case roe >= 20:
			score, status = 85, models.StatusExcellent
		case roe >= 15:
			score, status = 70, models.StatusGood
		case roe >= 10:
			score, status = 55, models.StatusAttention
		}
	}

	if s.DivYieldPct >= 6 {
		score += 5
	}
	if s.PE != nil && *s.PE > 40 {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, status
}
