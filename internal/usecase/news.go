package usecase

import (
	"context"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
)

// News evaluates the event urgency of a symbol from recent headlines
// and the earnings calendar.
type News struct {
	provider     drepo.NewsProvider
	cache        cache.Service
	metrics      drepo.Metrics
	log          *applogger.Logger
	ttl          time.Duration
	lookbackDays int
}

// NewNews creates the news usecase.
func NewNews(p drepo.NewsProvider, c cache.Service, m drepo.Metrics, log *applogger.Logger, ttl time.Duration, lookbackDays int) *News {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &News{provider: p, cache: c, metrics: m, log: log, ttl: ttl, lookbackDays: lookbackDays}
}

// Signal scores the news urgency for a symbol. earningsDate and
// hasDividend come from the fundamental snapshot; earningsDate may be
// nil. Returns (nil, nil) when the window held no items at all.
func (n *News) Signal(ctx context.Context, symbol, bdrCode string, earningsDate *time.Time, hasDividend bool) (*models.NewsSignal, error) {
	items, err := n.fetchItems(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return evaluateNews(symbol, bdrCode, items, earningsDate, hasDividend, time.Now().UTC()), nil
}

// fetchItems returns the memoized trailing-window headlines. An empty
// list is memoized too, so quiet symbols do not refetch within the TTL.
func (n *News) fetchItems(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	key := cache.Key(cache.NSNews, symbol)

	var cached []models.NewsItem
	if err := n.cache.Get(ctx, key, &cached); err == nil {
		n.metrics.RecordCacheHit("finnhub")
		return cached, nil
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -n.lookbackDays)
	items, err := n.provider.CompanyNews(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.NewsItem{}
	}

	if err := n.cache.Set(ctx, key, items, n.ttl); err != nil {
		n.log.Warn("news cache write failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	}
	return items, nil
}

// Invalidate drops memoized news signals.
func (n *News) Invalidate(ctx context.Context, symbol string) error {
	if symbol == "" {
		return n.cache.DeleteByPattern(ctx, cache.NSNews+":*")
	}
	return n.cache.Delete(ctx, cache.Key(cache.NSNews, symbol))
}

// evaluateNews applies the urgency ladder: base 50, boosted by how
// close the next earnings date is, plus a dividend bonus. Capped at
// 100. Nil when there is nothing to evaluate.
func evaluateNews(symbol, bdrCode string, items []models.NewsItem, earningsDate *time.Time, hasDividend bool, now time.Time) *models.NewsSignal {
	if len(items) == 0 {
		return nil
	}
	sig := &models.NewsSignal{
		Symbol:         symbol,
		BDRCode:        bdrCode,
		Score:          50,
		Priority:       models.PriorityMedium,
		DaysToEarnings: -1,
		ItemCount:      len(items),
	}
	sig.Headline = items[0].Headline

	if earningsDate != nil && !earningsDate.Before(now.Truncate(24*time.Hour)) {
		days := int(earningsDate.Sub(now).Hours() / 24)
		sig.DaysToEarnings = days
		switch {
		case days <= 3:
			sig.Score += 40
			sig.Priority = models.PriorityUrgent
			sig.Events = append(sig.Events, "earnings_imminent")
		case days <= 7:
			sig.Score += 30
			sig.Priority = models.PriorityUrgent
			sig.Events = append(sig.Events, "earnings_this_week")
		case days <= 14:
			sig.Score += 20
			sig.Priority = models.PriorityHigh
			sig.Events = append(sig.Events, "earnings_upcoming")
		}
	}

	if hasDividend {
		sig.Score += 10
		sig.Events = append(sig.Events, "dividend_payer")
	}

	if sig.Score > 100 {
		sig.Score = 100
	}
	return sig
}
