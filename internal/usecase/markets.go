package usecase

import (
	"context"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
)

// earningsKeywords restrict the market match to earnings-related
// questions.
var earningsKeywords = []string{"earnings", "revenue", "profit", "beat", "miss"}

// Markets correlates open prediction markets with scanned symbols.
type Markets struct {
	provider drepo.MarketProvider
	cache    cache.Service
	metrics  drepo.Metrics
	log      *applogger.Logger
	ttl      time.Duration
	limit    int
}

// NewMarkets creates the prediction-market usecase.
func NewMarkets(p drepo.MarketProvider, c cache.Service, m drepo.Metrics, log *applogger.Logger, ttl time.Duration, limit int) *Markets {
	return &Markets{provider: p, cache: c, metrics: m, log: log, ttl: ttl, limit: limit}
}

// open returns the memoized open-market list.
func (m *Markets) open(ctx context.Context) ([]models.Market, error) {
	key := cache.Key(cache.NSMarkets, "open")

	var cached []models.Market
	if err := m.cache.Get(ctx, key, &cached); err == nil {
		m.metrics.RecordCacheHit("polymarket")
		return cached, nil
	}

	markets, err := m.provider.OpenMarkets(ctx, m.limit)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Set(ctx, key, markets, m.ttl); err != nil {
		m.log.Warn("markets cache write failed", applogger.Error(err))
	}
	return markets, nil
}

// Signal counts earnings-related markets mentioning one symbol.
// Returns (nil, nil) when nothing matches.
func (m *Markets) Signal(ctx context.Context, symbol string) (*models.MarketSignal, error) {
	markets, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	sig := matchMarkets(symbol, markets)
	if sig.MarketCount == 0 {
		return nil, nil
	}
	return sig, nil
}

// Signals evaluates a batch of symbols against one market listing.
// Symbols without any matching market are omitted.
func (m *Markets) Signals(ctx context.Context, symbols []string) ([]models.MarketSignal, error) {
	markets, err := m.open(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.MarketSignal
	for _, sym := range symbols {
		if sig := matchMarkets(sym, markets); sig.MarketCount > 0 {
			out = append(out, *sig)
		}
	}
	return out, nil
}

// Invalidate drops the memoized market listing.
func (m *Markets) Invalidate(ctx context.Context) error {
	return m.cache.DeleteByPattern(ctx, cache.NSMarkets+":*")
}

// matchMarkets applies the keyword filter: the question must mention
// the symbol as a standalone token and contain at least one earnings
// keyword. Score is 30 per match, capped at 100.
func matchMarkets(symbol string, markets []models.Market) *models.MarketSignal {
	sym := strings.ToUpper(symbol)
	n := 0
	for _, mk := range markets {
		q := strings.ToUpper(mk.Question)
		if !containsToken(q, sym) {
			continue
		}
		lower := strings.ToLower(mk.Question)
		for _, kw := range earningsKeywords {
			if strings.Contains(lower, kw) {
				n++
				break
			}
		}
	}

	score := n * 30
	if score > 100 {
		score = 100
	}

	status := models.MarketWeak
	switch {
	case n > 5:
		status = models.MarketStrong
	case n > 2:
		status = models.MarketModerate
	}

	return &models.MarketSignal{
		Symbol:      symbol,
		MarketCount: n,
		Score:       score,
		Status:      status,
	}
}

// containsToken reports whether s contains word bounded by
// non-alphanumeric characters.
func containsToken(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isAlnum(s[start-1])
		afterOK := end == len(s) || !isAlnum(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
