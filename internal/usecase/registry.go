package usecase

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"
)

// homeCodePattern validates derived home-market tickers.
var homeCodePattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// suffixCorrections overrides suffix stripping where the BDR prefix
// does not match the home-market ticker.
var suffixCorrections = map[string]string{
	"AMZO": "AMZN",
	"GOGL": "GOOGL",
	"FBOK": "META",
	"NVDC": "NVDA",
	"COCA": "KO",
	"MCDC": "MCD",
	"JPMC": "JPM",
	"DISB": "DIS",
	"ITLC": "INTC",
	"VISA": "V",
}

// fallbackSymbols is the curated universe used when the provider is
// unreachable or answers with too few instruments.
var fallbackSymbols = []models.Symbol{
	{HomeCode: "AAPL", BDRCode: "AAPL34", Name: "Apple", Type: models.InstrumentBDR},
	{HomeCode: "MSFT", BDRCode: "MSFT34", Name: "Microsoft", Type: models.InstrumentBDR},
	{HomeCode: "AMZN", BDRCode: "AMZO34", Name: "Amazon", Type: models.InstrumentBDR},
	{HomeCode: "GOOGL", BDRCode: "GOGL34", Name: "Alphabet", Type: models.InstrumentBDR},
	{HomeCode: "META", BDRCode: "FBOK34", Name: "Meta Platforms", Type: models.InstrumentBDR},
	{HomeCode: "TSLA", BDRCode: "TSLA34", Name: "Tesla", Type: models.InstrumentBDR},
	{HomeCode: "NVDA", BDRCode: "NVDC34", Name: "NVIDIA", Type: models.InstrumentBDR},
	{HomeCode: "NFLX", BDRCode: "NFLX34", Name: "Netflix", Type: models.InstrumentBDR},
	{HomeCode: "KO", BDRCode: "COCA34", Name: "Coca-Cola", Type: models.InstrumentBDR},
	{HomeCode: "JPM", BDRCode: "JPMC34", Name: "JPMorgan Chase", Type: models.InstrumentBDR},
	{HomeCode: "MCD", BDRCode: "MCDC34", Name: "McDonald's", Type: models.InstrumentBDR},
	{HomeCode: "DIS", BDRCode: "DISB34", Name: "Walt Disney", Type: models.InstrumentBDR},
	{HomeCode: "INTC", BDRCode: "ITLC34", Name: "Intel", Type: models.InstrumentBDR},
	{HomeCode: "V", BDRCode: "VISA34", Name: "Visa", Type: models.InstrumentBDR},
	{HomeCode: "PG", BDRCode: "PGCO34", Name: "Procter & Gamble", Type: models.InstrumentBDR},
}

// Registry resolves the tradable universe of depositary receipts and
// memoizes it. A provider failure degrades to the curated fallback
// instead of an empty result.
type Registry struct {
	quotes  drepo.QuoteLister
	cache   cache.Service
	log     *applogger.Logger
	ttl     time.Duration
	cap     int
	minSize int
}

// NewRegistry creates the registry usecase.
func NewRegistry(quotes drepo.QuoteLister, c cache.Service, log *applogger.Logger, ttl time.Duration, universeCap, minSize int) *Registry {
	return &Registry{
		quotes:  quotes,
		cache:   c,
		log:     log,
		ttl:     ttl,
		cap:     universeCap,
		minSize: minSize,
	}
}

// Universe returns the resolved symbol universe, refreshing it from
// the provider when the memoized copy expired.
func (r *Registry) Universe(ctx context.Context) (*models.Universe, error) {
	key := cache.Key(cache.NSRegistry, "universe")

	var cached models.Universe
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	u := r.build(ctx)
	if err := r.cache.Set(ctx, key, u, r.ttl); err != nil {
		r.log.Warn("registry cache write failed", applogger.Error(err))
	}
	return u, nil
}

func (r *Registry) build(ctx context.Context) *models.Universe {
	raw, err := r.quotes.ListQuotes(ctx)
	if err != nil {
		r.log.Warn("quote listing failed, using fallback universe", applogger.Error(err))
		return r.fromSymbols(fallbackSymbols, true)
	}

	resolved := make([]models.Symbol, 0, len(raw))
	for _, s := range raw {
		home, ok := HomeCodeFor(s.BDRCode)
		if !ok {
			continue
		}
		s.HomeCode = home
		resolved = append(resolved, s)
	}

	if len(resolved) < r.minSize {
		r.log.Warn("registry below minimum size, using fallback universe",
			applogger.Int("resolved", len(resolved)),
			applogger.Int("min", r.minSize))
		return r.fromSymbols(fallbackSymbols, true)
	}

	return r.fromSymbols(resolved, false)
}

func (r *Registry) fromSymbols(symbols []models.Symbol, degraded bool) *models.Universe {
	mapping := make(map[string]string, len(symbols))
	deduped := make([]models.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if _, seen := mapping[s.HomeCode]; seen {
			continue
		}
		mapping[s.HomeCode] = s.BDRCode
		deduped = append(deduped, s)
	}

	sort.Slice(deduped, func(i, j int) bool { return deduped[i].HomeCode < deduped[j].HomeCode })

	if r.cap > 0 && len(deduped) > r.cap {
		deduped = deduped[:r.cap]
		capped := make(map[string]string, len(deduped))
		for _, s := range deduped {
			capped[s.HomeCode] = s.BDRCode
		}
		mapping = capped
	}

	codes := make([]string, len(deduped))
	for i, s := range deduped {
		codes[i] = s.HomeCode
	}

	return &models.Universe{
		HomeCodes: codes,
		Mapping:   mapping,
		Symbols:   deduped,
		Degraded:  degraded,
	}
}

// Search returns universe symbols whose home code, BDR code or name
// contains q, case-insensitively. An empty q returns everything.
func (r *Registry) Search(ctx context.Context, q string) ([]models.Symbol, error) {
	u, err := r.Universe(ctx)
	if err != nil {
		return nil, err
	}
	if q == "" {
		return u.Symbols, nil
	}

	needle := strings.ToUpper(strings.TrimSpace(q))
	var out []models.Symbol
	for _, s := range u.Symbols {
		if strings.Contains(s.HomeCode, needle) ||
			strings.Contains(s.BDRCode, needle) ||
			strings.Contains(strings.ToUpper(s.Name), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Invalidate drops the memoized universe.
func (r *Registry) Invalidate(ctx context.Context) error {
	return r.cache.DeleteByPattern(ctx, cache.NSRegistry+":*")
}

// HomeCodeFor derives the home-market ticker from a BDR code by
// stripping the tier suffix and applying manual corrections. Codes
// without a "34"/"35" suffix or with an invalid derived ticker are
// rejected.
func HomeCodeFor(bdrCode string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(bdrCode))
	if len(code) < 3 {
		return "", false
	}

	suffix := code[len(code)-2:]
	if suffix != "34" && suffix != "35" {
		return "", false
	}

	home := code[:len(code)-2]
	if fixed, ok := suffixCorrections[home]; ok {
		home = fixed
	}
	if !homeCodePattern.MatchString(home) {
		return "", false
	}
	return home, true
}
