package models

import "time"

// FilterSet is the conjunction of numeric-range predicates applied to
// fundamental snapshots. A snapshot is kept iff every active predicate
// passes; predicates that need a missing metric fail.
type FilterSet struct {
	ROEMin       float64 `json:"roe_min"`
	ROEMax       float64 `json:"roe_max"`
	PEMin        float64 `json:"pe_min"`
	PEMax        float64 `json:"pe_max"`
	DivYieldMin  float64 `json:"div_yield_min"`
	MarketCapMin float64 `json:"market_cap_min"`
	ScoreMin     int     `json:"score_min"`
}

// DefaultFilters is the wide-open filter set used when a request
// supplies none (the UI slider defaults of the original dashboard).
func DefaultFilters() FilterSet {
	return FilterSet{ROEMin: 0, ROEMax: 200, PEMin: 0, PEMax: 100}
}

// Keep applies the conjunction to one snapshot.
func (f FilterSet) Keep(s *FundamentalSnapshot) bool {
	if s.ROEPct == nil || *s.ROEPct < f.ROEMin || *s.ROEPct > f.ROEMax {
		return false
	}
	if s.PE == nil || *s.PE < f.PEMin || *s.PE > f.PEMax {
		return false
	}
	if s.DivYieldPct < f.DivYieldMin {
		return false
	}
	if s.MarketCapB < f.MarketCapMin {
		return false
	}
	if s.Score < f.ScoreMin {
		return false
	}
	return true
}

// RecommendationKind names one screening bucket.
type RecommendationKind string

const (
	RecommendValue       RecommendationKind = "value"
	RecommendDividend    RecommendationKind = "dividend"
	RecommendGrowth      RecommendationKind = "growth"
	RecommendUndervalued RecommendationKind = "undervalued"
)

// Recommendation is one non-empty screening bucket with its top symbols.
type Recommendation struct {
	Kind    RecommendationKind `json:"kind"`
	Symbols []string           `json:"symbols"`
	Reason  string             `json:"reason"`
}

// AnalysisSummary carries the transparency counters and aggregate stats
// surfaced instead of error messages.
type AnalysisSummary struct {
	UniverseSize   int     `json:"universe_size"`
	Analyzed       int     `json:"analyzed"`
	Kept           int     `json:"kept"`
	FilteredOut    int     `json:"filtered_out"`
	WithoutData    int     `json:"without_data"`
	ExcellentCount int     `json:"excellent_count"`
	MeanROE        float64 `json:"mean_roe"`
	MeanPE         float64 `json:"mean_pe"`
	MeanDivYield   float64 `json:"mean_div_yield"`
}

// MetricCorrelations is the Pearson correlation matrix over the kept
// snapshots' numeric metrics. Matrix[i][j] correlates Metrics[i] with
// Metrics[j].
type MetricCorrelations struct {
	Metrics []string    `json:"metrics"`
	Matrix  [][]float64 `json:"matrix"`
}

// AnalysisResult is the full output of one scan.
type AnalysisResult struct {
	At              time.Time             `json:"at"`
	Fundamentals    []FundamentalSnapshot `json:"fundamentals"`
	News            []NewsSignal          `json:"news"`
	Markets         []MarketSignal        `json:"markets"`
	Ranked          []FundamentalSnapshot `json:"ranked"`
	Recommendations []Recommendation      `json:"recommendations"`
	ScoreAlerts     []string              `json:"score_alerts,omitempty"`
	ROEAlerts       []string              `json:"roe_alerts,omitempty"`
	Correlations    *MetricCorrelations   `json:"correlations,omitempty"`
	Summary         AnalysisSummary       `json:"summary"`
}

// HistoryEntry records one completed analysis in the bounded session log.
type HistoryEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Summary   AnalysisSummary `json:"summary"`
}

// ScanProgress is one progress event broadcast while a scan runs.
type ScanProgress struct {
	Stage   string `json:"stage"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Symbol  string `json:"symbol,omitempty"`
}
