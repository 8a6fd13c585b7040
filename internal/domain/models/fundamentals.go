package models

import "time"

// SnapshotStatus buckets a company by its average return on equity.
type SnapshotStatus string

const (
	StatusExcellent SnapshotStatus = "excellent"
	StatusGood      SnapshotStatus = "good"
	StatusAttention SnapshotStatus = "attention"
	StatusWeak      SnapshotStatus = "weak"
)

// FundamentalSnapshot is the scored fundamental view of one symbol.
// Nil pointer fields mean the provider had no value for that metric;
// ROE is the mean of up to three fiscal-period samples.
type FundamentalSnapshot struct {
	Symbol      string         `json:"symbol"`
	BDRCode     string         `json:"bdr_code,omitempty"`
	MarketCapB  float64        `json:"market_cap_b"`
	PE          *float64       `json:"pe,omitempty"`
	PB          *float64       `json:"pb,omitempty"`
	DivYieldPct float64        `json:"div_yield_pct"`
	ROEPct      *float64       `json:"roe_pct,omitempty"`
	Sector      string         `json:"sector,omitempty"`
	Price       float64        `json:"price"`
	Score       int            `json:"score"`
	Status      SnapshotStatus `json:"status"`
	ROESamples  int            `json:"roe_samples"`
	// EarningsDate is the next scheduled earnings report, if known.
	EarningsDate *time.Time `json:"earnings_date,omitempty"`
}

// HasROE reports whether a finite ROE average could be computed.
func (s *FundamentalSnapshot) HasROE() bool { return s.ROEPct != nil }
