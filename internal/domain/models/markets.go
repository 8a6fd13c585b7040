package models

// Market is one open prediction market as returned by the provider.
// Only the question text is inspected; the rest of the record is opaque.
type Market struct {
	Question string `json:"question"`
	Slug     string `json:"market_slug,omitempty"`
	Active   bool   `json:"active,omitempty"`
}

// MarketStrength buckets the number of matching markets.
type MarketStrength string

const (
	MarketStrong   MarketStrength = "strong"
	MarketModerate MarketStrength = "moderate"
	MarketWeak     MarketStrength = "weak"
)

// MarketSignal counts earnings-related prediction markets that mention
// a symbol. Score is capped at 100.
type MarketSignal struct {
	Symbol      string         `json:"symbol"`
	MarketCount int            `json:"market_count"`
	Score       int            `json:"score"`
	Status      MarketStrength `json:"status"`
}
