package models

import "time"

// NewsItem is one raw headline from the news provider.
type NewsItem struct {
	Headline string    `json:"headline"`
	Source   string    `json:"source,omitempty"`
	URL      string    `json:"url,omitempty"`
	At       time.Time `json:"at"`
}

// NewsPriority ranks how soon a symbol needs attention.
type NewsPriority string

const (
	PriorityUrgent NewsPriority = "urgent"
	PriorityHigh   NewsPriority = "high"
	PriorityMedium NewsPriority = "medium"
)

// NewsSignal is the evaluated news/event urgency for one symbol.
// DaysToEarnings is negative when no future earnings date is known.
type NewsSignal struct {
	Symbol         string       `json:"symbol"`
	BDRCode        string       `json:"bdr_code,omitempty"`
	Score          int          `json:"score"`
	Priority       NewsPriority `json:"priority"`
	Events         []string     `json:"events"`
	Headline       string       `json:"headline,omitempty"`
	DaysToEarnings int          `json:"days_to_earnings"`
	ItemCount      int          `json:"item_count"`
}
