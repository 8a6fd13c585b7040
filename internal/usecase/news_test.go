package usecase

import (
	"context"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
)

func newTestNews(t *testing.T, f *fakeNews) *News {
	return NewNews(f, testCache(t), noopMetrics{}, testLogger(t), time.Hour, 7)
}

func signalAt(t *testing.T, daysToEarnings int, hasDividend bool) *models.NewsSignal {
	t.Helper()
	now := time.Now().UTC()
	var earnings *time.Time
	if daysToEarnings >= 0 {
		// Mid-day offset keeps the whole-day count stable.
		d := now.Add(time.Duration(daysToEarnings)*24*time.Hour + 12*time.Hour)
		earnings = &d
	}
	items := []models.NewsItem{{Headline: "Apple quarterly report ahead", At: now}}
	return evaluateNews("AAPL", "AAPL34", items, earnings, hasDividend, now)
}

func TestNewsUrgencyLadder(t *testing.T) {
	cases := []struct {
		days         int
		wantScore    int
		wantPriority models.NewsPriority
	}{
		{1, 90, models.PriorityUrgent},
		{5, 80, models.PriorityUrgent},
		{10, 70, models.PriorityHigh},
		{20, 50, models.PriorityMedium},
		{-1, 50, models.PriorityMedium},
	}

	for _, c := range cases {
		sig := signalAt(t, c.days, false)
		if sig.Score != c.wantScore || sig.Priority != c.wantPriority {
			t.Errorf("days %d: got (%d, %s), want (%d, %s)",
				c.days, sig.Score, sig.Priority, c.wantScore, c.wantPriority)
		}
	}
}

func TestNewsDividendBonus(t *testing.T) {
	sig := signalAt(t, 20, true)
	if sig.Score != 60 {
		t.Fatalf("score = %d, want 60", sig.Score)
	}
	found := false
	for _, e := range sig.Events {
		if e == "dividend_payer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %v, want dividend_payer", sig.Events)
	}
}

func TestNewsScoreCap(t *testing.T) {
	sig := signalAt(t, 1, true)
	if sig.Score != 100 {
		t.Fatalf("score = %d, want capped at 100", sig.Score)
	}
}

func TestNewsAbsentWithoutItems(t *testing.T) {
	f := &fakeNews{items: map[string][]models.NewsItem{}}
	n := newTestNews(t, f)

	sig, err := n.Signal(context.Background(), "AAPL", "AAPL34", nil, false)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if sig != nil {
		t.Fatalf("signal = %+v, want absent", sig)
	}
}

func TestNewsSignalUsesHeadlines(t *testing.T) {
	f := &fakeNews{items: map[string][]models.NewsItem{
		"AAPL": {
			{Headline: "Apple beats estimates", At: time.Now()},
			{Headline: "Second story", At: time.Now()},
		},
	}}
	n := newTestNews(t, f)

	sig, err := n.Signal(context.Background(), "AAPL", "AAPL34", nil, false)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if sig.ItemCount != 2 {
		t.Fatalf("ItemCount = %d", sig.ItemCount)
	}
	if sig.Headline != "Apple beats estimates" {
		t.Fatalf("Headline = %q", sig.Headline)
	}
}
