package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
)

func newTestRegistry(t *testing.T, q *fakeQuotes) *Registry {
	return NewRegistry(q, testCache(t), testLogger(t), time.Hour, 100, 3)
}

func TestHomeCodeFor(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"AAPL34", "AAPL", true},
		{"MSFT35", "MSFT", true},
		{"GOGL34", "GOOGL", true},
		{"AMZO34", "AMZN", true},
		{"aapl34", "AAPL", true},
		{"PETR4", "", false},
		{"34", "", false},
		{"TOOLONGX34", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := HomeCodeFor(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("HomeCodeFor(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestUniverseDerivation(t *testing.T) {
	q := &fakeQuotes{symbols: []models.Symbol{
		{BDRCode: "MSFT34", Name: "Microsoft"},
		{BDRCode: "AAPL34", Name: "Apple"},
		{BDRCode: "AAPL35", Name: "Apple lvl2"},
		{BDRCode: "PETR4", Name: "not a BDR"},
	}}
	r := newTestRegistry(t, q)

	u, err := r.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if u.Degraded {
		t.Fatal("should not be degraded")
	}
	if len(u.HomeCodes) != 2 {
		t.Fatalf("expected 2 home codes, got %v", u.HomeCodes)
	}
	// Sorted, deduplicated: AAPL34 wins over AAPL35 (first seen).
	if u.HomeCodes[0] != "AAPL" || u.HomeCodes[1] != "MSFT" {
		t.Fatalf("home codes = %v", u.HomeCodes)
	}
	if u.Mapping["AAPL"] != "AAPL34" {
		t.Fatalf("mapping = %v", u.Mapping)
	}
}

func TestUniverseMemoized(t *testing.T) {
	q := &fakeQuotes{symbols: []models.Symbol{
		{BDRCode: "AAPL34"}, {BDRCode: "MSFT34"}, {BDRCode: "TSLA34"},
	}}
	r := newTestRegistry(t, q)
	ctx := context.Background()

	if _, err := r.Universe(ctx); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := r.Universe(ctx); err != nil {
		t.Fatalf("second: %v", err)
	}
	if q.calls != 1 {
		t.Fatalf("provider should be called once, got %d", q.calls)
	}
}

func TestUniverseFallbackOnError(t *testing.T) {
	q := &fakeQuotes{err: errors.New("connection refused")}
	r := newTestRegistry(t, q)

	u, err := r.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe should degrade, not fail: %v", err)
	}
	if !u.Degraded {
		t.Fatal("fallback universe must be flagged degraded")
	}
	if len(u.HomeCodes) < 10 {
		t.Fatalf("fallback too small: %d", len(u.HomeCodes))
	}
}

func TestUniverseFallbackWhenTooSmall(t *testing.T) {
	q := &fakeQuotes{symbols: []models.Symbol{{BDRCode: "AAPL34"}}}
	r := newTestRegistry(t, q)

	u, err := r.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if !u.Degraded {
		t.Fatal("undersized registry must degrade to fallback")
	}
}

func TestUniverseCap(t *testing.T) {
	var syms []models.Symbol
	for _, c := range []string{"AAAA", "BBBB", "CCCC", "DDDD", "EEEE"} {
		syms = append(syms, models.Symbol{BDRCode: c + "34"})
	}
	r := NewRegistry(&fakeQuotes{symbols: syms}, testCache(t), testLogger(t), time.Hour, 3, 3)

	u, err := r.Universe(context.Background())
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(u.HomeCodes) != 3 || len(u.Mapping) != 3 {
		t.Fatalf("cap not applied: %d codes, %d mapped", len(u.HomeCodes), len(u.Mapping))
	}
}

func TestSearch(t *testing.T) {
	q := &fakeQuotes{symbols: []models.Symbol{
		{BDRCode: "AAPL34", Name: "Apple"},
		{BDRCode: "MSFT34", Name: "Microsoft"},
		{BDRCode: "TSLA34", Name: "Tesla"},
	}}
	r := newTestRegistry(t, q)
	ctx := context.Background()

	all, err := r.Search(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("empty query should return all: %d, %v", len(all), err)
	}

	got, err := r.Search(ctx, "micro")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].HomeCode != "MSFT" {
		t.Fatalf("Search(micro) = %v", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	q := &fakeQuotes{symbols: []models.Symbol{
		{BDRCode: "AAPL34"}, {BDRCode: "MSFT34"}, {BDRCode: "TSLA34"},
	}}
	r := newTestRegistry(t, q)
	ctx := context.Background()

	r.Universe(ctx)
	if err := r.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	r.Universe(ctx)
	if q.calls != 2 {
		t.Fatalf("expected refetch after invalidate, calls = %d", q.calls)
	}
}
