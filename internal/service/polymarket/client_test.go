package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
)

type noopMetrics struct{}

func (noopMetrics) RecordProviderRequest(string, string) {}
func (noopMetrics) RecordCacheHit(string)                {}
func (noopMetrics) RecordSymbolScanned(string)           {}
func (noopMetrics) RecordScanDuration(float64)           {}
func (noopMetrics) RecordSnapshotsRouted(string, int)    {}

func TestOpenMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("closed") != "false" {
			t.Errorf("closed param missing")
		}
		w.Write([]byte(`{"data":[
			{"question":"Will AAPL beat earnings?","market_slug":"aapl-beat","active":true,"closed":false},
			{"question":"Closed market","market_slug":"old","active":false,"closed":true},
			{"question":"","market_slug":"blank","active":true,"closed":false}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, noopMetrics{})
	ms, err := c.OpenMarkets(context.Background(), 100)
	if err != nil {
		t.Fatalf("OpenMarkets: %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("expected 1 open market, got %d", len(ms))
	}
	if ms[0].Question != "Will AAPL beat earnings?" {
		t.Fatalf("question = %q", ms[0].Question)
	}
}

func TestOpenMarketsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, noopMetrics{})
	if _, err := c.OpenMarkets(context.Background(), 10); models.KindOf(err) != models.NetworkFailure {
		t.Fatalf("expected NetworkFailure, got %v", err)
	}
}
