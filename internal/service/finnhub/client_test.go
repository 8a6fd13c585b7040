package finnhub

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

func TestCompanyNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "AAPL" || q.Get("token") != "key" {
			t.Errorf("bad query %v", q)
		}
		if q.Get("from") == "" || q.Get("to") == "" {
			t.Errorf("date window missing")
		}
		w.Write([]byte(`[
			{"headline":"Apple beats estimates","source":"rt","url":"http://x","datetime":1767000000},
			{"headline":"  ","source":"rt","url":"http://y","datetime":1767000001}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second, noopMetrics{})
	to := time.Now()
	items, err := c.CompanyNews(context.Background(), "AAPL", to.AddDate(0, 0, -7), to)
	if err != nil {
		t.Fatalf("CompanyNews: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("blank headlines should be dropped, got %d items", len(items))
	}
	if items[0].Headline != "Apple beats estimates" {
		t.Fatalf("headline = %q", items[0].Headline)
	}
}

func TestCompanyNewsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second, noopMetrics{})
	to := time.Now()
	_, err := c.CompanyNews(context.Background(), "AAPL", to.AddDate(0, 0, -7), to)
	if models.KindOf(err) != models.NetworkFailure {
		t.Fatalf("expected NetworkFailure, got %v", err)
	}
}
