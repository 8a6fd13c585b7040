package brapi

import (
	"context"
	"errors"
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

func TestListQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("missing token query param")
		}
		w.Write([]byte(`{"stocks":[
			{"stock":"AAPL34","name":"Apple DRN","type":"bdr"},
			{"stock":"msft34","name":"Microsoft DRN","type":"bdr"},
			{"stock":"","name":"blank","type":"stock"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second, noopMetrics{})
	syms, err := c.ListQuotes(context.Background())
	if err != nil {
		t.Fatalf("ListQuotes: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(syms))
	}
	if syms[1].BDRCode != "MSFT34" {
		t.Fatalf("codes should be uppercased, got %s", syms[1].BDRCode)
	}
	if syms[0].Type != models.InstrumentBDR {
		t.Fatalf("type = %s", syms[0].Type)
	}
}

func TestListQuotesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stocks":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second, noopMetrics{})
	_, err := c.ListQuotes(context.Background())
	if models.KindOf(err) != models.InsufficientData {
		t.Fatalf("expected InsufficientData, got %v", err)
	}
}

func TestListQuotesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second, noopMetrics{})
	_, err := c.ListQuotes(context.Background())
	if models.KindOf(err) != models.NetworkFailure {
		t.Fatalf("expected NetworkFailure, got %v", err)
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) || fe.Provider != "brapi" {
		t.Fatalf("error should carry provider name: %v", err)
	}
}
