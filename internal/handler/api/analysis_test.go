package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	"BDRScan/internal/service/ratelimit"
	"BDRScan/internal/service/stream"
	"BDRScan/internal/usecase"
	"BDRScan/pkg/cache"
	applogger "BDRScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

type noopMetrics struct{}

func (noopMetrics) RecordProviderRequest(string, string) {}
func (noopMetrics) RecordCacheHit(string)                {}
func (noopMetrics) RecordSymbolScanned(string)           {}
func (noopMetrics) RecordScanDuration(float64)           {}
func (noopMetrics) RecordSnapshotsRouted(string, int)    {}

type stubQuotes struct{}

func (stubQuotes) ListQuotes(context.Context) ([]models.Symbol, error) {
	return []models.Symbol{
		{BDRCode: "AAPL34", Name: "Apple"},
		{BDRCode: "MSFT34", Name: "Microsoft"},
	}, nil
}

type stubFundamentals struct{}

func (stubFundamentals) Profile(_ context.Context, symbol string) (*drepo.CompanyProfile, error) {
	if symbol != "AAPL" && symbol != "MSFT" {
		return nil, models.NewFetchError(models.InsufficientData, "yahoo", symbol, nil)
	}
	pe := 25.0
	return &drepo.CompanyProfile{FieldCount: 6, MarketCap: 3e12, ForwardPE: &pe, Price: 200}, nil
}

func (stubFundamentals) Statements(context.Context, string) ([]drepo.PeriodStatement, error) {
	ni, eq := 250.0, 1000.0
	return []drepo.PeriodStatement{{NetIncome: &ni, Equity: &eq}}, nil
}

type stubNews struct{}

func (stubNews) CompanyNews(context.Context, string, time.Time, time.Time) ([]models.NewsItem, error) {
	return []models.NewsItem{{Headline: "Apple beats estimates", At: time.Now()}}, nil
}

type stubMarkets struct{}

func (stubMarkets) OpenMarkets(context.Context, int) ([]models.Market, error) {
	return []models.Market{{Question: "Will AAPL beat earnings?", Active: true}}, nil
}

func newTestHandler(t *testing.T) *AnalysisHandler {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	registry := usecase.NewRegistry(stubQuotes{}, c, log, time.Hour, 100, 2)
	fundamentals := usecase.NewFundamentals(stubFundamentals{}, c, noopMetrics{}, log, time.Hour)
	news := usecase.NewNews(stubNews{}, c, noopMetrics{}, log, time.Hour, 7)
	markets := usecase.NewMarkets(stubMarkets{}, c, noopMetrics{}, log, time.Hour, 100)
	history := usecase.NewHistory(100)
	hub := stream.NewHub(log)

	scanner := usecase.NewScanner(registry, fundamentals, news, markets, history, c,
		ratelimit.New(), noopMetrics{}, hub, nil, log,
		usecase.ScannerConfig{ProviderRPS: 1000, NewsCap: 50})

	return NewAnalysisHandler(registry, scanner, fundamentals, news, markets, history, hub, log)
}

func doRequest(t *testing.T, h *AnalysisHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetRegistry(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/api/registry?q=apple", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Symbols  []models.Symbol `json:"symbols"`
			Total    int             `json:"total"`
			Tier34   int             `json:"tier_34"`
			Tier35   int             `json:"tier_35"`
			Degraded bool            `json:"degraded"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 1 || resp.Data.Symbols[0].HomeCode != "AAPL" {
		t.Fatalf("symbols = %+v", resp.Data)
	}
	if resp.Data.Tier34 != 2 || resp.Data.Tier35 != 0 || resp.Data.Degraded {
		t.Fatalf("tier counts = %+v", resp.Data)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/analyze", `{"limit":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.AnalysisResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Summary.Analyzed != 2 || resp.Data.Summary.Kept != 2 {
		t.Fatalf("summary = %+v", resp.Data.Summary)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/analyze", `{"limit":5000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("transport status = %d", rec.Code)
	}
	var resp struct {
		Status int `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("app status = %d, want 400", resp.Status)
	}
}

func TestGetFundamentalsNotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/api/fundamentals?symbol=ZZZZ", "")
	var resp struct {
		Status int `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("app status = %d, want 404", resp.Status)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	h := newTestHandler(t)

	doRequest(t, h, http.MethodPost, "/api/analyze", `{"limit":10}`)

	rec := doRequest(t, h, http.MethodGet, "/api/history", "")
	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.Total != 1 {
		t.Fatalf("total = %d, want 1", resp.Data.Total)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/history", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/history", "")
	resp.Data.Total = -1
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.Total != 0 {
		t.Fatalf("total after clear = %d", resp.Data.Total)
	}
}

func TestExportCSVBeforeScan(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/api/export/fundamentals.csv", "")
	var resp struct {
		Status int `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("app status = %d, want 404", resp.Status)
	}
}

func TestExportCSVAfterScan(t *testing.T) {
	h := newTestHandler(t)
	doRequest(t, h, http.MethodPost, "/api/analyze", `{"limit":10}`)

	rec := doRequest(t, h, http.MethodGet, "/api/export/fundamentals.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "symbol,") {
		t.Fatalf("header = %s", lines[0])
	}
}

func TestExportCSVLimit(t *testing.T) {
	h := newTestHandler(t)
	doRequest(t, h, http.MethodPost, "/api/analyze", `{"limit":10}`)

	rec := doRequest(t, h, http.MethodGet, "/api/export/fundamentals.csv?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	// A malformed limit falls back to the full export.
	rec = doRequest(t, h, http.MethodGet, "/api/export/fundamentals.csv?limit=abc", "")
	lines = strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected full export, got %d lines", len(lines))
	}
}

func TestInvalidateCache(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodPost, "/api/cache/invalidate", `{"scope":"fundamentals","symbol":"AAPL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
