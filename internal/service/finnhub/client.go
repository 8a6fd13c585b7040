package finnhub

import (
	"context"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	xhttp "BDRScan/pkg/http"
)

// Client fetches recent company news from the Finnhub REST API.
// Implements drepo.NewsProvider.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// New creates a Finnhub news client.
func New(baseURL, apiKey string, timeout time.Duration, m drepo.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		metrics: m,
	}
}

type newsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

// CompanyNews returns headlines for symbol in the [from, to] window,
// newest first as Finnhub delivers them.
func (c *Client) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	var raw []newsItem
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/company-news",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
			"token":  {c.apiKey},
		},
	}, &raw)
	if err != nil {
		c.metrics.RecordProviderRequest("finnhub", "error")
		return nil, models.NewFetchError(models.NetworkFailure, "finnhub", symbol, err)
	}
	c.metrics.RecordProviderRequest("finnhub", "ok")

	out := make([]models.NewsItem, 0, len(raw))
	for _, it := range raw {
		if strings.TrimSpace(it.Headline) == "" {
			continue
		}
		out = append(out, models.NewsItem{
			Headline: it.Headline,
			Source:   it.Source,
			URL:      it.URL,
			At:       time.Unix(it.Datetime, 0).UTC(),
		})
	}
	return out, nil
}
