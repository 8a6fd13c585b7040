package polymarket

import (
	"context"
	"strconv"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	xhttp "BDRScan/pkg/http"
)

// Client lists open prediction markets from the Polymarket CLOB API.
// Implements drepo.MarketProvider.
type Client struct {
	baseURL string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// New creates a Polymarket client.
func New(baseURL string, timeout time.Duration, m drepo.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		metrics: m,
	}
}

type marketsResponse struct {
	Data []struct {
		Question   string `json:"question"`
		MarketSlug string `json:"market_slug"`
		Active     bool   `json:"active"`
		Closed     bool   `json:"closed"`
	} `json:"data"`
}

// OpenMarkets returns up to limit open markets.
func (c *Client) OpenMarkets(ctx context.Context, limit int) ([]models.Market, error) {
	if limit <= 0 {
		limit = 500
	}

	var resp marketsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets",
		QueryParams: map[string][]string{
			"limit":  {strconv.Itoa(limit)},
			"closed": {"false"},
		},
	}, &resp)
	if err != nil {
		c.metrics.RecordProviderRequest("polymarket", "error")
		return nil, models.NewFetchError(models.NetworkFailure, "polymarket", "", err)
	}
	c.metrics.RecordProviderRequest("polymarket", "ok")

	out := make([]models.Market, 0, len(resp.Data))
	for _, m := range resp.Data {
		if m.Closed || strings.TrimSpace(m.Question) == "" {
			continue
		}
		out = append(out, models.Market{
			Question: m.Question,
			Slug:     m.MarketSlug,
			Active:   m.Active,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
