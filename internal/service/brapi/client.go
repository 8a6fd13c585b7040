package brapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	xhttp "BDRScan/pkg/http"
)

// Client lists the tradable instrument universe from the brapi quote
// API. Implements drepo.QuoteLister.
type Client struct {
	baseURL string
	token   string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// New creates a brapi client. The token is mandatory; brapi rejects
// unauthenticated listing requests.
func New(baseURL, token string, timeout time.Duration, m drepo.Metrics) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		metrics: m,
	}
}

type listResponse struct {
	Stocks []struct {
		Stock string `json:"stock"`
		Name  string `json:"name"`
		Type  string `json:"type"`
	} `json:"stocks"`
}

// ListQuotes fetches the full quote list and returns the BDR entries.
func (c *Client) ListQuotes(ctx context.Context) ([]models.Symbol, error) {
	var resp listResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote/list",
		QueryParams: map[string][]string{
			"token": {c.token},
		},
	}, &resp)
	if err != nil {
		c.metrics.RecordProviderRequest("brapi", "error")
		return nil, models.NewFetchError(models.NetworkFailure, "brapi", "", err)
	}
	c.metrics.RecordProviderRequest("brapi", "ok")

	if len(resp.Stocks) == 0 {
		return nil, models.NewFetchError(models.InsufficientData, "brapi", "",
			fmt.Errorf("empty quote list"))
	}

	out := make([]models.Symbol, 0, len(resp.Stocks))
	for _, s := range resp.Stocks {
		code := strings.ToUpper(strings.TrimSpace(s.Stock))
		if code == "" {
			continue
		}
		out = append(out, models.Symbol{
			BDRCode: code,
			Name:    s.Name,
			Type:    instrumentType(s.Type),
		})
	}
	return out, nil
}

func instrumentType(s string) models.InstrumentType {
	switch strings.ToLower(s) {
	case "fund":
		return models.InstrumentFund
	case "bdr":
		return models.InstrumentBDR
	default:
		return models.InstrumentStock
	}
}
