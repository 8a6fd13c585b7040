package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BDRScan/internal/domain/models"
	drepo "BDRScan/internal/domain/repository"
	xhttp "BDRScan/pkg/http"
)

// Client fetches company fundamentals from the Yahoo Finance
// quoteSummary API. Implements drepo.FundamentalsProvider.
type Client struct {
	baseURL string
	http    *xhttp.Client
	metrics drepo.Metrics
}

// New creates a Yahoo fundamentals client.
func New(baseURL string, timeout time.Duration, m drepo.Metrics) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		metrics: m,
	}
}

// rawValue is Yahoo's {raw, fmt} number envelope. Absent metrics come
// through as an empty object, so Raw stays nil.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	SummaryDetail *struct {
		MarketCap     rawValue `json:"marketCap"`
		ForwardPE     rawValue `json:"forwardPE"`
		TrailingPE    rawValue `json:"trailingPE"`
		DividendYield rawValue `json:"dividendYield"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		PriceToBook rawValue `json:"priceToBook"`
	} `json:"defaultKeyStatistics"`
	AssetProfile *struct {
		Sector string `json:"sector"`
	} `json:"assetProfile"`
	Price *struct {
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
	} `json:"price"`
	CalendarEvents *struct {
		Earnings struct {
			EarningsDate []rawValue `json:"earningsDate"`
		} `json:"earnings"`
	} `json:"calendarEvents"`
	IncomeStatementHistory *struct {
		Statements []struct {
			NetIncome rawValue `json:"netIncome"`
		} `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory *struct {
		Statements []struct {
			StockholderEquity rawValue `json:"totalStockholderEquity"`
		} `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
}

const profileModules = "summaryDetail,defaultKeyStatistics,assetProfile,price,calendarEvents"
const statementModules = "incomeStatementHistory,balanceSheetHistory"

func (c *Client) fetch(ctx context.Context, symbol, modules string) (*summaryResult, error) {
	var resp summaryResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, symbol),
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; bdrscan/1.0)",
		},
		QueryParams: map[string][]string{
			"modules": {modules},
		},
	}, &resp)
	if err != nil {
		c.metrics.RecordProviderRequest("yahoo", "error")
		return nil, models.NewFetchError(models.NetworkFailure, "yahoo", symbol, err)
	}
	c.metrics.RecordProviderRequest("yahoo", "ok")

	if e := resp.QuoteSummary.Error; e != nil {
		return nil, models.NewFetchError(models.MalformedResponse, "yahoo", symbol,
			fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, models.NewFetchError(models.InsufficientData, "yahoo", symbol,
			fmt.Errorf("empty quoteSummary result"))
	}
	return &resp.QuoteSummary.Result[0], nil
}

// Profile fetches the valuation and calendar fields for a symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*drepo.CompanyProfile, error) {
	res, err := c.fetch(ctx, symbol, profileModules)
	if err != nil {
		return nil, err
	}

	p := &drepo.CompanyProfile{}
	if sd := res.SummaryDetail; sd != nil {
		if sd.MarketCap.Raw != nil {
			p.MarketCap = *sd.MarketCap.Raw
			p.FieldCount++
		}
		if sd.ForwardPE.Raw != nil {
			p.ForwardPE = sd.ForwardPE.Raw
			p.FieldCount++
		}
		if sd.TrailingPE.Raw != nil {
			p.TrailingPE = sd.TrailingPE.Raw
			p.FieldCount++
		}
		if sd.DividendYield.Raw != nil {
			p.DivYieldFrac = sd.DividendYield.Raw
			p.FieldCount++
		}
	}
	if ks := res.DefaultKeyStatistics; ks != nil && ks.PriceToBook.Raw != nil {
		p.PriceToBook = ks.PriceToBook.Raw
		p.FieldCount++
	}
	if ap := res.AssetProfile; ap != nil && ap.Sector != "" {
		p.Sector = ap.Sector
		p.FieldCount++
	}
	if pr := res.Price; pr != nil && pr.RegularMarketPrice.Raw != nil {
		p.Price = *pr.RegularMarketPrice.Raw
		p.FieldCount++
	}
	if ce := res.CalendarEvents; ce != nil && len(ce.Earnings.EarningsDate) > 0 {
		if raw := ce.Earnings.EarningsDate[0].Raw; raw != nil {
			t := time.Unix(int64(*raw), 0).UTC()
			p.EarningsDate = &t
			p.FieldCount++
		}
	}

	if p.FieldCount == 0 {
		return nil, models.NewFetchError(models.InsufficientData, "yahoo", symbol,
			fmt.Errorf("no usable profile fields"))
	}
	return p, nil
}

// Statements fetches up to three recent fiscal periods, pairing net
// income with stockholder equity by period index.
func (c *Client) Statements(ctx context.Context, symbol string) ([]drepo.PeriodStatement, error) {
	res, err := c.fetch(ctx, symbol, statementModules)
	if err != nil {
		return nil, err
	}

	var incomes, equities []*float64
	if ih := res.IncomeStatementHistory; ih != nil {
		for _, s := range ih.Statements {
			incomes = append(incomes, s.NetIncome.Raw)
		}
	}
	if bh := res.BalanceSheetHistory; bh != nil {
		for _, s := range bh.Statements {
			equities = append(equities, s.StockholderEquity.Raw)
		}
	}

	n := len(incomes)
	if len(equities) < n {
		n = len(equities)
	}
	if n > 3 {
		n = 3
	}

	out := make([]drepo.PeriodStatement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, drepo.PeriodStatement{
			NetIncome: incomes[i],
			Equity:    equities[i],
		})
	}
	return out, nil
}
