package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"BDRScan/internal/domain/models"
	xhttp "BDRScan/pkg/http"
	applogger "BDRScan/pkg/logger"
	"BDRScan/pkg/util"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

var csvHeader = []string{
	"symbol", "bdr_code", "market_cap_b", "pe", "pb",
	"div_yield_pct", "roe_pct", "sector", "price", "score", "status",
}

// ExportCSV streams the last scan's snapshots as CSV. An optional
// limit query parameter cuts the export to the top rows.
func (h *AnalysisHandler) ExportCSV(c echo.Context) error {
	result := h.scanner.LastResult()
	if result == nil {
		return xhttp.NotFoundResponse(c, "no analysis has run yet")
	}

	rows := result.Ranked
	if limit := util.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="fundamentals.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for i := range rows {
		if err := w.Write(snapshotRow(&rows[i])); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func snapshotRow(s *models.FundamentalSnapshot) []string {
	return []string{
		s.Symbol,
		s.BDRCode,
		strconv.FormatFloat(s.MarketCapB, 'f', 2, 64),
		fmtPtr(s.PE),
		fmtPtr(s.PB),
		strconv.FormatFloat(s.DivYieldPct, 'f', 2, 64),
		fmtPtr(s.ROEPct),
		s.Sector,
		strconv.FormatFloat(s.Price, 'f', 2, 64),
		strconv.Itoa(s.Score),
		string(s.Status),
	}
}

func fmtPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// ExportXLSX writes the last scan as a workbook: one sheet per signal
// kind plus a summary.
func (h *AnalysisHandler) ExportXLSX(c echo.Context) error {
	result := h.scanner.LastResult()
	if result == nil {
		return xhttp.NotFoundResponse(c, "no analysis has run yet")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeFundamentalsSheet(f, result); err == nil {
		writeNewsSheet(f, result)
		writeMarketsSheet(f, result)
		writeSummarySheet(f, result)
	} else {
		h.log.Error("xlsx build failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="analysis.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}

func writeFundamentalsSheet(f *excelize.File, result *models.AnalysisResult) error {
	const sheet = "Fundamentals"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := []interface{}{"Symbol", "BDR", "Market Cap (B)", "P/E", "P/B", "Div Yield %", "ROE %", "Sector", "Price", "Score", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range result.Ranked {
		s := &result.Ranked[i]
		row := []interface{}{
			s.Symbol, s.BDRCode, s.MarketCapB, cellPtr(s.PE), cellPtr(s.PB),
			s.DivYieldPct, cellPtr(s.ROEPct), s.Sector, s.Price, s.Score, string(s.Status),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeNewsSheet(f *excelize.File, result *models.AnalysisResult) {
	const sheet = "News"
	f.NewSheet(sheet)
	header := []interface{}{"Symbol", "Score", "Priority", "Days To Earnings", "Items", "Headline"}
	f.SetSheetRow(sheet, "A1", &header)
	for i, n := range result.News {
		row := []interface{}{n.Symbol, n.Score, string(n.Priority), n.DaysToEarnings, n.ItemCount, n.Headline}
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row)
	}
}

func writeMarketsSheet(f *excelize.File, result *models.AnalysisResult) {
	const sheet = "Markets"
	f.NewSheet(sheet)
	header := []interface{}{"Symbol", "Markets", "Score", "Status"}
	f.SetSheetRow(sheet, "A1", &header)
	for i, m := range result.Markets {
		row := []interface{}{m.Symbol, m.MarketCount, m.Score, string(m.Status)}
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row)
	}
}

func writeSummarySheet(f *excelize.File, result *models.AnalysisResult) {
	const sheet = "Summary"
	f.NewSheet(sheet)
	rows := [][]interface{}{
		{"Scanned At", result.At.Format("2006-01-02 15:04:05")},
		{"Universe Size", result.Summary.UniverseSize},
		{"Analyzed", result.Summary.Analyzed},
		{"Kept", result.Summary.Kept},
		{"Filtered Out", result.Summary.FilteredOut},
		{"Without Data", result.Summary.WithoutData},
		{"Excellent", result.Summary.ExcellentCount},
		{"Mean ROE %", result.Summary.MeanROE},
		{"Mean P/E", result.Summary.MeanPE},
		{"Mean Div Yield %", result.Summary.MeanDivYield},
	}
	for i, row := range rows {
		r := row
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &r)
	}
}

func cellPtr(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
