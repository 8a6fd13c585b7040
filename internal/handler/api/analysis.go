package api

import (
	"errors"
	"net/http"

	"BDRScan/internal/domain/models"
	"BDRScan/internal/service/stream"
	"BDRScan/internal/usecase"
	xhttp "BDRScan/pkg/http"
	applogger "BDRScan/pkg/logger"
	"BDRScan/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the scan pipeline over HTTP.
type AnalysisHandler struct {
	registry     *usecase.Registry
	scanner      *usecase.Scanner
	fundamentals *usecase.Fundamentals
	news         *usecase.News
	markets      *usecase.Markets
	history      *usecase.History
	hub          *stream.Hub
	log          *applogger.Logger
}

// NewAnalysisHandler creates the API handler.
func NewAnalysisHandler(
	registry *usecase.Registry,
	scanner *usecase.Scanner,
	fundamentals *usecase.Fundamentals,
	news *usecase.News,
	markets *usecase.Markets,
	history *usecase.History,
	hub *stream.Hub,
	log *applogger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		registry:     registry,
		scanner:      scanner,
		fundamentals: fundamentals,
		news:         news,
		markets:      markets,
		history:      history,
		hub:          hub,
		log:          log,
	}
}

// RegisterRoutes implements xhttp.Handler.
func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/registry", h.GetRegistry)
	g.POST("/analyze", h.Analyze)
	g.POST("/compare", h.Compare)
	g.GET("/fundamentals", h.GetFundamentals)
	g.GET("/news", h.GetNews)
	g.GET("/markets", h.GetMarkets)
	g.GET("/history", h.GetHistory)
	g.DELETE("/history", h.ClearHistory)
	g.POST("/cache/invalidate", h.InvalidateCache)
	g.GET("/export/fundamentals.csv", h.ExportCSV)
	g.GET("/export/analysis.xlsx", h.ExportXLSX)

	e.GET("/ws/progress", h.Progress)
	e.GET("/healthz", h.Health)
}

// GetRegistry returns the symbol universe, optionally filtered by q.
func (h *AnalysisHandler) GetRegistry(c echo.Context) error {
	req := new(models.RegistryRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	ctx := c.Request().Context()
	u, err := h.registry.Universe(ctx)
	if err != nil {
		h.log.Error("registry refresh failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	symbols, err := h.registry.Search(ctx, req.Query)
	if err != nil {
		h.log.Error("registry search failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbols":  symbols,
		"total":    len(symbols),
		"tier_34":  u.Tier34Count(),
		"tier_35":  u.Tier35Count(),
		"degraded": u.Degraded,
	})
}

// Analyze runs a full scan with the requested filters.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := new(models.AnalyzeRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	result, err := h.scanner.Analyze(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			return xhttp.DataResponse(c, http.StatusConflict, err.Error())
		}
		h.log.Error("analyze failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, result)
}

// Compare returns side-by-side snapshots for up to five symbols.
func (h *AnalysisHandler) Compare(c echo.Context) error {
	req := new(models.CompareRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	snaps, missing, err := h.scanner.Compare(c.Request().Context(), req.Symbols)
	if err != nil {
		h.log.Error("compare failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"snapshots": snaps,
		"missing":   missing,
	})
}

// GetFundamentals returns the scored snapshot of one symbol.
func (h *AnalysisHandler) GetFundamentals(c echo.Context) error {
	req := new(models.SymbolRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	ctx := c.Request().Context()
	sym := util.NormalizeSymbol(req.Symbol)

	bdr := ""
	if u, err := h.registry.Universe(ctx); err == nil {
		bdr = u.Mapping[sym]
	}

	snap, err := h.fundamentals.Fetch(ctx, sym, bdr)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			return xhttp.NotFoundResponse(c, "no fundamental data for "+sym)
		}
		h.log.Error("fundamentals fetch failed",
			applogger.String("symbol", sym), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, snap)
}

// GetNews returns the news urgency signal of one symbol.
func (h *AnalysisHandler) GetNews(c echo.Context) error {
	req := new(models.SymbolRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	ctx := c.Request().Context()
	sym := util.NormalizeSymbol(req.Symbol)

	// The earnings calendar and dividend flag come from fundamentals;
	// a missing snapshot degrades to a calendar-free signal.
	var earnings *models.FundamentalSnapshot
	if snap, err := h.fundamentals.Fetch(ctx, sym, ""); err == nil {
		earnings = snap
	}

	var sig *models.NewsSignal
	var err error
	if earnings != nil {
		sig, err = h.news.Signal(ctx, sym, earnings.BDRCode, earnings.EarningsDate, earnings.DivYieldPct > 0)
	} else {
		sig, err = h.news.Signal(ctx, sym, "", nil, false)
	}
	if err != nil {
		h.log.Error("news signal failed",
			applogger.String("symbol", sym), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if sig == nil {
		return xhttp.NotFoundResponse(c, "no recent news for "+sym)
	}
	return xhttp.SuccessResponse(c, sig)
}

// GetMarkets returns the prediction-market signal of one symbol.
func (h *AnalysisHandler) GetMarkets(c echo.Context) error {
	req := new(models.SymbolRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	sym := util.NormalizeSymbol(req.Symbol)
	sig, err := h.markets.Signal(c.Request().Context(), sym)
	if err != nil {
		h.log.Error("market signal failed",
			applogger.String("symbol", sym), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if sig == nil {
		return xhttp.NotFoundResponse(c, "no matching markets for "+sym)
	}
	return xhttp.SuccessResponse(c, sig)
}

// GetHistory returns the bounded session log.
func (h *AnalysisHandler) GetHistory(c echo.Context) error {
	entries := h.history.List()
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// ClearHistory wipes the session log.
func (h *AnalysisHandler) ClearHistory(c echo.Context) error {
	h.history.Clear()
	return xhttp.NoContentResponse(c)
}

// InvalidateCache drops memoized provider data by scope.
func (h *AnalysisHandler) InvalidateCache(c echo.Context) error {
	req := new(models.InvalidateRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	ctx := c.Request().Context()
	sym := util.NormalizeSymbol(req.Symbol)

	var err error
	switch req.Scope {
	case "registry":
		err = h.registry.Invalidate(ctx)
	case "fundamentals":
		err = h.fundamentals.Invalidate(ctx, sym)
	case "news":
		err = h.news.Invalidate(ctx, sym)
	case "markets":
		err = h.markets.Invalidate(ctx)
	default: // all
		for _, fn := range []func() error{
			func() error { return h.registry.Invalidate(ctx) },
			func() error { return h.fundamentals.Invalidate(ctx, "") },
			func() error { return h.news.Invalidate(ctx, "") },
			func() error { return h.markets.Invalidate(ctx) },
		} {
			if e := fn(); e != nil {
				err = e
			}
		}
	}
	if err != nil {
		h.log.Error("cache invalidation failed", applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]string{"invalidated": req.Scope})
}

// Progress upgrades to WebSocket and streams scan progress.
func (h *AnalysisHandler) Progress(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request())
}

// Health is the liveness probe.
func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
