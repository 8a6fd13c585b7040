package models

// Requests for the analysis HTTP endpoints. Defined in domain for
// consistency and reuse.

type AnalyzeRequest struct {
	Limit        int      `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	Symbols      []string `json:"symbols" validate:"omitempty,dive,min=1,max=6"`
	ROEMin       *float64 `json:"roe_min" validate:"omitempty,gte=-100,lte=500"`
	ROEMax       *float64 `json:"roe_max" validate:"omitempty,gte=-100,lte=500"`
	PEMin        *float64 `json:"pe_min" validate:"omitempty,gte=0,lte=1000"`
	PEMax        *float64 `json:"pe_max" validate:"omitempty,gte=0,lte=1000"`
	DivYieldMin  *float64 `json:"div_yield_min" validate:"omitempty,gte=0,lte=100"`
	MarketCapMin *float64 `json:"market_cap_min" validate:"omitempty,gte=0"`
	ScoreMin     *int     `json:"score_min" validate:"omitempty,gte=0,lte=100"`
	AlertScore   int      `json:"alert_score" default:"80" validate:"gte=0,lte=100"`
	AlertROE     float64  `json:"alert_roe" default:"25" validate:"gte=0,lte=100"`
}

// Filters materializes the request into a FilterSet, falling back to
// the wide-open defaults for absent bounds.
func (r *AnalyzeRequest) Filters() FilterSet {
	f := DefaultFilters()
	if r.ROEMin != nil {
		f.ROEMin = *r.ROEMin
	}
	if r.ROEMax != nil {
		f.ROEMax = *r.ROEMax
	}
	if r.PEMin != nil {
		f.PEMin = *r.PEMin
	}
	if r.PEMax != nil {
		f.PEMax = *r.PEMax
	}
	if r.DivYieldMin != nil {
		f.DivYieldMin = *r.DivYieldMin
	}
	if r.MarketCapMin != nil {
		f.MarketCapMin = *r.MarketCapMin
	}
	if r.ScoreMin != nil {
		f.ScoreMin = *r.ScoreMin
	}
	return f
}

type SymbolRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=6"`
}

type RegistryRequest struct {
	Query string `query:"q" json:"q" validate:"omitempty,max=40"`
}

type CompareRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=5,dive,min=1,max=6"`
}

type InvalidateRequest struct {
	Scope  string `json:"scope" default:"all" validate:"oneof=all registry fundamentals news markets"`
	Symbol string `json:"symbol" validate:"omitempty,min=1,max=6"`
}
