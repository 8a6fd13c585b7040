package models

// InstrumentType classifies a listed instrument as reported by the
// quote-listing provider.
type InstrumentType string

const (
	InstrumentStock InstrumentType = "stock"
	InstrumentFund  InstrumentType = "fund"
	InstrumentBDR   InstrumentType = "bdr"
)

// Symbol is one depositary receipt and its home-market equivalent.
// HomeCode is derived from the BDR code by stripping the 2-character
// tier suffix ("34" or "35"), unless a manual correction overrides it.
type Symbol struct {
	HomeCode string         `json:"home_code"`
	BDRCode  string         `json:"bdr_code"`
	Name     string         `json:"name"`
	Type     InstrumentType `json:"type"`
}

// Universe is the full set of tradable symbols for one registry refresh.
// HomeCodes is deduplicated and sorted lexicographically; Mapping goes
// home code -> BDR code. Degraded is set when the provider was
// unreachable (or returned too few symbols) and the curated fallback
// list was used instead.
type Universe struct {
	HomeCodes []string          `json:"home_codes"`
	Mapping   map[string]string `json:"mapping"`
	Symbols   []Symbol          `json:"symbols"`
	Degraded  bool              `json:"degraded"`
}

// Tier34Count counts level-1 BDRs (suffix "34").
func (u *Universe) Tier34Count() int {
	n := 0
	for _, s := range u.Symbols {
		if len(s.BDRCode) >= 2 && s.BDRCode[len(s.BDRCode)-2:] == "34" {
			n++
		}
	}
	return n
}

// Tier35Count counts level-2/3 BDRs (suffix "35").
func (u *Universe) Tier35Count() int {
	n := 0
	for _, s := range u.Symbols {
		if len(s.BDRCode) >= 2 && s.BDRCode[len(s.BDRCode)-2:] == "35" {
			n++
		}
	}
	return n
}
