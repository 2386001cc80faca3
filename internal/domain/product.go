package domain

import "github.com/shopspring/decimal"

// Product is a static catalog entry used for name matching and fallback pricing
type Product struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"` // produce group, e.g. "Vegetables"
	Unit             string          `json:"unit"`
	DefaultUnitPrice decimal.Decimal `json:"defaultUnitPrice"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	Transient        bool            `json:"-"` // synthesized from an unmatched invoice line
}
