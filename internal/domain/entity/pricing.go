package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// DefaultCurrency is used when a vendor does not report one.
const DefaultCurrency = "USD"

// PartIdentity identity of a part for pricing lookups
type PartIdentity struct {
	ID           string `json:"id"`
	Kind         Kind   `json:"kind"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SKU          string `json:"sku,omitempty"`
	UPC          string `json:"upc,omitempty"`
	MPN          string `json:"mpn,omitempty"`
}

// Key normalized cache key of the part
func (p PartIdentity) Key() string {
	return CacheKey(p.Manufacturer, p.Model)
}

// Offer one vendor listing for a part. Money is in minor units (cents).
// Once Total is computed the offer is treated as immutable.
type Offer struct {
	Vendor      string    `json:"vendor"`
	URL         string    `json:"url"`
	BasePrice   int64     `json:"basePrice"`
	Shipping    int64     `json:"shipping"`
	TaxEstimate int64     `json:"taxEstimate"`
	Total       int64     `json:"total"`
	InStock     bool      `json:"inStock"`
	LastChecked time.Time `json:"lastChecked"`
	Currency    string    `json:"currency"`
	Notes       string    `json:"notes,omitempty"`
}

// PriceResult aggregated offers for a part; Best is nil or &Offers[0].
type PriceResult struct {
	PartID      string    `json:"partId"`
	Offers      []Offer   `json:"offers"`
	Best        *Offer    `json:"best"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// NewPriceResult builds a result from offers already sorted by total.
func NewPriceResult(partID string, offers []Offer, generatedAt time.Time) PriceResult {
	if offers == nil {
		offers = []Offer{}
	}
	result := PriceResult{
		PartID:      partID,
		Offers:      offers,
		GeneratedAt: generatedAt,
	}
	if len(offers) > 0 {
		result.Best = &result.Offers[0]
	}
	return result
}

// CacheEntry cached price result
type CacheEntry struct {
	Result    PriceResult
	Timestamp time.Time
}

// ComputeOfferTotals returns a copy of o with tax and total filled in:
// tax = round(base × rate), total = base + shipping + tax.
func ComputeOfferTotals(o Offer, taxRate float64) Offer {
	tax := decimal.NewFromInt(o.BasePrice).
		Mul(decimal.NewFromFloat(taxRate)).
		Round(0).
		IntPart()
	o.TaxEstimate = tax
	o.Total = o.BasePrice + o.Shipping + tax
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	return o
}

// CacheKey normalizes manufacturer and model into "manufacturer model":
// NFKC folded, lower-cased, trimmed, inner whitespace collapsed.
func CacheKey(manufacturer, model string) string {
	joined := norm.NFKC.String(manufacturer + " " + model)
	return strings.Join(strings.Fields(strings.ToLower(joined)), " ")
}
