package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is an uploaded invoice or price list
type Document struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether no document bytes were supplied.
func (d *Document) Empty() bool {
	return d == nil || len(d.Data) == 0
}

// ExtractedItem is a best-effort line read from a document by the extraction collaborator.
// PlatformRate is the collaborator's own provisional estimate.
type ExtractedItem struct {
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	MarketRate   decimal.Decimal `json:"marketRate"`
	PlatformRate decimal.Decimal `json:"platformRate"`
}

// LineItem is one priced row of a comparison
type LineItem struct {
	Name                  string          `json:"name"`
	Quantity              decimal.Decimal `json:"quantity"`
	MarketRate            decimal.Decimal `json:"marketRate"`
	PlatformRate          decimal.Decimal `json:"platformRate"`
	ProcurementTargetRate decimal.Decimal `json:"procurementTargetRate"` // staff only
	CatalogPrice          decimal.Decimal `json:"catalogPrice"`
	ProductID             string          `json:"productId,omitempty"`
	ImageURL              string          `json:"imageUrl,omitempty"`
	Matched               bool            `json:"matched"`
}

// FallbackReason explains why the demo dataset was used
type FallbackReason string

const (
	FallbackNone             FallbackReason = ""
	FallbackNoDocument       FallbackReason = "no_document"
	FallbackExtractionFailed FallbackReason = "extraction_failed"
	FallbackNoItems          FallbackReason = "no_items"
)

// ComparisonResult is a derived, never-persisted market vs platform comparison
type ComparisonResult struct {
	Category       Category        `json:"category"`
	Items          []LineItem      `json:"items"`
	TotalMarket    decimal.Decimal `json:"totalMarket"`
	TotalPlatform  decimal.Decimal `json:"totalPlatform"`
	SavingsValue   decimal.Decimal `json:"savingsValue"`
	SavingsPercent decimal.Decimal `json:"savingsPercent"`
	FallbackUsed   bool            `json:"fallbackUsed"`
	FallbackReason FallbackReason  `json:"fallbackReason,omitempty"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// QuoteRequest is the input to the quote pipeline
type QuoteRequest struct {
	Document *Document
	Category string
}

// SavingsEstimate is the spend-based calculator output
type SavingsEstimate struct {
	Category             Category        `json:"category"`
	WeeklySpend          decimal.Decimal `json:"weeklySpend"`
	TargetSavingsPercent float64         `json:"targetSavingsPercent"`
	WeeklySavings        decimal.Decimal `json:"weeklySavings"`
	AnnualSavings        decimal.Decimal `json:"annualSavings"`
	PlatformWeeklySpend  decimal.Decimal `json:"platformWeeklySpend"`
}
