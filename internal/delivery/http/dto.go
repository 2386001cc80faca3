package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// quotePayload is the JSON form of a quote or analyze request
type quotePayload struct {
	Data     string `json:"data"` // base64
	MIMEType string `json:"mimeType"`
	Category string `json:"category"`
}

// weeklySpend is decoded after binding so a bad value is reported against its own field
type estimateRequest struct {
	WeeklySpend json.RawMessage `json:"weeklySpend"`
	Category    string          `json:"category"`
}

type leadRequest struct {
	BusinessName string          `json:"businessName"`
	ContactName  string          `json:"contactName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Category     string          `json:"category"`
	WeeklySpend  json.RawMessage `json:"weeklySpend"`
}

func (r leadRequest) toLead() (domain.Lead, error) {
	spend, err := parseWeeklySpend(r.WeeklySpend, false)
	if err != nil {
		return domain.Lead{}, err
	}
	return domain.Lead{
		BusinessName: r.BusinessName,
		ContactName:  r.ContactName,
		Email:        r.Email,
		Phone:        r.Phone,
		Category:     r.Category,
		WeeklySpend:  spend,
	}, nil
}

// parseWeeklySpend accepts a bare or quoted number. Absent and null count as missing.
func parseWeeklySpend(raw json.RawMessage, required bool) (decimal.Decimal, error) {
	value := bytes.TrimSpace(raw)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		if required {
			return decimal.Zero, domain.NewValidationError("weeklySpend", "is required")
		}
		return decimal.Zero, nil
	}

	var spend decimal.Decimal
	if err := spend.UnmarshalJSON(value); err != nil {
		return decimal.Zero, domain.NewValidationError("weeklySpend", "must be a number")
	}
	return spend, nil
}

type segmentUpdateRequest struct {
	TargetSavingsPercent     *float64 `json:"targetSavingsPercent" binding:"required"`
	ProcurementTargetPercent *float64 `json:"procurementTargetPercent" binding:"required"`
}

// staffSegment is one row of the staff segment table
type staffSegment struct {
	Category                 domain.Category `json:"category"`
	Slug                     string          `json:"slug"`
	TargetSavingsPercent     float64         `json:"targetSavingsPercent"`
	ProcurementTargetPercent float64         `json:"procurementTargetPercent"`
}

// publicLineItem omits the procurement target
type publicLineItem struct {
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	MarketRate   decimal.Decimal `json:"marketRate"`
	PlatformRate decimal.Decimal `json:"platformRate"`
	CatalogPrice decimal.Decimal `json:"catalogPrice"`
	ProductID    string          `json:"productId,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Matched      bool            `json:"matched"`
}

type publicResult struct {
	Category       domain.Category       `json:"category"`
	Items          []publicLineItem      `json:"items"`
	TotalMarket    decimal.Decimal       `json:"totalMarket"`
	TotalPlatform  decimal.Decimal       `json:"totalPlatform"`
	SavingsValue   decimal.Decimal       `json:"savingsValue"`
	SavingsPercent decimal.Decimal       `json:"savingsPercent"`
	FallbackUsed   bool                  `json:"fallbackUsed"`
	FallbackReason domain.FallbackReason `json:"fallbackReason,omitempty"`
	GeneratedAt    time.Time             `json:"generatedAt"`
}

type sessionResponse struct {
	ID        string              `json:"id"`
	State     domain.SessionState `json:"state"`
	Lead      *domain.Lead        `json:"lead,omitempty"`
	Result    *publicResult       `json:"result,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func toPublicResult(r *domain.ComparisonResult) *publicResult {
	if r == nil {
		return nil
	}

	items := make([]publicLineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, publicLineItem{
			Name:         item.Name,
			Quantity:     item.Quantity,
			MarketRate:   item.MarketRate,
			PlatformRate: item.PlatformRate,
			CatalogPrice: item.CatalogPrice,
			ProductID:    item.ProductID,
			ImageURL:     item.ImageURL,
			Matched:      item.Matched,
		})
	}

	return &publicResult{
		Category:       r.Category,
		Items:          items,
		TotalMarket:    r.TotalMarket,
		TotalPlatform:  r.TotalPlatform,
		SavingsValue:   r.SavingsValue,
		SavingsPercent: r.SavingsPercent,
		FallbackUsed:   r.FallbackUsed,
		FallbackReason: r.FallbackReason,
		GeneratedAt:    r.GeneratedAt,
	}
}

func toSessionResponse(s *domain.Session) *sessionResponse {
	return &sessionResponse{
		ID:        s.ID,
		State:     s.State,
		Lead:      s.Lead,
		Result:    toPublicResult(s.Result),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
