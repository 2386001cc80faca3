package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// wireItem accepts numbers either bare or quoted. Quantity is nullable so an omitted
// value can be told apart from an explicit zero.
type wireItem struct {
	Name         string              `json:"name"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	MarketRate   decimal.Decimal     `json:"marketRate"`
	PlatformRate decimal.Decimal     `json:"platformRate"`
}

// parseItems decodes the model's JSON array. Markdown fences and surrounding prose are
// tolerated, and individual malformed elements are skipped. An empty array is valid.
func parseItems(text string) ([]domain.ExtractedItem, error) {
	body := stripFences(text)

	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end < start {
		return nil, errors.New("response does not contain a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	items := make([]domain.ExtractedItem, 0, len(raw))
	for i, element := range raw {
		var w wireItem
		if err := json.Unmarshal(element, &w); err != nil {
			log.Printf("[GEMINI] Skipping malformed element %d: %v", i, err)
			continue
		}
		quantity := decimal.NewFromInt(1)
		if w.Quantity.Valid {
			quantity = w.Quantity.Decimal
		}
		items = append(items, domain.ExtractedItem{
			Name:         strings.TrimSpace(w.Name),
			Quantity:     quantity,
			MarketRate:   w.MarketRate,
			PlatformRate: w.PlatformRate,
		})
	}

	if len(raw) > 0 && len(items) == 0 {
		return nil, errors.New("no element of the response could be decoded")
	}
	return items, nil
}

// stripFences removes a surrounding ```json ... ``` block if present
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
