package extraction

import (
	"context"

	"github.com/pzmarket/quote-backend/internal/domain"
)

// Disabled never recognizes any line items, so every quote uses the demo dataset
type Disabled struct{}

// Extract always returns an empty result
func (Disabled) Extract(ctx context.Context, doc domain.Document) ([]domain.ExtractedItem, error) {
	return []domain.ExtractedItem{}, nil
}
