package usecase

import (
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// demoItems is the fixed illustrative invoice used when extraction yields nothing.
// Platform rates are provisional; the pipeline reprices them for the active segment.
var demoItems = []domain.ExtractedItem{
	{Name: "Roma Tomatoes", Quantity: decimal.NewFromInt(10), MarketRate: decimal.RequireFromString("4.80"), PlatformRate: decimal.RequireFromString("3.90")},
	{Name: "Iceberg Lettuce", Quantity: decimal.NewFromInt(12), MarketRate: decimal.RequireFromString("3.20"), PlatformRate: decimal.RequireFromString("2.60")},
	{Name: "Brown Onions", Quantity: decimal.NewFromInt(20), MarketRate: decimal.RequireFromString("2.10"), PlatformRate: decimal.RequireFromString("1.70")},
	{Name: "Hass Avocados", Quantity: decimal.NewFromInt(24), MarketRate: decimal.RequireFromString("2.50"), PlatformRate: decimal.RequireFromString("2.00")},
	{Name: "Lemons", Quantity: decimal.NewFromInt(15), MarketRate: decimal.RequireFromString("6.40"), PlatformRate: decimal.RequireFromString("5.10")},
	{Name: "Baby Spinach", Quantity: decimal.NewFromInt(5), MarketRate: decimal.RequireFromString("11.00"), PlatformRate: decimal.RequireFromString("8.80")},
}

// DemoItems returns a copy of the fixed demonstration dataset
func DemoItems() []domain.ExtractedItem {
	items := make([]domain.ExtractedItem, len(demoItems))
	copy(items, demoItems)
	return items
}
