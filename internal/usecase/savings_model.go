package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	weeksPerYear = decimal.NewFromInt(52)
)

// RateFor returns the configuration for category, falling back to the fallback category
// when category is unconfigured. The returned Category is the one actually applied.
func RateFor(
	configs map[domain.Category]domain.SegmentConfig,
	category domain.Category,
	fallback domain.Category,
) (domain.Category, domain.SegmentConfig) {
	if cfg, ok := configs[category]; ok {
		return category, cfg
	}
	if cfg, ok := configs[fallback]; ok {
		return fallback, cfg
	}
	return fallback, domain.SegmentConfig{}
}

// DerivePrice computes marketRate * (1 - percent/100).
// percent must be within [0,100] and marketRate must not be negative.
func DerivePrice(marketRate decimal.Decimal, percent float64) (decimal.Decimal, error) {
	if err := checkPercent("percent", percent); err != nil {
		return decimal.Zero, err
	}
	if marketRate.IsNegative() {
		return decimal.Zero, domain.NewValidationError("marketRate", "must not be negative")
	}

	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(hundred))
	return marketRate.Mul(factor), nil
}

func checkPercent(field string, percent float64) error {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return domain.NewValidationError(field, "must be a number")
	}
	if percent < 0 || percent > 100 {
		return domain.NewValidationError(field, fmt.Sprintf("must be within [0,100], got %g", percent))
	}
	return nil
}

// SavingsModel resolves segment percentages from a SegmentConfigStore
type SavingsModel struct {
	store           domain.SegmentConfigStore
	defaultCategory domain.Category
}

// NewSavingsModel creates a savings model. An invalid defaultCategory becomes Restaurant.
func NewSavingsModel(store domain.SegmentConfigStore, defaultCategory domain.Category) *SavingsModel {
	if !defaultCategory.Valid() {
		defaultCategory = domain.DefaultCategory
	}
	return &SavingsModel{
		store:           store,
		defaultCategory: defaultCategory,
	}
}

// DefaultCategory returns the category used for unconfigured or unknown segments
func (m *SavingsModel) DefaultCategory() domain.Category {
	return m.defaultCategory
}

// Resolve maps a raw category name to the category and config that apply.
// Unknown names are not an error; they resolve to the default category.
func (m *SavingsModel) Resolve(ctx context.Context, raw string) (domain.Category, domain.SegmentConfig, error) {
	configs, err := m.store.GetAll(ctx)
	if err != nil {
		return "", domain.SegmentConfig{}, fmt.Errorf("failed to load segment config: %w", err)
	}

	category, ok := domain.ParseCategory(raw)
	if !ok {
		category = m.defaultCategory
	}

	applied, cfg := RateFor(configs, category, m.defaultCategory)
	return applied, cfg, nil
}

// EstimateSavings projects weekly and annual savings for a weekly spend.
func (m *SavingsModel) EstimateSavings(ctx context.Context, weeklySpend decimal.Decimal, rawCategory string) (*domain.SavingsEstimate, error) {
	if weeklySpend.IsNegative() {
		return nil, domain.NewValidationError("weeklySpend", "must not be negative")
	}

	category, cfg, err := m.Resolve(ctx, rawCategory)
	if err != nil {
		return nil, err
	}

	platformSpend, err := DerivePrice(weeklySpend, cfg.TargetSavingsPercent)
	if err != nil {
		return nil, err
	}
	weeklySavings := weeklySpend.Sub(platformSpend)

	return &domain.SavingsEstimate{
		Category:             category,
		WeeklySpend:          weeklySpend,
		TargetSavingsPercent: cfg.TargetSavingsPercent,
		WeeklySavings:        weeklySavings,
		AnnualSavings:        weeklySavings.Mul(weeksPerYear),
		PlatformWeeklySpend:  platformSpend,
	}, nil
}
