package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/pzmarket/quote-backend/internal/validation"
)

// SegmentSummary is the public view of a segment; procurement targets are staff only
type SegmentSummary struct {
	Category             domain.Category `json:"category"`
	TargetSavingsPercent float64         `json:"targetSavingsPercent"`
}

// SegmentService exposes segment configuration to the public and staff APIs
type SegmentService struct {
	store     domain.SegmentConfigStore
	savings   *SavingsModel
	validator *validation.Validator
}

// NewSegmentService creates a new segment service
func NewSegmentService(store domain.SegmentConfigStore, savings *SavingsModel) *SegmentService {
	return &SegmentService{
		store:     store,
		savings:   savings,
		validator: validation.Default(),
	}
}

// PublicSegments lists every category with its effective target savings percent
func (s *SegmentService) PublicSegments(ctx context.Context) ([]SegmentSummary, error) {
	configs, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment config: %w", err)
	}

	summaries := make([]SegmentSummary, 0, len(domain.Categories()))
	for _, category := range domain.Categories() {
		_, cfg := RateFor(configs, category, s.savings.DefaultCategory())
		summaries = append(summaries, SegmentSummary{
			Category:             category,
			TargetSavingsPercent: cfg.TargetSavingsPercent,
		})
	}
	return summaries, nil
}

// All returns the full configuration map
func (s *SegmentService) All(ctx context.Context) (map[domain.Category]domain.SegmentConfig, error) {
	return s.store.GetAll(ctx)
}

// Update validates and stores the configuration for a category given by exact name or slug
func (s *SegmentService) Update(ctx context.Context, rawCategory string, config domain.SegmentConfig) error {
	category, ok := domain.ParseCategory(rawCategory)
	if !ok {
		category, ok = domain.CategoryFromSlug(rawCategory)
	}
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, rawCategory)
	}

	if err := checkPercent("targetSavingsPercent", config.TargetSavingsPercent); err != nil {
		return err
	}
	if err := checkPercent("procurementTargetPercent", config.ProcurementTargetPercent); err != nil {
		return err
	}
	if err := s.validator.Struct(config); err != nil {
		return err
	}

	if config.ProcurementTargetPercent < config.TargetSavingsPercent {
		log.Printf("[SEGMENTS] %s procurement target %.1f%% is below customer target %.1f%%",
			category, config.ProcurementTargetPercent, config.TargetSavingsPercent)
	}

	return s.store.Update(ctx, category, config)
}
