package app

import (
	"context"
	"testing"
	"time"

	"github.com/pzmarket/quote-backend/config"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/pzmarket/quote-backend/internal/infrastructure/docai"
	"github.com/pzmarket/quote-backend/internal/infrastructure/extraction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Extraction: config.ExtractionConfig{Provider: config.ProviderNone},
		Cache:      config.CacheConfig{TTL: time.Hour, SessionTTL: time.Hour},
		RateLimit:  config.RateLimitConfig{PerIP: 60},
		Pricing: config.PricingConfig{
			DefaultCategory: "Restaurant",
			Segments: map[string]config.SegmentSettings{
				"restaurant": {TargetSavingsPercent: 30, ProcurementTargetPercent: 40},
			},
		},
	}
}

func TestNewExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		extractor, closeFn, err := NewExtractor(ctx, config.ExtractionConfig{Provider: config.ProviderNone})
		require.NoError(t, err)
		assert.IsType(t, extraction.Disabled{}, extractor)
		assert.Nil(t, closeFn)
	})

	t.Run("http", func(t *testing.T) {
		extractor, _, err := NewExtractor(ctx, config.ExtractionConfig{
			Provider: config.ProviderHTTP,
			BaseURL:  "http://localhost:9000",
		})
		require.NoError(t, err)
		assert.IsType(t, &docai.Client{}, extractor)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := NewExtractor(ctx, config.ExtractionConfig{Provider: "ocr"})
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	application, err := New(ctx, testConfig())
	require.NoError(t, err)
	defer application.Close()

	result, err := application.Quotes.Generate(ctx, &domain.QuoteRequest{Category: "Restaurant"})
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, domain.FallbackNoDocument, result.FallbackReason)
	assert.True(t, result.SavingsPercent.Equal(decimal.NewFromInt(30)), "SavingsPercent = %s, want 30", result.SavingsPercent)

	families, err := application.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["quotes_generated_total"])
	assert.True(t, names["go_goroutines"])

	session, err := application.Sessions.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, session.State)
}
