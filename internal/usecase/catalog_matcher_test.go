package usecase

import (
	"context"
	"testing"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCatalogMatcher_Match(t *testing.T) {
	ctx := context.Background()
	matcher := NewCatalogMatcher(MatchConfig{})
	catalog := []domain.Product{
		{ID: "tomato", Name: "Tomatoes"},
		{ID: "roma", Name: "Roma Tomatoes"},
		{ID: "pea", Name: "Pea"},
		{ID: "peach", Name: "Peach"},
	}

	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{"exact", "Tomatoes", "tomato"},
		{"case insensitive", "TOMATOES", "tomato"},
		{"catalog name inside extracted name", "Tomatoes 5kg box", "tomato"},
		{"first entry wins over better match", "Roma Tomatoes", "tomato"},
		{"extracted name inside catalog name", "each", "peach"},
		{"short catalog name false positive", "Peach", "pea"},
		{"whitespace collapsed", "  Tomatoes\t ", "tomato"},
		{"compatibility forms folded", "ＴＯＭＡＴＯＥＳ", "tomato"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, ok := matcher.Match(ctx, tt.input, catalog)
			if assert.True(t, ok, "Match(%q) found nothing", tt.input) {
				assert.Equal(t, tt.wantID, product.ID)
			}
		})
	}
}

func TestCatalogMatcher_NoMatch(t *testing.T) {
	ctx := context.Background()
	matcher := NewCatalogMatcher(MatchConfig{EnableDebugLogging: true})
	catalog := []domain.Product{{ID: "tomato", Name: "Tomatoes"}}

	for _, input := range []string{"Dragonfruit", "", "   "} {
		product, ok := matcher.Match(ctx, input, catalog)
		assert.False(t, ok, "Match(%q) should not match", input)
		assert.Nil(t, product)
	}
}

func TestCatalogMatcher_ReturnsCopy(t *testing.T) {
	matcher := NewCatalogMatcher(MatchConfig{})
	catalog := []domain.Product{{ID: "tomato", Name: "Tomatoes"}}

	product, ok := matcher.Match(context.Background(), "tomatoes", catalog)
	assert.True(t, ok)
	product.Name = "changed"
	assert.Equal(t, "Tomatoes", catalog[0].Name)
}

func TestCatalogMatcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := NewCatalogMatcher(MatchConfig{}).Match(ctx, "Tomatoes", []domain.Product{{ID: "tomato", Name: "Tomatoes"}})
	assert.False(t, ok)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "baby spinach", normalizeName("  Baby\n  SPINACH "))
	assert.Equal(t, "", normalizeName("\t"))
}
