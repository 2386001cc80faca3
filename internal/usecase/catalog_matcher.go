package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/pzmarket/quote-backend/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex pattern for performance
var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// MatchConfig holds configuration for the catalog matcher
type MatchConfig struct {
	EnableDebugLogging bool
}

// CatalogMatcher matches extracted invoice names to catalog products.
//
// A product matches when either normalized name contains the other. The first
// catalog entry that matches wins, so catalog order is the only tie-break.
// Short catalog names can produce false positives ("Pea" inside "Peach").
type CatalogMatcher struct {
	enableDebugLogging bool
}

// NewCatalogMatcher creates a new catalog matcher
func NewCatalogMatcher(config MatchConfig) *CatalogMatcher {
	return &CatalogMatcher{
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match returns the first catalog product whose name contains, or is contained in, name.
func (m *CatalogMatcher) Match(ctx context.Context, name string, catalog []domain.Product) (*domain.Product, bool) {
	needle := normalizeName(name)
	if needle == "" {
		return nil, false
	}

	for i := range catalog {
		select {
		case <-ctx.Done():
			return nil, false
		default:
		}

		candidate := normalizeName(catalog[i].Name)
		if candidate == "" {
			continue
		}

		if strings.Contains(needle, candidate) || strings.Contains(candidate, needle) {
			if m.enableDebugLogging {
				log.Printf("[MATCH] %q -> %q (%s)", name, catalog[i].Name, catalog[i].ID)
			}
			product := catalog[i]
			return &product, true
		}
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] %q -> no catalog match", name)
	}
	return nil, false
}

// normalizeName folds Unicode compatibility forms, lowercases, and collapses whitespace
func normalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
