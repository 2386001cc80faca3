package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DocumentExtractor is the external document-understanding collaborator.
// An empty slice is a valid outcome; failures wrap ErrExtractionFailed.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc Document) ([]ExtractedItem, error)
}

// SegmentConfigStore reads and writes per-category savings configuration
type SegmentConfigStore interface {
	GetAll(ctx context.Context) (map[Category]SegmentConfig, error)
	Update(ctx context.Context, category Category, config SegmentConfig) error
}

// CatalogRepository exposes the static product catalog in stable order
type CatalogRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
}

// QuoteMetrics records pipeline observations
type QuoteMetrics interface {
	ObserveExtraction(duration time.Duration, err error)
	QuoteGenerated(category Category, reason FallbackReason)
	StaleResultDiscarded()
}
