package segments

import (
	"context"
	"fmt"
	"sync"

	"github.com/pzmarket/quote-backend/internal/domain"
)

// MemoryStore is an in-process SegmentConfigStore seeded at startup.
// Updates live until the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[domain.Category]domain.SegmentConfig
}

// NewMemoryStore creates a store holding a copy of seed
func NewMemoryStore(seed map[domain.Category]domain.SegmentConfig) *MemoryStore {
	configs := make(map[domain.Category]domain.SegmentConfig, len(seed))
	for category, cfg := range seed {
		configs[category] = cfg
	}
	return &MemoryStore{configs: configs}
}

// GetAll returns a copy of every configured segment
func (s *MemoryStore) GetAll(ctx context.Context) (map[domain.Category]domain.SegmentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Category]domain.SegmentConfig, len(s.configs))
	for category, cfg := range s.configs {
		out[category] = cfg
	}
	return out, nil
}

// Update replaces the configuration for category
func (s *MemoryStore) Update(ctx context.Context, category domain.Category, config domain.SegmentConfig) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[category] = config
	return nil
}
