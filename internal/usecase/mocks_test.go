package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string]interface{}
	getError error
	setError error
	sets     int
	deletes  int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.data, key)
	return nil
}

// MockExtractor is a mock implementation of domain.DocumentExtractor
type MockExtractor struct {
	mu    sync.Mutex
	items []domain.ExtractedItem
	err   error
	calls int
	// hook runs inside Extract before returning, used to interleave session events
	hook func()
}

func (m *MockExtractor) Extract(ctx context.Context, doc domain.Document) ([]domain.ExtractedItem, error) {
	m.mu.Lock()
	m.calls++
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.ExtractedItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSegmentStore is a mock implementation of domain.SegmentConfigStore
type MockSegmentStore struct {
	mu       sync.Mutex
	configs  map[domain.Category]domain.SegmentConfig
	getError error
}

func NewMockSegmentStore(configs map[domain.Category]domain.SegmentConfig) *MockSegmentStore {
	if configs == nil {
		configs = map[domain.Category]domain.SegmentConfig{
			domain.CategoryRestaurant: {TargetSavingsPercent: 30, ProcurementTargetPercent: 40},
			domain.CategoryCafe:       {TargetSavingsPercent: 10, ProcurementTargetPercent: 20},
		}
	}
	return &MockSegmentStore{configs: configs}
}

func (m *MockSegmentStore) GetAll(ctx context.Context) (map[domain.Category]domain.SegmentConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	out := make(map[domain.Category]domain.SegmentConfig, len(m.configs))
	for k, v := range m.configs {
		out[k] = v
	}
	return out, nil
}

func (m *MockSegmentStore) Update(ctx context.Context, category domain.Category, config domain.SegmentConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[category] = config
	return nil
}

// MockCatalog is a mock implementation of domain.CatalogRepository
type MockCatalog struct {
	products []domain.Product
	err      error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products: []domain.Product{
			{ID: "tomato", Name: "Tomatoes", DefaultUnitPrice: dec("5.00"), ImageURL: "/img/tomato.jpg"},
			{ID: "lettuce", Name: "Iceberg Lettuce", DefaultUnitPrice: dec("2.50")},
			{ID: "onion", Name: "Brown Onions", DefaultUnitPrice: dec("1.80")},
		},
	}
}

func (m *MockCatalog) List(ctx context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *MockCatalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

// MockMetrics records pipeline observations
type MockMetrics struct {
	mu          sync.Mutex
	generated   []domain.FallbackReason
	extractions int
	stale       int
}

func (m *MockMetrics) ObserveExtraction(time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractions++
}

func (m *MockMetrics) QuoteGenerated(category domain.Category, reason domain.FallbackReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated = append(m.generated, reason)
}

func (m *MockMetrics) StaleResultDiscarded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale++
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(name, quantity, market, platform string) domain.ExtractedItem {
	return domain.ExtractedItem{
		Name:         name,
		Quantity:     dec(quantity),
		MarketRate:   dec(market),
		PlatformRate: dec(platform),
	}
}

var fixedTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedTime
}

var pdfDocument = &domain.Document{Data: []byte("%PDF-1.7 invoice"), MIMEType: "application/pdf"}

func newTestQuoteService(extractor domain.DocumentExtractor, store domain.SegmentConfigStore, cache domain.CacheRepository, metrics domain.QuoteMetrics) *QuoteService {
	savings := NewSavingsModel(store, domain.CategoryRestaurant)
	return NewQuoteService(extractor, NewMockCatalog(), savings, cache, metrics, QuoteServiceConfig{
		Clock: fixedClock,
	})
}
