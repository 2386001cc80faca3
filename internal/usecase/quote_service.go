package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultMaxDocumentBytes caps uploaded documents at 10 MiB
const DefaultMaxDocumentBytes = 10 << 20

// supportedMIMETypes are the document types the extraction collaborator accepts
var supportedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
}

// QuoteServiceConfig holds configuration for the quote service
type QuoteServiceConfig struct {
	CacheTTL           time.Duration
	MaxDocumentBytes   int64
	EnableDebugLogging bool
	Clock              func() time.Time
}

// QuoteService turns an uploaded document into a market vs platform price comparison.
// Flow: validate -> check cache -> extract -> sanitize -> match -> reprice -> aggregate
type QuoteService struct {
	extractor        domain.DocumentExtractor
	catalog          domain.CatalogRepository
	savings          *SavingsModel
	cache            domain.CacheRepository
	matcher          *CatalogMatcher
	metrics          domain.QuoteMetrics
	cacheTTL         time.Duration
	maxDocumentBytes int64
	now              func() time.Time
}

// NewQuoteService creates a new quote service with dependencies. cache and metrics may be nil.
func NewQuoteService(
	extractor domain.DocumentExtractor,
	catalog domain.CatalogRepository,
	savings *SavingsModel,
	cache domain.CacheRepository,
	metrics domain.QuoteMetrics,
	config QuoteServiceConfig,
) *QuoteService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	maxBytes := config.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &QuoteService{
		extractor:        extractor,
		catalog:          catalog,
		savings:          savings,
		cache:            cache,
		matcher:          NewCatalogMatcher(MatchConfig{EnableDebugLogging: config.EnableDebugLogging}),
		metrics:          metrics,
		cacheTTL:         cacheTTL,
		maxDocumentBytes: maxBytes,
		now:              clock,
	}
}

// Generate produces a ComparisonResult for the request. It never returns an empty result:
// a missing document, a failed extraction, or zero usable lines all fall back to the demo dataset.
func (s *QuoteService) Generate(ctx context.Context, request *domain.QuoteRequest) (*domain.ComparisonResult, error) {
	if request == nil {
		request = &domain.QuoteRequest{}
	}

	category, cfg, err := s.savings.Resolve(ctx, request.Category)
	if err != nil {
		return nil, err
	}
	if err := checkPercent("targetSavingsPercent", cfg.TargetSavingsPercent); err != nil {
		return nil, err
	}
	if err := checkPercent("procurementTargetPercent", cfg.ProcurementTargetPercent); err != nil {
		return nil, err
	}

	extracted, reason, err := s.extractItems(ctx, request.Document)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	items := make([]domain.LineItem, 0, len(extracted))
	for _, item := range extracted {
		line, err := s.priceLine(ctx, item, catalog, cfg)
		if err != nil {
			return nil, err
		}
		items = append(items, line)
	}

	result := &domain.ComparisonResult{
		Category:       category,
		Items:          items,
		FallbackUsed:   reason != domain.FallbackNone,
		FallbackReason: reason,
		GeneratedAt:    s.now(),
	}
	Summarize(result)

	s.metrics.QuoteGenerated(category, reason)
	log.Printf("[QUOTE] Generated %d lines for %s (fallback: %t) market=%s platform=%s",
		len(items), category, result.FallbackUsed, result.TotalMarket.StringFixed(2), result.TotalPlatform.StringFixed(2))

	return result, nil
}

// Summarize fills the aggregate fields of result from its line items.
// SavingsPercent is zero when TotalMarket is zero.
func Summarize(result *domain.ComparisonResult) {
	totalMarket := decimal.Zero
	totalPlatform := decimal.Zero
	for _, item := range result.Items {
		totalMarket = totalMarket.Add(item.MarketRate)
		totalPlatform = totalPlatform.Add(item.PlatformRate)
	}

	savings := totalMarket.Sub(totalPlatform)
	percent := decimal.Zero
	if !totalMarket.IsZero() {
		percent = savings.Div(totalMarket).Mul(hundred)
	}

	result.TotalMarket = totalMarket
	result.TotalPlatform = totalPlatform
	result.SavingsValue = savings
	result.SavingsPercent = percent
}

// priceLine matches an item to the catalog and reprices it for the active segment
func (s *QuoteService) priceLine(
	ctx context.Context,
	item domain.ExtractedItem,
	catalog []domain.Product,
	cfg domain.SegmentConfig,
) (domain.LineItem, error) {
	product, ok := s.matcher.Match(ctx, item.Name, catalog)
	if !ok {
		product = &domain.Product{
			Name:             item.Name,
			DefaultUnitPrice: item.PlatformRate,
			Transient:        true,
		}
	}

	platformRate, err := DerivePrice(item.MarketRate, cfg.TargetSavingsPercent)
	if err != nil {
		return domain.LineItem{}, err
	}
	procurementRate, err := DerivePrice(item.MarketRate, cfg.ProcurementTargetPercent)
	if err != nil {
		return domain.LineItem{}, err
	}

	return domain.LineItem{
		Name:                  item.Name,
		Quantity:              item.Quantity,
		MarketRate:            item.MarketRate,
		PlatformRate:          platformRate,
		ProcurementTargetRate: procurementRate,
		CatalogPrice:          product.DefaultUnitPrice,
		ProductID:             product.ID,
		ImageURL:              product.ImageURL,
		Matched:               !product.Transient,
	}, nil
}

// extractItems returns the lines to price and, when the demo dataset is used, why.
func (s *QuoteService) extractItems(ctx context.Context, doc *domain.Document) ([]domain.ExtractedItem, domain.FallbackReason, error) {
	if doc.Empty() {
		return DemoItems(), domain.FallbackNoDocument, nil
	}

	normalized, err := s.validateDocument(doc)
	if err != nil {
		return nil, domain.FallbackNone, err
	}

	cacheKey := documentCacheKey(normalized)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		log.Printf("[QUOTE] Extraction cache hit (%d lines)", len(cached))
		return cached, domain.FallbackNone, nil
	}

	start := time.Now()
	items, err := s.extractor.Extract(ctx, normalized)
	s.metrics.ObserveExtraction(time.Since(start), err)
	if err != nil {
		log.Printf("[QUOTE] Extraction failed, using demo dataset: %v", err)
		return DemoItems(), domain.FallbackExtractionFailed, nil
	}

	usable := sanitizeItems(items)
	if len(usable) == 0 {
		log.Printf("[QUOTE] Extraction returned no usable lines (%d raw), using demo dataset", len(items))
		return DemoItems(), domain.FallbackNoItems, nil
	}

	s.setInCache(ctx, cacheKey, usable)
	return usable, domain.FallbackNone, nil
}

// validateDocument checks size and media type, sniffing the type when none was declared
func (s *QuoteService) validateDocument(doc *domain.Document) (domain.Document, error) {
	if int64(len(doc.Data)) > s.maxDocumentBytes {
		return domain.Document{}, domain.NewValidationError("document",
			fmt.Sprintf("exceeds %d bytes", s.maxDocumentBytes))
	}

	mimeType := strings.TrimSpace(doc.MIMEType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(doc.Data)
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	mimeType = strings.ToLower(mimeType)

	if !supportedMIMETypes[mimeType] {
		return domain.Document{}, domain.NewValidationError("mimeType",
			fmt.Sprintf("unsupported document type %q", mimeType))
	}

	return domain.Document{Data: doc.Data, MIMEType: mimeType}, nil
}

// sanitizeItems drops lines that cannot be priced and trims names. Order is preserved
// and duplicates are kept as separate lines.
func sanitizeItems(items []domain.ExtractedItem) []domain.ExtractedItem {
	usable := make([]domain.ExtractedItem, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		switch {
		case item.Name == "":
			log.Printf("[QUOTE] Dropping line with blank name")
			continue
		case item.MarketRate.IsNegative():
			log.Printf("[QUOTE] Dropping %q: negative market rate %s", item.Name, item.MarketRate)
			continue
		case item.Quantity.IsNegative():
			log.Printf("[QUOTE] Dropping %q: negative quantity %s", item.Name, item.Quantity)
			continue
		}
		if item.PlatformRate.IsNegative() {
			item.PlatformRate = decimal.Zero
		}
		usable = append(usable, item)
	}
	return usable
}

// documentCacheKey creates a content-addressed cache key.
// Format: "extraction:{sha256(mimeType || data)}"
func documentCacheKey(doc domain.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.MIMEType))
	h.Write([]byte{0})
	h.Write(doc.Data)
	return "extraction:" + hex.EncodeToString(h.Sum(nil))
}

// getFromCache retrieves previously extracted lines
func (s *QuoteService) getFromCache(ctx context.Context, key string) ([]domain.ExtractedItem, bool) {
	if s.cache == nil {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	items, ok := value.([]domain.ExtractedItem)
	if !ok || len(items) == 0 {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[QUOTE] Failed to evict unreadable cache entry: %v", err)
		}
		return nil, false
	}

	out := make([]domain.ExtractedItem, len(items))
	copy(out, items)
	return out, true
}

// setInCache stores extracted lines; failures are logged and otherwise ignored
func (s *QuoteService) setInCache(ctx context.Context, key string, items []domain.ExtractedItem) {
	if s.cache == nil {
		return
	}

	stored := make([]domain.ExtractedItem, len(items))
	copy(stored, items)
	if err := s.cache.Set(ctx, key, stored, s.cacheTTL); err != nil {
		log.Printf("[QUOTE] Failed to cache extraction: %v", err)
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveExtraction(time.Duration, error) {}
func (noopMetrics) QuoteGenerated(domain.Category, domain.FallbackReason) {}
func (noopMetrics) StaleResultDiscarded() {}
