// Package app builds the service object graph from configuration. It is shared by
// the HTTP server and the quotectl command.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/pzmarket/quote-backend/config"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/pzmarket/quote-backend/internal/infrastructure/cache"
	"github.com/pzmarket/quote-backend/internal/infrastructure/catalog"
	"github.com/pzmarket/quote-backend/internal/infrastructure/docai"
	"github.com/pzmarket/quote-backend/internal/infrastructure/extraction"
	"github.com/pzmarket/quote-backend/internal/infrastructure/gemini"
	"github.com/pzmarket/quote-backend/internal/infrastructure/metrics"
	"github.com/pzmarket/quote-backend/internal/infrastructure/segments"
	"github.com/pzmarket/quote-backend/internal/usecase"
)

// App holds the wired services
type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Catalog  domain.CatalogRepository
	Savings  *usecase.SavingsModel
	Quotes   *usecase.QuoteService
	Sessions *usecase.SessionService
	Segments *usecase.SegmentService

	closers []func() error
}

// New wires infrastructure and usecases. Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	extractor, closeExtractor, err := NewExtractor(ctx, cfg.Extraction)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	quoteMetrics := metrics.NewPrometheusMetrics(registry)

	memoryCache := cache.NewMemoryCache(0)
	store := segments.NewMemoryStore(cfg.SegmentConfigs())
	products := catalog.NewStaticCatalog(nil)

	defaultCategory, _ := domain.ParseCategory(cfg.Pricing.DefaultCategory)
	savings := usecase.NewSavingsModel(store, defaultCategory)

	quotes := usecase.NewQuoteService(
		extractor,
		products,
		savings,
		memoryCache,
		quoteMetrics,
		usecase.QuoteServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			MaxDocumentBytes:   cfg.Server.MaxUploadBytes,
			EnableDebugLogging: cfg.Extraction.Debug,
		},
	)

	sessions := usecase.NewSessionService(
		memoryCache,
		quotes,
		quoteMetrics,
		usecase.SessionServiceConfig{SessionTTL: cfg.Cache.SessionTTL},
	)

	closers := []func() error{
		func() error {
			memoryCache.Close()
			return nil
		},
	}
	if closeExtractor != nil {
		closers = append(closers, closeExtractor)
	}

	return &App{
		Config:   cfg,
		Registry: registry,
		Catalog:  products,
		Savings:  savings,
		Quotes:   quotes,
		Sessions: sessions,
		Segments: usecase.NewSegmentService(store, savings),
		closers:  closers,
	}, nil
}

// NewExtractor builds the configured document extraction collaborator.
// The returned close func is nil when there is nothing to release.
func NewExtractor(ctx context.Context, cfg config.ExtractionConfig) (domain.DocumentExtractor, func() error, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		extractor, err := gemini.NewExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[APP] Extraction provider: gemini (model %s)", modelOrDefault(cfg.GeminiModel))
		return extractor, extractor.Close, nil

	case config.ProviderHTTP:
		client := docai.NewClient(cfg.APIKey, cfg.BaseURL, docai.Options{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})
		client.SetDebug(cfg.Debug)
		log.Printf("[APP] Extraction provider: http (%s)", cfg.BaseURL)
		return client, nil, nil

	case config.ProviderNone:
		log.Printf("[APP] Extraction disabled, every quote uses the demo dataset")
		return extraction.Disabled{}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

func modelOrDefault(model string) string {
	if model == "" {
		return gemini.DefaultModel
	}
	return model
}

// Close releases background resources in reverse order of creation
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
