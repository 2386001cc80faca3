package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/spf13/viper"
)

// Extraction providers
const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
	ProviderNone   = "none"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Pricing    PricingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	StaffKey       string   `mapstructure:"staff_key"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// ExtractionConfig selects and configures the document extraction collaborator
type ExtractionConfig struct {
	Provider          string        `mapstructure:"provider"` // "gemini", "http" or "none"
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	GeminiModel       string        `mapstructure:"gemini_model"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Debug             bool          `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// PricingConfig holds the savings model configuration
type PricingConfig struct {
	DefaultCategory string                     `mapstructure:"default_category"`
	Segments        map[string]SegmentSettings `mapstructure:"segments"`
}

// SegmentSettings is the config-file form of a SegmentConfig, keyed by category slug
type SegmentSettings struct {
	TargetSavingsPercent     float64 `mapstructure:"target_savings_percent"`
	ProcurementTargetPercent float64 `mapstructure:"procurement_target_percent"`
}

// defaultSegments are the out-of-the-box percentages per category slug
var defaultSegments = map[string]SegmentSettings{
	"deli":          {TargetSavingsPercent: 20, ProcurementTargetPercent: 28},
	"cafe":          {TargetSavingsPercent: 18, ProcurementTargetPercent: 25},
	"restaurant":    {TargetSavingsPercent: 22, ProcurementTargetPercent: 30},
	"pub":           {TargetSavingsPercent: 15, ProcurementTargetPercent: 22},
	"sporting_club": {TargetSavingsPercent: 12, ProcurementTargetPercent: 20},
	"catering":      {TargetSavingsPercent: 20, ProcurementTargetPercent: 28},
	"grocery_store": {TargetSavingsPercent: 25, ProcurementTargetPercent: 32},
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pzquote/")

	// Environment variable settings
	v.SetEnvPrefix("PZQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.staff_key", "")
	v.SetDefault("server.max_upload_bytes", 10<<20)

	// Extraction defaults
	v.SetDefault("extraction.provider", ProviderGemini)
	v.SetDefault("extraction.gemini_api_key", "")
	v.SetDefault("extraction.gemini_model", "gemini-2.5-flash")
	v.SetDefault("extraction.base_url", "")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.timeout", "60s")
	v.SetDefault("extraction.requests_per_second", 2.0)
	v.SetDefault("extraction.burst", 5)
	v.SetDefault("extraction.debug", false)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.session_ttl", "2h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Pricing defaults
	v.SetDefault("pricing.default_category", string(domain.DefaultCategory))
	for slug, s := range defaultSegments {
		v.SetDefault("pricing.segments."+slug+".target_savings_percent", s.TargetSavingsPercent)
		v.SetDefault("pricing.segments."+slug+".procurement_target_percent", s.ProcurementTargetPercent)
	}
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Extraction.Provider {
	case ProviderGemini:
		if config.Extraction.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required (set PZQUOTE_EXTRACTION_GEMINI_API_KEY)")
		}
	case ProviderHTTP:
		if config.Extraction.BaseURL == "" {
			return fmt.Errorf("extraction base URL is required when provider is 'http'")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("extraction provider must be 'gemini', 'http' or 'none', got: %s", config.Extraction.Provider)
	}

	if _, ok := domain.ParseCategory(config.Pricing.DefaultCategory); !ok {
		return fmt.Errorf("unknown default category: %q", config.Pricing.DefaultCategory)
	}

	for slug, s := range config.Pricing.Segments {
		if _, ok := domain.CategoryFromSlug(slug); !ok {
			return fmt.Errorf("unknown segment %q", slug)
		}
		if s.TargetSavingsPercent < 0 || s.TargetSavingsPercent > 100 {
			return fmt.Errorf("segment %s: target_savings_percent must be within [0,100]", slug)
		}
		if s.ProcurementTargetPercent < 0 || s.ProcurementTargetPercent > 100 {
			return fmt.Errorf("segment %s: procurement_target_percent must be within [0,100]", slug)
		}
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// SegmentConfigs converts the configured segments to domain form
func (c *Config) SegmentConfigs() map[domain.Category]domain.SegmentConfig {
	out := make(map[domain.Category]domain.SegmentConfig, len(c.Pricing.Segments))
	for slug, s := range c.Pricing.Segments {
		category, ok := domain.CategoryFromSlug(slug)
		if !ok {
			continue
		}
		out[category] = domain.SegmentConfig{
			TargetSavingsPercent:     s.TargetSavingsPercent,
			ProcurementTargetPercent: s.ProcurementTargetPercent,
		}
	}
	return out
}
