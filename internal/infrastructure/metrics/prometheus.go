package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pzmarket/quote-backend/internal/domain"
)

// PrometheusMetrics records quote pipeline metrics
type PrometheusMetrics struct {
	quotesGenerated    *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	staleDiscarded     prometheus.Counter
}

// NewPrometheusMetrics creates the collectors and registers them on reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		quotesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotes_generated_total",
				Help: "Total number of comparison results generated",
			},
			[]string{"category", "fallback"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_fallbacks_total",
				Help: "Total number of quotes that used the demo dataset, by reason",
			},
			[]string{"reason"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_extraction_duration_seconds",
				Help:    "Document extraction call duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"status"},
		),
		staleDiscarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quote_stale_results_discarded_total",
				Help: "Pipeline results discarded because a newer request superseded them",
			},
		),
	}

	reg.MustRegister(m.quotesGenerated, m.fallbacks, m.extractionDuration, m.staleDiscarded)
	return m
}

// ObserveExtraction records one extraction call
func (m *PrometheusMetrics) ObserveExtraction(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.extractionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// QuoteGenerated counts a generated result
func (m *PrometheusMetrics) QuoteGenerated(category domain.Category, reason domain.FallbackReason) {
	fallback := "false"
	if reason != domain.FallbackNone {
		fallback = "true"
		m.fallbacks.WithLabelValues(string(reason)).Inc()
	}
	m.quotesGenerated.WithLabelValues(string(category), fallback).Inc()
}

// StaleResultDiscarded counts a dropped stale result
func (m *PrometheusMetrics) StaleResultDiscarded() {
	m.staleDiscarded.Inc()
}
