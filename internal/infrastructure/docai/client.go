package docai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	maxResponseBytes = 2 << 20
	maxErrorBodySize = 512
)

// Options tunes the client's timeout and rate limit
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client calls a document-understanding endpoint that turns invoices into priced line items
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
}

// extractRequest is the wire request: the document as base64 plus its media type
type extractRequest struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// wireItem accepts numbers either bare or quoted
type wireItem struct {
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	MarketRate   decimal.Decimal `json:"marketRate"`
	PlatformRate decimal.Decimal `json:"platformRate"`
}

// NewClient creates a new extraction client
func NewClient(apiKey, baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		backoff:     exponentialBackoff,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[DOCAI] "+format, args...)
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// Extract sends the document and returns the detected line items.
// 5xx and 429 responses are retried; other failures wrap domain.ErrExtractionFailed.
func (c *Client) Extract(ctx context.Context, doc domain.Document) ([]domain.ExtractedItem, error) {
	payload, err := json.Marshal(extractRequest{
		Data:     base64.StdEncoding.EncodeToString(doc.Data),
		MIMEType: doc.MIMEType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", domain.ErrExtractionFailed, err)
	}

	endpoint := c.baseURL + "/v1/extract"
	c.debugLog("Extract called: %d bytes of %s", len(doc.Data), doc.MIMEType)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrExtractionFailed, err)
		}

		items, retry, err := c.doExtract(ctx, endpoint, payload)
		if err == nil {
			c.debugLog("Extracted %d items", len(items))
			return items, nil
		}

		lastErr = err
		log.Printf("[DOCAI] Attempt %d failed: %v", attempt, err)
		if !retry || attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, ctx.Err())
		case <-time.After(c.backoff(attempt)):
		}
	}

	return nil, lastErr
}

// doExtract performs a single attempt and reports whether a failure is retryable
func (c *Client) doExtract(ctx context.Context, endpoint string, payload []byte) ([]domain.ExtractedItem, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to create request: %v", domain.ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pz-quote-backend/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		retry := ctx.Err() == nil
		return nil, retry, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("%w: status %d, body: %s", domain.ErrExtractionFailed, resp.StatusCode, string(body))
	}

	body, err := readLimitedBody(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, true, fmt.Errorf("%w: failed to read response: %v", domain.ErrExtractionFailed, err)
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrExtractionFailed, err)
	}
	return items, false, nil
}

// decodeItems accepts either a bare array or an {"items": [...]} envelope
func decodeItems(body []byte) ([]domain.ExtractedItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	var wire []wireItem
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Items []wireItem `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		wire = envelope.Items
	}

	items := make([]domain.ExtractedItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, domain.ExtractedItem{
			Name:         w.Name,
			Quantity:     w.Quantity,
			MarketRate:   w.MarketRate,
			PlatformRate: w.PlatformRate,
		})
	}
	return items, nil
}
