package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pzmarket/quote-backend/internal/domain"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-2.5-flash"

// generator is the subset of *genai.GenerativeModel the extractor needs
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Extractor reads invoice line items with a Gemini multimodal model
type Extractor struct {
	client *genai.Client
	model  generator
}

// NewExtractor creates a Gemini-backed extractor configured for deterministic JSON output
func NewExtractor(ctx context.Context, apiKey, modelName string) (*Extractor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(8192)
	model.ResponseMIMEType = "application/json"

	return &Extractor{
		client: client,
		model:  model,
	}, nil
}

// Close releases the underlying client
func (e *Extractor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Extract sends the document inline with the extraction prompt and parses the JSON reply
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) ([]domain.ExtractedItem, error) {
	resp, err := e.model.GenerateContent(ctx,
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
		genai.Text(extractionPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate content: %v", domain.ErrExtractionFailed, err)
	}

	text, ok := responseText(resp)
	if !ok {
		return nil, fmt.Errorf("%w: no content generated", domain.ErrExtractionFailed)
	}

	items, err := parseItems(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	log.Printf("[GEMINI] Extracted %d line items from %s document", len(items), doc.MIMEType)
	return items, nil
}

// responseText concatenates the text parts of the first candidate that has content
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), true
		}
	}
	return "", false
}

const extractionPrompt = `You are reading a wholesale produce invoice or supplier price list.

Return ONLY a JSON array, no prose and no markdown. Each element describes one priced line:
  {"name": string, "quantity": number, "marketRate": number, "platformRate": number}

- name: the product as written on the document, without pack sizes
- quantity: the ordered quantity, 1 when not shown
- marketRate: the unit price on the document, numbers only, no currency symbols
- platformRate: your estimate of a competitive wholesale unit price, 15 to 25 percent below marketRate

Skip delivery fees, taxes, discounts, and subtotal rows. If no priced lines are visible return [].`
