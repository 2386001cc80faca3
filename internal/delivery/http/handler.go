package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/pzmarket/quote-backend/internal/usecase"
)

const (
	// multipartOverhead is the allowance for form boundaries and fields on top of the document
	multipartOverhead = 1 << 20
	// jsonOverhead covers the mimeType and category fields around the base64 data
	jsonOverhead = 4 << 10
)

// Services are the usecases the handlers call
type Services struct {
	Quotes   *usecase.QuoteService
	Sessions *usecase.SessionService
	Segments *usecase.SegmentService
	Savings  *usecase.SavingsModel
	Catalog  domain.CatalogRepository
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services       Services
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = usecase.DefaultMaxDocumentBytes
	}
	return &Handler{
		services:       services,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quote-backend",
		"version": "1.0.0",
	})
}

// ListCatalog returns the inventory table
func (h *Handler) ListCatalog(c *gin.Context) {
	products, err := h.services.Catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one catalog entry by id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.services.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListSegments returns every category with its target savings percent
func (h *Handler) ListSegments(c *gin.Context) {
	summaries, err := h.services.Segments.PublicSegments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": summaries})
}

// EstimateSavings handles the spend-based pricing calculator
func (h *Handler) EstimateSavings(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	spend, err := parseWeeklySpend(req.WeeklySpend, true)
	if err != nil {
		respondError(c, err)
		return
	}

	estimate, err := h.services.Savings.EstimateSavings(c.Request.Context(), spend, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

// CreateQuote runs the pipeline once and returns the public comparison
func (h *Handler) CreateQuote(c *gin.Context) {
	result, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toPublicResult(result))
}

// StaffCreateQuote runs the pipeline and includes procurement targets
func (h *Handler) StaffCreateQuote(c *gin.Context) {
	result, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) generate(c *gin.Context) (*domain.ComparisonResult, bool) {
	doc, category, err := h.readQuoteInput(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	result, err := h.services.Quotes.Generate(c.Request.Context(), &domain.QuoteRequest{
		Document: doc,
		Category: category,
	})
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return result, true
}

// CreateSession starts a new onboarding session
func (h *Handler) CreateSession(c *gin.Context) {
	session, err := h.services.Sessions.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

// GetSession returns the current session snapshot
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.services.Sessions.Get(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err)
}

// SubmitLead attaches the visitor's business details to the session
func (h *Handler) SubmitLead(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	lead, err := req.toLead()
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.services.Sessions.SubmitLead(c.Request.Context(), c.Param("id"), lead)
	h.respondSession(c, session, err)
}

// AnalyzeSession runs the pipeline for the session under a fresh request token
func (h *Handler) AnalyzeSession(c *gin.Context) {
	doc, category, err := h.readQuoteInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.services.Sessions.Analyze(c.Request.Context(), c.Param("id"), doc, category)
	h.respondSession(c, session, err)
}

// BeginOnboarding moves the session from results to onboarding
func (h *Handler) BeginOnboarding(c *gin.Context) {
	session, err := h.services.Sessions.BeginOnboarding(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err)
}

// CompleteSession finishes onboarding
func (h *Handler) CompleteSession(c *gin.Context) {
	session, err := h.services.Sessions.Complete(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err)
}

// ResetSession returns the session to idle
func (h *Handler) ResetSession(c *gin.Context) {
	session, err := h.services.Sessions.Reset(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err)
}

func (h *Handler) respondSession(c *gin.Context, session *domain.Session, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

// StaffListSegments returns the full segment configuration
func (h *Handler) StaffListSegments(c *gin.Context) {
	configs, err := h.services.Segments.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]staffSegment, 0, len(configs))
	for _, category := range domain.Categories() {
		cfg, ok := configs[category]
		if !ok {
			continue
		}
		rows = append(rows, staffSegment{
			Category:                 category,
			Slug:                     category.Slug(),
			TargetSavingsPercent:     cfg.TargetSavingsPercent,
			ProcurementTargetPercent: cfg.ProcurementTargetPercent,
		})
	}
	c.JSON(http.StatusOK, gin.H{"segments": rows})
}

// StaffUpdateSegment replaces the configuration of one category, addressed by name or slug
func (h *Handler) StaffUpdateSegment(c *gin.Context) {
	var req segmentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	config := domain.SegmentConfig{
		TargetSavingsPercent:     *req.TargetSavingsPercent,
		ProcurementTargetPercent: *req.ProcurementTargetPercent,
	}
	if err := h.services.Segments.Update(c.Request.Context(), c.Param("category"), config); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[SEGMENTS] %s updated to target=%.2f%% procurement=%.2f%% (request %s)",
		c.Param("category"), config.TargetSavingsPercent, config.ProcurementTargetPercent, c.GetString(RequestIDKey))
	c.JSON(http.StatusOK, config)
}

// readQuoteInput accepts a multipart upload in field "document" or a JSON body with base64 data.
// A request without a document is valid and yields a nil document.
func (h *Handler) readQuoteInput(c *gin.Context) (*domain.Document, string, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.readMultipart(c)
	}

	category := c.Query("category")
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, category, nil
	}

	limit := int64(base64.StdEncoding.EncodedLen(int(h.maxUploadBytes))) + jsonOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var payload quotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, category, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", domain.NewValidationError("document", fmt.Sprintf("exceeds %d bytes", h.maxUploadBytes))
		}
		return nil, "", domain.NewValidationError("body", "malformed JSON")
	}
	if payload.Category != "" {
		category = payload.Category
	}
	if payload.Data == "" {
		return nil, category, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return nil, "", domain.NewValidationError("data", "must be base64 encoded")
	}
	return &domain.Document{Data: data, MIMEType: payload.MIMEType}, category, nil
}

func (h *Handler) readMultipart(c *gin.Context) (*domain.Document, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	category := c.PostForm("category")
	if category == "" {
		category = c.Query("category")
	}

	header, err := c.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, category, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", domain.NewValidationError("document", fmt.Sprintf("exceeds %d bytes", h.maxUploadBytes))
		}
		return nil, "", domain.NewValidationError("document", "could not read upload")
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	// one extra byte lets the pipeline see an oversize document
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	return &domain.Document{Data: data, MIMEType: header.Header.Get("Content-Type")}, category, nil
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	if ve, ok := domain.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrStaleResponse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		log.Printf("[HTTP] %s %s failed (request %s): %v",
			c.Request.Method, c.FullPath(), c.GetString(RequestIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondBindError reports a type mismatch against the offending field and anything else against the body
func respondBindError(c *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondError(c, domain.NewValidationError(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type)))
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error": fmt.Sprintf("invalid request body: %v", err),
		"field": "body",
	})
}
