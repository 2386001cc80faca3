package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLead() domain.Lead {
	return domain.Lead{
		BusinessName: "Corner Bistro",
		ContactName:  "Sam Lee",
		Email:        "sam@cornerbistro.example",
		Category:     "Cafe",
		WeeklySpend:  dec("1200"),
	}
}

func newTestSessionService(extractor *MockExtractor, metrics *MockMetrics) (*SessionService, *MockCacheRepository) {
	cache := NewMockCacheRepository()
	var m domain.QuoteMetrics
	if metrics != nil {
		m = metrics
	}
	quotes := newTestQuoteService(extractor, NewMockSegmentStore(nil), nil, m)
	return NewSessionService(cache, quotes, m, SessionServiceConfig{Clock: fixedClock}), cache
}

func TestNewSessionService(t *testing.T) {
	svc := NewSessionService(NewMockCacheRepository(), nil, nil, SessionServiceConfig{})
	assert.Equal(t, 2*time.Hour, svc.ttl)
	assert.NotNil(t, svc.metrics)
}

func TestSessionService_HappyPath(t *testing.T) {
	ctx := context.Background()
	extractor := &MockExtractor{items: []domain.ExtractedItem{item("Tomatoes", "1", "10.00", "0")}}
	svc, _ := newTestSessionService(extractor, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, session.State)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, fixedTime, session.CreatedAt)

	session, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitting, session.State)
	require.NotNil(t, session.Lead)
	assert.Equal(t, "Corner Bistro", session.Lead.BusinessName)

	session, err = svc.Analyze(ctx, session.ID, pdfDocument, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateResults, session.State)
	require.NotNil(t, session.Result)
	assert.Equal(t, domain.CategoryCafe, session.Result.Category, "empty category should use the lead's")

	session, err = svc.Analyze(ctx, session.ID, pdfDocument, "Restaurant")
	require.NoError(t, err, "re-analysis from results is allowed")
	assert.Equal(t, domain.CategoryRestaurant, session.Result.Category)

	session, err = svc.BeginOnboarding(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOnboarding, session.State)

	session, err = svc.Complete(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, session.State)

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, got.State)
}

func TestSessionService_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Analyze(ctx, session.ID, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.BeginOnboarding(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Complete(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)
	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitting, got.State, "failed events must not change state")
}

func TestSessionService_SubmitLeadValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)
	session, err := svc.Create(ctx)
	require.NoError(t, err)

	tests := []struct {
		name      string
		mutate    func(*domain.Lead)
		wantField string
	}{
		{"missing business name", func(l *domain.Lead) { l.BusinessName = "" }, "businessName"},
		{"bad email", func(l *domain.Lead) { l.Email = "not-an-email" }, "email"},
		{"missing category", func(l *domain.Lead) { l.Category = "" }, "category"},
		{"negative spend", func(l *domain.Lead) { l.WeeklySpend = dec("-5") }, "weeklySpend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := validLead()
			tt.mutate(&lead)

			_, err := svc.SubmitLead(ctx, session.ID, lead)
			ve, ok := domain.IsValidationError(err)
			require.True(t, ok, "error = %v, want ValidationError", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, got.State)
}

func TestSessionService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Reset(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Analyze(ctx, "missing", nil, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_CacheFailure(t *testing.T) {
	ctx := context.Background()
	svc, cache := newTestSessionService(&MockExtractor{}, nil)
	cache.setError = errors.New("cache full")

	_, err := svc.Create(ctx)
	assert.ErrorIs(t, err, cache.setError)
}

func TestSessionService_ResetDiscardsInFlightResult(t *testing.T) {
	ctx := context.Background()
	metrics := &MockMetrics{}
	extractor := &MockExtractor{items: []domain.ExtractedItem{item("Tomatoes", "1", "10.00", "0")}}
	svc, _ := newTestSessionService(extractor, metrics)

	session, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)

	var resetErr error
	extractor.hook = func() {
		_, resetErr = svc.Reset(ctx, session.ID)
	}

	_, err = svc.Analyze(ctx, session.ID, pdfDocument, "")
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	require.NoError(t, resetErr)
	assert.Equal(t, 1, metrics.stale)

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, got.State)
	assert.Nil(t, got.Result)
	assert.Nil(t, got.Lead)
}

func TestSessionService_ResubmitWhileAnalyzing(t *testing.T) {
	ctx := context.Background()
	extractor := &MockExtractor{items: []domain.ExtractedItem{item("Tomatoes", "1", "10.00", "0")}}
	svc, _ := newTestSessionService(extractor, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)

	var (
		inFlight    *domain.Session
		inFlightErr error
		resubmitErr error
	)
	extractor.hook = func() {
		inFlight, inFlightErr = svc.Get(ctx, session.ID)
		_, resubmitErr = svc.Analyze(ctx, session.ID, pdfDocument, "")
	}

	session, err = svc.Analyze(ctx, session.ID, pdfDocument, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateResults, session.State)

	require.NoError(t, inFlightErr)
	assert.Equal(t, domain.StateAnalyzing, inFlight.State)
	assert.ErrorIs(t, resubmitErr, domain.ErrInvalidTransition)
}

func TestSessionService_PipelineErrorRestoresState(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)

	_, err = svc.Analyze(ctx, session.ID, &domain.Document{Data: []byte("a,b"), MIMEType: "text/csv"}, "")
	_, ok := domain.IsValidationError(err)
	require.True(t, ok, "error = %v, want ValidationError", err)

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitting, got.State)

	got, err = svc.Analyze(ctx, session.ID, nil, "")
	require.NoError(t, err, "session should accept a new analysis after the failure")
	assert.True(t, got.Result.FallbackUsed)
}

func TestSessionService_ResetFromAnyState(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)

	session, err = svc.Reset(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, session.State)

	_, err = svc.SubmitLead(ctx, session.ID, validLead())
	require.NoError(t, err)
	_, err = svc.Analyze(ctx, session.ID, nil, "")
	require.NoError(t, err)

	session, err = svc.Reset(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, session.State)
	assert.Nil(t, session.Lead)
	assert.Nil(t, session.Result)
}

func TestSessionService_SnapshotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&MockExtractor{}, nil)

	session, err := svc.Create(ctx)
	require.NoError(t, err)
	session.State = domain.StateComplete

	got, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, got.State)
}
