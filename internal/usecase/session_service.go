package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pzmarket/quote-backend/internal/domain"
	"github.com/pzmarket/quote-backend/internal/validation"
)

// SessionServiceConfig holds configuration for the session service
type SessionServiceConfig struct {
	SessionTTL time.Duration
	Clock      func() time.Time
}

// SessionService drives the onboarding funnel for each visitor.
//
// Every analysis is tagged with a request token. A pipeline result is applied only
// if its token is still the latest issued for the session and the session is still
// analyzing; anything else is discarded as stale.
type SessionService struct {
	cache     domain.CacheRepository
	quotes    *QuoteService
	validator *validation.Validator
	metrics   domain.QuoteMetrics
	ttl       time.Duration
	now       func() time.Time

	mu sync.Mutex
}

// NewSessionService creates a new session service. metrics may be nil.
func NewSessionService(
	cache domain.CacheRepository,
	quotes *QuoteService,
	metrics domain.QuoteMetrics,
	config SessionServiceConfig,
) *SessionService {
	ttl := config.SessionTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &SessionService{
		cache:     cache,
		quotes:    quotes,
		validator: validation.Default(),
		metrics:   metrics,
		ttl:       ttl,
		now:       clock,
	}
}

// Create starts a new idle session
func (s *SessionService) Create(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		State:     domain.StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

// Get returns a snapshot of the session
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

// SubmitLead validates and attaches the lead, moving Idle -> Submitting
func (s *SessionService) SubmitLead(ctx context.Context, id string, lead domain.Lead) (*domain.Session, error) {
	if err := s.validator.Struct(lead); err != nil {
		return nil, err
	}
	if lead.WeeklySpend.IsNegative() {
		return nil, domain.NewValidationError("weeklySpend", "must not be negative")
	}

	return s.apply(ctx, id, domain.EventSubmitLead, func(session *domain.Session) {
		session.Lead = &lead
	})
}

// Analyze runs the quote pipeline under a fresh request token. If the session was
// reset or re-analyzed while the pipeline ran, the result is dropped and ErrStaleResponse returned.
func (s *SessionService) Analyze(ctx context.Context, id string, doc *domain.Document, category string) (*domain.Session, error) {
	token, previous, leadCategory, err := s.startAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	if category == "" {
		category = leadCategory
	}

	result, err := s.quotes.Generate(ctx, &domain.QuoteRequest{Document: doc, Category: category})
	if err != nil {
		s.abortAnalysis(ctx, id, token, previous)
		return nil, err
	}

	return s.resolveAnalysis(ctx, id, token, result)
}

// BeginOnboarding moves Results -> Onboarding
func (s *SessionService) BeginOnboarding(ctx context.Context, id string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.EventBeginOnboarding, nil)
}

// Complete moves Onboarding -> Complete
func (s *SessionService) Complete(ctx context.Context, id string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.EventComplete, nil)
}

// Reset returns the session to Idle, clears its data, and invalidates any in-flight analysis
func (s *SessionService) Reset(ctx context.Context, id string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.EventReset, func(session *domain.Session) {
		session.Lead = nil
		session.Result = nil
		session.Token++
	})
}

// startAnalysis issues the next request token and moves the session to Analyzing
func (s *SessionService) startAnalysis(ctx context.Context, id string) (uint64, domain.SessionState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return 0, "", "", err
	}

	next, err := domain.Transition(session.State, domain.EventStartAnalysis)
	if err != nil {
		return 0, "", "", err
	}

	previous := session.State
	session.State = next
	session.Token++
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		return 0, "", "", err
	}

	category := ""
	if session.Lead != nil {
		category = session.Lead.Category
	}
	return session.Token, previous, category, nil
}

// resolveAnalysis applies result only when token is the latest issued
func (s *SessionService) resolveAnalysis(ctx context.Context, id string, token uint64, result *domain.ComparisonResult) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Token != token || session.State != domain.StateAnalyzing {
		s.metrics.StaleResultDiscarded()
		log.Printf("[SESSION] Discarding stale result for %s (token %d, latest %d, state %s)",
			id, token, session.Token, session.State)
		return nil, domain.ErrStaleResponse
	}

	next, err := domain.Transition(session.State, domain.EventReceiveResults)
	if err != nil {
		return nil, err
	}

	session.State = next
	session.Result = result
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

// abortAnalysis restores the pre-analysis state after a pipeline error, unless superseded
func (s *SessionService) abortAnalysis(ctx context.Context, id string, token uint64, previous domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil || session.Token != token || session.State != domain.StateAnalyzing {
		return
	}

	session.State = previous
	session.UpdatedAt = s.now()
	if err := s.save(ctx, session); err != nil {
		log.Printf("[SESSION] Failed to restore %s after pipeline error: %v", id, err)
	}
}

// apply runs a state transition and an optional mutation under the service lock
func (s *SessionService) apply(
	ctx context.Context,
	id string,
	event domain.SessionEvent,
	mutate func(*domain.Session),
) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := domain.Transition(session.State, event)
	if err != nil {
		return nil, err
	}

	session.State = next
	if mutate != nil {
		mutate(session)
	}
	session.UpdatedAt = s.now()

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

func (s *SessionService) load(ctx context.Context, id string) (*domain.Session, error) {
	value, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session, ok := value.(*domain.Session)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// save refreshes the session TTL on every write
func (s *SessionService) save(ctx context.Context, session *domain.Session) error {
	if err := s.cache.Set(ctx, sessionKey(session.ID), session, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}

// snapshot copies the session so callers never observe later mutations
func snapshot(session *domain.Session) *domain.Session {
	out := *session
	return &out
}
