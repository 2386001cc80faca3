package domain

import (
	"fmt"
	"time"
)

// SessionState is a named step of the onboarding funnel
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateSubmitting SessionState = "submitting"
	StateAnalyzing  SessionState = "analyzing"
	StateResults    SessionState = "results"
	StateOnboarding SessionState = "onboarding"
	StateComplete   SessionState = "complete"
)

// SessionEvent drives a SessionState transition
type SessionEvent string

const (
	EventSubmitLead      SessionEvent = "submit_lead"
	EventStartAnalysis   SessionEvent = "start_analysis"
	EventReceiveResults  SessionEvent = "receive_results"
	EventBeginOnboarding SessionEvent = "begin_onboarding"
	EventComplete        SessionEvent = "complete"
	EventReset           SessionEvent = "reset"
)

// transitions lists the allowed (state, event) pairs. Reset is handled separately.
var transitions = map[SessionState]map[SessionEvent]SessionState{
	StateIdle:       {EventSubmitLead: StateSubmitting},
	StateSubmitting: {EventStartAnalysis: StateAnalyzing},
	StateAnalyzing:  {EventReceiveResults: StateResults},
	StateResults: {
		EventStartAnalysis:   StateAnalyzing,
		EventBeginOnboarding: StateOnboarding,
	},
	StateOnboarding: {EventComplete: StateComplete},
}

// Transition returns the state reached from s on e. It has no side effects.
func Transition(s SessionState, e SessionEvent) (SessionState, error) {
	if e == EventReset {
		return StateIdle, nil
	}
	if next, ok := transitions[s][e]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// Session is the per-visitor funnel state. Token is the latest issued analysis request token.
type Session struct {
	ID        string            `json:"id"`
	State     SessionState      `json:"state"`
	Lead      *Lead             `json:"lead,omitempty"`
	Result    *ComparisonResult `json:"result,omitempty"`
	Token     uint64            `json:"-"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
