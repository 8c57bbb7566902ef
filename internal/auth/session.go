package auth

import (
	"sync"
)

// Context reports whether an authenticated back-office operator is present.
// The ingestion pipeline refuses to register readings without one.
type Context interface {
	IsAuthenticated() bool
}

// Session is an in-memory operator session. Credential validation belongs to
// the surrounding back office; this worker only tracks the resulting state.
type Session struct {
	mu       sync.Mutex
	operator string
}

// NewSession creates an unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// Login marks the session as authenticated for the given operator.
func (s *Session) Login(operator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = operator
}

// Logout clears the session.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = ""
}

// IsAuthenticated reports whether an operator is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operator != ""
}

// Operator returns the logged-in operator name, or empty.
func (s *Session) Operator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operator
}
