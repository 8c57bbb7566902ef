package auth

import "testing"

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()

	if s.IsAuthenticated() {
		t.Error("Expected a fresh session to be unauthenticated")
	}

	s.Login("operator@hidrotec.com")
	if !s.IsAuthenticated() {
		t.Error("Expected session authenticated after Login")
	}
	if got := s.Operator(); got != "operator@hidrotec.com" {
		t.Errorf("Expected operator identity, got %q", got)
	}

	s.Logout()
	if s.IsAuthenticated() {
		t.Error("Expected session unauthenticated after Logout")
	}
	if got := s.Operator(); got != "" {
		t.Errorf("Expected empty operator after Logout, got %q", got)
	}
}
