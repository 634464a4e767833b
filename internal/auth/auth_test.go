package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSessionsValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSessions("", []byte("secret"), time.Hour); err == nil {
		t.Fatalf("expected error for empty cookie name")
	}
	if _, err := NewSessions("session", nil, time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewSessions("session", []byte("secret"), 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t)

	cookie, err := sessions.IssueCookie(42)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie")
	}

	req := httptest.NewRequest("GET", "/alice", nil)
	req.AddCookie(cookie)

	if got := sessions.ViewerID(req); got != 42 {
		t.Fatalf("expected viewer id 42, got %d", got)
	}
}

func TestViewerIDAnonymousWithoutCookie(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t)
	req := httptest.NewRequest("GET", "/alice", nil)

	if got := sessions.ViewerID(req); got != 0 {
		t.Fatalf("expected anonymous viewer, got %d", got)
	}
}

func TestViewerIDRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t)

	cookie, err := sessions.IssueCookie(42)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three JWT segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	cookie.Value = parts[0] + "." + parts[1] + "." + string(sig)

	req := httptest.NewRequest("GET", "/alice", nil)
	req.AddCookie(cookie)

	if got := sessions.ViewerID(req); got != 0 {
		t.Fatalf("expected tampered token to resolve anonymous, got %d", got)
	}
}

func TestViewerIDRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewSessions("linkleaf_session", []byte("issuer-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewSessions returned error: %v", err)
	}

	verifier := newTestSessions(t)

	cookie, err := issuer.IssueCookie(42)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}

	req := httptest.NewRequest("GET", "/alice", nil)
	req.AddCookie(cookie)

	if got := verifier.ViewerID(req); got != 0 {
		t.Fatalf("expected token from another secret to resolve anonymous, got %d", got)
	}
}

func TestClearCookieExpiresSession(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t)
	cookie := sessions.ClearCookie()

	if cookie.MaxAge >= 0 {
		t.Fatalf("expected negative MaxAge, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Fatalf("expected empty value, got %q", cookie.Value)
	}
}

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()

	sessions, err := NewSessions("linkleaf_session", []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewSessions returned error: %v", err)
	}

	return sessions
}
