package auth

import (
	"testing"
	"time"

	"dialtrack/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "test-secret",
		JWTIssuer:      "dialtrack",
		JWTAudience:    "dialtrack-api",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestManager_IssueAndVerify(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	tok, err := m.Issue(now, "u-1", RoleOperator)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Fatalf("user_id = %q", claims.UserID)
	}
	if claims.Role != RoleOperator {
		t.Fatalf("role = %q", claims.Role)
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	tok, err := m.Issue(now, "u-1", RoleAgent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Past TTL plus validator leeway.
	if _, err := m.Verify(tok, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.Issue(time.Now(), "u-1", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewManager(config.AuthConfig{JWTSecret: "other", AccessTokenTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := other.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
