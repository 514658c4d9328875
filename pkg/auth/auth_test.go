package auth

import (
	"strings"
	"testing"
	"time"
)

// withTestAuth points the package at a known secret for the duration of
// a test, bypassing config.
func withTestAuth(t *testing.T) {
	t.Helper()
	authMutex.Lock()
	secret = []byte("test-secret-0123456789")
	issuer = "detection-reporter-test"
	expiry = time.Hour
	enabled = true
	authMutex.Unlock()
	t.Cleanup(func() {
		authMutex.Lock()
		secret = nil
		issuer = ""
		expiry = 0
		enabled = false
		authMutex.Unlock()
	})
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	withTestAuth(t)

	token, err := IssueToken("analyst", []string{"read:report", "write:report"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT failed: %v", err)
	}
	if claims.Subject != "analyst" {
		t.Errorf("subject = %q, want %q", claims.Subject, "analyst")
	}
	if claims.Issuer != "detection-reporter-test" {
		t.Errorf("issuer = %q, want %q", claims.Issuer, "detection-reporter-test")
	}
	if len(claims.Permissions) != 2 {
		t.Errorf("permissions = %v, want 2 entries", claims.Permissions)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	withTestAuth(t)

	token, err := IssueToken("analyst", []string{"read:report"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	// Flip a character in the signature segment
	tampered := token[:len(token)-2] + "xx"
	if _, err := VerifyJWT(tampered); err == nil {
		t.Fatal("expected verification failure for tampered token")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	withTestAuth(t)

	token, err := IssueToken("analyst", nil)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	authMutex.Lock()
	issuer = "someone-else"
	authMutex.Unlock()

	if _, err := VerifyJWT(token); err == nil {
		t.Fatal("expected verification failure for issuer mismatch")
	}
}

func TestIssueFailsWhenDisabled(t *testing.T) {
	if _, err := IssueToken("analyst", nil); err == nil {
		t.Fatal("expected error when auth is disabled")
	}
	if _, err := VerifyJWT("anything"); err == nil {
		t.Fatal("expected error when auth is disabled")
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		required    string
		want        bool
	}{
		{"exact match", []string{"read:report"}, "read:report", true},
		{"missing", []string{"read:report"}, "write:report", false},
		{"global wildcard", []string{"*"}, "write:report", true},
		{"prefix wildcard", []string{"read:*"}, "read:health", true},
		{"prefix wildcard no match", []string{"read:*"}, "write:report", false},
		{"empty set", nil, "read:report", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &Claims{Permissions: tt.permissions}
			if got := HasPermission(claims, tt.required); got != tt.want {
				t.Errorf("HasPermission(%v, %q) = %v, want %v",
					tt.permissions, tt.required, got, tt.want)
			}
		})
	}

	if HasPermission(nil, "read:report") {
		t.Error("nil claims must never grant permission")
	}
}

func TestPermissionConstants(t *testing.T) {
	for _, action := range []string{ActionRead, ActionWrite} {
		if strings.Contains(action, ":") {
			t.Errorf("action %q must not contain the resource separator", action)
		}
	}
}
