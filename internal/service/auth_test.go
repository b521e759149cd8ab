package service

import (
	"errors"
	"strings"
	"testing"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	svc := NewGuestAuthService("test-secret")

	guestID, token, err := svc.IssueGuestToken("Jadzia")
	if err != nil {
		t.Fatalf("IssueGuestToken failed: %v", err)
	}
	if !strings.HasPrefix(guestID, "guest-") {
		t.Errorf("expected guest- prefixed id, got %q", guestID)
	}

	gotID, gotName, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if gotID != guestID {
		t.Errorf("expected guest id %q, got %q", guestID, gotID)
	}
	if gotName != "Jadzia" {
		t.Errorf("expected name Jadzia, got %q", gotName)
	}
}

func TestGuestTokenDefaultName(t *testing.T) {
	svc := NewGuestAuthService("test-secret")
	_, token, err := svc.IssueGuestToken("   ")
	if err != nil {
		t.Fatalf("IssueGuestToken failed: %v", err)
	}
	_, name, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if !strings.HasPrefix(name, "Guest-") {
		t.Errorf("expected a generated Guest- name, got %q", name)
	}
}

func TestGuestTokenRejectsForgeries(t *testing.T) {
	svc := NewGuestAuthService("test-secret")
	other := NewGuestAuthService("different-secret")

	_, token, err := other.IssueGuestToken("Mallory")
	if err != nil {
		t.Fatalf("IssueGuestToken failed: %v", err)
	}
	if _, _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidGuestToken) {
		t.Errorf("expected ErrInvalidGuestToken for wrong secret, got %v", err)
	}
	if _, _, err := svc.ValidateToken("not.a.jwt"); !errors.Is(err, ErrInvalidGuestToken) {
		t.Errorf("expected ErrInvalidGuestToken for garbage, got %v", err)
	}
}

func TestNewSlotToken(t *testing.T) {
	a := NewSlotToken()
	b := NewSlotToken()
	if a == "" || b == "" {
		t.Fatalf("expected non-empty tokens")
	}
	if a == b {
		t.Fatalf("expected unique tokens, got %q twice", a)
	}
}

func TestTokenFingerprint(t *testing.T) {
	fp := TokenFingerprint("some-token")
	if len(fp) != 12 {
		t.Errorf("expected 12-character fingerprint, got %d", len(fp))
	}
	if fp != TokenFingerprint("some-token") {
		t.Errorf("fingerprint must be deterministic")
	}
	if fp == TokenFingerprint("other-token") {
		t.Errorf("different tokens must not share a fingerprint")
	}
}
