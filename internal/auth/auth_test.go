package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "s3cret-pass" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !VerifyPassword("s3cret-pass", hashed) {
		t.Fatalf("expected matching password to verify")
	}
	if VerifyPassword("wrong", hashed) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-secret"), time.Minute)
	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	username, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected subject alice, got %q", username)
	}
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenIssuer([]byte("unit-test-secret"), time.Minute)
	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Wrong secret.
	other := NewTokenIssuer([]byte("different-secret"), time.Minute)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	// Garbage token.
	if _, err := issuer.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	// Expired token.
	expiredIssuer := NewTokenIssuer([]byte("unit-test-secret"), -time.Minute)
	expired, err := expiredIssuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := issuer.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
