package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
    issuer, err := NewIssuer("s3cret", time.Hour)
    if err != nil {
        t.Fatal(err)
    }

    tok, err := issuer.Issue(42)
    if err != nil {
        t.Fatalf("Issue: %v", err)
    }
    if strings.Count(tok.Plaintext, ".") != 2 {
        t.Fatalf("expected compact JWS, got %q", tok.Plaintext)
    }

    userID, err := issuer.Verify(tok.Plaintext)
    if err != nil {
        t.Fatalf("Verify: %v", err)
    }
    if userID != 42 {
        t.Errorf("userID = %d, want 42", userID)
    }
}

func TestVerifyRejectsBadTokens(t *testing.T) {
    issuer, _ := NewIssuer("s3cret", time.Hour)
    other, _ := NewIssuer("another-secret", time.Hour)

    forged, err := other.Issue(1)
    if err != nil {
        t.Fatal(err)
    }

    expiredIssuer, _ := NewIssuer("s3cret", time.Minute)
    expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
    expired, err := expiredIssuer.Issue(1)
    if err != nil {
        t.Fatal(err)
    }

    tests := map[string]string{
        "garbage":      "not-a-token",
        "empty":        "",
        "wrong secret": forged.Plaintext,
        "expired":      expired.Plaintext,
    }

    for name, plaintext := range tests {
        t.Run(name, func(t *testing.T) {
            _, err := issuer.Verify(plaintext)
            if !errors.Is(err, ErrInvalidToken) {
                t.Errorf("got %v, want ErrInvalidToken", err)
            }
        })
    }
}

func TestNewIssuerValidation(t *testing.T) {
    if _, err := NewIssuer("", time.Hour); err == nil {
        t.Error("expected error for empty secret")
    }
    if _, err := NewIssuer("s", 0); err == nil {
        t.Error("expected error for zero ttl")
    }
}
