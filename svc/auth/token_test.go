package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789ABCDEF0123456789ABCDEF")

func TestNewTokensValidation(t *testing.T) {
	if _, err := NewTokens([]byte("short"), time.Minute); err == nil {
		t.Error("short secret accepted")
	}
	if _, err := NewTokens(testSecret, 0); err == nil {
		t.Error("zero ttl accepted")
	}
	if _, err := NewTokens(testSecret, 15*time.Minute); err != nil {
		t.Errorf("valid params rejected: %v", err)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tokens, err := NewTokens(testSecret, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	signed, exp, err := tokens.Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if remaining := time.Until(exp); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("expiry %v not ~15m out", exp)
	}
	subject, err := tokens.Verify(signed)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "alice@example.com" {
		t.Errorf("subject = %q", subject)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens, _ := NewTokens(testSecret, 15*time.Minute)
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-30 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Verify(signed); err != ErrInvalidToken {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer, _ := NewTokens(testSecret, 15*time.Minute)
	verifier, _ := NewTokens([]byte("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF"), 15*time.Minute)
	signed, _, err := issuer.Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Verify(signed); err != ErrInvalidToken {
		t.Errorf("wrong key: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	tokens, _ := NewTokens(testSecret, 15*time.Minute)
	signed, _, err := tokens.Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatal("unexpected token shape")
	}
	// Flip a character in the payload; the signature no longer matches.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := tokens.Verify(tampered); err != ErrInvalidToken {
		t.Errorf("tampered token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	tokens, _ := NewTokens(testSecret, 15*time.Minute)
	claims := jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Verify(unsigned); err != ErrInvalidToken {
		t.Errorf("alg=none token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsEmptySubject(t *testing.T) {
	tokens, _ := NewTokens(testSecret, 15*time.Minute)
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Verify(signed); err != ErrInvalidToken {
		t.Errorf("subjectless token: err = %v, want ErrInvalidToken", err)
	}
}
