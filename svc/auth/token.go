package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and verifies stateless HS256 bearer tokens. There is no
// revocation list: a leaked token stays valid until its expiry, which is
// why the TTL defaults to 15 minutes.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	return &Tokens{secret: secretCopy, ttl: ttl}, nil
}

// Issue signs a token with the user's email as subject and an absolute
// expiry of now + TTL, second precision, UTC.
func (t *Tokens) Issue(email string) (string, time.Time, error) {
	now := time.Now().UTC().Truncate(time.Second)
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify returns the subject claim of a valid token. Any failure mode
// (bad signature, wrong algorithm, expired, missing subject) collapses
// into ErrInvalidToken; callers must not leak which check failed.
func (t *Tokens) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(tok *jwt.Token) (interface{}, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
