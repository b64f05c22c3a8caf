package token

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nvoron/sessiond/internal/model"
)

// CSRF implements CSRFManager backed by symmetric HMAC. Tokens are issued as
// short-lived signed JWTs and validated as a double submit pair: the form
// value must match the cookie value and carry a valid signature.
type CSRF struct {
	secretKey string
	ttl       time.Duration
}

// NewCSRF creates a new CSRF token manager with the provided secret key and
// token lifetime.
func NewCSRF(secretKey string, ttl time.Duration) model.CSRFManager {
	return &CSRF{secretKey: secretKey, ttl: ttl}
}

type csrfClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

const typeCSRF = "csrf"

// Generate creates a fresh CSRF token. The JTI claim makes every token
// unique, so tokens cannot be replayed across browser sessions.
func (c *CSRF) Generate() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, csrfClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		TokenType: typeCSRF,
	})

	tokenString, err := token.SignedString([]byte(c.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign csrf token: %w", err)
	}

	return tokenString, nil
}

// Validate checks the token signature and expiry.
func (c *CSRF) Validate(tokenString string) error {
	claims := &csrfClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(c.secretKey), nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse csrf token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("csrf token is invalid")
	}
	if claims.TokenType != typeCSRF {
		return fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return nil
}

// EqualTokens compares the submitted token with the cookie token in constant
// time.
func EqualTokens(submitted, cookie string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie)) == 1
}
