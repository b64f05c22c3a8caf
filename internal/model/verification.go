package model

import (
	"context"
	"time"
)

// VerificationTokenStore persists single-use tokens for email-link flows.
type VerificationTokenStore interface {
	Create(ctx context.Context, vt VerificationToken) error
	// Use fetches and deletes the token in one operation. Expired tokens are
	// treated as absent.
	Use(ctx context.Context, identifier, token string) (VerificationToken, error)
}

// VerificationToken is a single-use token keyed by (identifier, token).
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}
