package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore defines persistence operations for login sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	// GetWithUser returns the joined user projection for a session token.
	// Sessions with expires <= now are treated as absent.
	GetWithUser(ctx context.Context, token string, now time.Time) (SessionUser, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session ties an opaque token to a user until it expires. The token is the
// primary key; collision avoidance relies on token entropy alone.
type Session struct {
	Token   string
	UserID  uuid.UUID
	Expires time.Time
}

// SessionUser is the denormalized projection returned by session lookups, so
// resolving the current user costs a single round trip.
type SessionUser struct {
	ID    uuid.UUID
	Name  *string
	Email string
}
