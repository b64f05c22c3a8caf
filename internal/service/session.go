package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/token"
)

// SecureCookiePrefix marks cookies that browsers only accept over TLS.
const SecureCookiePrefix = "__Secure-"

// CookieJar is the minimal read view of request cookies the resolver needs.
// Fake jars make the resolver trivially testable without an HTTP stack.
type CookieJar interface {
	Cookie(name string) (value string, ok bool)
}

// Sessions manages login session records: creation, cookie-based resolution,
// deletion and expiry sweeping.
type Sessions struct {
	store      model.SessionStore
	cookieName string
	maxAge     time.Duration
	logger     *logger.Logger
}

func NewSessions(store model.SessionStore, cookieName string, maxAge time.Duration, logger *logger.Logger) *Sessions {
	return &Sessions{
		store:      store,
		cookieName: cookieName,
		maxAge:     maxAge,
		logger:     logger,
	}
}

// CookieName returns the plain session cookie name.
func (s *Sessions) CookieName() string {
	return s.cookieName
}

// SecureCookieName returns the __Secure- variant of the session cookie name.
func (s *Sessions) SecureCookieName() string {
	return SecureCookiePrefix + s.cookieName
}

// MaxAge returns the configured session lifetime.
func (s *Sessions) MaxAge() time.Duration {
	return s.maxAge
}

// Create persists a new session for the user. The token is generated here,
// never by callers; expiry is fixed at creation time (no sliding refresh).
func (s *Sessions) Create(ctx context.Context, userID uuid.UUID) (model.Session, error) {
	value, err := token.NewSessionToken()
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := model.Session{
		Token:   value,
		UserID:  userID,
		Expires: time.Now().Add(s.maxAge),
	}
	if err := s.store.Create(ctx, session); err != nil {
		s.logger.Error("Session service: failed to create session",
			"user_id", userID.String(),
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session service: session created",
		"user_id", userID.String())

	return session, nil
}

// Resolve returns the user owning the session referenced by the request
// cookies. The plain cookie name is checked first, then the __Secure-
// variant; first match wins, no merge. A missing token short-circuits to
// model.ErrNotFound without touching the store. Resolve never mutates state,
// so it is safe to call on every request.
func (s *Sessions) Resolve(ctx context.Context, cookies CookieJar) (model.SessionUser, error) {
	value, ok := cookies.Cookie(s.CookieName())
	if !ok {
		value, ok = cookies.Cookie(s.SecureCookieName())
	}
	if !ok || value == "" {
		return model.SessionUser{}, model.ErrNotFound
	}

	return s.store.GetWithUser(ctx, value, time.Now())
}

// ResolveToken looks up a session by its raw token.
func (s *Sessions) ResolveToken(ctx context.Context, tokenValue string) (model.SessionUser, error) {
	if tokenValue == "" {
		return model.SessionUser{}, model.ErrNotFound
	}
	return s.store.GetWithUser(ctx, tokenValue, time.Now())
}

// Delete removes a session. Deleting an unknown token is a no-op, which keeps
// sign-out idempotent.
func (s *Sessions) Delete(ctx context.Context, tokenValue string) error {
	if tokenValue == "" {
		return nil
	}
	if err := s.store.Delete(ctx, tokenValue); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RunJanitor deletes expired session rows every interval until ctx is
// canceled. Expired rows are already invisible to reads; the sweep only
// bounds table growth.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.store.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("Session janitor: failed to delete expired sessions",
					"error", err.Error())
				continue
			}
			if removed > 0 {
				s.logger.Info("Session janitor: removed expired sessions",
					"count", removed)
			}
		}
	}
}
