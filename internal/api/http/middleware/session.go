package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/service"
)

// ContextUserKey is the gin context key holding the resolved session user.
const ContextUserKey = "auth.user"

// SessionResolver resolves the current user from request cookies.
type SessionResolver interface {
	Resolve(ctx context.Context, cookies service.CookieJar) (model.SessionUser, error)
}

// ginJar adapts a gin request to service.CookieJar.
type ginJar struct {
	c *gin.Context
}

func (j ginJar) Cookie(name string) (string, bool) {
	value, err := j.c.Cookie(name)
	if err != nil {
		return "", false
	}
	return value, true
}

// RequestJar returns the cookie jar view of a gin request.
func RequestJar(c *gin.Context) service.CookieJar {
	return ginJar{c: c}
}

// Session resolves the session cookie on every request.
type Session struct {
	resolver SessionResolver
	logger   *logger.Logger
}

// NewSession creates a new Session middleware instance.
func NewSession(resolver SessionResolver, logger *logger.Logger) *Session {
	return &Session{resolver: resolver, logger: logger}
}

// Resolve attaches the current user to the request context when a valid
// session cookie is present. A missing or expired session is not an error;
// the request proceeds as anonymous.
func (m *Session) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.resolver.Resolve(c.Request.Context(), ginJar{c: c})
		switch {
		case err == nil:
			c.Set(ContextUserKey, user)
		case errors.Is(err, model.ErrNotFound):
			// anonymous
		default:
			// store failures degrade to anonymous rather than failing the request
			m.logger.Error("Session middleware: failed to resolve session",
				"error", err.Error())
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless a session user was resolved.
func (m *Session) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session user resolved for this request.
func CurrentUser(c *gin.Context) (model.SessionUser, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return model.SessionUser{}, false
	}
	user, ok := value.(model.SessionUser)
	return user, ok
}
