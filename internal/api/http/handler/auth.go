package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nvoron/sessiond/internal/api/http/middleware"
	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
	"github.com/nvoron/sessiond/internal/service"
	"github.com/nvoron/sessiond/internal/token"
)

// ReturnRedirectHeader signals that the client wants a JSON description of
// the outcome instead of an HTTP redirect.
const ReturnRedirectHeader = "X-Auth-Return-Redirect"

// Error codes carried in-band in sign-in responses.
const (
	errCredentialsSignin    = "CredentialsSignin"
	errProviderNotSupported = "ProviderNotSupported"
	errUnknownProvider      = "UnknownProvider"
)

// CredentialVerifier verifies an email/password pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (model.User, error)
}

// SessionService manages login sessions for the handler.
type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID) (model.Session, error)
	Resolve(ctx context.Context, cookies service.CookieJar) (model.SessionUser, error)
	Delete(ctx context.Context, tokenValue string) error
	CookieName() string
	SecureCookieName() string
	MaxAge() time.Duration
}

// AttemptLimiter guards the sign-in endpoint against repeated failures.
type AttemptLimiter interface {
	RetryAfter(addr string) time.Duration
	RecordFailure(addr string) int
	Reset(addr string)
}

// Auth handles the HTTP endpoints for the sign-in/sign-out protocol.
type Auth struct {
	verifier       CredentialVerifier
	sessions       SessionService
	csrf           model.CSRFManager
	limiter        AttemptLimiter
	providers      []model.Provider
	csrfCookieName string
	secureCookies  bool
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	verifier CredentialVerifier,
	sessions SessionService,
	csrf model.CSRFManager,
	limiter AttemptLimiter,
	providers []model.Provider,
	csrfCookieName string,
	secureCookies bool,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		verifier:       verifier,
		sessions:       sessions,
		csrf:           csrf,
		limiter:        limiter,
		providers:      providers,
		csrfCookieName: csrfCookieName,
		secureCookies:  secureCookies,
		logger:         logger,
	}
}

// CSRF issues a fresh CSRF token, mirrored into a cookie for the double
// submit check on state-changing requests.
func (h *Auth) CSRF(c *gin.Context) {
	value, err := h.csrf.Generate()
	if err != nil {
		h.logger.Error("Auth handler: failed to generate csrf token",
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalError"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.csrfCookieName, value, 0, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"csrfToken": value})
}

// SignIn starts sign-in for a provider. Credential-style providers are
// handled inline; anything else has no implementation here and reports an
// in-band error.
func (h *Auth) SignIn(c *gin.Context) {
	provider, ok := h.provider(c.Param("provider"))
	if !ok {
		h.respondError(c, h.callbackURL(c), errUnknownProvider)
		return
	}
	if provider.Type == model.ProviderTypeCredentials {
		h.Callback(c)
		return
	}

	if err := h.checkCSRF(c); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "CsrfMismatch"})
		return
	}

	h.respondError(c, h.callbackURL(c), errProviderNotSupported)
}

// Callback completes sign-in for credential-style providers: CSRF check,
// then verifier, then session issuance.
func (h *Auth) Callback(c *gin.Context) {
	callbackURL := h.callbackURL(c)

	if err := h.checkCSRF(c); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "CsrfMismatch"})
		return
	}

	provider, ok := h.provider(c.Param("provider"))
	if !ok {
		h.respondError(c, callbackURL, errUnknownProvider)
		return
	}
	if provider.Type != model.ProviderTypeCredentials {
		h.respondError(c, callbackURL, errProviderNotSupported)
		return
	}

	addr := c.ClientIP()
	if retryAfter := h.limiter.RetryAfter(addr); retryAfter > 0 {
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "TooManyAttempts"})
		return
	}

	user, err := h.verifier.VerifyCredentials(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	switch {
	case errors.Is(err, model.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "MissingCredentials"})
		return
	case errors.Is(err, model.ErrInvalidCredentials):
		h.limiter.RecordFailure(addr)
		h.logger.Info("Auth handler: sign-in rejected",
			"provider", provider.ID)
		h.respondError(c, callbackURL, errCredentialsSignin)
		return
	case err != nil:
		h.logger.Error("Auth handler: sign-in failed",
			"provider", provider.ID,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalError"})
		return
	}

	h.limiter.Reset(addr)

	session, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("Auth handler: failed to create session",
			"user_id", user.ID.String(),
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalError"})
		return
	}

	h.setSessionCookie(c, session.Token, int(h.sessions.MaxAge().Seconds()))

	h.logger.Info("Auth handler: sign-in completed",
		"provider", provider.ID,
		"user_id", user.ID.String())

	h.respondRedirect(c, callbackURL)
}

// SignOut deletes the session referenced by the request cookies and clears
// the cookie. Signing out twice is safe.
func (h *Auth) SignOut(c *gin.Context) {
	callbackURL := h.callbackURL(c)

	if err := h.checkCSRF(c); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "CsrfMismatch"})
		return
	}

	jar := middleware.RequestJar(c)
	value, ok := jar.Cookie(h.sessions.CookieName())
	if !ok {
		value, _ = jar.Cookie(h.sessions.SecureCookieName())
	}

	if err := h.sessions.Delete(c.Request.Context(), value); err != nil {
		h.logger.Error("Auth handler: failed to delete session",
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalError"})
		return
	}

	h.setSessionCookie(c, "", -1)

	h.logger.Info("Auth handler: sign-out completed")

	h.respondRedirect(c, callbackURL)
}

// Session returns the current user, or null for anonymous requests.
func (h *Auth) Session(c *gin.Context) {
	user, err := h.sessions.Resolve(c.Request.Context(), middleware.RequestJar(c))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			h.logger.Error("Auth handler: failed to resolve session",
				"error", err.Error())
		}
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}})
}

// Providers lists the configured sign-in methods.
func (h *Auth) Providers(c *gin.Context) {
	out := make(map[string]gin.H, len(h.providers))
	for _, p := range h.providers {
		out[p.ID] = gin.H{
			"id":   p.ID,
			"name": p.Name,
			"type": p.Type,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Auth) provider(id string) (model.Provider, bool) {
	for _, p := range h.providers {
		if p.ID == id {
			return p, true
		}
	}
	return model.Provider{}, false
}

// checkCSRF performs the double submit comparison: the form token must match
// the cookie token and carry a valid signature. Runs before the verifier or
// store are touched.
func (h *Auth) checkCSRF(c *gin.Context) error {
	submitted := c.PostForm("csrfToken")
	cookie, err := c.Cookie(h.csrfCookieName)
	if err != nil || submitted == "" {
		return model.ErrCSRFMismatch
	}
	if !token.EqualTokens(submitted, cookie) {
		return model.ErrCSRFMismatch
	}
	if err := h.csrf.Validate(submitted); err != nil {
		return model.ErrCSRFMismatch
	}
	return nil
}

func (h *Auth) callbackURL(c *gin.Context) string {
	if v := c.PostForm("callbackUrl"); v != "" {
		return v
	}
	return "/"
}

func (h *Auth) setSessionCookie(c *gin.Context, value string, maxAge int) {
	name := h.sessions.CookieName()
	if h.secureCookies {
		name = h.sessions.SecureCookieName()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secureCookies, true)
}

// respondRedirect reports a successful outcome: JSON when the client asked
// for it, a classic 302 otherwise.
func (h *Auth) respondRedirect(c *gin.Context, target string) {
	if c.GetHeader(ReturnRedirectHeader) != "" {
		c.JSON(http.StatusOK, gin.H{"url": target})
		return
	}
	c.Redirect(http.StatusFound, target)
}

// respondError reports a sign-in failure in-band: HTTP 200 with an error
// field when the client asked for JSON, otherwise a redirect back with the
// error code in the query string. The client branches on the payload, not
// the status.
func (h *Auth) respondError(c *gin.Context, target, code string) {
	errorURL := appendQuery(target, "error", code)
	if c.GetHeader(ReturnRedirectHeader) != "" {
		c.JSON(http.StatusOK, gin.H{"url": errorURL, "error": code})
		return
	}
	c.Redirect(http.StatusFound, errorURL)
}

func appendQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
