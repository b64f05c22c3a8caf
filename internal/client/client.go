// Package client drives the sign-in and sign-out flows against the auth
// endpoints the way an embedded front end would: fetch a CSRF token, post the
// form, and either navigate or hand the outcome back to the caller.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nvoron/sessiond/internal/model"
)

const defaultTimeout = 30 * time.Second

// Navigator performs the navigation side effects of a flow. In a browser
// embedding this maps onto location assignment and reload.
type Navigator interface {
	Navigate(url string) error
	Reload() error
}

// ResultKind discriminates flow outcomes.
type ResultKind string

const (
	// KindRedirect means the flow ended with a navigation target.
	KindRedirect ResultKind = "redirect"
	// KindError means the server reported an in-band sign-in error.
	KindError ResultKind = "error"
	// KindOK means the flow completed without a redirect or error.
	KindOK ResultKind = "ok"
)

// FlowResult is the outcome of a sign-in flow when the caller asked to keep
// control instead of navigating.
type FlowResult struct {
	Kind   ResultKind
	URL    string
	Error  string
	Status int
}

// OK reports whether the flow succeeded.
func (r *FlowResult) OK() bool {
	return r.Kind != KindError
}

// SignInOptions controls a sign-in flow.
type SignInOptions struct {
	// CallbackURL is where the flow lands after completion. Defaults to "/".
	CallbackURL string
	// Redirect controls whether the client navigates on completion. Nil
	// means true. Ignored for providers that cannot return control.
	Redirect *bool
	// Fields carries the provider-specific form fields, e.g. email and
	// password for the credentials provider.
	Fields map[string]string
}

// SignOutOptions controls a sign-out flow.
type SignOutOptions struct {
	// CallbackURL is where the flow lands after sign-out. Defaults to "/".
	CallbackURL string
}

// Client initiates auth flows against a server. The embedded cookie jar
// carries the CSRF and session cookies between the sequential calls of a
// flow.
type Client struct {
	baseURL   string
	http      *http.Client
	navigator Navigator
}

// New creates a Client for the auth endpoints rooted at baseURL, e.g.
// "https://app.example.com/api/auth".
func New(baseURL string, navigator Navigator) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
		navigator: navigator,
	}, nil
}

// SignIn runs the sign-in flow for a provider. When the caller requested
// redirect (the default) or the provider cannot return control, the method
// navigates and returns a nil result; otherwise the outcome comes back as a
// FlowResult and no navigation happens.
func (c *Client) SignIn(ctx context.Context, providerID string, opts SignInOptions, authorizationParams url.Values) (*FlowResult, error) {
	provider, err := c.lookupProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	callbackURL := opts.CallbackURL
	if callbackURL == "" {
		callbackURL = "/"
	}

	// A fresh token every flow; tokens are short-lived and never cached.
	csrfToken, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	action := "signin"
	if provider.Type == model.ProviderTypeCredentials {
		action = "callback"
	}
	target := fmt.Sprintf("%s/%s/%s", c.baseURL, action, url.PathEscape(providerID))
	if len(authorizationParams) > 0 {
		target += "?" + authorizationParams.Encode()
	}

	form := url.Values{}
	for key, value := range opts.Fields {
		form.Set(key, value)
	}
	form.Set("csrfToken", csrfToken)
	form.Set("callbackUrl", callbackURL)

	body, status, err := c.postForm(ctx, target, form)
	if err != nil {
		return nil, err
	}

	result := interpret(body, status, callbackURL)

	redirect := opts.Redirect == nil || *opts.Redirect
	if redirect || !provider.SupportsReturn() {
		if err := c.navigate(result.URL); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return result, nil
}

// SignOut clears the current session and navigates to the callback URL.
// Unlike SignIn there is no return branch; sign-out always completes with a
// navigation.
func (c *Client) SignOut(ctx context.Context, opts SignOutOptions) error {
	callbackURL := opts.CallbackURL
	if callbackURL == "" {
		callbackURL = "/"
	}

	csrfToken, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("csrfToken", csrfToken)
	form.Set("callbackUrl", callbackURL)

	body, status, err := c.postForm(ctx, c.baseURL+"/signout", form)
	if err != nil {
		return err
	}

	result := interpret(body, status, callbackURL)
	return c.navigate(result.URL)
}

// Providers fetches the configured sign-in methods from the server.
func (c *Client) Providers(ctx context.Context) (map[string]model.Provider, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/providers", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build providers request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch providers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch providers: unexpected status %d", resp.StatusCode)
	}

	var payload map[string]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}

	providers := make(map[string]model.Provider, len(payload))
	for id, p := range payload {
		providers[id] = model.Provider{
			ID:   p.ID,
			Name: p.Name,
			Type: model.ProviderType(p.Type),
		}
	}
	return providers, nil
}

func (c *Client) lookupProvider(ctx context.Context, providerID string) (model.Provider, error) {
	providers, err := c.Providers(ctx)
	if err != nil {
		return model.Provider{}, err
	}
	provider, ok := providers[providerID]
	if !ok {
		return model.Provider{}, model.ErrUnknownProvider
	}
	return provider, nil
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/csrf", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build csrf request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch csrf token: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode csrf token: %w", err)
	}
	if payload.CSRFToken == "" {
		return "", fmt.Errorf("failed to fetch csrf token: empty token")
	}
	return payload.CSRFToken, nil
}

// postForm posts the flow form and asks the server for a JSON rendition of
// the outcome. The navigation decision is made here, never by the transport.
func (c *Client) postForm(ctx context.Context, target string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build flow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Auth-Return-Redirect", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to post flow request: %w", err)
	}
	defer resp.Body.Close()

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("failed to decode flow response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// navigate performs the final navigation. A target carrying a fragment does
// not reload the document on its own, so an explicit reload follows to
// re-run server logic.
func (c *Client) navigate(target string) error {
	if err := c.navigator.Navigate(target); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if strings.Contains(target, "#") {
		if err := c.navigator.Reload(); err != nil {
			return fmt.Errorf("failed to reload: %w", err)
		}
	}
	return nil
}

// interpret builds the discriminated result from the server payload. The
// redirect target falls back from url to redirect to the callback URL.
func interpret(body []byte, status int, callbackURL string) *FlowResult {
	var payload struct {
		URL      *string `json:"url"`
		Redirect *string `json:"redirect"`
		Error    *string `json:"error"`
	}
	// A malformed body degrades to the callback URL fallback.
	_ = json.Unmarshal(body, &payload)

	target := callbackURL
	if payload.URL != nil {
		target = *payload.URL
	} else if payload.Redirect != nil {
		target = *payload.Redirect
	}

	result := &FlowResult{
		Kind:   KindOK,
		URL:    target,
		Status: status,
	}
	switch {
	case payload.Error != nil:
		result.Kind = KindError
		result.Error = *payload.Error
	case payload.URL != nil || payload.Redirect != nil:
		result.Kind = KindRedirect
	}
	return result
}
