// Package apiclient is the single HTTP client for the Roktofy REST API. It
// attaches the stored credential to every request and applies one response
// policy: a 401 on an authenticated request clears the stored credential.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/auth"
)

const maxBodySize = 4 << 20

// DefaultScheme is the authorization scheme the API expects
const DefaultScheme = "JWT"

// Client sends requests to one fixed base endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *auth.TokenStore
	scheme     string
	logger     *zap.Logger
	timeout    *time.Duration

	mu             sync.Mutex
	onUnauthorized []func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithScheme sets the authorization scheme token
func WithScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.scheme = scheme
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the transport timeout; zero means none. It applies to a
// copy of the http.Client, so a client given to WithHTTPClient is not changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

type anonymousKey struct{}

// Anonymous returns a context whose requests carry no credential. The
// identity endpoints (login, registration, activation, password reset) are
// called this way, so their 401s never count as a rejected credential.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

// New creates a client bound to baseURL
func New(baseURL string, tokens *auth.TokenStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		scheme:     DefaultScheme,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the configured endpoint
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the token store the client reads credentials from
func (c *Client) Tokens() *auth.TokenStore { return c.tokens }

// OnUnauthorized registers fn to run after an authenticated request was
// rejected with 401 and the stored credential was cleared
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// Do sends one request. body is JSON-encoded when non-nil; a 2xx response
// body is decoded into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	authenticated, err := c.authorize(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("authenticated", authenticated),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       data,
			Messages:   flattenMessages(data),
		}
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			c.handleUnauthorized(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// authorize attaches the stored access token, reporting whether it did
func (c *Client) authorize(ctx context.Context, req *http.Request) (bool, error) {
	if c.tokens == nil || ctx.Value(anonymousKey{}) != nil {
		return false, nil
	}
	creds, err := c.tokens.Load(ctx)
	if err != nil {
		return false, err
	}
	if creds == nil {
		return false, nil
	}
	req.Header.Set("Authorization", c.scheme+" "+creds.Access)
	return true, nil
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	c.logger.Info("credential rejected by server; clearing stored tokens")
	if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("failed to clear rejected credentials", zap.Error(err))
	}

	c.mu.Lock()
	handlers := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}
