package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for each request. It is
// consulted before every call so a cleared session takes effect at once.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client talks to the project management REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuth installs the token source and the handler invoked when an
// authenticated request comes back 401
func (c *Client) SetAuth(tokens TokenSource, onUnauthorized func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
	c.onUnauthorized = onUnauthorized
}

func (c *Client) auth() (TokenSource, func(context.Context)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens, c.onUnauthorized
}

// request describes one API call
type request struct {
	method string
	path   string
	body   interface{}
	out    interface{}
	public bool // sent without a bearer token
}

func (c *Client) do(ctx context.Context, r request) error {
	var reader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	tokens, onUnauthorized := c.auth()
	authed := false
	if !r.public && tokens != nil {
		if token := tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	c.log.Debug("HTTP Request",
		logger.F("method", r.method),
		logger.F("path", r.path),
		logger.F("request_id", requestID))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("HTTP request failed",
			logger.F("method", r.method),
			logger.F("path", r.path),
			logger.F("error", err))
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.log.Debug("HTTP Response",
		logger.F("method", r.method),
		logger.F("path", r.path),
		logger.F("status", resp.StatusCode),
		logger.F("duration", time.Since(start).String()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp, requestID)
		c.log.Error("Request rejected",
			logger.F("method", r.method),
			logger.F("path", r.path),
			logger.F("status", resp.StatusCode),
			logger.F("message", apiErr.Message))
		if resp.StatusCode == http.StatusUnauthorized && authed && onUnauthorized != nil {
			onUnauthorized(ctx)
		}
		return apiErr
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	return nil
}
