// Package client is a typed Go SDK for the lead-intake REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The client sends a fresh UUID in X-Request-ID on every call. The server
// adopts it, so a failed call can be found in the server log.
const requestIDHeader = "X-Request-ID"

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1 << 20
)

// Client talks to one lead-intake server. The service fields group the
// endpoints by resource.
type Client struct {
	base  string
	token string
	hc    *http.Client

	Auth     *AuthService
	Buyers   *BuyerService
	Transfer *TransferService
	Audit    *AuditService
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates calls with a session token from Auth.Login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout bounds each call, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// New returns a client for baseURL, for example "http://localhost:3030".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c: c}
	c.Buyers = &BuyerService{c: c}
	c.Transfer = &TransferService{c: c}
	c.Audit = &AuditService{c: c}

	return c
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) { c.token = token }

// Health calls the unauthenticated liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.get(ctx, "/api/v1/health", nil, &h); err != nil {
		return nil, err
	}

	return &h, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, withQuery(path, q), nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) del(ctx context.Context, path string, q url.Values, out any) error {
	return c.doJSON(ctx, http.MethodDelete, withQuery(path, q), nil, out)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}

	return path + "?" + q.Encode()
}

// doJSON sends in (if not nil) as a JSON body and decodes a non-empty response
// into out (if not nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}

		body, contentType = bytes.NewReader(data), "application/json"
	}

	resp, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil && err != io.EOF {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}

	return nil
}

// send performs one call. A 4xx or 5xx reply is returned as *APIError with
// the body consumed; otherwise the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}

	rid := uuid.NewString()
	req.Header.Set(requestIDHeader, rid)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s (request %s): %w", method, path, rid, err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("reading %d response to %s %s: %w", resp.StatusCode, method, path, err)
	}

	apiErr := parseAPIError(resp.StatusCode, raw)
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get(requestIDHeader)
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}

	return nil, apiErr
}
