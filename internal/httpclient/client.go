// Package httpclient provides HTTP client functionality for remote store and
// catalog operations.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response size (32MB)
	MaxResponseSize = 32 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "medibook-share-engine/1.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)

	// Post performs an HTTP POST request with a JSON body and returns the
	// response body
	Post(ctx context.Context, url string, body []byte) ([]byte, error)

	// Delete performs an HTTP DELETE request
	Delete(ctx context.Context, url string) error
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client *http.Client
	token  string
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithBearerToken sets the Authorization header on every request
func WithBearerToken(token string) Option {
	return func(c *DefaultClient) {
		c.token = token
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// If timeout is 0, uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*DefaultClient)(nil)

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs an HTTP POST request with a JSON body
func (c *DefaultClient) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// Delete performs an HTTP DELETE request
func (c *DefaultClient) Delete(ctx context.Context, url string) error {
	_, err := c.do(ctx, http.MethodDelete, url, nil)
	return err
}

func (c *DefaultClient) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Read before the status check: error responses carry structured bodies
	// the caller may want to decode.
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1) // +1 to detect if limit exceeded
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(respBody)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return respBody, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	return respBody, nil
}
