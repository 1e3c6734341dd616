package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxResponseSize caps how much of a response body is read
const DefaultMaxResponseSize = 8 * 1024 * 1024

var (
	// ErrEmptyResponse is returned when a search answers 2xx with no body
	ErrEmptyResponse = errors.New("server returned an empty response")
	// ErrResponseTooLarge is returned when a body exceeds the configured size
	ErrResponseTooLarge = errors.New("response exceeds maximum size")
)

// Client talks to the insights server's corpus endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxSize    int64
	log        zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxResponseSize limits how many bytes of a response are read
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithLogger attaches a logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a new corpus search client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "corpus-search/1.0",
		maxSize:   DefaultMaxResponseSize,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs a plain index search
func (c *Client) Search(ctx context.Context, query string) (Response, error) {
	return c.Get(ctx, IndexSearchURL(query))
}

// SearchNeuralNet runs a graph-state search against the given model
func (c *Client) SearchNeuralNet(ctx context.Context, query string, model Model) (Response, error) {
	return c.Get(ctx, NeuralNetSearchURL(query, model))
}

// ClearIndex drops the server-side tensor index
func (c *Client) ClearIndex(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, ClearIndexPath)
	return err
}

// Get issues a GET for a server-relative path and returns the raw body
func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	body, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("GET %s: %w", path, ErrEmptyResponse)
	}
	return Response(body), nil
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	tooLarge := int64(len(body)) > c.maxSize
	if tooLarge {
		body = body[:c.maxSize]
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Header.Get("Content-Type"), body),
		}
	}
	if tooLarge {
		return nil, fmt.Errorf("%s %s: %w (%d bytes)", method, path, ErrResponseTooLarge, c.maxSize)
	}

	return body, nil
}

// HealthCheck verifies that the server is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insights server is unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("insights server returned server error: %d", resp.StatusCode)
	}

	return nil
}
