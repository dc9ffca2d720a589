// Package transport is the HTTP capability catalog providers fetch through.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "catalogd/1.0"

	// Catalog pages are small; anything larger is not a catalog response.
	maxBodySize = 16 << 20
)

// ErrTooLarge is returned when a response body exceeds the client's limit.
var ErrTooLarge = errors.New("response too large")

// Request is a GET of URL. Tag groups calls for cancellation.
type Request struct {
	URL    string
	Header http.Header
	Tag    string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Cached     bool
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Doer performs requests. An error means the exchange itself failed
// (dial, timeout, cancellation); any status code is a response.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client is a Doer over net/http.
type Client struct {
	userAgent  string
	maxBody    int64
	httpClient *http.Client
}

// NewClient creates a client. Zero values select defaults.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		userAgent: userAgent,
		maxBody:   maxBodySize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do performs a GET request and reads the whole body.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, c.maxBody, r.URL)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
