// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// apiPrefix is the path prefix of every package manager endpoint.
	apiPrefix = "/package-manager/api"

	// maxJSONResponseBytes is the upper bound on JSON API response size (32 MB).
	maxJSONResponseBytes = 32 << 20

	// maxErrorBodyBytes is how much of an error response body is kept in a StatusError.
	maxErrorBodyBytes = 4 << 10

	contentTypeJSON = "application/json"
)

// ErrNotFound is matched by StatusError values for 404 responses.
var ErrNotFound = errors.New("resource not found")

type (
	// StatusError is returned when the platform answers with a non-2xx status.
	StatusError struct {
		Method     string
		Path       string
		StatusCode int
		Body       string
	}

	// Client talks to the package manager API of one platform team.
	Client struct {
		httpClient *http.Client
		baseURL    string // Team URL, e.g. "https://team.example.cloud"
		token      string // API key or application key sent as a Bearer token
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error formats the failed request and the platform's response.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is reports whether the error matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL sets the platform team URL.
func WithBaseURL(base string) ClientOption {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets the token sent as "Authorization: Bearer <token>".
func WithToken(token string) ClientOption {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a Client. Defaults: httpClient=http.DefaultClient,
// userAgent="pkgport/dev". The base URL has no default.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  "pkgport/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured team URL.
func (c *Client) BaseURL() string { return c.baseURL }

// getJSON issues a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// doJSON sends body (when non-nil) as JSON and decodes the response into out
// (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader = http.NoBody
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
		contentType = contentTypeJSON
	}

	resp, err := c.do(ctx, method, path, query, reqBody, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

// doBytes issues a request and returns the raw response body.
func (c *Client) doBytes(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	return data, nil
}

// do creates and executes a request with the common headers and converts
// non-2xx responses into a *StatusError. The caller closes the body of a
// successful response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, errors.New("platform URL is not configured")
	}

	reqURL := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: executing request: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }() // error body is fully consumed below
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // best-effort diagnostic
		return nil, &StatusError{
			Method:     method,
			Path:       apiPrefix + path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}
	return resp, nil
}

// escapedPath joins path segments, escaping each one.
func escapedPath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
