package firmware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kalambet/firmkit/internal/credentials"
)

const (
	defaultBaseURL  = "https://app.firmware.ai/api/v1"
	defaultTimeout  = 10 * time.Second
	defaultProvider = "firmware"
)

// ErrTimeout is returned when a request exceeds the client timeout.
var ErrTimeout = errors.New("Request timed out")

// StatusError is returned for any non-2xx response. The body is kept raw so
// the provider's own error text reaches the user.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d %s %s", e.Code, e.Status, e.Body)
}

// IsReportable reports whether err is an expected failure that should be
// shown to the user rather than treated as a fault.
func IsReportable(err error) bool {
	var se *StatusError
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrJobNotFound) ||
		errors.As(err, &se) ||
		credentials.IsReportable(err)
}

// Keyring resolves the API key for a provider.
type Keyring interface {
	Resolve(provider string) (string, error)
}

// Client talks to the Firmware research API.
type Client struct {
	keys       Keyring
	provider   string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, staging).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithProvider selects which auth config entry holds the API key.
func WithProvider(provider string) Option {
	return func(c *Client) { c.provider = provider }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Firmware client that looks up its key in keys.
func NewClient(keys Keyring, opts ...Option) *Client {
	c := &Client{
		keys:       keys,
		provider:   defaultProvider,
		baseURL:    defaultBaseURL,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request and decodes a successful JSON body into out.
// The key is resolved on every call so a rotated key is picked up at once.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	apiKey, err := c.keys.Resolve(c.provider)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, reqCtx, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.transportError(ctx, reqCtx, "reading error body", err)
		}
		return &StatusError{
			Code:   resp.StatusCode,
			Status: statusText(resp),
			Body:   string(respBody),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.transportError(ctx, reqCtx, "decoding response", err)
	}
	return nil
}

// transportError maps our own deadline to ErrTimeout. A cancelled parent
// context, or any other network fault, is returned wrapped.
func (c *Client) transportError(parent, reqCtx context.Context, op string, err error) error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%s: %w", op, err)
}

// statusText returns the reason phrase the server sent, e.g. "Not Found".
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text, ok := strings.CutPrefix(resp.Status, prefix); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
