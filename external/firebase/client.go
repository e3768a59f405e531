// Package firebase talks to a Firebase Realtime Database over its REST and
// streaming API.
package firebase

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/resilience"
)

var errFirebaseTransient = crerr.New("firebase transient failure")
var authParamRegex = regexp.MustCompile(`auth=[^&\s"']+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AuthToken      string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements document.Store against the database REST endpoints.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	token        string
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
}

var _ document.Store = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return nil, crerr.Newf("invalid firebase base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}
	// Streams stay open indefinitely, so they cannot share the request timeout.
	streamClient := &http.Client{Transport: httpClient.Transport}

	return &Client{
		httpClient:   httpClient,
		streamClient: streamClient,
		baseURL:      baseURL,
		token:        strings.TrimSpace(cfg.AuthToken),
		logger:       logger.Named("firebase"),
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return c.Delete(ctx, path)
	}
	body, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", document.ErrRejected, path, err)
	}
	_, err = c.do(ctx, http.MethodPut, path, body)
	return err
}

// Update sends a multi-location PATCH. Field keys may be relative paths and
// null values delete.
func (c *Client) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	body, err := sonic.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", document.ErrRejected, path, err)
	}
	_, err = c.do(ctx, http.MethodPatch, path, body)
	return err
}

func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var raw []byte
	err := c.breaker.Do(func() error {
		var reqErr error
		raw, reqErr = c.execute(ctx, method, path, body)
		return reqErr
	}, isFirebaseCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "firebase circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return nil, crerr.Mark(fmt.Errorf("firebase temporarily unavailable: %w", err), errFirebaseTransient)
	}
	return raw, err
}

func (c *Client) execute(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", document.ErrRejected, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %s", errFirebaseTransient, method, path, c.sanitize(err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errFirebaseTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %s %s status=%d body=%s", errFirebaseTransient, method, path, resp.StatusCode, abbreviateBody(raw))
	}
	c.logger.WarnContext(ctx, "firebase rejected request", "method", method, "path", path, "status", resp.StatusCode)
	return nil, fmt.Errorf("%w: %s %s status=%d body=%s", document.ErrRejected, method, path, resp.StatusCode, abbreviateBody(raw))
}

func (c *Client) endpoint(path string) string {
	parts := jsontree.Split(path)
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}

	full := c.baseURL + "/" + strings.Join(parts, "/") + ".json"
	if c.token != "" {
		full += "?" + url.Values{"auth": {c.token}}.Encode()
	}
	return full
}

func (c *Client) sanitize(value string) string {
	if c.token != "" {
		value = strings.ReplaceAll(value, c.token, "REDACTED")
	}
	return authParamRegex.ReplaceAllString(value, "auth=REDACTED")
}

func isFirebaseCircuitFailure(err error) bool {
	return stderrors.Is(err, errFirebaseTransient)
}

// IsTransient reports whether a retry may succeed.
func IsTransient(err error) bool {
	return crerr.Is(err, errFirebaseTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	return text
}
