package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"cinema-booking-cli/model"
	"cinema-booking-cli/session"
)

const (
	defaultUserAgent   = "cinema-booking-cli"
	defaultTimeout     = 12 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	errorSnippetLimit  = 8 << 10
)

// Client wraps HTTP access to the cinema backend REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	saveTokens  func(model.TokenPair)
}

type Option func(*Client)

// WithMaxAttempts bounds attempts for idempotent requests.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// WithRetryBackoff overrides the exponential backoff bounds.
func WithRetryBackoff(base, cap time.Duration) Option {
	return func(c *Client) {
		c.retryBase = base
		c.retryCap = cap
	}
}

// WithTokenSaver registers a hook called after a successful token refresh.
func WithTokenSaver(fn func(model.TokenPair)) Option {
	return func(c *Client) {
		c.saveTokens = fn
	}
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "cinema api error"
	}
	return fmt.Sprintf("cinema api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the error represents a 401 from the API.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsConflict reports whether the API rejected the request because of state
// it holds: a 400 validation failure or a 409.
func IsConflict(err error) bool {
	code := StatusCode(err)
	return code == http.StatusBadRequest || code == http.StatusConflict
}

// StatusCode returns the HTTP status carried by an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// NewClient creates a new API client. If httpClient is nil, a default client is used.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, sess *session.Session, path string, out any) error {
	return c.doJSON(ctx, sess, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, sess *session.Session, path string, body any, out any) error {
	return c.doJSON(ctx, sess, http.MethodPost, path, body, out)
}

// doJSON sends a request and decodes a JSON response. A 401 triggers at most
// one token refresh followed by one replay of the request.
func (c *Client) doJSON(ctx context.Context, sess *session.Session, method string, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	err := c.send(ctx, sess, method, path, payload, out)
	if !IsUnauthorized(err) || !sess.CanRefresh() {
		return err
	}
	if refreshErr := c.refresh(ctx, sess); refreshErr != nil {
		return err
	}
	return c.send(ctx, sess, method, path, payload, out)
}

func (c *Client) send(ctx context.Context, sess *session.Session, method string, path string, payload []byte, out any) error {
	endpoint := c.baseURL + path

	maxAttempts := c.maxAttempts
	if maxAttempts < 1 || method != http.MethodGet {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := sess.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, errorSnippetLimit))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
			return nil
		}
		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) refresh(ctx context.Context, sess *session.Session) error {
	var out model.TokenPair
	body, err := json.Marshal(map[string]string{"refresh": sess.RefreshToken()})
	if err != nil {
		return err
	}
	if err := c.send(ctx, nil, http.MethodPost, "/auth/refresh/", body, &out); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	if strings.TrimSpace(out.Access) == "" {
		return errors.New("refresh session: empty access token")
	}
	sess.SetAccess(out.Access)
	if c.saveTokens != nil {
		c.saveTokens(sess.Tokens())
	}
	return nil
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
