package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = int64(8 * 1024 * 1024)

var (
	// ErrSemantic marks a well-formed response carrying an application-level
	// failure indicator.
	ErrSemantic = errors.New("upstream reported failure")
	// ErrMalformed marks a response body that is not valid JSON.
	ErrMalformed = errors.New("malformed response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP status %d", e.URL, e.Code)
}

// Temporary reports whether retrying the request could succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

type Config struct {
	Timeout        time.Duration
	Attempts       uint
	RetryDelay     time.Duration
	MaxPermits     int
	RefillInterval time.Duration
	UserAgent      string
	Logger         *slog.Logger
}

// Client performs rate-limited GET requests with bounded retries for
// transient failures.
type Client struct {
	client      *http.Client
	rateLimiter *rateLimiter
	attempts    uint
	retryDelay  time.Duration
	userAgent   string
	logger      *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxPermits == 0 {
		cfg.MaxPermits = 10
	}
	if cfg.RefillInterval == 0 {
		cfg.RefillInterval = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "portfolioCache/1.0"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: newRateLimiter(cfg.MaxPermits, cfg.RefillInterval),
		attempts:    cfg.Attempts,
		retryDelay:  cfg.RetryDelay,
		userAgent:   cfg.UserAgent,
		logger:      cfg.Logger,
	}
}

// Get fetches url and returns the body. bearer is sent as an Authorization
// header when non-empty.
func (c *Client) Get(ctx context.Context, url, bearer string) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			return c.get(ctx, url, bearer)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying upstream request", "url", url, "attempt", n+1, "err", err)
		}),
	)
}

func (c *Client) get(ctx context.Context, url, bearer string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("rate limiter error: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{URL: url, Code: resp.StatusCode}
		if statusErr.Temporary() {
			return nil, statusErr
		}
		return nil, retry.Unrecoverable(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// GetJSON fetches url and unwraps the result with Unwrap.
func (c *Client) GetJSON(ctx context.Context, url, bearer string) (gjson.Result, error) {
	body, err := c.Get(ctx, url, bearer)
	if err != nil {
		return gjson.Result{}, err
	}
	return Unwrap(body)
}

// Unwrap validates body and strips a {success, data, error} envelope when
// present. A false success flag yields ErrSemantic.
func Unwrap(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, ErrMalformed
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return doc, nil
	}

	success := doc.Get("success")
	if !success.Exists() {
		return doc, nil
	}
	if !success.Bool() {
		msg := doc.Get("error").String()
		if msg == "" {
			msg = "no error message"
		}
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrSemantic, msg)
	}
	return doc.Get("data"), nil
}
