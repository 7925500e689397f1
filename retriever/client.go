package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Client performs GET requests with a fixed number of attempts and a fixed
// delay between them. The circuit breaker counts whole requests, so it only
// opens after tripFailures requests in a row have exhausted their attempts.
type Client struct {
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxRetries int
	retryDelay time.Duration
	sleepFn    func(context.Context, time.Duration) error
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleepFunc overrides the wait between attempts. Tests use it to avoid
// real delays.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(c *Client) {
		c.sleepFn = func(ctx context.Context, d time.Duration) error {
			fn(d)
			return ctx.Err()
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient builds a client making at most maxRetries attempts per request.
func NewClient(maxRetries int, retryDelay time.Duration, opts ...Option) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	c := &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleepFn:    sleepCtx,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "retriever")
	c.breaker = newBreaker(c.log)
	return c
}

// tripFailures is the number of consecutive failed requests, each with its
// retries exhausted, that opens the breaker.
const tripFailures = 10

func newBreaker(log *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "prediction-analyzer",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Get fetches url and returns the body. An empty body is not an error. Each
// call makes up to maxRetries attempts against the server; while the breaker
// is open Get fails at once without sending anything.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.getWithRetry(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("not fetching %s: %w", url, err)
	}
	return body, err
}

func (c *Client) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.log.Debug("fetching", "url", url, "attempt", attempt)
		body, err := c.fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.log.Warn("fetch failed", "url", url, "attempt", attempt, "err", err)
		if attempt < c.maxRetries {
			if err := c.sleepFn(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("giving up on %s after %d attempts: %w", url, c.maxRetries, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
