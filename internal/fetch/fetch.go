// Package fetch provides the retrying HTTP client the crawler is built on.
// Every outbound request in the system goes through Client.Get.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the per-attempt HTTP request timeout.
const DefaultTimeout = 45 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultRetryCount is the total number of attempts per request.
const DefaultRetryCount = 3

// DefaultRetryDelay is the fixed part of the wait between attempts; a random
// jitter of up to maxJitter is added so concurrent callers don't re-fire in
// lockstep.
const DefaultRetryDelay = 2 * time.Second

const maxJitter = time.Second

// Error represents a failed fetch. Unreachable is set once the retry budget
// is exhausted; the caller decides whether that degrades the item or the run.
type Error struct {
	URL         string
	Message     string
	Cause       error
	Unreachable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	RetryCount int
	RetryDelay time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		RetryCount: DefaultRetryCount,
		RetryDelay: DefaultRetryDelay,
	}
}

// Client issues GET requests with uniform headers and a bounded retry
// policy. It is safe for concurrent use.
type Client struct {
	http *http.Client
	opts *Options
	log  *zap.SugaredLogger
}

// NewClient creates a fetch client. A nil opts uses DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = DefaultRetryCount
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
		log:  zap.S().Named("fetch"),
	}
}

// Get retrieves a URL, retrying transport errors and non-2xx responses up to
// the retry budget. Between attempts it waits RetryDelay plus jitter. Once
// the budget is exhausted it returns an *Error with Unreachable set; requests
// are never retried indefinitely.
func (c *Client) Get(ctx context.Context, urlStr string, headers map[string]string) ([]byte, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryCount; attempt++ {
		body, err := c.attempt(ctx, urlStr, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.log.Warnf("attempt %d/%d failed for %s: %v", attempt, c.opts.RetryCount, urlStr, err)

		if attempt == c.opts.RetryCount {
			break
		}
		if err := sleep(ctx, c.opts.RetryDelay+rand.N(maxJitter)); err != nil {
			return nil, &Error{URL: urlStr, Message: "canceled during backoff", Cause: err, Unreachable: true}
		}
	}

	return nil, &Error{
		URL:         urlStr,
		Message:     fmt.Sprintf("unreachable after %d attempts", c.opts.RetryCount),
		Cause:       lastErr,
		Unreachable: true,
	}
}

// attempt performs a single GET and returns the body on a 2xx response.
func (c *Client) attempt(ctx context.Context, urlStr string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return body, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
