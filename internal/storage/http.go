package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAttempts is the number of tries for a remote fetch.
const DefaultAttempts = 3

// HTTPFetcher downloads images over HTTP(S).
//
// Transport errors and 5xx responses are retried up to Attempts times with
// a growing pause between tries. 4xx responses fail immediately.
type HTTPFetcher struct {
	client   *http.Client
	attempts int
	backoff  func(attempt int) time.Duration
}

// HTTPOption customizes an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithBackoff sets the pause after a failed attempt (0-based).
func WithBackoff(b func(attempt int) time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.backoff = b }
}

// WithAttempts sets the number of tries.
func WithAttempts(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// NewHTTPFetcher creates a fetcher with pooled connections and bounded
// timeouts.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: DefaultAttempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher. The returned body belongs to a 200 response.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt < f.attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
		req.Header.Set("User-Agent", "xray-tools/1.0")

		resp, err := f.client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: client error: status code %d", ErrFetchFailed, resp.StatusCode)
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < f.attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrFetchFailed, f.attempts, lastErr)
}
