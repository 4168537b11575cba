// Package httpx executes outbound upstream calls behind a circuit breaker.
// Calls are never retried here; at-least-once webhook redelivery is the
// recovery path.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// MaxBodyBytes bounds how much of an upstream response is read.
const MaxBodyBytes = 1 << 20

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	errNoHTTPClient     = errors.New("http client not configured")
	errUnexpectedResult = errors.New("unexpected result type from circuit breaker")
)

// Doer is the subset of *http.Client used by upstream clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewBreaker returns a circuit breaker with the settings used for every upstream.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do sends req through cb and returns the body of a 2xx response. Non-2xx
// responses are returned as errors wrapping one of the exported sentinels;
// 4xx responses do not trip the breaker.
func Do(ctx context.Context, client Doer, cb *gobreaker.CircuitBreaker, req *http.Request) (*Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	var clientErr error
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("read body: %w", readErr)
		}

		// Handle rate limiting and server errors explicitly.
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			// The upstream is healthy, the request was not; keep the breaker closed.
			clientErr = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
			return nil, nil
		}

		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	})

	if err != nil {
		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	if clientErr != nil {
		return nil, clientErr
	}

	resp, ok := result.(*Response)
	if !ok {
		return nil, errUnexpectedResult
	}
	return resp, nil
}
