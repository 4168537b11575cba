package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/httpx"
)

// ActivityAPI reads and mutates a single activity on behalf of one athlete.
type ActivityAPI interface {
	FetchActivity(ctx context.Context) (Activity, error)
	ModifyActivity(ctx context.Context, update ActivityUpdate) error
}

// TokenProvider returns credentials valid for immediate use.
type TokenProvider interface {
	EnsureValid(ctx context.Context, userID int64) (athlete.Credentials, error)
}

// Factory builds authenticated Clients. It owns the circuit breaker shared
// by every client talking to the same API.
type Factory struct {
	tokens  TokenProvider
	http    httpx.Doer
	baseURL string
	circuit *gobreaker.CircuitBreaker
}

// NewFactory constructs a Factory. baseURL is the API root, e.g.
// https://www.strava.com/api/v3.
func NewFactory(tokens TokenProvider, client httpx.Doer, baseURL string) *Factory {
	return &Factory{
		tokens:  tokens,
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		circuit: httpx.NewBreaker("strava"),
	}
}

// New ensures valid credentials once and returns a client bound to them.
// Credential failures are returned unchanged (as *auth.AuthError).
func (f *Factory) New(ctx context.Context, userID, activityID int64) (ActivityAPI, error) {
	creds, err := f.tokens.EnsureValid(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:       f.http,
		circuit:    f.circuit,
		url:        f.baseURL + "/activities/" + strconv.FormatInt(activityID, 10),
		userID:     userID,
		activityID: activityID,
		header:     http.Header{"Authorization": []string{"Bearer " + creds.AccessToken}},
	}, nil
}

// Client is the HTTP ActivityAPI. Its headers belong to this instance only.
type Client struct {
	http       httpx.Doer
	circuit    *gobreaker.CircuitBreaker
	url        string
	userID     int64
	activityID int64
	header     http.Header
}

var _ ActivityAPI = (*Client)(nil)

// FetchActivity loads the activity.
func (c *Client) FetchActivity(ctx context.Context) (Activity, error) {
	req, err := http.NewRequest(http.MethodGet, c.url, nil)
	if err != nil {
		return Activity{}, c.fail("get", err)
	}
	c.decorate(req)

	resp, err := httpx.Do(ctx, c.http, c.circuit, req)
	if err != nil {
		return Activity{}, c.fail("get", err)
	}

	var activity Activity
	if err := json.Unmarshal(resp.Body, &activity); err != nil {
		return Activity{}, c.fail("get", fmt.Errorf("decode activity: %w", err))
	}
	if activity.ID == 0 {
		return Activity{}, c.fail("get", ErrMissingFields)
	}
	return activity, nil
}

// ModifyActivity applies update. Any non-2xx answer is an *UpstreamError.
func (c *Client) ModifyActivity(ctx context.Context, update ActivityUpdate) error {
	if update.Empty() {
		return nil
	}

	req, err := http.NewRequest(http.MethodPut, c.url, strings.NewReader(update.form().Encode()))
	if err != nil {
		return c.fail("modify", err)
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := httpx.Do(ctx, c.http, c.circuit, req); err != nil {
		return c.fail("modify", err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
}

func (c *Client) fail(op string, err error) error {
	return &UpstreamError{Op: op, UserID: c.userID, ActivityID: c.activityID, Err: err}
}
