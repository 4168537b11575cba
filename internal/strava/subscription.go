package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/httpx"
)

// SubscriptionChecker queries the push subscription endpoint.
type SubscriptionChecker struct {
	http         httpx.Doer
	url          string
	clientID     string
	clientSecret string
	circuit      *gobreaker.CircuitBreaker
}

// NewSubscriptionChecker constructs a SubscriptionChecker.
func NewSubscriptionChecker(client httpx.Doer, baseURL, clientID, clientSecret string) *SubscriptionChecker {
	return &SubscriptionChecker{
		http:         client,
		url:          strings.TrimRight(baseURL, "/") + "/push_subscriptions",
		clientID:     clientID,
		clientSecret: clientSecret,
		circuit:      httpx.NewBreaker("strava-subscriptions"),
	}
}

// IsSubscribed reports whether the app has an active push subscription. An
// unreadable answer counts as not subscribed; only transport failures error.
func (s *SubscriptionChecker) IsSubscribed(ctx context.Context) (bool, error) {
	values := url.Values{}
	values.Set("client_id", s.clientID)
	values.Set("client_secret", s.clientSecret)

	req, err := http.NewRequest(http.MethodGet, s.url+"?"+values.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := httpx.Do(ctx, s.http, s.circuit, req)
	if err != nil {
		return false, err
	}

	var subs []map[string]any
	if err := json.Unmarshal(resp.Body, &subs); err != nil || len(subs) == 0 {
		return false, nil
	}
	_, ok := subs[0]["id"]
	return ok, nil
}
