package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/httpx"
)

// TokenSet is what the authorization server returns from a token exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher exchanges a refresh token for a new TokenSet.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenSet, error)
}

// HTTPRefresher calls the OAuth token endpoint with grant_type=refresh_token.
type HTTPRefresher struct {
	client       httpx.Doer
	tokenURL     string
	clientID     string
	clientSecret string
	circuit      *gobreaker.CircuitBreaker
}

// NewHTTPRefresher constructs an HTTPRefresher.
func NewHTTPRefresher(client httpx.Doer, tokenURL, clientID, clientSecret string) *HTTPRefresher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRefresher{
		client:       client,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		circuit:      httpx.NewBreaker("oauth"),
	}
}

// Refresh performs a single refresh exchange. Any response missing one of
// access_token, refresh_token or expires_at yields ErrMalformedToken.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	data := url.Values{}
	data.Set("client_id", r.clientID)
	data.Set("client_secret", r.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequest(http.MethodPost, r.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return TokenSet{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpx.Do(ctx, r.client, r.circuit, req)
	if err != nil {
		return TokenSet{}, fmt.Errorf("refresh request: %w", err)
	}
	return parseTokenSet(resp.Body)
}

func parseTokenSet(body []byte) (TokenSet, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return TokenSet{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	set := TokenSet{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
	}
	if exp := int64Value(raw["expires_at"]); exp > 0 {
		set.ExpiresAt = time.Unix(exp, 0).UTC()
	}

	switch {
	case set.AccessToken == "":
		return TokenSet{}, fmt.Errorf("%w: access_token missing", ErrMalformedToken)
	case set.RefreshToken == "":
		return TokenSet{}, fmt.Errorf("%w: refresh_token missing", ErrMalformedToken)
	case set.ExpiresAt.IsZero():
		return TokenSet{}, fmt.Errorf("%w: expires_at missing", ErrMalformedToken)
	}
	return set, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
