package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/activity-weather/internal/httpx"
)

var (
	errMissingAPIKey = errors.New("api key is not configured")
	errMissingData   = errors.New("response lacks required fields")
	errNoSample      = errors.New("no sample for requested instant")
)

// getJSON issues a GET to base?query and decodes the body into out.
func getJSON(ctx context.Context, client httpx.Doer, cb *gobreaker.CircuitBreaker, base string, query url.Values, out any) error {
	u := fmt.Sprintf("%s?%s", base, query.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpx.Do(ctx, client, cb, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
