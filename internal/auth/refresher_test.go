package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRefresherSendsRefreshGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"a","refresh_token":"r","expires_at":1700000000,"expires_in":21600}`))
	}))
	defer srv.Close()

	r := NewHTTPRefresher(srv.Client(), srv.URL, "client", "secret")
	set, err := r.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	require.Equal(t, TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Unix(1700000000, 0).UTC()}, set)
}

func TestHTTPRefresherRejectsPartialResponses(t *testing.T) {
	bodies := []string{
		`{"response":"bad response"}`,
		`{"access_token":"a","expires_at":1700000000}`,
		`{"access_token":"a","refresh_token":"r"}`,
		`not json`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewHTTPRefresher(srv.Client(), srv.URL, "c", "s").Refresh(context.Background(), "rt")
		require.ErrorIs(t, err, ErrMalformedToken, body)
		srv.Close()
	}
}

func TestHTTPRefresherSurfacesRejectedGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Bad Request"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPRefresher(srv.Client(), srv.URL, "c", "s").Refresh(context.Background(), "rt")
	require.Error(t, err)
}
