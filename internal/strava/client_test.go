package strava

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/activity-weather/internal/athlete"
)

type staticTokens struct {
	creds athlete.Credentials
	err   error
}

func (s staticTokens) EnsureValid(_ context.Context, userID int64) (athlete.Credentials, error) {
	return s.creds, s.err
}

func newTestFactory(srv *httptest.Server) *Factory {
	tokens := staticTokens{creds: athlete.Credentials{UserID: 1, AccessToken: "access_token_1", ExpiresAt: time.Now().Add(time.Hour)}}
	return NewFactory(tokens, srv.Client(), srv.URL+"/api/v3/")
}

func TestFetchActivity(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v3/activities/10", r.URL.Path)
		assert.Equal(t, "Bearer access_token_1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": 10,
			"name": "Morning Run",
			"description": null,
			"manual": false,
			"trainer": false,
			"type": "Run",
			"start_date": "2024-05-04T06:00:00Z",
			"elapsed_time": 3600,
			"start_latlng": [55.75, 37.61]
		}`))
	}))
	defer srv.Close()

	client, err := newTestFactory(srv).New(context.Background(), 1, 10)
	require.NoError(t, err)

	activity, err := client.FetchActivity(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, int64(10), activity.ID)
	require.Equal(t, "Morning Run", activity.Name)
	require.Nil(t, activity.Description)
	require.Equal(t, int64(3600), activity.ElapsedTime)

	lat, lon, ok := activity.StartLocation()
	require.True(t, ok)
	require.Equal(t, 55.75, lat)
	require.Equal(t, 37.61, lon)
}

func TestFetchActivityFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty body":     {http.StatusOK, ``},
		"not json":       {http.StatusOK, `<html>`},
		"missing id":     {http.StatusOK, `{"athlete_id": 1}`},
		"not found":      {http.StatusNotFound, `{"message":"Record Not Found"}`},
		"upstream error": {http.StatusInternalServerError, ``},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := newTestFactory(srv).New(context.Background(), 1, 10)
			require.NoError(t, err)

			_, err = client.FetchActivity(context.Background())
			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			require.Equal(t, "get", upstream.Op)
			require.Equal(t, int64(10), upstream.ActivityID)
		})
	}
}

func TestModifyActivity(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer access_token_1", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test", r.PostForm.Get("description"))
		_, hasName := r.PostForm["name"]
		assert.False(t, hasName)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client, err := newTestFactory(srv).New(context.Background(), 1, 10)
	require.NoError(t, err)

	desc := "test"
	require.NoError(t, client.ModifyActivity(context.Background(), ActivityUpdate{Description: &desc}))
	require.NoError(t, client.ModifyActivity(context.Background(), ActivityUpdate{}))
	require.Equal(t, 1, calls)
}

func TestModifyActivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := newTestFactory(srv).New(context.Background(), 1, 10)
	require.NoError(t, err)

	desc := "test"
	err = client.ModifyActivity(context.Background(), ActivityUpdate{Description: &desc})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "modify", upstream.Op)
}

func TestFactoryPropagatesCredentialErrors(t *testing.T) {
	boom := errors.New("no credentials")
	f := NewFactory(staticTokens{err: boom}, http.DefaultClient, "http://unused")

	_, err := f.New(context.Background(), 1, 2)
	require.ErrorIs(t, err, boom)
}

func TestActivityIndoor(t *testing.T) {
	require.True(t, Activity{Trainer: true}.Indoor())
	require.True(t, Activity{Type: "VirtualRide"}.Indoor())
	require.True(t, Activity{SportType: "VirtualRun"}.Indoor())
	require.False(t, Activity{Type: "Ride"}.Indoor())
}

func TestActivityStartLocation(t *testing.T) {
	_, _, ok := Activity{}.StartLocation()
	require.False(t, ok)
	_, _, ok = Activity{StartLatLng: []float64{}}.StartLocation()
	require.False(t, ok)
	_, _, ok = Activity{StartLatLng: []float64{0, 0}}.StartLocation()
	require.False(t, ok)
	_, _, ok = Activity{StartLatLng: []float64{0, 12.5}}.StartLocation()
	require.True(t, ok)
}
