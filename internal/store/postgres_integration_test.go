//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/i474232898/activity-weather/internal/athlete"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("weather"),
		postgrescontainer.WithUsername("weather"),
		postgrescontainer.WithPassword("weather"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPostgresStore(pool)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestPostgresStoreCredentials(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)

	_, err := s.GetCredentials(ctx, 1)
	require.ErrorIs(t, err, athlete.ErrNotFound)

	c := athlete.Credentials{UserID: 1, AccessToken: "at", RefreshToken: "rt", ExpiresAt: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, s.PutCredentials(ctx, c))

	got, err := s.GetCredentials(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, c, got)

	unchanged := c
	unchanged.RefreshToken = "ignored"
	require.NoError(t, s.PutCredentials(ctx, unchanged))
	got, err = s.GetCredentials(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "rt", got.RefreshToken)

	refreshed := athlete.Credentials{UserID: 1, AccessToken: "at2", RefreshToken: "rt2", ExpiresAt: time.Unix(1700003600, 0).UTC()}
	require.NoError(t, s.PutCredentials(ctx, refreshed))
	got, err = s.GetCredentials(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, refreshed, got)
}

func TestPostgresStorePreferencesAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newPostgresStore(t)

	require.NoError(t, s.PutPreferences(ctx, athlete.DefaultPreferences(2)))
	var rows int
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT count(*) FROM settings`).Scan(&rows))
	require.Zero(t, rows)

	p := athlete.DefaultPreferences(2)
	p.ShowIcon = true
	p.Units = athlete.UnitsImperial
	require.NoError(t, s.PutPreferences(ctx, p))
	got, err := s.GetPreferences(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, p, got)

	require.NoError(t, s.PutCredentials(ctx, athlete.Credentials{UserID: 2, AccessToken: "x", RefreshToken: "y", ExpiresAt: time.Unix(1, 0).UTC()}))
	require.NoError(t, s.Delete(ctx, 2))

	_, err = s.GetCredentials(ctx, 2)
	require.ErrorIs(t, err, athlete.ErrNotFound)
	got, err = s.GetPreferences(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, athlete.DefaultPreferences(2), got)
}
