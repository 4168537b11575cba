package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS subscribers (
    id            BIGINT PRIMARY KEY,
    access_token  TEXT   NOT NULL,
    refresh_token TEXT   NOT NULL,
    expires_at    BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    id    BIGINT  PRIMARY KEY,
    icon  BOOLEAN NOT NULL,
    hum   BOOLEAN NOT NULL,
    wind  BOOLEAN NOT NULL,
    aqi   BOOLEAN NOT NULL,
    lan   TEXT    NOT NULL,
    units TEXT    NOT NULL
);
`

// PostgresStore persists athletes in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ athlete.Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies Schema. It is safe to run on every start.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCredentials(ctx context.Context, userID int64) (athlete.Credentials, error) {
	const query = `SELECT id, access_token, refresh_token, expires_at FROM subscribers WHERE id = $1`

	var (
		c         athlete.Credentials
		expiresAt int64
	)
	err := s.pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return athlete.Credentials{}, athlete.ErrNotFound
		}
		return athlete.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	c.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return c, nil
}

func (s *PostgresStore) PutCredentials(ctx context.Context, c athlete.Credentials) error {
	const query = `INSERT INTO subscribers (id, access_token, refresh_token, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET access_token = EXCLUDED.access_token,
            refresh_token = EXCLUDED.refresh_token,
            expires_at = EXCLUDED.expires_at
        WHERE subscribers.access_token <> EXCLUDED.access_token`

	if _, err := s.pool.Exec(ctx, query, c.UserID, c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID int64) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM subscribers WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM settings WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetPreferences(ctx context.Context, userID int64) (athlete.Preferences, error) {
	const query = `SELECT id, icon, hum, wind, aqi, lan, units FROM settings WHERE id = $1`

	var (
		p          athlete.Preferences
		lan, units string
	)
	err := s.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.ShowIcon, &p.ShowHumidity, &p.ShowWind, &p.ShowAirQuality, &lan, &units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return athlete.DefaultPreferences(userID), nil
		}
		return athlete.Preferences{}, fmt.Errorf("load settings: %w", err)
	}
	p.Language = athlete.ParseLanguage(lan)
	p.Units = athlete.ParseUnits(units)
	return p, nil
}

func (s *PostgresStore) PutPreferences(ctx context.Context, p athlete.Preferences) error {
	if p.IsDefault() {
		if _, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE id = $1`, p.UserID); err != nil {
			return fmt.Errorf("reset settings: %w", err)
		}
		return nil
	}

	const query = `INSERT INTO settings (id, icon, hum, wind, aqi, lan, units)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE
        SET icon = EXCLUDED.icon, hum = EXCLUDED.hum, wind = EXCLUDED.wind,
            aqi = EXCLUDED.aqi, lan = EXCLUDED.lan, units = EXCLUDED.units`

	_, err := s.pool.Exec(ctx, query, p.UserID, p.ShowIcon, p.ShowHumidity, p.ShowWind, p.ShowAirQuality, string(p.Language), string(p.Units))
	if err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}
