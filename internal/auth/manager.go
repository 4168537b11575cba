package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/athlete"
	"github.com/i474232898/activity-weather/internal/observability"
)

// DefaultExpiryMargin is how long before expiry a token is already treated as stale.
const DefaultExpiryMargin = time.Minute

// Manager hands out credentials that are valid for immediate use,
// refreshing them on demand.
type Manager struct {
	store     athlete.Store
	locker    athlete.Locker
	refresher Refresher
	margin    time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithExpiryMargin overrides DefaultExpiryMargin.
func WithExpiryMargin(d time.Duration) Option {
	return func(m *Manager) { m.margin = d }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager constructs a Manager. locker serializes refreshes per athlete.
func NewManager(store athlete.Store, locker athlete.Locker, refresher Refresher, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		locker:    locker,
		refresher: refresher,
		margin:    DefaultExpiryMargin,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid returns credentials for userID that can be used right away.
// A still-valid record is returned after a single store read without taking
// the athlete lock; otherwise the lock is held while the record is re-read,
// refreshed once and persisted.
// On failure the stored record is not modified and an *AuthError is returned.
func (m *Manager) EnsureValid(ctx context.Context, userID int64) (athlete.Credentials, error) {
	current, err := m.load(ctx, userID)
	if err != nil {
		return athlete.Credentials{}, err
	}
	if current.ValidAt(m.now(), m.margin) {
		return current, nil
	}

	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return athlete.Credentials{}, &AuthError{UserID: userID, Err: fmt.Errorf("lock: %w", err)}
	}
	defer unlock()

	// Another holder may have refreshed while we waited.
	current, err = m.load(ctx, userID)
	if err != nil {
		return athlete.Credentials{}, err
	}
	if current.ValidAt(m.now(), m.margin) {
		return current, nil
	}

	set, err := m.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		observability.RecordTokenRefresh(false)
		return athlete.Credentials{}, &AuthError{UserID: userID, Err: err}
	}
	if !set.ExpiresAt.After(current.ExpiresAt) {
		observability.RecordTokenRefresh(false)
		return athlete.Credentials{}, &AuthError{
			UserID: userID,
			Err:    fmt.Errorf("%w: expires_at did not advance", ErrMalformedToken),
		}
	}

	refreshed := athlete.Credentials{
		UserID:       userID,
		AccessToken:  set.AccessToken,
		RefreshToken: set.RefreshToken,
		ExpiresAt:    set.ExpiresAt,
	}
	if err := m.store.PutCredentials(ctx, refreshed); err != nil {
		observability.RecordTokenRefresh(false)
		return athlete.Credentials{}, &AuthError{UserID: userID, Err: fmt.Errorf("persist refreshed credentials: %w", err)}
	}

	observability.RecordTokenRefresh(true)
	m.logger.Info("access token refreshed",
		zap.Int64("athlete_id", userID),
		zap.Time("expires_at", refreshed.ExpiresAt),
	)
	return refreshed, nil
}

func (m *Manager) load(ctx context.Context, userID int64) (athlete.Credentials, error) {
	c, err := m.store.GetCredentials(ctx, userID)
	if err != nil {
		if errors.Is(err, athlete.ErrNotFound) {
			return athlete.Credentials{}, &AuthError{UserID: userID, Err: ErrNoCredentials}
		}
		return athlete.Credentials{}, &AuthError{UserID: userID, Err: err}
	}
	return c, nil
}
