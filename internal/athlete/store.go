package athlete

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no credentials are stored for an athlete.
var ErrNotFound = errors.New("athlete not found")

// Store is the contract every credential store (in-memory, Postgres) must satisfy.
type Store interface {
	// GetCredentials returns ErrNotFound when the athlete has not authorized the app.
	GetCredentials(ctx context.Context, userID int64) (Credentials, error)
	// PutCredentials upserts by UserID. It is a no-op when the stored access
	// token equals c.AccessToken.
	PutCredentials(ctx context.Context, c Credentials) error
	// Delete removes credentials and preferences for userID.
	Delete(ctx context.Context, userID int64) error

	// GetPreferences returns DefaultPreferences when nothing is stored.
	GetPreferences(ctx context.Context, userID int64) (Preferences, error)
	// PutPreferences stores p, or removes the row when p equals the defaults.
	PutPreferences(ctx context.Context, p Preferences) error
}

// Locker serializes read-modify-write sequences on a single athlete's
// credentials. Different athletes never contend.
type Locker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}
