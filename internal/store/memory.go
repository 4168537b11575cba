package store

import (
	"context"
	"sync"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// MemoryStore is a concurrency-safe in-memory implementation of athlete.Store.
// It also implements athlete.Locker with one mutex per athlete.
type MemoryStore struct {
	mu sync.RWMutex

	// key: athlete id
	credentials map[int64]athlete.Credentials
	preferences map[int64]athlete.Preferences

	locks KeyedLocker
}

var (
	_ athlete.Store  = (*MemoryStore)(nil)
	_ athlete.Locker = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[int64]athlete.Credentials),
		preferences: make(map[int64]athlete.Preferences),
	}
}

// GetCredentials returns the stored credentials for userID.
func (s *MemoryStore) GetCredentials(_ context.Context, userID int64) (athlete.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credentials[userID]
	if !ok {
		return athlete.Credentials{}, athlete.ErrNotFound
	}
	return c, nil
}

// PutCredentials upserts c unless the stored access token is unchanged.
func (s *MemoryStore) PutCredentials(_ context.Context, c athlete.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.credentials[c.UserID]; ok && existing.AccessToken == c.AccessToken {
		return nil
	}
	s.credentials[c.UserID] = c
	return nil
}

// Delete removes both credentials and preferences for userID.
func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.credentials, userID)
	delete(s.preferences, userID)
	return nil
}

// GetPreferences returns stored preferences or the defaults.
func (s *MemoryStore) GetPreferences(_ context.Context, userID int64) (athlete.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.preferences[userID]; ok {
		return p, nil
	}
	return athlete.DefaultPreferences(userID), nil
}

// PutPreferences stores p. Default preferences are never materialized.
func (s *MemoryStore) PutPreferences(_ context.Context, p athlete.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IsDefault() {
		delete(s.preferences, p.UserID)
		return nil
	}
	s.preferences[p.UserID] = p
	return nil
}

// Lock acquires the per-athlete lock.
func (s *MemoryStore) Lock(ctx context.Context, userID int64) (func(), error) {
	return s.locks.Lock(ctx, userID)
}
