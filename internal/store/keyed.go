package store

import (
	"context"
	"sync"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// KeyedLocker is an in-process athlete.Locker. The zero value is ready to use.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[int64]*keyedSlot
}

type keyedSlot struct {
	ch   chan struct{}
	refs int
}

var _ athlete.Locker = (*KeyedLocker)(nil)

// Lock blocks until the lock for userID is free or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[int64]*keyedSlot)
	}
	slot, ok := l.slots[userID]
	if !ok {
		slot = &keyedSlot{ch: make(chan struct{}, 1)}
		l.slots[userID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(userID, slot)
		})
	}, nil
}

func (l *KeyedLocker) release(userID int64, slot *keyedSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, userID)
	}
}
