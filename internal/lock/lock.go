package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when the key is already held.
var ErrNotAcquired = errors.New("lock is already held")

// Locker hands out exclusive, expiring locks by key. Acquire does not wait:
// a held key fails immediately with ErrNotAcquired.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Wait retries Acquire every interval until the key is free or ctx is done.
func Wait(ctx context.Context, l Locker, key string, ttl, interval time.Duration) (func(), error) {
	for {
		release, err := l.Acquire(ctx, key, ttl)
		if !errors.Is(err, ErrNotAcquired) {
			return release, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// MemoryLocker is a process-local Locker for single-instance deployments.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.held[key]; ok && now.Before(expires) {
		return nil, ErrNotAcquired
	}
	expires := now.Add(ttl)
	m.held[key] = expires

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			// a later holder may own the key after expiry
			if m.held[key].Equal(expires) {
				delete(m.held, key)
			}
		})
	}, nil
}
