// internal/app/system/keyedlock/keyedlock.go
package keyedlock

import (
	"context"
	"sync"
)

// Locker hands out one mutual-exclusion slot per key. Entries are reference
// counted and removed when the last holder or waiter leaves, so the map only
// holds keys that are in use. It is safe for concurrent use.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

func (l *Locker) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Lock blocks until key is held and returns its unlock function.
func (l *Locker) Lock(key string) func() {
	unlock, _ := l.LockContext(context.Background(), key)
	return unlock
}

// LockContext is Lock with cancellation. On ctx expiry it returns ctx.Err()
// and a nil unlock function.
func (l *Locker) LockContext(ctx context.Context, key string) (func(), error) {
	s := l.acquire(key)
	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

// Len returns the number of keys currently held or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
