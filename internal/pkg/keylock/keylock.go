// Package keylock serializes work per integer key inside one process.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker hands out one lock per key. Entries are dropped once nobody holds or
// waits for them, so the map only grows with concurrently active keys.
type Locker struct {
	mu      sync.Mutex
	entries map[int]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[int]*entry)}
}

// Lock blocks until the key is free or ctx is done. The returned func
// releases the lock and must be called exactly once.
func (l *Locker) Lock(ctx context.Context, key int) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *Locker) release(key int, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len returns the number of keys currently held or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
