// Package lock provides per-key mutual exclusion.
package lock

import (
	"context"
	"sync"
)

// Keyed serializes work per key. Entries are reference counted and removed
// once no goroutine holds or waits on them, so the map does not grow with
// the key space.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

// entry is a one-slot semaphore; a channel lets waiters give up.
type entry struct {
	sem  chan struct{}
	refs int
}

func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{locks: make(map[K]*entry)}
}

// Lock acquires the lock for key and returns its release function.
func (k *Keyed[K]) Lock(key K) (unlock func()) {
	unlock, _ = k.LockContext(context.Background(), key)
	return unlock
}

// LockContext is Lock that stops waiting when ctx is done and returns
// ctx.Err(). On error nothing is held and unlock is nil.
func (k *Keyed[K]) LockContext(ctx context.Context, key K) (unlock func(), err error) {
	e := k.acquireEntry(key)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	return func() {
		<-e.sem
		k.releaseEntry(key, e)
	}, nil
}

func (k *Keyed[K]) acquireEntry(key K) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed[K]) releaseEntry(key K, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
