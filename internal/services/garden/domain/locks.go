package domain

import "sync"

// plantLocks serializes actions per plant owner so concurrent visitors
// cannot interleave refresh-act-save cycles on the same plant. The map is
// bounded by the number of distinct gardeners seen by this process.
type plantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlantLocks() *plantLocks {
	return &plantLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for ownerID and returns its release function.
func (l *plantLocks) acquire(ownerID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[ownerID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
