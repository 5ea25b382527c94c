package syncer

import "sync/atomic"

// indexLock provides non-blocking lock semantics using atomic operations.
// It serializes in-process sync attempts; the flock on the state directory
// covers other processes.
type indexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *indexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *indexLock) Release() {
	l.state.Store(0)
}
