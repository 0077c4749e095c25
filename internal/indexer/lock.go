package indexer

import "sync/atomic"

// IndexLock admits one indexing run at a time. Callers that lose the race
// get ErrIndexingInProgress instead of queueing behind a long ingest.
type IndexLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the holder may call it.
func (l *IndexLock) Release() {
	l.held.Store(false)
}

// Held reports whether a run currently holds the lock
func (l *IndexLock) Held() bool {
	return l.held.Load()
}

// Busy reports whether an indexing run is in progress
func (idx *Indexer) Busy() bool {
	return idx.lock.Held()
}
