package engine

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// threadLocks maps thread IDs to their run-in-flight markers. A marker is
// created on first use and kept for the process lifetime; thread-ID
// cardinality in real usage makes the unbounded growth acceptable.
//
// All methods are safe for concurrent access.
type threadLocks struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newThreadLocks() *threadLocks {
	return &threadLocks{
		sems: make(map[string]*semaphore.Weighted),
	}
}

// get returns the marker for the given thread, creating it on first use.
func (l *threadLocks) get(threadID string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[threadID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[threadID] = sem
	}
	return sem
}
