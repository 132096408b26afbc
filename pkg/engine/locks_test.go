package engine

import (
	"sync"
	"testing"
)

func TestThreadLocksSameThreadSameMarker(t *testing.T) {
	l := newThreadLocks()

	a := l.get("thread_1")
	b := l.get("thread_1")
	if a != b {
		t.Error("same thread ID must map to the same marker")
	}
}

func TestThreadLocksDifferentThreadsIndependent(t *testing.T) {
	l := newThreadLocks()

	a := l.get("thread_a")
	b := l.get("thread_b")
	if a == b {
		t.Fatal("different threads must not share a marker")
	}

	if !a.TryAcquire(1) {
		t.Fatal("fresh marker should be acquirable")
	}
	defer a.Release(1)

	if !b.TryAcquire(1) {
		t.Error("holding thread_a must not block thread_b")
	} else {
		b.Release(1)
	}
}

func TestThreadLocksMutualExclusion(t *testing.T) {
	l := newThreadLocks()
	sem := l.get("thread_1")

	if !sem.TryAcquire(1) {
		t.Fatal("first acquire should succeed")
	}
	if sem.TryAcquire(1) {
		t.Fatal("second acquire should fail while held")
	}
	sem.Release(1)
	if !sem.TryAcquire(1) {
		t.Error("marker should be acquirable again after release")
	} else {
		sem.Release(1)
	}
}

func TestThreadLocksConcurrentGet(t *testing.T) {
	l := newThreadLocks()
	const goroutines = 50

	markers := make([]any, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			markers[i] = l.get("thread_shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if markers[i] != markers[0] {
			t.Fatalf("goroutine %d got a different marker", i)
		}
	}
}
