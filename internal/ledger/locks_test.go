package ledger

import (
	"sync"
	"testing"
	"time"
)

func TestLocksOpposingOrderDoNotDeadlock(t *testing.T) {
	var l accountLocks
	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 500; i++ {
			wg.Add(2)
			go func() { defer wg.Done(); l.lock(1, 2)() }()
			go func() { defer wg.Done(); l.lock(2, 1)() }()
		}
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock between opposing lock orders")
	}
}

func TestLocksSameStripeTakenOnce(t *testing.T) {
	var l accountLocks
	unlock := l.lock(3, 3+lockStripes)
	unlock()
	unlockAll := l.lockAll()
	unlockAll()
}

func TestMonotonicClock(t *testing.T) {
	var c monotonicClock
	prev := c.now()
	for i := 0; i < 1000; i++ {
		next := c.now()
		if next.Before(prev) {
			t.Fatalf("clock went backwards: %v < %v", next, prev)
		}
		prev = next
	}
}
