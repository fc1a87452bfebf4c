package server

import (
	"sync"
	"testing"
)

func TestConnectionLimiter(t *testing.T) {
	t.Run("acquire up to max", func(t *testing.T) {
		limiter := NewConnectionLimiter(2)

		if !limiter.TryAcquire() {
			t.Error("first acquire should succeed")
		}
		if !limiter.TryAcquire() {
			t.Error("second acquire should succeed")
		}
		if limiter.TryAcquire() {
			t.Error("third acquire should fail at capacity")
		}
		if got := limiter.Current(); got != 2 {
			t.Errorf("Current() = %d, want 2", got)
		}
	})

	t.Run("release frees a slot", func(t *testing.T) {
		limiter := NewConnectionLimiter(1)

		if !limiter.TryAcquire() {
			t.Fatal("acquire should succeed")
		}
		if limiter.TryAcquire() {
			t.Error("acquire at capacity should fail")
		}

		limiter.Release()
		if !limiter.TryAcquire() {
			t.Error("acquire after release should succeed")
		}
	})

	t.Run("zero max refuses everything", func(t *testing.T) {
		limiter := NewConnectionLimiter(0)
		if limiter.TryAcquire() {
			t.Error("limiter with max 0 should refuse")
		}
	})
}

func TestConnectionLimiterConcurrent(t *testing.T) {
	const max = 10
	const workers = 100

	limiter := NewConnectionLimiter(max)

	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- limiter.TryAcquire()
		}()
	}
	wg.Wait()
	close(results)

	acquired := 0
	for ok := range results {
		if ok {
			acquired++
		}
	}
	if acquired != max {
		t.Errorf("acquired = %d, want exactly %d", acquired, max)
	}
	if got := limiter.Current(); got != max {
		t.Errorf("Current() = %d, want %d", got, max)
	}
}
