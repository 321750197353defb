package oneshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSetOnlyOnce(t *testing.T) {
	c := New[int]()

	if !c.Set(1) {
		t.Fatal("first Set should fulfill the cell")
	}
	if c.Set(2) {
		t.Fatal("second Set should be ignored")
	}

	if v, ok := c.Get(); !ok || v != 1 {
		t.Errorf("Get() = %d, %v; want 1, true", v, ok)
	}
}

func TestGetBeforeSet(t *testing.T) {
	c := New[string]()
	if _, ok := c.Get(); ok {
		t.Error("Get on empty cell reported ok")
	}
	if c.IsSet() {
		t.Error("IsSet on empty cell returned true")
	}
}

func TestManyWaiters(t *testing.T) {
	c := New[int]()

	var wg sync.WaitGroup
	results := make(chan int, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Wait(context.Background())
			if err != nil {
				t.Errorf("Wait returned error: %v", err)
			}
			results <- v
		}()
	}

	time.Sleep(10 * time.Millisecond)
	c.Set(42)
	wg.Wait()
	close(results)

	for v := range results {
		if v != 42 {
			t.Errorf("waiter got %d, want 42", v)
		}
	}
}

func TestWaitContextCancelled(t *testing.T) {
	c := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	c := New[int]()

	start := time.Now()
	if _, ok := c.WaitTimeout(30 * time.Millisecond); ok {
		t.Fatal("WaitTimeout on empty cell reported ok")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("WaitTimeout returned after %v, before the timeout", elapsed)
	}

	c.Set(7)
	if v, ok := c.WaitTimeout(time.Second); !ok || v != 7 {
		t.Errorf("WaitTimeout() = %d, %v; want 7, true", v, ok)
	}
}
