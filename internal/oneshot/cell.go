// Package oneshot provides a single-assignment value that any number of
// goroutines can wait on.
package oneshot

import (
	"context"
	"sync"
	"time"
)

// Cell holds a value that is set at most once. Readers block on Done or Wait
// until the value is available and may read it any number of times afterwards.
type Cell[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// New creates an unfulfilled cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Set fulfills the cell. Only the first call has an effect; it reports
// whether this call was the one that fulfilled the cell.
func (c *Cell[T]) Set(value T) bool {
	set := false
	c.once.Do(func() {
		c.value = value
		close(c.done)
		set = true
	})
	return set
}

// Done returns a channel that is closed once the cell is fulfilled.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}

// IsSet reports whether the cell has been fulfilled.
func (c *Cell[T]) IsSet() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Get returns the value without blocking. ok is false if the cell is not yet fulfilled.
func (c *Cell[T]) Get() (value T, ok bool) {
	select {
	case <-c.done:
		return c.value, true
	default:
		return value, false
	}
}

// Wait blocks until the cell is fulfilled or ctx is done.
func (c *Cell[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WaitTimeout blocks for at most d. ok is false if the timeout elapsed first.
func (c *Cell[T]) WaitTimeout(d time.Duration) (value T, ok bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.value, true
	case <-timer.C:
		return value, false
	}
}
