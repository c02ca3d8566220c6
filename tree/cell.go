package tree

import (
	"sync"
	"sync/atomic"
)

// listener wraps a callback function with a unique ID for reliable unsubscription.
type listener[T any] struct {
	id uint64
	fn func(T)
}

// cell holds the current value of a setting and notifies listeners when it
// changes. Reads are lock-free.
type cell[T any] struct {
	value     atomic.Value // stores box[T]
	listeners []listener[T]
	nextID    uint64
	mu        sync.RWMutex
}

// box lets atomic.Value store interface types and nil values of T.
type box[T any] struct {
	v T
}

func newCell[T any](initial T) *cell[T] {
	c := &cell[T]{nextID: 1}
	c.value.Store(box[T]{v: initial})
	return c
}

func (c *cell[T]) get() T {
	return c.value.Load().(box[T]).v
}

// set stores v and calls listeners synchronously, in subscription order.
func (c *cell[T]) set(v T) {
	c.value.Store(box[T]{v: v})

	// Snapshot listeners so a callback may unsubscribe without deadlocking.
	c.mu.RLock()
	listeners := append([]listener[T](nil), c.listeners...)
	c.mu.RUnlock()

	for _, l := range listeners {
		l.fn(v)
	}
}

func (c *cell[T]) subscribe(fn func(T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener[T]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}
