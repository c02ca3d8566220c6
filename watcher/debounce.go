package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces triggers for a set of keys. Once no new trigger has
// arrived for the configured delay, fn is called once with every pending key.
type Debouncer struct {
	delay time.Duration
	fn    func(keys []string)

	// runMu serializes calls to fn and lets Stop wait for a running call.
	runMu sync.Mutex

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer. A delay <= 0 calls fn synchronously on
// every Trigger.
func NewDebouncer(delay time.Duration, fn func(keys []string)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fn:      fn,
		pending: make(map[string]struct{}),
	}
}

// Trigger marks key as changed and restarts the delay.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[key] = struct{}{}

	if d.delay <= 0 {
		d.mu.Unlock()
		d.Flush()
		return
	}

	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.Flush)
	} else {
		d.timer.Reset(d.delay)
	}
	d.mu.Unlock()
}

// Flush calls fn immediately with the pending keys, sorted. It does nothing
// if no key is pending or the Debouncer is stopped.
func (d *Debouncer) Flush() {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	clear(d.pending)
	d.mu.Unlock()

	sort.Strings(keys)
	d.fn(keys)
}

// Stop discards pending keys and waits for a running fn to return.
// fn is never called after Stop returns.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.pending)
	d.mu.Unlock()

	d.runMu.Lock()
	d.runMu.Unlock()
}
