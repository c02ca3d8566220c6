package watcher

import (
	"context"
	"sync"
	"time"
)

// FetchFunc returns the current content for key.
// A missing file should be reported as nil data and a nil error.
type FetchFunc func(ctx context.Context, key string) ([]byte, error)

// pollingWatcher implements Watcher using polling.
type pollingWatcher struct {
	keys  []string
	fetch FetchFunc
	cfg   Config

	events   chan Event
	stopCh   chan struct{}
	lastData map[string][]byte

	mu      sync.Mutex
	running bool
}

// NewPolling creates a polling-based Watcher for keys.
// fetch is called for every key at each interval. Start records the current
// content as the baseline; later rounds send an Event for every key whose
// content differs according to cfg.CompareFunc.
func NewPolling(keys []string, fetch FetchFunc, cfg Config) Watcher {
	return &pollingWatcher{
		keys:  append([]string(nil), keys...),
		fetch: fetch,
		cfg:   cfg.withDefaults(),
	}
}

// Type returns the watcher type identifier.
func (w *pollingWatcher) Type() WatcherType {
	return TypePolling
}

// Start records the baseline and begins polling. A key whose baseline fetch
// fails gets its baseline in the first round that succeeds.
func (w *pollingWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.events = make(chan Event)
	w.stopCh = make(chan struct{})
	w.lastData = make(map[string][]byte, len(w.keys))
	events, stopCh := w.events, w.stopCh
	w.mu.Unlock()

	for _, key := range w.keys {
		if data, err := w.fetch(ctx, key); err == nil {
			w.lastData[key] = data
		}
	}

	go func() {
		defer close(events)

		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
			case <-stopCh:
			}
			return false
		}

		for {
			select {
			case <-time.After(w.cfg.PollInterval):
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}

			for _, key := range w.keys {
				data, err := w.fetch(ctx, key)
				if err != nil {
					if !send(Event{Key: key, Err: err}) {
						return
					}
					continue
				}
				old, seen := w.lastData[key]
				w.lastData[key] = data
				if seen && w.cfg.CompareFunc(old, data) {
					if !send(Event{Key: key}) {
						return
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops polling.
func (w *pollingWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	return nil
}

// Events returns the channel receiving change events.
func (w *pollingWatcher) Events() <-chan Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events
}
