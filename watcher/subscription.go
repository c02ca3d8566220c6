package watcher

import (
	"context"
	"sync"
)

// SubscribeFunc starts receiving change notifications.
// notify should be called when a key changes or an error occurs.
// Returns a StopFunc to unsubscribe, or an error if subscription failed.
type SubscribeFunc func(ctx context.Context, notify NotifyFunc) (StopFunc, error)

// subscriptionWatcher implements Watcher using subscriptions.
type subscriptionWatcher struct {
	subscribe SubscribeFunc

	events chan Event
	stopCh chan struct{}
	stopFn StopFunc

	// sendMu is held for reading by notify while it sends, and for writing
	// when the events channel is closed.
	sendMu sync.RWMutex
	closed bool

	mu      sync.Mutex
	running bool
}

// NewSubscription creates a subscription-based Watcher.
func NewSubscription(subscribe SubscribeFunc) Watcher {
	return &subscriptionWatcher{subscribe: subscribe}
}

// Type returns the watcher type identifier.
func (w *subscriptionWatcher) Type() WatcherType {
	return TypeSubscription
}

// Start begins the subscription.
func (w *subscriptionWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.events = make(chan Event)
	w.stopCh = make(chan struct{})
	w.closed = false
	events, stopCh := w.events, w.stopCh
	w.mu.Unlock()

	notify := func(key string, err error) {
		w.sendMu.RLock()
		defer w.sendMu.RUnlock()
		if w.closed {
			return
		}
		select {
		case events <- Event{Key: key, Err: err}:
		case <-ctx.Done():
		case <-stopCh:
		}
	}

	stop, err := w.subscribe(ctx, notify)
	if err != nil {
		w.mu.Lock()
		w.running = false
		close(w.stopCh)
		w.closeEvents()
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	w.stopFn = stop
	w.mu.Unlock()

	return nil
}

// Stop stops the subscription.
func (w *subscriptionWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false

	// Unblock pending notifications.
	close(w.stopCh)
	stop := w.stopFn
	w.stopFn = nil
	w.mu.Unlock()

	var err error
	if stop != nil {
		err = stop(ctx)
	}

	w.closeEvents()
	return err
}

func (w *subscriptionWatcher) closeEvents() {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
}

// Events returns the channel receiving change events.
func (w *subscriptionWatcher) Events() <-chan Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events
}
