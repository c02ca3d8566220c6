package watcher

import "context"

// Watcher watches a set of keys and reports changes via a channel.
// Implementations are PollingWatcher and SubscriptionWatcher.
type Watcher interface {
	// Type returns the watcher type identifier (TypePolling or TypeSubscription).
	// This is used for introspection and logging.
	Type() WatcherType

	// Start begins watching for changes.
	// Events are sent to the channel returned by Events().
	// Must be called before Events() returns a valid channel.
	Start(ctx context.Context) error

	// Stop stops watching and releases resources.
	// The context can be used for timeout/cancellation of cleanup operations.
	// After Stop returns, no more events will be sent and the events channel
	// is closed.
	Stop(ctx context.Context) error

	// Events returns a channel that receives change events.
	// Returns nil if Start has not been called.
	Events() <-chan Event
}
