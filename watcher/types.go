// Package watcher provides change detection for the files behind a registry.
// It supports polling-based and subscription-based (event-driven) watching,
// plus a Debouncer that coalesces bursts of events.
package watcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"time"
)

// Defaults used when a zero value is configured.
const (
	DefaultPollInterval  = 5 * time.Second
	DefaultDebounceDelay = 100 * time.Millisecond
)

// WatcherType identifies a watcher implementation.
type WatcherType string

// Standard watcher types.
const (
	// TypePolling is a watcher that polls at regular intervals.
	TypePolling WatcherType = "polling"

	// TypeSubscription is an event-based watcher (e.g., fsnotify).
	TypeSubscription WatcherType = "subscription"
)

// CompareFunc compares two byte slices and returns true if they are different.
type CompareFunc func(old, new []byte) bool

// DefaultCompareFunc compares byte slices directly using bytes.Equal.
func DefaultCompareFunc(old, new []byte) bool {
	return !bytes.Equal(old, new)
}

// HashCompareFunc compares byte slices using SHA-256 hashes.
func HashCompareFunc(old, new []byte) bool {
	return sha256.Sum256(old) != sha256.Sum256(new)
}

// Config configures a polling watcher.
type Config struct {
	// PollInterval is the interval between polling rounds.
	// Default is DefaultPollInterval.
	PollInterval time.Duration

	// CompareFunc is used to detect changes between old and new data.
	// Default is DefaultCompareFunc (bytes.Equal).
	CompareFunc CompareFunc
}

// Option is a functional option for Config.
type Option func(*Config)

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithCompareFunc sets the comparison function for change detection.
func WithCompareFunc(f CompareFunc) Option {
	return func(c *Config) {
		c.CompareFunc = f
	}
}

// NewConfig creates a Config with the given options.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		PollInterval: DefaultPollInterval,
		CompareFunc:  DefaultCompareFunc,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CompareFunc == nil {
		c.CompareFunc = DefaultCompareFunc
	}
	return c
}

// Event reports a change of the watched key, or a watch error in Err.
// Key is empty for errors that are not tied to a single key.
type Event struct {
	Key string
	Err error
}

// NotifyFunc is called by a subscription when a key changed or an error
// occurred.
type NotifyFunc func(key string, err error)

// StopFunc stops a subscription.
// The context can be used for timeout/cancellation of cleanup operations.
type StopFunc func(ctx context.Context) error
