package kura

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yacchi/kura/storage"
	"github.com/yacchi/kura/watcher"
)

// WatchConfig configures Registry.Watch.
type WatchConfig struct {
	// DebounceDelay is the delay to wait for additional changes before
	// reloading. Rapid successive writes to a file cause a single reload.
	// Zero or a negative value reloads on every change.
	DebounceDelay time.Duration

	// PollInterval is used when the storage cannot push change
	// notifications. Default is watcher.DefaultPollInterval.
	PollInterval time.Duration

	// OnReload is called after a service was reloaded from its file.
	OnReload func(service string)

	// OnError is called when watching or reloading fails.
	// service is empty for errors that are not tied to a single service.
	OnError func(service string, err error)
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: watcher.DefaultDebounceDelay,
		PollInterval:  watcher.DefaultPollInterval,
	}
}

// Watch watches the files of all currently registered services and reloads
// a service when its file changes on disk. Changes whose content matches
// what the registry last read or wrote, such as its own saves, are ignored.
// Services registered after Watch is called are not watched.
//
// File system storages are watched with fsnotify; other storages are polled.
// The callbacks run on the watcher's goroutine and must not call stop.
//
// Example:
//
//	stop, err := reg.Watch(ctx, kura.DefaultWatchConfig())
//	if err != nil {
//	  return err
//	}
//	defer stop(context.Background())
func (r *Registry) Watch(ctx context.Context, cfg WatchConfig) (stop func(context.Context) error, err error) {
	r.mu.Lock()
	byRel := make(map[string]string, len(r.units))
	rels := make([]string, 0, len(r.units))
	for _, name := range r.namesLocked() {
		rel := r.units[name].rel
		byRel[rel] = name
		rels = append(rels, rel)
	}
	r.mu.Unlock()

	if len(rels) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	var w watcher.Watcher
	if ws, ok := r.storage.(storage.Watchable); ok {
		w = watcher.NewSubscription(func(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
			stop, err := ws.Subscribe(ctx, rels, storage.NotifyFunc(notify))
			if err != nil {
				return nil, err
			}
			return watcher.StopFunc(stop), nil
		})
	} else {
		w = watcher.NewPolling(rels, r.fetch, watcher.Config{
			PollInterval: cfg.PollInterval,
			CompareFunc:  watcher.HashCompareFunc,
		})
	}

	watchCtx, watchCancel := context.WithCancel(ctx)
	if err := w.Start(watchCtx); err != nil {
		watchCancel()
		return nil, fmt.Errorf("failed to start %s watcher: %w", w.Type(), err)
	}
	r.logger.Debug("watching services", "watcher", string(w.Type()), "count", len(rels))

	debouncer := watcher.NewDebouncer(cfg.DebounceDelay, func(keys []string) {
		for _, rel := range keys {
			r.reload(watchCtx, byRel[rel], cfg)
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range w.Events() {
			if ev.Err != nil {
				name := byRel[ev.Key]
				r.logger.Warn("watch error", "service", name, "error", ev.Err)
				if cfg.OnError != nil {
					cfg.OnError(name, ev.Err)
				}
				continue
			}
			if _, ok := byRel[ev.Key]; ok {
				debouncer.Trigger(ev.Key)
			}
		}
	}()

	stop = func(stopCtx context.Context) error {
		watchCancel()
		defer debouncer.Stop()
		err := w.Stop(stopCtx)

		select {
		case <-done:
		case <-stopCtx.Done():
			return stopCtx.Err()
		}

		if err != nil {
			return fmt.Errorf("failed to stop %s watcher: %w", w.Type(), err)
		}
		return nil
	}

	return stop, nil
}

// reload re-reads a single service after a change notification.
func (r *Registry) reload(ctx context.Context, name string, cfg WatchConfig) {
	u, err := r.lookup(name)
	if err != nil {
		return
	}
	changed, uerr := u.reload(ctx, r.storage, r.codec)
	r.report(uerr)

	if changed {
		r.logger.Info("reloaded service", "service", name)
		if cfg.OnReload != nil {
			cfg.OnReload(name)
		}
	}
	if uerr != nil && cfg.OnError != nil {
		cfg.OnError(name, uerr)
	}
}

// fetch returns the content of rel for the polling watcher.
func (r *Registry) fetch(ctx context.Context, rel string) ([]byte, error) {
	rc, err := r.storage.Open(ctx, rel)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
