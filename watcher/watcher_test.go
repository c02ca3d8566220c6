package watcher_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yacchi/kura/watcher"
)

func TestDefaultCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old"), []byte("new"), true},
		{"same", []byte("same"), []byte("same"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"nil old", nil, []byte("new"), true},
		{"nil new", []byte("old"), nil, true},
		{"nil both", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := watcher.DefaultCompareFunc(tt.old, tt.new)
			if result != tt.expected {
				t.Errorf("DefaultCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, result, tt.expected)
			}
		})
	}
}

func TestHashCompareFunc(t *testing.T) {
	tests := []struct {
		name     string
		old      []byte
		new      []byte
		expected bool
	}{
		{"different", []byte("old data"), []byte("new data"), true},
		{"same", []byte("same data"), []byte("same data"), false},
		{"empty both", []byte{}, []byte{}, false},
		{"empty old", []byte{}, []byte("new"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := watcher.HashCompareFunc(tt.old, tt.new)
			if result != tt.expected {
				t.Errorf("HashCompareFunc(%q, %q) = %v, want %v", tt.old, tt.new, result, tt.expected)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := watcher.NewConfig()
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, watcher.DefaultPollInterval)
	}
	if cfg.CompareFunc == nil {
		t.Error("CompareFunc is nil")
	}

	cfg = watcher.NewConfig(
		watcher.WithPollInterval(time.Second),
		watcher.WithCompareFunc(watcher.HashCompareFunc),
	)
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
}

// mockFiles is a concurrency-safe key -> content map used as a FetchFunc.
type mockFiles struct {
	mu   sync.Mutex
	data map[string][]byte
	errs map[string]error
}

func newMockFiles() *mockFiles {
	return &mockFiles{data: make(map[string][]byte), errs: make(map[string]error)}
}

func (m *mockFiles) Set(key, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(content)
}

func (m *mockFiles) SetError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[key] = err
}

func (m *mockFiles) Fetch(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[key]; err != nil {
		return nil, err
	}
	return m.data[key], nil
}

func receive(t *testing.T, ctx context.Context, events <-chan watcher.Event) watcher.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
	return watcher.Event{}
}

func TestPollingWatcher_DetectsChanges(t *testing.T) {
	files := newMockFiles()
	files.Set("a", "1")
	files.Set("b", "1")

	cfg := watcher.NewConfig(watcher.WithPollInterval(20 * time.Millisecond))
	w := watcher.NewPolling([]string{"a", "b", "missing"}, files.Fetch, cfg)
	if got := w.Type(); got != watcher.TypePolling {
		t.Errorf("Type() = %q, want %q", got, watcher.TypePolling)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop(context.Background())

	// Start records the baseline; only later edits are reported.
	files.Set("b", "2")

	ev := receive(t, ctx, w.Events())
	if ev.Err != nil || ev.Key != "b" {
		t.Fatalf("event = %+v, want change of b", ev)
	}

	files.Set("missing", "created")
	ev = receive(t, ctx, w.Events())
	if ev.Err != nil || ev.Key != "missing" {
		t.Fatalf("event = %+v, want change of missing", ev)
	}
}

func TestPollingWatcher_Error(t *testing.T) {
	files := newMockFiles()
	testErr := errors.New("test error")
	files.SetError("a", testErr)

	cfg := watcher.NewConfig(watcher.WithPollInterval(20 * time.Millisecond))
	w := watcher.NewPolling([]string{"a"}, files.Fetch, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop(context.Background())

	ev := receive(t, ctx, w.Events())
	if !errors.Is(ev.Err, testErr) || ev.Key != "a" {
		t.Fatalf("event = %+v, want error for a", ev)
	}
}

func TestPollingWatcher_Stop(t *testing.T) {
	files := newMockFiles()
	w := watcher.NewPolling([]string{"a"}, files.Fetch, watcher.Config{PollInterval: 10 * time.Millisecond})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Double start is a no-op.
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}

	if err := w.Stop(ctx); err != nil {
		t.Errorf("Stop() error: %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for channel close")
	}

	if err := w.Stop(ctx); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

// mockSubscription captures the notify function passed to Subscribe.
type mockSubscription struct {
	mu       sync.Mutex
	notifyFn watcher.NotifyFunc
	stopped  atomic.Bool
}

func (m *mockSubscription) Subscribe(_ context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyFn = notify
	return func(context.Context) error {
		m.stopped.Store(true)
		return nil
	}, nil
}

func (m *mockSubscription) Notify(key string, err error) {
	m.mu.Lock()
	fn := m.notifyFn
	m.mu.Unlock()
	if fn != nil {
		fn(key, err)
	}
}

func TestSubscriptionWatcher_Basic(t *testing.T) {
	sub := &mockSubscription{}
	w := watcher.NewSubscription(sub.Subscribe)
	if got := w.Type(); got != watcher.TypeSubscription {
		t.Errorf("Type() = %q, want %q", got, watcher.TypeSubscription)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop(context.Background())

	go sub.Notify("core/gui.json5", nil)
	ev := receive(t, ctx, w.Events())
	if ev.Key != "core/gui.json5" || ev.Err != nil {
		t.Fatalf("event = %+v", ev)
	}

	testErr := errors.New("test error")
	go sub.Notify("", testErr)
	ev = receive(t, ctx, w.Events())
	if !errors.Is(ev.Err, testErr) {
		t.Fatalf("event = %+v, want error", ev)
	}
}

func TestSubscriptionWatcher_Stop(t *testing.T) {
	sub := &mockSubscription{}
	w := watcher.NewSubscription(sub.Subscribe)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}

	if err := w.Stop(ctx); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
	if !sub.stopped.Load() {
		t.Error("subscription was not stopped")
	}
	if _, ok := <-w.Events(); ok {
		t.Error("expected channel to be closed")
	}

	// Late notifications are dropped instead of panicking.
	sub.Notify("a", nil)

	if err := w.Stop(ctx); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestSubscriptionWatcher_SubscribeError(t *testing.T) {
	w := watcher.NewSubscription(func(context.Context, watcher.NotifyFunc) (watcher.StopFunc, error) {
		return nil, errors.New("subscribe failed")
	})

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected error from Start, got nil")
	}
	if _, ok := <-w.Events(); ok {
		t.Error("expected channel to be closed")
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	var (
		mu    sync.Mutex
		calls [][]string
	)
	fired := make(chan struct{}, 4)
	d := watcher.NewDebouncer(30*time.Millisecond, func(keys []string) {
		mu.Lock()
		calls = append(calls, keys)
		mu.Unlock()
		fired <- struct{}{}
	})
	defer d.Stop()

	d.Trigger("b")
	d.Trigger("a")
	d.Trigger("b")

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("debouncer did not fire")
	}

	mu.Lock()
	defer mu.Unlock()
	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestDebouncer_ZeroDelay(t *testing.T) {
	var got []string
	d := watcher.NewDebouncer(0, func(keys []string) { got = append(got, keys...) })
	d.Trigger("a")
	d.Trigger("b")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestDebouncer_StopDiscardsPending(t *testing.T) {
	var calls atomic.Int32
	d := watcher.NewDebouncer(20*time.Millisecond, func([]string) { calls.Add(1) })
	d.Trigger("a")
	d.Stop()
	d.Trigger("b")
	d.Flush()

	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("fn called %d times after Stop, want 0", n)
	}
}
