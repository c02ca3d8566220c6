package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/yacchi/kura/storage"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"config", "config"},
		{"~", home},
		{"~/.config/app", filepath.Join(home, ".config", "app")},
		{"~someone/config", "~someone/config"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandTilde(tt.in)
			if err != nil {
				t.Fatalf("expandTilde() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("expandTilde(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStorage_Abs(t *testing.T) {
	s := New("/etc/app/")
	if got := s.Root(); got != filepath.Clean("/etc/app") {
		t.Errorf("Root() = %q", got)
	}
	want := filepath.Join("/etc/app", "core", "gui", "theme.json5")
	if got := s.Abs(filepath.Join("core", "gui", "theme.json5")); got != want {
		t.Errorf("Abs() = %q, want %q", got, want)
	}
}

func TestStorage_OpenMissing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Open(context.Background(), "missing.json5")
	if !errors.Is(err, storage.ErrNotExist) {
		t.Fatalf("Open() error = %v, want ErrNotExist", err)
	}
}

func TestStorage_CanceledContext(t *testing.T) {
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Open(ctx, "a.json5"); !errors.Is(err, context.Canceled) {
		t.Errorf("Open(canceled) error = %v", err)
	}
	if err := s.Write(ctx, "a.json5", writeX); !errors.Is(err, context.Canceled) {
		t.Errorf("Write(canceled) error = %v", err)
	}
}

func TestStorage_WriteCreatesDirsAndSetsMode(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, WithFileMode(0o600), WithDirMode(0o700))
	rel := filepath.Join("core", "gui", "theme.json5")

	if err := s.Write(context.Background(), rel, func(w io.Writer) error {
		_, err := io.WriteString(w, "content")
		return err
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	r, err := s.Open(context.Background(), rel)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(b) != "content" {
		t.Fatalf("content = %q, want %q", b, "content")
	}

	if runtime.GOOS == "windows" {
		return
	}
	st, err := os.Stat(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if got := st.Mode().Perm(); got != 0o600 {
		t.Errorf("file mode = %o, want %o", got, 0o600)
	}
	dst, err := os.Stat(filepath.Join(dir, "core", "gui"))
	if err != nil {
		t.Fatalf("Stat(dir) error = %v", err)
	}
	if got := dst.Mode().Perm(); got != 0o700 {
		t.Errorf("dir mode = %o, want %o", got, 0o700)
	}
}

func TestStorage_WriteReplacesLongerContent(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "a.json5")
	if err := os.WriteFile(path, []byte("a much longer previous content"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.Write(context.Background(), "a.json5", writeX); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != "x" {
		t.Fatalf("content = %q, want %q", b, "x")
	}
}

func TestStorage_WriteFuncErrorKeepsFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "a.json5")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	wantErr := errors.New("encode error")
	err := s.Write(context.Background(), "a.json5", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Write() error = %v, want %v", err, wantErr)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != "old" {
		t.Fatalf("content = %q, want %q", b, "old")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want only the target", len(entries))
	}
}

func TestStorage_WriteFuncErrorLeavesNoNewFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	wantErr := errors.New("encode error")
	err := s.Write(context.Background(), "core/gui/theme.json5", func(w io.Writer) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Write() error = %v, want %v", err, wantErr)
	}

	if _, err := os.Stat(filepath.Join(dir, "core", "gui", "theme.json5")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat() error = %v, want the target not to exist", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "core", "gui"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("directory has %d entries, want none", len(entries))
	}
	if _, err := s.Open(context.Background(), "core/gui/theme.json5"); !errors.Is(err, storage.ErrNotExist) {
		t.Fatalf("Open() error = %v, want storage.ErrNotExist", err)
	}
}

func TestStorage_WriteMkdirAllFailure(t *testing.T) {
	dir := t.TempDir()

	// A file where a directory should be makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(dir, "core"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(dir)
	if err := s.Write(context.Background(), filepath.Join("core", "gui.json5"), writeX); err == nil {
		t.Fatal("Write() expected error, got nil")
	}
}

func TestStorage_Subscribe(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	rel := filepath.Join("core", "gui.json5")

	var (
		mu   sync.Mutex
		seen []string
	)
	changed := make(chan struct{}, 16)
	stop, err := s.Subscribe(context.Background(), []string{rel}, func(got string, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		seen = append(seen, got)
		mu.Unlock()
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer stop(context.Background())

	// Untracked files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "core", "other.json5"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := s.Write(context.Background(), rel, writeX); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, got := range seen {
		if got != rel {
			t.Errorf("notified for %q, want only %q", got, rel)
		}
	}
}
