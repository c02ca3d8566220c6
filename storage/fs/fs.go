// Package fs provides a storage rooted at a directory on the local file system.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/yacchi/kura/storage"
)

type lockFile interface {
	Close() error
	Fd() uintptr
}

type tempFile interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
	Name() string
}

var (
	userHomeDir  = os.UserHomeDir
	osOpen       = func(name string) (io.ReadCloser, error) { return os.Open(name) }
	osMkdirAll   = os.MkdirAll
	osChmod      = os.Chmod
	osRename     = os.Rename
	osRemove     = os.Remove
	fileLockFunc = fileLock

	openFile = func(name string, flag int, perm os.FileMode) (lockFile, error) {
		return os.OpenFile(name, flag, perm)
	}
	createTemp = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
)

// fileLock attempts to acquire an exclusive lock on the given file descriptor.
// If the filesystem does not support locking, it returns a no-op unlock and a
// nil error.
func fileLock(fd int) (unlock func(), err error) {
	if err := flockExclusive(fd); err != nil {
		if isLockNotSupportedError(err) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { flockUnlock(fd) }, nil
}

// openLockFile opens path for locking, creating it if needed. created
// reports whether this call created the file.
func openLockFile(path string, mode os.FileMode) (f lockFile, created bool, err error) {
	f, err = openFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, mode)
	if err == nil {
		return f, true, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, false, err
	}
	f, err = openFile(path, os.O_RDWR, mode)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

// Default permission modes.
const (
	DefaultFileMode = 0644
	DefaultDirMode  = 0755
)

// Storage reads and writes files below a root directory.
type Storage struct {
	root     string
	fileMode os.FileMode
	dirMode  os.FileMode
}

// Ensure Storage implements the storage.Watchable interface.
var _ storage.Watchable = (*Storage)(nil)

// Option configures a Storage.
type Option func(*Storage)

// WithFileMode sets the file permission mode used when writing.
// Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Storage) {
		s.fileMode = mode
	}
}

// WithDirMode sets the permission mode used when creating directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Storage) {
		s.dirMode = mode
	}
}

// New creates a storage rooted at root. Tilde (~) expansion is supported.
// The directory does not need to exist; it is created on the first write.
//
// Example:
//
//	st := fs.New("~/.config/app")
//	st := fs.New("/var/lib/app/config", fs.WithFileMode(0600), fs.WithDirMode(0700))
func New(root string, opts ...Option) *Storage {
	if expanded, err := expandTilde(root); err == nil {
		root = expanded
	}
	s := &Storage{
		root:     filepath.Clean(root),
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the root directory.
func (s *Storage) Root() string {
	return s.root
}

// Abs implements the storage.Storage interface.
func (s *Storage) Abs(rel string) string {
	return filepath.Join(s.root, rel)
}

// Open implements the storage.Storage interface.
func (s *Storage) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Abs(rel)
	f, err := osOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	return f, nil
}

// Write implements the storage.Storage interface with file locking.
//
// Parent directories are created if they do not exist. An exclusive flock on
// the target serializes writers from cooperating processes; if the
// filesystem does not support locking, the write proceeds without it.
//
// Content is written to a temporary file in the target directory, synced, and
// renamed over the target, so readers never see a half-written file and the
// previous content is fully replaced. If the write fails and the target did
// not exist before, no file is left behind.
func (s *Storage) Write(ctx context.Context, rel string, fn storage.WriteFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetPath := s.Abs(rel)
	dir := filepath.Dir(targetPath)
	if err := osMkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	lockFile, created, err := openLockFile(targetPath, s.fileMode)
	if err != nil {
		return fmt.Errorf("failed to open file %q for locking: %w", targetPath, err)
	}
	defer lockFile.Close()

	unlock, err := fileLockFunc(int(lockFile.Fd()))
	if err != nil {
		if created {
			osRemove(targetPath)
		}
		return fmt.Errorf("failed to acquire lock on %q: %w", targetPath, err)
	}
	defer unlock()

	tmpFile, err := createTemp(dir, ".kura-*.tmp")
	if err != nil {
		if created {
			osRemove(targetPath)
		}
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			osRemove(tmpPath)
		}
	}()
	// A target created only to hold the lock must not outlive a failed write.
	defer func() {
		if created && !success {
			osRemove(targetPath)
		}
	}()

	if err := fn(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := osChmod(tmpPath, s.fileMode); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// The lock is still held, so the rename is exclusive.
	if err := osRename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %q: %w", targetPath, err)
	}

	success = true
	return nil
}

// Subscribe implements the storage.Watchable interface.
//
// The directories containing the files are watched rather than the files
// themselves, so atomic writes (temp file + rename) and recreated files are
// still observed. Missing directories are created first.
func (s *Storage) Subscribe(ctx context.Context, rels []string, notify storage.NotifyFunc) (storage.StopFunc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	byPath := make(map[string]string, len(rels))
	dirs := make(map[string]struct{})
	for _, rel := range rels {
		path := s.Abs(rel)
		byPath[path] = rel
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := osMkdirAll(dir, s.dirMode); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				rel, tracked := byPath[filepath.Clean(event.Name)]
				if !tracked {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					notify(rel, nil)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				notify("", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func(ctx context.Context) error {
		err := w.Close()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return err
	}

	return stop, nil
}

// expandTilde expands tilde (~) in the path.
// Handles both "~" (home directory) and "~/path" (path under home).
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// "~something" is not a home expansion.
	return path, nil
}
