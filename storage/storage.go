// Package storage provides the file access used by the registry.
// A Storage is rooted at a directory (or an equivalent namespace) and is
// addressed with slash- or OS-separated relative paths. Storages are
// format-agnostic; encoding is handled by a codec.
package storage

import (
	"context"
	"io"
	"io/fs"
)

// ErrNotExist is matched (via errors.Is) by the error Open returns for a
// missing file.
var ErrNotExist = fs.ErrNotExist

// WriteFunc streams new file content into w.
type WriteFunc func(w io.Writer) error

// Storage reads and writes files below a root.
type Storage interface {
	// Open opens the file at rel for reading.
	// If the file does not exist, the error matches ErrNotExist.
	// The context can be used for cancellation.
	Open(ctx context.Context, rel string) (io.ReadCloser, error)

	// Write replaces the file at rel with the content produced by fn,
	// creating parent directories as needed. If fn returns an error the
	// existing file is left untouched and that error is returned as-is.
	// The context can be used for cancellation.
	Write(ctx context.Context, rel string, fn WriteFunc) error

	// Abs returns a human-readable absolute location for rel, used in logs
	// and error messages.
	Abs(rel string) string
}

// NotifyFunc is called by a Watchable storage when the file at rel changed,
// or with a non-nil err when watching failed. rel is empty for errors that
// are not tied to a single file.
type NotifyFunc func(rel string, err error)

// StopFunc stops a subscription and releases its resources.
type StopFunc func(ctx context.Context) error

// Watchable is implemented by storages that can push change notifications.
// Storages without it are watched by polling.
type Watchable interface {
	Storage

	// Subscribe starts watching the given files and calls notify for
	// every change. notify may be called from another goroutine.
	Subscribe(ctx context.Context, rels []string, notify NotifyFunc) (StopFunc, error)
}
