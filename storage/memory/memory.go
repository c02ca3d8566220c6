// Package memory provides an in-memory storage.
//
// It is used for ephemeral registries and in tests, where failures can be
// injected per path with FailOpen and FailWrite.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/yacchi/kura/storage"
)

// Storage keeps file contents in a map keyed by slash-separated path.
// It is safe for concurrent use.
type Storage struct {
	root string

	mu        sync.RWMutex
	files     map[string][]byte
	openErrs  map[string]error
	writeErrs map[string]error
}

// Ensure Storage implements the storage.Storage interface.
var _ storage.Storage = (*Storage)(nil)

// New creates an empty storage. root is only used to build the locations
// returned by Abs.
func New(root string) *Storage {
	return &Storage{
		root:      root,
		files:     make(map[string][]byte),
		openErrs:  make(map[string]error),
		writeErrs: make(map[string]error),
	}
}

func key(rel string) string {
	return path.Clean(filepath.ToSlash(rel))
}

// Abs implements the storage.Storage interface.
func (s *Storage) Abs(rel string) string {
	return path.Join(filepath.ToSlash(s.root), key(rel))
}

// Open implements the storage.Storage interface.
func (s *Storage) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	k := key(rel)
	if err := s.openErrs[k]; err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", s.Abs(rel), err)
	}
	data, ok := s.files[k]
	if !ok {
		return nil, fmt.Errorf("failed to open file %q: %w", s.Abs(rel), storage.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write implements the storage.Storage interface.
// The content produced by fn is buffered and stored only if fn succeeds.
func (s *Storage) Write(ctx context.Context, rel string, fn storage.WriteFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := key(rel)
	s.mu.RLock()
	err := s.writeErrs[k]
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to write file %q: %w", s.Abs(rel), err)
	}

	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[k] = buf.Bytes()
	return nil
}

// Get returns a copy of the content stored at rel.
func (s *Storage) Get(rel string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key(rel)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Put stores data at rel, bypassing injected failures.
func (s *Storage) Put(rel string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key(rel)] = bytes.Clone(data)
}

// Delete removes the file at rel.
func (s *Storage) Delete(rel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key(rel))
}

// Files returns the stored paths, sorted.
func (s *Storage) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FailOpen makes Open fail with err for rel. A nil err clears the failure.
func (s *Storage) FailOpen(rel string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setOrClear(s.openErrs, key(rel), err)
}

// FailWrite makes Write fail with err for rel. A nil err clears the failure.
func (s *Storage) FailWrite(rel string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setOrClear(s.writeErrs, key(rel), err)
}

func setOrClear(m map[string]error, k string, err error) {
	if err == nil {
		delete(m, k)
		return
	}
	m[k] = err
}
