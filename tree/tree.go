// Package tree provides a mutable container of typed settings.
//
// A Tree is what a service registers with the registry. Settings are defined
// once, at JSON Pointer paths, with a default value and optional constraints:
//
//	t := tree.New()
//	width := tree.MustDefine(t, "/window/width", 800, tree.Range(320, 7680))
//	theme := tree.MustDefine(t, "/theme", "dark", tree.OneOf("dark", "light"))
//
// The registry's codecs read a Tree through Snapshot and write it through
// Apply. Apply is incremental: each setting is applied on its own, so a bad
// value in a file never discards the good ones next to it.
package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/jsonptr"
	"go.uber.org/multierr"
)

// entry is the type-erased view of a Setting used by Tree.
type entry interface {
	Path() string
	keys() []string
	snapshot() (any, error)
	apply(raw any) error
	Reset()
}

// Tree is a set of typed settings addressed by JSON Pointer paths.
// It is safe for concurrent use.
type Tree struct {
	mu      sync.RWMutex
	entries []entry
	byPath  map[string]entry
}

// Ensure Tree implements the codec.Tree interface.
var _ codec.Tree = (*Tree)(nil)

// New returns an empty Tree.
func New() *Tree {
	return &Tree{byPath: make(map[string]entry)}
}

// add registers e. Paths must be unique and must not nest inside each other,
// since a setting's value would otherwise be overwritten by its parent.
func (t *Tree) add(e entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := e.Path()
	if _, exists := t.byPath[path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSetting, path)
	}
	for existing := range t.byPath {
		if nested(existing, path) || nested(path, existing) {
			return fmt.Errorf("%w: %s overlaps %s", ErrOverlappingSetting, path, existing)
		}
	}

	t.entries = append(t.entries, e)
	t.byPath[path] = e
	return nil
}

// nested reports whether child lies strictly below parent.
func nested(parent, child string) bool {
	return strings.HasPrefix(child, parent+"/")
}

// Paths returns the paths of all defined settings, sorted.
func (t *Tree) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		paths = append(paths, e.Path())
	}
	sort.Strings(paths)
	return paths
}

// Lookup returns the current value of the setting at path.
func (t *Tree) Lookup(path string) (any, bool) {
	t.mu.RLock()
	e, ok := t.byPath[path]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	v, err := e.snapshot()
	if err != nil {
		return nil, false
	}
	return v, true
}

// Reset restores every setting to its default value.
func (t *Tree) Reset() {
	for _, e := range t.list() {
		e.Reset()
	}
}

// Snapshot implements codec.Tree.
// It returns a nested map holding the current value of every setting.
// Struct values are flattened into maps using their json tags.
func (t *Tree) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, e := range t.list() {
		v, err := e.snapshot()
		if err != nil {
			// Only struct flattening can fail, and only for types a codec
			// could not have written anyway.
			continue
		}
		jsonptr.SetByKeys(out, e.keys(), v)
	}
	return out
}

// Apply implements codec.Tree.
// Each setting present in values is converted to its type, validated, and
// stored. Settings that fail are left unchanged and reported in the returned
// error as *SettingError values; the remaining settings are still applied.
// Keys that do not belong to any setting are ignored.
func (t *Tree) Apply(values map[string]any) error {
	var errs error
	for _, e := range t.list() {
		raw, ok := jsonptr.GetByKeys(values, e.keys())
		if !ok {
			continue
		}
		if err := e.apply(raw); err != nil {
			errs = multierr.Append(errs, &SettingError{Path: e.Path(), Err: err})
		}
	}
	return errs
}

// list returns a copy of the entries so callers can work without the lock.
func (t *Tree) list() []entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]entry(nil), t.entries...)
}
