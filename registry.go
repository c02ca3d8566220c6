package kura

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/storage"
	"github.com/yacchi/kura/storage/fs"
	"github.com/yacchi/kura/svcpath"
)

// Option is a functional option for configuring a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	logger  *slog.Logger
	storage storage.Storage
	ext     string
}

// WithLogger sets the logger used to report isolated failures.
// Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *registryOptions) {
		o.logger = l
	}
}

// WithStorage replaces the file system storage rooted at the registry root.
// This is useful for tests and ephemeral registries (see storage/memory).
func WithStorage(st storage.Storage) Option {
	return func(o *registryOptions) {
		o.storage = st
	}
}

// WithExtension overrides the file extension, which defaults to the codec's.
// The extension must include the leading dot.
func WithExtension(ext string) Option {
	return func(o *registryOptions) {
		o.ext = ext
	}
}

// RegisterOption is a functional option for Register.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	noLoad bool
}

// WithoutLoad defers loading the service's file until Load or LoadAll.
func WithoutLoad() RegisterOption {
	return func(o *registerOptions) {
		o.noLoad = true
	}
}

// Registry maps service names to configuration trees and their files.
//
// The root, codec and storage are fixed at construction. A Registry is safe
// for concurrent use. Its lock only guards the set of services: loads and
// saves run without it, so a setting subscriber notified during a load may
// call back into the registry, including Save of the same service.
type Registry struct {
	root    string
	codec   codec.Codec
	storage storage.Storage
	ext     string
	logger  *slog.Logger

	mu    sync.Mutex
	units map[string]*unit
}

// New creates a registry rooted at root that encodes files with c.
// root does not need to exist; directories are created on the first save.
//
// Example:
//
//	reg := kura.New("~/.config/app", json5.New(), kura.WithLogger(logger))
func New(root string, c codec.Codec, opts ...Option) *Registry {
	o := registryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.ext == "" {
		o.ext = c.Extension()
	}
	if o.storage == nil {
		o.storage = fs.New(root)
	}

	return &Registry{
		root:    root,
		codec:   c,
		storage: o.storage,
		ext:     o.ext,
		logger:  o.logger,
		units:   make(map[string]*unit),
	}
}

// Root returns the root the registry was created with.
func (r *Registry) Root() string {
	return r.root
}

// Codec returns the registry's codec.
func (r *Registry) Codec() codec.Codec {
	return r.codec
}

// Register binds name to t and, unless WithoutLoad is given, loads the
// service's file into t right away.
//
// Register returns ErrDuplicateService if name is already registered, an
// error matching svcpath.ErrInvalidName if name is malformed, and ErrNilTree
// if t is nil. Failures while loading are reported, not returned.
func (r *Registry) Register(ctx context.Context, name string, t codec.Tree, opts ...RegisterOption) error {
	o := registerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := r.add(name, t)
	if err != nil {
		return err
	}
	r.logger.Debug("registered service", "service", name, "path", r.storage.Abs(u.rel))

	if !o.noLoad {
		r.report(u.load(ctx, r.storage, r.codec))
	}
	return nil
}

func (r *Registry) add(name string, t codec.Tree) (*unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateService, name)
	}
	rel, err := svcpath.Resolve(name, r.ext)
	if err != nil {
		return nil, err
	}
	if isNil(t) {
		return nil, fmt.Errorf("%w: %q", ErrNilTree, name)
	}

	u := &unit{service: name, rel: rel, tree: t}
	r.units[name] = u
	return u, nil
}

// isNil reports whether t is nil or an interface holding a nil pointer.
func isNil(t codec.Tree) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Load reads the service's file into its tree.
// It returns ErrServiceNotFound for an unknown name; failures while loading
// are reported, not returned.
func (r *Registry) Load(ctx context.Context, name string) error {
	u, err := r.lookup(name)
	if err != nil {
		return err
	}
	r.report(u.load(ctx, r.storage, r.codec))
	return nil
}

// Save writes the service's tree to its file.
// It returns ErrServiceNotFound for an unknown name; failures while saving
// are reported, not returned.
func (r *Registry) Save(ctx context.Context, name string) error {
	u, err := r.lookup(name)
	if err != nil {
		return err
	}
	r.report(u.save(ctx, r.storage, r.codec))
	return nil
}

// LoadAll loads every registered service, in name order. A failing service
// does not stop the others; the failures of this call are returned.
func (r *Registry) LoadAll(ctx context.Context) Failures {
	return r.each(func(u *unit) *UnitError {
		return u.load(ctx, r.storage, r.codec)
	})
}

// SaveAll saves every registered service, in name order. A failing service
// does not stop the others; the failures of this call are returned.
func (r *Registry) SaveAll(ctx context.Context) Failures {
	return r.each(func(u *unit) *UnitError {
		return u.save(ctx, r.storage, r.codec)
	})
}

func (r *Registry) each(fn func(u *unit) *UnitError) Failures {
	r.mu.Lock()
	units := make([]*unit, 0, len(r.units))
	for _, name := range r.namesLocked() {
		units = append(units, r.units[name])
	}
	r.mu.Unlock()

	var failures Failures
	for _, u := range units {
		if uerr := fn(u); uerr != nil {
			r.report(uerr)
			failures = append(failures, uerr)
		}
	}
	return failures
}

// Services returns the registered service names, sorted.
func (r *Registry) Services() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Path returns the location of the service's file.
func (r *Registry) Path(name string) (string, error) {
	u, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return r.storage.Abs(u.rel), nil
}

// Tree returns the tree registered under name.
func (r *Registry) Tree(name string) (codec.Tree, error) {
	u, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return u.tree, nil
}

// LastError returns the error of the most recent load or save of the
// service, or nil if it succeeded. The second result is ErrServiceNotFound
// for an unknown name.
func (r *Registry) LastError(name string) (error, error) {
	u, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if uerr := u.err(); uerr != nil {
		return uerr, nil
	}
	return nil, nil
}

// Errors returns the last error of every service whose most recent load or
// save failed.
func (r *Registry) Errors() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]error)
	for name, u := range r.units {
		if uerr := u.err(); uerr != nil {
			out[name] = uerr
		}
	}
	return out
}

func (r *Registry) lookup(name string) (*unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) (*unit, error) {
	u, ok := r.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}
	return u, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// report logs an isolated failure. uerr may be nil.
func (r *Registry) report(uerr *UnitError) {
	if uerr == nil {
		return
	}
	r.logger.Error("configuration "+string(uerr.Op)+" failed",
		slog.String("service", uerr.Service),
		slog.String("path", uerr.Path),
		slog.String("op", string(uerr.Op)),
		slog.String("kind", string(uerr.Kind)),
		slog.Any("error", uerr.Err),
	)
}
