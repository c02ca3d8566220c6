package tree

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/yacchi/kura/jsonptr"
)

// Setting is a typed value stored in a Tree.
// The Setting pointer stays valid for the lifetime of the Tree; loading a
// file updates the value in place.
type Setting[T any] struct {
	path        string
	parsed      []string
	def         T
	constraints []Constraint[T]
	cell        *cell[T]
}

// Define adds a setting at the JSON Pointer path with the given default.
// The default must satisfy the constraints.
//
// Example:
//
//	port, err := tree.Define(t, "/server/port", 8080, tree.Range(1, 65535))
func Define[T any](t *Tree, path string, def T, constraints ...Constraint[T]) (*Setting[T], error) {
	keys, err := jsonptr.Parse(path)
	if err != nil {
		return nil, &InvalidPathError{Path: path, Reason: err.Error()}
	}
	if len(keys) == 0 {
		return nil, &InvalidPathError{Path: path, Reason: "cannot define a setting at the root"}
	}

	s := &Setting[T]{
		path:        path,
		parsed:      keys,
		def:         def,
		constraints: constraints,
		cell:        newCell(def),
	}
	if err := s.validate(def); err != nil {
		return nil, fmt.Errorf("default for %s: %w", path, err)
	}
	if err := t.add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MustDefine is like Define but panics on error.
// It is intended for settings declared in package-level variables.
func MustDefine[T any](t *Tree, path string, def T, constraints ...Constraint[T]) *Setting[T] {
	s, err := Define(t, path, def, constraints...)
	if err != nil {
		panic("tree: " + err.Error())
	}
	return s
}

// Path returns the JSON Pointer path of the setting.
func (s *Setting[T]) Path() string {
	return s.path
}

// Get returns the current value.
func (s *Setting[T]) Get() T {
	return s.cell.get()
}

// Default returns the default value.
func (s *Setting[T]) Default() T {
	return s.def
}

// Set validates v and stores it. On error the current value is kept.
func (s *Setting[T]) Set(v T) error {
	if err := s.validate(v); err != nil {
		return err
	}
	s.cell.set(v)
	return nil
}

// Reset restores the default value.
func (s *Setting[T]) Reset() {
	s.cell.set(s.def)
}

// Subscribe registers fn to be called with every new value.
// Returns a function that removes the subscription.
func (s *Setting[T]) Subscribe(fn func(T)) func() {
	return s.cell.subscribe(fn)
}

func (s *Setting[T]) validate(v T) error {
	for _, c := range s.constraints {
		if err := c(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Setting[T]) keys() []string {
	return s.parsed
}

func (s *Setting[T]) snapshot() (any, error) {
	v := s.Get()
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return v, nil
	}

	var out map[string]any
	if err := decode(rv.Interface(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// apply converts raw and stores it. A null value leaves the setting as is.
func (s *Setting[T]) apply(raw any) error {
	if raw == nil {
		return nil
	}
	var v T
	if err := decode(raw, &v); err != nil {
		return err
	}
	return s.Set(v)
}

// decode converts file values into Go values and back. Field names follow
// json tags, and durations may be written as strings such as "1m30s".
func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     output,
		TagName:    "json",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return &ConversionError{Value: input, Type: reflect.TypeOf(output).Elem().String(), Err: err}
	}
	return nil
}
