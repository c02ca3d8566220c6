package kura

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Sentinel errors returned by Registry methods.
var (
	// ErrDuplicateService is returned by Register for a name that is already
	// registered.
	ErrDuplicateService = errors.New("service already registered")

	// ErrServiceNotFound is returned for a name that was never registered.
	ErrServiceNotFound = errors.New("service not found")

	// ErrNilTree is returned by Register when the tree is nil.
	ErrNilTree = errors.New("nil configuration tree")
)

// Op names a persistence operation.
type Op string

const (
	OpLoad Op = "load"
	OpSave Op = "save"
)

// Kind classifies a UnitError.
type Kind string

const (
	// KindStorage covers directory creation, opening, reading, writing and
	// renaming files.
	KindStorage Kind = "storage"

	// KindCodec covers content that could not be encoded or decoded, and
	// values rejected by the tree.
	KindCodec Kind = "codec"
)

// UnitError describes a failed load or save of a single service.
type UnitError struct {
	Service string
	Path    string
	Op      Op
	Kind    Kind
	Err     error
}

func (e *UnitError) Error() string {
	prep := "from"
	if e.Op == OpSave {
		prep = "to"
	}
	return fmt.Sprintf("failed to %s service %q %s %q: %v", e.Op, e.Service, prep, e.Path, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Failures lists the services that failed during a bulk operation, in the
// order they were processed.
type Failures []*UnitError

// Len returns the number of failed services.
func (f Failures) Len() int {
	return len(f)
}

// Services returns the names of the failed services.
func (f Failures) Services() []string {
	out := make([]string, len(f))
	for i, e := range f {
		out[i] = e.Service
	}
	return out
}

// Err combines the failures into a single error, or returns nil if there
// are none. The individual errors can be recovered with multierr.Errors.
func (f Failures) Err() error {
	var err error
	for _, e := range f {
		err = multierr.Append(err, e)
	}
	return err
}
