package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSetting is returned by Define when the path is already taken.
	ErrDuplicateSetting = errors.New("setting already defined")

	// ErrOverlappingSetting is returned by Define when the path lies inside
	// or above an existing setting.
	ErrOverlappingSetting = errors.New("setting overlaps an existing setting")

	// ErrConstraint is matched by every constraint violation.
	ErrConstraint = errors.New("constraint violated")
)

// InvalidPathError is returned when a setting path is not a valid JSON Pointer.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// SettingError reports a value Apply could not store.
type SettingError struct {
	Path string
	Err  error
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("setting %s: %v", e.Path, e.Err)
}

func (e *SettingError) Unwrap() error {
	return e.Err
}

// ConversionError is returned when a file value cannot be converted to the
// setting's type.
type ConversionError struct {
	Value any
	Type  string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v (%T) to %s: %v", e.Value, e.Value, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConstraintError describes a value rejected by a constraint.
type ConstraintError struct {
	Value  any
	Reason string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("value %v: %s", e.Value, e.Reason)
}

// Is reports whether target is ErrConstraint.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}
