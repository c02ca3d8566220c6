// Package svcpath maps dot-separated service names to relative file paths.
//
// A service name such as "core.gui.theme" becomes the relative path
// "core/gui/theme.json5": every segment except the last is a directory, and
// the last segment is the file stem. All segments are treated the same way.
package svcpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Separator separates segments of a service name.
const Separator = "."

// DefaultExtension is the file extension used by the default codec.
const DefaultExtension = ".json5"

// ErrInvalidName is matched by every InvalidNameError.
var ErrInvalidName = errors.New("invalid service name")

// InvalidNameError is returned when a service name cannot be mapped to a path.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid service name %q: %s", e.Name, e.Reason)
}

// Is reports whether target is ErrInvalidName.
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidName
}

// Split splits a service name into its segments.
//
// Examples:
//
//	Split("core.gui.theme") -> ["core", "gui", "theme"], nil
//	Split("theme")          -> ["theme"], nil
//	Split("core..theme")    -> nil, error (empty segment)
func Split(name string) ([]string, error) {
	if name == "" {
		return nil, &InvalidNameError{Name: name, Reason: "name is empty"}
	}

	segments := strings.Split(name, Separator)
	for i, seg := range segments {
		if err := checkSegment(seg); err != "" {
			return nil, &InvalidNameError{
				Name:   name,
				Reason: fmt.Sprintf("segment %d %s", i, err),
			}
		}
	}
	return segments, nil
}

// Validate returns an error if name is not a valid service name.
func Validate(name string) error {
	_, err := Split(name)
	return err
}

func checkSegment(seg string) string {
	switch {
	case seg == "":
		return "is empty"
	case strings.ContainsAny(seg, `/\`):
		return "contains a path separator"
	case strings.ContainsRune(seg, 0):
		return "contains a NUL byte"
	}
	return ""
}

// Resolve returns the relative file path for a service name.
// The last segment gets ext appended; the preceding segments become nested
// directories.
//
// Example:
//
//	Resolve("core.gui.theme", ".json5") -> "core/gui/theme.json5"
func Resolve(name, ext string) (string, error) {
	segments, err := Split(name)
	if err != nil {
		return "", err
	}

	last := len(segments) - 1
	segments[last] += ext
	return filepath.Join(segments...), nil
}

// FromPath is the inverse of Resolve. It converts a relative file path back to
// a service name. The path must end with ext.
//
// Example:
//
//	FromPath("core/gui/theme.json5", ".json5") -> "core.gui.theme"
func FromPath(rel, ext string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(rel))
	if !strings.HasSuffix(clean, ext) {
		return "", fmt.Errorf("path %q does not have extension %q", rel, ext)
	}

	stem := strings.TrimSuffix(clean, ext)
	parts := strings.Split(stem, "/")
	for _, part := range parts {
		if strings.Contains(part, Separator) {
			return "", fmt.Errorf("path %q: component %q contains %q", rel, part, Separator)
		}
	}
	name := strings.Join(parts, Separator)
	if err := Validate(name); err != nil {
		return "", fmt.Errorf("path %q: %w", rel, err)
	}
	return name, nil
}
