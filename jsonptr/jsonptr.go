// Package jsonptr implements the subset of JSON Pointer (RFC 6901) used to
// address settings inside a configuration tree.
//
// Reference: https://tools.ietf.org/html/rfc6901
package jsonptr

import (
	"fmt"
	"strings"
)

// Escape escapes a key for use in a JSON Pointer.
// "~" is encoded as "~0" and "/" as "~1".
func Escape(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// Unescape reverses the escaping applied by Escape.
func Unescape(key string) string {
	key = strings.ReplaceAll(key, "~1", "/")
	return strings.ReplaceAll(key, "~0", "~")
}

// Parse splits a JSON Pointer into its component keys.
//
// Examples:
//
//	Parse("/window/width")        -> ["window", "width"], nil
//	Parse("/paths/~1api~1users")  -> ["paths", "/api/users"], nil
//	Parse("")                     -> [], nil (the whole document)
//	Parse("window/width")         -> nil, error (must start with "/")
func Parse(pointer string) ([]string, error) {
	if pointer == "" {
		return []string{}, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("invalid JSON Pointer %q: must start with '/' or be empty", pointer)
	}

	parts := strings.Split(pointer[1:], "/")
	for i, part := range parts {
		parts[i] = Unescape(part)
	}
	return parts, nil
}
