// Package codec defines the contract between a configuration tree and the
// serializer that turns it into bytes and back.
//
// The registry never looks inside a tree. It hands the tree to a Codec, which
// reads it through Snapshot and writes it through Apply.
package codec

import "io"

// Tree is a mutable container of settings.
//
// Snapshot returns the current values as a nested map. Callers treat the map
// as read-only.
//
// Apply updates the tree in place from a nested map. Implementations apply
// values incrementally: keys they do not know are ignored, and a bad value
// for one setting must not prevent the others from being applied. The
// returned error describes the values that were rejected.
type Tree interface {
	Snapshot() map[string]any
	Apply(values map[string]any) error
}

// Codec serializes a Tree to a byte stream and deserializes it back.
type Codec interface {
	// Format returns the format handled by this codec.
	Format() Format

	// Extension returns the file extension, including the leading dot,
	// used for files written by this codec.
	Extension() string

	// Serialize writes the tree's current values to w.
	Serialize(t Tree, w io.Writer) error

	// Deserialize reads r and applies the decoded values to t.
	// An empty stream leaves t untouched.
	Deserialize(t Tree, r io.Reader) error
}

// Format identifies a file format.
type Format string

const (
	// FormatJSON5 is JSON with comments and trailing commas
	// (using github.com/tailscale/hujson).
	FormatJSON5 Format = "json5"

	// FormatJSONC is JSON with comments (using github.com/tailscale/hujson).
	FormatJSONC Format = "jsonc"

	// FormatYAML represents YAML format (using gopkg.in/yaml.v3).
	FormatYAML Format = "yaml"

	// FormatTOML represents TOML format (using github.com/pelletier/go-toml/v2).
	FormatTOML Format = "toml"

	// FormatJSON represents standard JSON.
	FormatJSON Format = "json"
)
