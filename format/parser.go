// Package format provides common utilities for codec implementations.
package format

import (
	"bytes"
	"io"

	"github.com/yacchi/kura/codec"
)

// ParseFunc parses raw bytes into a nested map.
// Empty input must yield an empty, non-nil map.
type ParseFunc func([]byte) (map[string]any, error)

// MarshalFunc renders a nested map as bytes.
type MarshalFunc func(map[string]any) ([]byte, error)

// New creates a Codec from a parse and a marshal function.
//
// The format, extension, parse, and marshal arguments are all required.
//
// Example:
//
//	c := format.New(codec.FormatYAML, ".yaml", yaml.Parse, yaml.Marshal)
func New(f codec.Format, ext string, parse ParseFunc, marshal MarshalFunc) codec.Codec {
	return &mapCodec{
		format:  f,
		ext:     ext,
		parse:   parse,
		marshal: marshal,
	}
}

// mapCodec implements codec.Codec by going through map[string]any.
type mapCodec struct {
	format  codec.Format
	ext     string
	parse   ParseFunc
	marshal MarshalFunc
}

// Ensure mapCodec implements the codec.Codec interface.
var _ codec.Codec = (*mapCodec)(nil)

// Format implements the codec.Codec interface.
func (c *mapCodec) Format() codec.Format {
	return c.format
}

// Extension implements the codec.Codec interface.
func (c *mapCodec) Extension() string {
	return c.ext
}

// Serialize implements the codec.Codec interface.
func (c *mapCodec) Serialize(t codec.Tree, w io.Writer) error {
	data, err := c.marshal(t.Snapshot())
	if err != nil {
		return codec.SerializeError(c.format, err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}

// Deserialize implements the codec.Codec interface.
// Read errors are returned as-is; parse errors are wrapped in *codec.Error and
// rejected values in *codec.ApplyError.
func (c *mapCodec) Deserialize(t codec.Tree, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	values, err := c.parse(data)
	if err != nil {
		return codec.DeserializeError(c.format, err)
	}
	if err := t.Apply(values); err != nil {
		return &codec.ApplyError{Format: c.format, Err: err}
	}
	return nil
}
