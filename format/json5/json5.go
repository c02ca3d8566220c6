// Package json5 provides the default codec for service files.
//
// Service files use the .json5 extension and accept the JSON superset that
// github.com/tailscale/hujson understands: line and block comments, and
// trailing commas in objects and arrays. Output is written in hujson's
// canonical layout, which any JSON5 reader also accepts.
package json5

import (
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
	"github.com/yacchi/kura/format/jsonc"
)

// Extension is the file extension used by service files.
const Extension = ".json5"

// New returns the json5 codec.
//
// Example:
//
//	reg := kura.New(root, json5.New())
func New() codec.Codec {
	return format.New(codec.FormatJSON5, Extension, jsonc.Parse, jsonc.Marshal)
}
