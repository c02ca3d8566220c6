// Package jsonc provides a JSONC (JSON with comments and trailing commas)
// codec built on github.com/tailscale/hujson.
//
// Files are read with comments and trailing commas allowed, and written in
// hujson's canonical layout.
package jsonc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
)

// Extension is the file extension used by New.
const Extension = ".jsonc"

// New returns a JSONC codec.
//
// Example:
//
//	reg := kura.New("~/.config/app", jsonc.New())
func New() codec.Codec {
	return format.New(codec.FormatJSONC, Extension, Parse, Marshal)
}

// Parse parses JSONC data into a map.
// Comments and trailing commas are accepted. The root value must be an object.
// Returns an empty map if data is nil or empty.
func Parse(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	std, err := hujson.Standardize(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode JSONC: %w", err)
	}
	if root == nil {
		return map[string]any{}, nil
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to decode JSONC: root must be an object, got %T", root)
	}
	return obj, nil
}

// Marshal renders data as JSONC in hujson's canonical layout.
func Marshal(data map[string]any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONC: %w", err)
	}

	formatted, err := Format(b)
	if err != nil {
		return nil, err
	}
	return formatted, nil
}

// Format rewrites JSONC bytes in hujson's canonical layout.
// Comments are preserved.
func Format(data []byte) ([]byte, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONC: %w", err)
	}
	v.Format()

	out := v.Pack()
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, nil
}
