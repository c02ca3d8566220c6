// Package json provides a strict JSON codec backed by encoding/json.
//
// Comments and trailing commas are rejected; use the json5 or jsonc codec
// for hand-edited files.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
)

// Extension is the file extension used by New.
const Extension = ".json"

// New returns a JSON codec.
func New() codec.Codec {
	return format.New(codec.FormatJSON, Extension, Parse, Marshal)
}

// Parse parses JSON data into a map.
//
// The root value must be a JSON object. Empty/whitespace input is treated as an
// empty object.
func Parse(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to parse JSON: unexpected data after top-level value")
	}

	if root == nil {
		return map[string]any{}, nil
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to parse JSON: root must be an object, got %T", root)
	}
	return obj, nil
}

// Marshal renders data as indented JSON.
func Marshal(data map[string]any) ([]byte, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(b, '\n'), nil
}
