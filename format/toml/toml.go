// Package toml provides a TOML codec built on github.com/pelletier/go-toml/v2.
package toml

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
	"github.com/yacchi/kura/jsonptr"
)

// Extension is the file extension used by New.
const Extension = ".toml"

var tomlMarshal = toml.Marshal
var tomlUnmarshal = toml.Unmarshal

// New returns a TOML codec.
func New() codec.Codec {
	return format.New(codec.FormatTOML, Extension, Parse, Marshal)
}

// Parse parses TOML data into a map.
// Returns empty map if data is nil or empty.
func Parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var result map[string]any
	if err := tomlUnmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if result == nil {
		return map[string]any{}, nil
	}
	return result, nil
}

// Marshal renders data as TOML.
// TOML has no null; a nil anywhere in data is reported with its JSON Pointer.
func Marshal(data map[string]any) ([]byte, error) {
	if err := checkNilMap("", data); err != nil {
		return nil, err
	}
	b, err := tomlMarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return b, nil
}

func checkNilMap(path string, m map[string]any) error {
	for k, v := range m {
		p := path + "/" + jsonptr.Escape(k)
		if err := checkNil(p, v); err != nil {
			return err
		}
	}
	return nil
}

func checkNil(path string, v any) error {
	switch vv := v.(type) {
	case nil:
		return fmt.Errorf("value at %q: TOML does not support null values", path)
	case map[string]any:
		return checkNilMap(path, vv)
	case []any:
		for i, item := range vv {
			if err := checkNil(fmt.Sprintf("%s/%d", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}
