// Package yaml provides a YAML codec built on gopkg.in/yaml.v3.
package yaml

import (
	"bytes"
	"fmt"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/format"
	"gopkg.in/yaml.v3"
)

// Extension is the file extension used by New.
const Extension = ".yaml"

// New returns a YAML codec.
func New() codec.Codec {
	return format.New(codec.FormatYAML, Extension, Parse, Marshal)
}

// Parse parses YAML data into a map.
//
// Empty/nil input is treated as an empty document. The root node must be a
// mapping.
func Parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse YAML: root must be a mapping, got %s", nodeKindString(node.Kind))
	}

	var result map[string]any
	if err := node.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	if result == nil {
		return map[string]any{}, nil
	}
	return result, nil
}

// Marshal renders data as YAML with two-space indentation.
func Marshal(data map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// nodeKindString returns a human-readable string for a node kind.
func nodeKindString(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
