package toml

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/kuratest"
)

func TestCodec_Compliance(t *testing.T) {
	kuratest.NewCodecTester(t, New(), kuratest.WithMalformed([]byte("key = "))).TestAll()
}

func TestNew(t *testing.T) {
	c := New()
	if c.Format() != codec.FormatTOML {
		t.Errorf("Format() = %v, want %v", c.Format(), codec.FormatTOML)
	}
	if c.Extension() != ".toml" {
		t.Errorf("Extension() = %q, want .toml", c.Extension())
	}
}

func TestParse(t *testing.T) {
	got, err := Parse([]byte("# comment\n[gui]\ntheme = \"dark\"\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]any{"gui": map[string]any{"theme": "dark"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}

	got, err = Parse(nil)
	if err != nil || len(got) != 0 || got == nil {
		t.Errorf("Parse(nil) = %#v, %v; want empty map", got, err)
	}

	if _, err := Parse([]byte("a = ")); err == nil {
		t.Error("Parse() expected error, got nil")
	}
}

func TestMarshal_RejectsNull(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		path string
	}{
		{name: "top level", data: map[string]any{"a": nil}, path: `"/a"`},
		{name: "nested", data: map[string]any{"a/b": map[string]any{"c": nil}}, path: `"/a~1b/c"`},
		{name: "in array", data: map[string]any{"a": []any{"x", nil}}, path: `"/a/1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.path) {
				t.Fatalf("Marshal() error = %v, want path %s", err, tt.path)
			}
		})
	}
}

func TestStubbedEncoderErrors(t *testing.T) {
	origMarshal, origUnmarshal := tomlMarshal, tomlUnmarshal
	t.Cleanup(func() {
		tomlMarshal, tomlUnmarshal = origMarshal, origUnmarshal
	})

	boom := errors.New("boom")
	tomlMarshal = func(any) ([]byte, error) { return nil, boom }
	tomlUnmarshal = func([]byte, any) error { return boom }

	if _, err := Marshal(map[string]any{"a": 1}); !errors.Is(err, boom) {
		t.Errorf("Marshal() error = %v, want boom", err)
	}
	if _, err := Parse([]byte("a = 1")); !errors.Is(err, boom) {
		t.Errorf("Parse() error = %v, want boom", err)
	}
}
