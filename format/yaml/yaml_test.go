package yaml

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/kuratest"
)

func TestCodec_Compliance(t *testing.T) {
	kuratest.NewCodecTester(t, New(), kuratest.WithMalformed([]byte("key: [unclosed"))).TestAll()
}

func TestNew(t *testing.T) {
	c := New()
	if c.Format() != codec.FormatYAML {
		t.Errorf("Format() = %v, want %v", c.Format(), codec.FormatYAML)
	}
	if c.Extension() != ".yaml" {
		t.Errorf("Extension() = %q, want .yaml", c.Extension())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]any
		wantErr string
	}{
		{name: "empty", input: "", want: map[string]any{}},
		{name: "comment only", input: "# nothing\n", want: map[string]any{}},
		{
			name:  "nested",
			input: "gui:\n  theme: dark # inline comment\n  scale: 2\n",
			want:  map[string]any{"gui": map[string]any{"theme": "dark", "scale": 2}},
		},
		{name: "sequence root", input: "- a\n- b\n", wantErr: "root must be a mapping, got sequence"},
		{name: "scalar root", input: "hello\n", wantErr: "root must be a mapping, got scalar"},
		{name: "invalid", input: "a: [1, 2", wantErr: "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMarshal_Indent(t *testing.T) {
	out, err := Marshal(map[string]any{"gui": map[string]any{"theme": "dark"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := "gui:\n  theme: dark\n"; string(out) != want {
		t.Errorf("Marshal() = %q, want %q", out, want)
	}
}

func TestNodeKindString(t *testing.T) {
	if got := nodeKindString(0); got != "unknown" {
		t.Errorf("nodeKindString(0) = %q, want unknown", got)
	}
}
