// Package kuratest provides test utilities for codec implementations.
//
// Every codec should pass the compliance suite:
//
//	func TestCodec_Compliance(t *testing.T) {
//	    kuratest.NewCodecTester(t, yaml.New()).TestAll()
//	}
package kuratest

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/tree"
)

// Window is a struct-valued setting used by the suite.
type Window struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximized bool `json:"maximized"`
}

// Sample is a tree covering the value shapes a codec must round-trip.
type Sample struct {
	*tree.Tree
	Name    *tree.Setting[string]
	Count   *tree.Setting[int]
	Ratio   *tree.Setting[float64]
	Enabled *tree.Setting[bool]
	Tags    *tree.Setting[[]string]
	Timeout *tree.Setting[time.Duration]
	Theme   *tree.Setting[string]
	Window  *tree.Setting[Window]
}

// NewSample returns a Sample holding its default values.
func NewSample() *Sample {
	t := tree.New()
	return &Sample{
		Tree:    t,
		Name:    tree.MustDefine(t, "/name", "default"),
		Count:   tree.MustDefine(t, "/count", 1, tree.Range(0, 100)),
		Ratio:   tree.MustDefine(t, "/ratio", 0.25),
		Enabled: tree.MustDefine(t, "/enabled", false),
		Tags:    tree.MustDefine(t, "/tags", []string{}),
		Timeout: tree.MustDefine(t, "/net/timeout", 5*time.Second),
		Theme:   tree.MustDefine(t, "/gui/theme/name", "dark", tree.OneOf("dark", "light")),
		Window:  tree.MustDefine(t, "/gui/window", Window{Width: 800, Height: 600}),
	}
}

// Modify sets every setting of s to a non-default value.
func (s *Sample) Modify() {
	_ = s.Name.Set(`quoted "name" with unicode ✓`)
	_ = s.Count.Set(42)
	_ = s.Ratio.Set(1.5)
	_ = s.Enabled.Set(true)
	_ = s.Tags.Set([]string{"alpha", "beta"})
	_ = s.Timeout.Set(90 * time.Second)
	_ = s.Theme.Set("light")
	_ = s.Window.Set(Window{Width: 1920, Height: 1080, Maximized: true})
}

// CodecTester runs the compliance suite against a codec.
type CodecTester struct {
	t         *testing.T
	c         codec.Codec
	malformed []byte
}

// Option configures a CodecTester.
type Option func(*CodecTester)

// WithMalformed sets the input the codec must reject. Default is "{".
func WithMalformed(data []byte) Option {
	return func(ct *CodecTester) {
		ct.malformed = data
	}
}

// NewCodecTester creates a tester for c.
func NewCodecTester(t *testing.T, c codec.Codec, opts ...Option) *CodecTester {
	ct := &CodecTester{
		t:         t,
		c:         c,
		malformed: []byte("{"),
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct
}

// TestAll runs every test of the suite as a subtest.
func (ct *CodecTester) TestAll() {
	ct.t.Run("Metadata", ct.TestMetadata)
	ct.t.Run("RoundTrip", ct.TestRoundTrip)
	ct.t.Run("EmptyInput", ct.TestEmptyInput)
	ct.t.Run("Malformed", ct.TestMalformed)
	ct.t.Run("RejectedValues", ct.TestRejectedValues)
	ct.t.Run("ReadError", ct.TestReadError)
	ct.t.Run("WriteError", ct.TestWriteError)
}

// TestMetadata checks Format and Extension.
func (ct *CodecTester) TestMetadata(t *testing.T) {
	if ct.c.Format() == "" {
		t.Error("Format() is empty")
	}
	if ext := ct.c.Extension(); !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		t.Errorf("Extension() = %q, want a leading dot", ext)
	}
}

// TestRoundTrip saves a modified sample and loads it into a fresh one.
func (ct *CodecTester) TestRoundTrip(t *testing.T) {
	src := NewSample()
	src.Modify()

	var buf bytes.Buffer
	if err := ct.c.Serialize(src, &buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	dst := NewSample()
	if err := ct.c.Deserialize(dst, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize() error = %v\ncontent:\n%s", err, buf.String())
	}

	if got, want := dst.Snapshot(), src.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %#v\nwant: %#v\ncontent:\n%s", got, want, buf.String())
	}
}

// TestEmptyInput checks that an empty stream leaves the tree untouched.
func (ct *CodecTester) TestEmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n  \n"} {
		s := NewSample()
		s.Modify()
		want := s.Snapshot()
		if err := ct.c.Deserialize(s, strings.NewReader(in)); err != nil {
			t.Fatalf("Deserialize(%q) error = %v", in, err)
		}
		if got := s.Snapshot(); !reflect.DeepEqual(got, want) {
			t.Errorf("Deserialize(%q) changed the tree", in)
		}
	}
}

// TestMalformed checks that unparsable input yields a *codec.Error.
func (ct *CodecTester) TestMalformed(t *testing.T) {
	s := NewSample()
	err := ct.c.Deserialize(s, bytes.NewReader(ct.malformed))

	var cerr *codec.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("Deserialize(%q) error = %v, want *codec.Error", ct.malformed, err)
	}
	if cerr.Op != codec.OpDeserialize || cerr.Format != ct.c.Format() {
		t.Errorf("error = %+v, want %s %s", cerr, ct.c.Format(), codec.OpDeserialize)
	}
}

// TestRejectedValues checks partial application: values the tree rejects
// are reported as *codec.ApplyError while the others are applied.
func (ct *CodecTester) TestRejectedValues(t *testing.T) {
	// A permissive tree writes values the sample's constraints reject.
	loose := tree.New()
	tree.MustDefine(loose, "/name", "accepted")
	tree.MustDefine(loose, "/count", 1000)
	tree.MustDefine(loose, "/gui/theme/name", "purple")
	tree.MustDefine(loose, "/unknown", "ignored")

	var buf bytes.Buffer
	if err := ct.c.Serialize(loose, &buf); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	s := NewSample()
	err := ct.c.Deserialize(s, &buf)

	var applyErr *codec.ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Deserialize() error = %v, want *codec.ApplyError", err)
	}
	if !errors.Is(err, tree.ErrConstraint) {
		t.Errorf("error = %v, want ErrConstraint", err)
	}
	if got := s.Name.Get(); got != "accepted" {
		t.Errorf("name = %q, want accepted", got)
	}
	if got := s.Count.Get(); got != 1 {
		t.Errorf("count = %d, want 1 (rejected)", got)
	}
	if got := s.Theme.Get(); got != "dark" {
		t.Errorf("theme = %q, want dark (rejected)", got)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

type errWriter struct{ err error }

func (w errWriter) Write([]byte) (int, error) { return 0, w.err }

// TestReadError checks that read failures are returned unchanged.
func (ct *CodecTester) TestReadError(t *testing.T) {
	readErr := errors.New("read failed")
	err := ct.c.Deserialize(NewSample(), errReader{err: readErr})
	if !errors.Is(err, readErr) {
		t.Fatalf("Deserialize() error = %v, want %v", err, readErr)
	}
	var cerr *codec.Error
	if errors.As(err, &cerr) {
		t.Errorf("read failure reported as codec error: %v", err)
	}
}

// TestWriteError checks that write failures are returned.
func (ct *CodecTester) TestWriteError(t *testing.T) {
	writeErr := errors.New("write failed")
	if err := ct.c.Serialize(NewSample(), errWriter{err: writeErr}); !errors.Is(err, writeErr) {
		t.Fatalf("Serialize() error = %v, want %v", err, writeErr)
	}
}
