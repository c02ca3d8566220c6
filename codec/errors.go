package codec

import "fmt"

// Op names the codec operation that failed.
type Op string

const (
	OpSerialize   Op = "serialize"
	OpDeserialize Op = "deserialize"
)

// Error is returned by codecs when content cannot be encoded or decoded.
type Error struct {
	Format Format
	Op     Op
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Format, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SerializeError wraps err as a serialization failure for format f.
func SerializeError(f Format, err error) *Error {
	return &Error{Format: f, Op: OpSerialize, Err: err}
}

// DeserializeError wraps err as a deserialization failure for format f.
func DeserializeError(f Format, err error) *Error {
	return &Error{Format: f, Op: OpDeserialize, Err: err}
}

// ApplyError is returned by Deserialize when the content decoded fine but the
// tree rejected some of the values. The accepted values have been applied.
type ApplyError struct {
	Format Format
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s apply: %v", e.Format, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
