// ABOUTME: Error values returned by the track decoder
// ABOUTME: Sentinel error kinds plus a field-annotated DecodeError
package track

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBase64 is returned when an encoded track is not valid base64
	ErrInvalidBase64 = errors.New("invalid base64")

	// ErrUnexpectedEOF is returned when a read needs more bytes than remain
	ErrUnexpectedEOF = errors.New("unexpected end of data")

	// ErrInvalidUTF8 is returned when a string field is not valid UTF-8
	ErrInvalidUTF8 = errors.New("invalid utf-8 in string")

	// ErrUnsupportedVersion is returned for format versions this decoder does not know
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// DecodeError records which field was being read when decoding failed
type DecodeError struct {
	Field  string // Field being decoded, e.g. "title"
	Offset int    // Byte offset where the field started
	Err    error  // Underlying error, one of the Err* sentinels (possibly wrapped)
}

// Error returns the error message
func (e *DecodeError) Error() string {
	return fmt.Sprintf("track: decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func fieldError(field string, offset int, err error) error {
	return &DecodeError{Field: field, Offset: offset, Err: err}
}
