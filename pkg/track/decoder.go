// ABOUTME: Track blob decoding entry points
// ABOUTME: Decodes raw or base64 track blobs into Descriptor values
package track

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"
)

// Descriptor holds the metadata decoded from a track blob
type Descriptor struct {
	Version    uint8   // Format version the blob was encoded with
	Title      string  // Display title
	Author     string  // Author or uploader
	Length     uint64  // Duration in milliseconds
	Identifier string  // Source-specific identifier used to resolve the track again
	IsStream   bool    // True for live streams without a fixed end
	URI        *string // Direct URL, nil when the blob carries none
	SourceName string  // Source manager that produced the track, e.g. "youtube"
	ArtworkURL *string // Version 3+
	ISRC       *string // Version 3+
}

// Duration returns the track length as a time.Duration, or 0 when unknown
func (d *Descriptor) Duration() time.Duration {
	if d.IsUnknownLength() || d.Length > math.MaxInt64/uint64(time.Millisecond) {
		return 0
	}
	return time.Duration(d.Length) * time.Millisecond
}

// IsUnknownLength reports whether Length holds one of the reserved "unknown" values
func (d *Descriptor) IsUnknownLength() bool {
	return d.Length == 0 || d.Length == math.MaxUint64 || d.Length == math.MaxInt64
}

// String formats the track for logs
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s - %s [%s:%s]", d.Author, d.Title, d.SourceName, d.Identifier)
}

// Result is the outcome of decoding one track in a batch
type Result struct {
	Encoded string
	Track   *Descriptor
	Err     error
}

// DecodeBase64 decodes a base64 track string
func DecodeBase64(encoded string) (*Descriptor, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fieldError("base64", 0, fmt.Errorf("%w: %v", ErrInvalidBase64, err))
	}
	return Decode(data)
}

// DecodeAll decodes every encoded track independently. A failure is recorded
// in that track's Result and does not affect the others.
func DecodeAll(encoded ...string) []Result {
	results := make([]Result, len(encoded))
	for i, e := range encoded {
		info, err := DecodeBase64(e)
		results[i] = Result{Encoded: e, Track: info, Err: err}
	}
	return results
}

// Decode decodes a raw track blob. It returns either a fully populated
// Descriptor or the first error encountered, as a *DecodeError.
func Decode(data []byte) (*Descriptor, error) {
	d := &decoder{c: NewCursor(data)}

	rev, err := d.header()
	if err != nil {
		return nil, err
	}
	d.width = rev.width

	info := &Descriptor{Version: rev.version}

	if info.Title, err = d.str("title"); err != nil {
		return nil, err
	}
	if info.Author, err = d.str("author"); err != nil {
		return nil, err
	}
	if info.Length, err = d.u64("length"); err != nil {
		return nil, err
	}
	if info.Identifier, err = d.str("identifier"); err != nil {
		return nil, err
	}

	stream, err := d.u8("is_stream")
	if err != nil {
		return nil, err
	}
	info.IsStream = stream == 1

	if info.URI, err = d.url(); err != nil {
		return nil, err
	}

	if rev.extended {
		if info.ArtworkURL, err = d.nullable("artwork_url"); err != nil {
			return nil, err
		}
		if info.ISRC, err = d.nullable("isrc"); err != nil {
			return nil, err
		}
	}

	if info.SourceName, err = d.str("source_name"); err != nil {
		return nil, err
	}

	return info, nil
}

// decoder wraps a cursor and annotates failures with the field being read
type decoder struct {
	c     *Cursor
	width LengthWidth
}

// header reads the flags byte, the optional version and the reserved bytes
func (d *decoder) header() (revision, error) {
	flags, err := d.u8("header")
	if err != nil {
		return revision{}, err
	}
	if err := d.skip("header", headerFramingSize); err != nil {
		return revision{}, err
	}

	version := uint8(ImplicitVersion)
	versionOffset := d.c.Offset()
	if isVersioned(flags) {
		if version, err = d.u8("version"); err != nil {
			return revision{}, err
		}
	}

	rev, ok := lookupRevision(version)
	if !ok {
		return revision{}, fieldError("version", versionOffset,
			fmt.Errorf("%w: %d (latest known is %d)", ErrUnsupportedVersion, version, LatestVersion))
	}

	if err := d.skip("reserved", rev.reserved); err != nil {
		return revision{}, err
	}
	return rev, nil
}

// url reads the URL section. Without a URL the producer still reserves a
// one byte length followed by that many padding bytes.
func (d *decoder) url() (*string, error) {
	hasURL, err := d.u8("has_url")
	if err != nil {
		return nil, err
	}
	if hasURL == 1 {
		s, err := d.str("uri")
		if err != nil {
			return nil, err
		}
		return &s, nil
	}

	padding, err := d.u8("uri_padding")
	if err != nil {
		return nil, err
	}
	return nil, d.skip("uri_padding", int(padding))
}

// nullable reads a presence byte followed by a string when the byte is 1
func (d *decoder) nullable(field string) (*string, error) {
	present, err := d.u8(field)
	if err != nil {
		return nil, err
	}
	if present != 1 {
		return nil, nil
	}
	s, err := d.str(field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *decoder) u8(field string) (uint8, error) {
	off := d.c.Offset()
	v, err := d.c.ReadU8()
	if err != nil {
		return 0, fieldError(field, off, err)
	}
	return v, nil
}

func (d *decoder) u64(field string) (uint64, error) {
	off := d.c.Offset()
	v, err := d.c.ReadU64()
	if err != nil {
		return 0, fieldError(field, off, err)
	}
	return v, nil
}

func (d *decoder) str(field string) (string, error) {
	off := d.c.Offset()
	s, err := d.c.ReadString(d.width)
	if err != nil {
		return "", fieldError(field, off, err)
	}
	return s, nil
}

func (d *decoder) skip(field string, n int) error {
	off := d.c.Offset()
	if err := d.c.Skip(n); err != nil {
		return fieldError(field, off, err)
	}
	return nil
}
