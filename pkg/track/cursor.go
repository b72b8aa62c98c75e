// ABOUTME: Forward-only byte cursor for the track wire format
// ABOUTME: Big-endian integer reads, skips and length-prefixed strings
package track

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// LengthWidth is the size of a string length prefix
type LengthWidth int

const (
	// Length8 is a one byte length prefix (max 255 bytes)
	Length8 LengthWidth = 1
	// Length16 is a two byte big-endian length prefix (max 65535 bytes)
	Length16 LengthWidth = 2
)

// Cursor reads sequentially from an immutable byte slice.
// A failed read leaves the offset unchanged.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor creates a cursor positioned at the start of buf
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current read position
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// take returns the next n bytes and advances past them
func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF, n, c.off, c.Remaining())
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadU8 reads one byte
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a big-endian uint16
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU64 reads a big-endian uint64
func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Skip advances n bytes without reading them. Skipping past the end is an error.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// ReadString reads a length-prefixed UTF-8 string
func (c *Cursor) ReadString(width LengthWidth) (string, error) {
	start := c.off

	var size int
	switch width {
	case Length8:
		n, err := c.ReadU8()
		if err != nil {
			return "", err
		}
		size = int(n)
	case Length16:
		n, err := c.ReadU16()
		if err != nil {
			return "", err
		}
		size = int(n)
	default:
		return "", fmt.Errorf("unsupported string length width: %d", width)
	}

	b, err := c.take(size)
	if err != nil {
		c.off = start
		return "", err
	}
	if !utf8.Valid(b) {
		c.off = start
		return "", ErrInvalidUTF8
	}

	return string(b), nil
}
