// Package wire contains a little-endian reader for HAFAS binary responses.
//
// The format addresses everything by absolute offset, so the Cursor is a seekable
// view over the whole response rather than a stream.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEndOfData is returned when a seek or read runs past the end of the data.
	ErrUnexpectedEndOfData = errors.New("unexpected end of data")

	// ErrOutOfRange is returned when an index or pointer falls outside the region it addresses.
	ErrOutOfRange = errors.New("index out of range")
)

// Cursor reads fixed-width little-endian integers from an immutable byte slice.
//
// Every read advances the position by its width. A Cursor is not safe for concurrent use,
// but any number of cursors may share the same underlying slice.
type Cursor struct {
	b   []byte
	pos int
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Pos returns the current absolute position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the length of the underlying data.
func (c *Cursor) Len() int {
	return len(c.b)
}

// Seek moves the cursor to an absolute position.
//
// Seeking to exactly the end of the data is allowed; any read from there fails.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.b) {
		return fmt.Errorf("seek to %d in %d bytes: %w", pos, len(c.b), ErrUnexpectedEndOfData)
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	return c.Seek(c.pos + n)
}

// Reset moves the cursor back to the start of the data.
func (c *Cursor) Reset() {
	c.pos = 0
}

func (c *Cursor) next(n int) ([]byte, error) {
	if c.pos+n > len(c.b) {
		return nil, fmt.Errorf("read %d bytes at %d in %d bytes: %w", n, c.pos, len(c.b), ErrUnexpectedEndOfData)
	}
	s := c.b[c.pos : c.pos+n]
	c.pos += n
	return s, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	s, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	s, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	s, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// ReadI32 reads a two's complement 32-bit integer; coordinates are stored this way.
func (c *Cursor) ReadI32() (int32, error) {
	u, err := c.ReadU32()
	return int32(u), err
}

// ReadBytes returns the next n bytes without copying them.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d: %w", n, ErrOutOfRange)
	}
	return c.next(n)
}

// Region returns the bytes in [start, end), which must lie within the data.
//
// Regions of the response have no explicit length; callers pass the start of the
// following region as end.
func (c *Cursor) Region(start, end int) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("region [%d, %d): %w", start, end, ErrOutOfRange)
	}
	if end > len(c.b) {
		return nil, fmt.Errorf("region [%d, %d) in %d bytes: %w", start, end, len(c.b), ErrUnexpectedEndOfData)
	}
	return c.b[start:end], nil
}
