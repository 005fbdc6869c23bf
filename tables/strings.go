// Package tables contains the indexed lookup tables of a HAFAS binary response:
// the string pool, the station table and the comment table.
//
// All tables are views into the response bytes and live only as long as a single decode.
package tables

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jamespfennell/hafas/wire"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrEncodingAlreadySet is returned when the pool encoding is configured twice.
var ErrEncodingAlreadySet = errors.New("string pool encoding already set")

// StringPool is the offset-addressed table of NUL-terminated strings.
//
// Until SetEncoding is called strings are decoded as ISO-8859-1, which is enough to read
// the charset name itself.
type StringPool struct {
	data        []byte
	encoding    encoding.Encoding
	encodingSet bool
}

// NewStringPool creates a pool over [start, end) of the response.
func NewStringPool(c *wire.Cursor, start, end int) (*StringPool, error) {
	data, err := c.Region(start, end)
	if err != nil {
		return nil, fmt.Errorf("string table: %w", err)
	}
	return &StringPool{
		data:     data,
		encoding: charmap.ISO8859_1,
	}, nil
}

// SetEncoding fixes the pool encoding by its IANA name, e.g. "ISO-8859-1" or "UTF-8".
//
// It may be called once; the encoding applies to every string read afterwards.
func (p *StringPool) SetEncoding(name string) error {
	if p.encodingSet {
		return ErrEncodingAlreadySet
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	if e == nil {
		return fmt.Errorf("unsupported charset %q", name)
	}
	p.encoding = e
	p.encodingSet = true
	return nil
}

// Len returns the size of the pool in bytes.
func (p *StringPool) Len() int {
	return len(p.data)
}

// Read consumes a 2-byte string reference from the cursor and resolves it.
//
// A zero reference is the null string and yields nil.
func (p *StringPool) Read(c *wire.Cursor) (*string, error) {
	offset, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return p.ReadAt(int(offset))
}

// ReadAt resolves the string starting at offset within the pool.
func (p *StringPool) ReadAt(offset int) (*string, error) {
	if offset == 0 {
		return nil, nil
	}
	if offset < 0 || offset >= len(p.data) {
		return nil, fmt.Errorf("string offset %d exceeds string table size %d: %w", offset, len(p.data), wire.ErrOutOfRange)
	}
	raw := p.data[offset:]
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		return nil, fmt.Errorf("unterminated string at offset %d: %w", offset, wire.ErrUnexpectedEndOfData)
	}
	decoded, err := p.encoding.NewDecoder().Bytes(raw[:end])
	if err != nil {
		return nil, fmt.Errorf("decoding string at offset %d: %w", offset, err)
	}
	s := strings.TrimSpace(string(decoded))
	return &s, nil
}
