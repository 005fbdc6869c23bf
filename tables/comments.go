package tables

import (
	"fmt"

	"github.com/jamespfennell/hafas/wire"
)

// CommentTable holds lists of comment strings attached to legs.
//
// An entry is a 2-byte count followed by that many string references.
type CommentTable struct {
	data    []byte
	strings *StringPool
}

// NewCommentTable creates a table over [start, end) of the response.
func NewCommentTable(c *wire.Cursor, start, end int, strings *StringPool) (*CommentTable, error) {
	data, err := c.Region(start, end)
	if err != nil {
		return nil, fmt.Errorf("comment table: %w", err)
	}
	return &CommentTable{data: data, strings: strings}, nil
}

// Read consumes a 2-byte comment pointer from the cursor and resolves it.
func (t *CommentTable) Read(c *wire.Cursor) ([]string, error) {
	ptr, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return t.At(int(ptr))
}

// At returns the comments of the entry at ptr. Null strings in the entry are skipped.
//
// Pointer 0 into an empty table is an empty list.
func (t *CommentTable) At(ptr int) ([]string, error) {
	if ptr == 0 && len(t.data) == 0 {
		return nil, nil
	}
	if ptr < 0 || ptr >= len(t.data) {
		return nil, fmt.Errorf("comment pointer %d exceeds comment table size %d: %w", ptr, len(t.data), wire.ErrOutOfRange)
	}
	c := wire.NewCursor(t.data)
	if err := c.Seek(ptr); err != nil {
		return nil, err
	}
	n, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("comment count at %d: %w", ptr, err)
	}
	var comments []string
	for i := 0; i < int(n); i++ {
		s, err := t.strings.Read(c)
		if err != nil {
			return nil, fmt.Errorf("comment %d at %d: %w", i, ptr, err)
		}
		if s != nil {
			comments = append(comments, *s)
		}
	}
	return comments, nil
}
