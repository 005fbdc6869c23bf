// Package calendar decodes the service-day bitmasks of a HAFAS binary response.
//
// Each trip references one entry. The mask has one bit per day, most significant bit
// first, starting serviceBitBase*8 days after the reference date of the query.
package calendar

import (
	"fmt"

	"github.com/jamespfennell/hafas/tables"
	"github.com/jamespfennell/hafas/wire"
)

// Entry is a single service-days table entry.
type Entry struct {
	// Human readable description, e.g. "daily"; not used for decoding.
	Text *string
	Base uint16
	Mask []byte
}

// Read decodes the entry at the cursor's position.
func Read(c *wire.Cursor, strings *tables.StringPool) (Entry, error) {
	var e Entry
	var err error
	if e.Text, err = strings.Read(c); err != nil {
		return Entry{}, fmt.Errorf("service days text: %w", err)
	}
	if e.Base, err = c.ReadU16(); err != nil {
		return Entry{}, fmt.Errorf("service bit base: %w", err)
	}
	length, err := c.ReadU16()
	if err != nil {
		return Entry{}, fmt.Errorf("service bit length: %w", err)
	}
	if e.Mask, err = c.ReadBytes(int(length)); err != nil {
		return Entry{}, fmt.Errorf("service bits: %w", err)
	}
	return e, nil
}

// DayOffset returns the offset in days of the first active day of the entry.
func (e Entry) DayOffset() int {
	return DayOffset(e.Base, e.Mask)
}

// DayOffset scans the mask for its first set bit.
//
// Only the first active day is returned, even if more bits are set. A mask with no set
// bits yields base*8 + 8*len(mask).
func DayOffset(base uint16, mask []byte) int {
	offset := int(base) * 8
	for _, b := range mask {
		if b == 0 {
			offset += 8
			continue
		}
		for b&0x80 == 0 {
			b <<= 1
			offset++
		}
		break
	}
	return offset
}

// ActiveDays returns the offsets of every set bit of the mask.
//
// Decoding only uses the first one; the full list is for diagnostics.
func (e Entry) ActiveDays() []int {
	var days []int
	for i, b := range e.Mask {
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>bit) != 0 {
				days = append(days, int(e.Base)*8+i*8+bit)
			}
		}
	}
	return days
}
