package calendar

import (
	"encoding/binary"
	"testing"

	"github.com/jamespfennell/hafas/tables"
	"github.com/jamespfennell/hafas/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOffset(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		base     uint16
		mask     []byte
		expected int
	}{
		{"first bit", 0, []byte{0b10000000}, 0},
		{"second bit", 0, []byte{0b01000000}, 1},
		{"last bit of first byte", 0, []byte{0b00000001}, 7},
		{"leading zero byte", 0, []byte{0x00, 0b00100000}, 10},
		{"base shifts by whole bytes", 2, []byte{0b01000000}, 17},
		{"only the first set bit counts", 0, []byte{0b00010001, 0xff}, 3},
		{"empty mask", 1, nil, 8},
		{"no bits set", 0, []byte{0, 0}, 16},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, DayOffset(tc.base, tc.mask))
		})
	}
}

func TestRead(t *testing.T) {
	blob := []byte("\x00daily\x00")
	pool, err := tables.NewStringPool(wire.NewCursor(blob), 0, len(blob))
	require.NoError(t, err)

	var b []byte
	b = binary.LittleEndian.AppendUint16(b, 1) // text
	b = binary.LittleEndian.AppendUint16(b, 1) // base
	b = binary.LittleEndian.AppendUint16(b, 2) // length
	b = append(b, 0x00, 0b00100100)

	e, err := Read(wire.NewCursor(b), pool)
	require.NoError(t, err)
	assert.Equal(t, "daily", *e.Text)
	assert.Equal(t, 18, e.DayOffset())
	assert.Equal(t, []int{18, 21}, e.ActiveDays())
}

func TestReadTruncatedMask(t *testing.T) {
	blob := []byte("\x00")
	pool, err := tables.NewStringPool(wire.NewCursor(blob), 0, len(blob))
	require.NoError(t, err)

	var b []byte
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint16(b, 4)
	b = append(b, 0x80)

	_, err = Read(wire.NewCursor(b), pool)
	assert.ErrorIs(t, err, wire.ErrUnexpectedEndOfData)
}
