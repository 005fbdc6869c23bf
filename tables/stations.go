package tables

import (
	"fmt"

	"github.com/jamespfennell/hafas/wire"
)

// StationRecordSize is the fixed stride of the station table.
const StationRecordSize = 14

// Station is one raw record of the station table.
type Station struct {
	Name *string
	// ID is zero for synthetic endpoints such as addresses reached on foot.
	ID uint32
	// Micro-degrees, WGS-84.
	Longitude int32
	Latitude  int32
}

func (s Station) HasID() bool {
	return s.ID != 0
}

type StationTable struct {
	data    []byte
	strings *StringPool
}

// NewStationTable creates a table over [start, end) of the response.
func NewStationTable(c *wire.Cursor, start, end int, strings *StringPool) (*StationTable, error) {
	data, err := c.Region(start, end)
	if err != nil {
		return nil, fmt.Errorf("station table: %w", err)
	}
	return &StationTable{data: data, strings: strings}, nil
}

// Len returns the number of records in the table.
func (t *StationTable) Len() int {
	return len(t.data) / StationRecordSize
}

// Read consumes a 2-byte station index from the cursor and resolves it.
func (t *StationTable) Read(c *wire.Cursor) (Station, error) {
	index, err := c.ReadU16()
	if err != nil {
		return Station{}, err
	}
	return t.At(int(index))
}

func (t *StationTable) At(index int) (Station, error) {
	ptr := index * StationRecordSize
	if index < 0 || ptr+StationRecordSize > len(t.data) {
		return Station{}, fmt.Errorf("station %d beyond station table of %d records: %w", index, t.Len(), wire.ErrOutOfRange)
	}
	c := wire.NewCursor(t.data[ptr : ptr+StationRecordSize])
	var s Station
	var err error
	if s.Name, err = t.strings.Read(c); err != nil {
		return Station{}, fmt.Errorf("station %d name: %w", index, err)
	}
	// The record is exactly StationRecordSize bytes so the remaining reads cannot fail.
	s.ID, _ = c.ReadU32()
	s.Longitude, _ = c.ReadI32()
	s.Latitude, _ = c.ReadI32()
	return s, nil
}
