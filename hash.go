package hafas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"time"
)

// Hash calculates a hash of a trip using the provided hash function.
//
// Only timetabled content is hashed. The ID, predicted times and platforms,
// cancellations and messages are ignored, so the same connection returned by two
// searches hashes equally even if its realtime data changed.
func (t *Trip) Hash(h hash.Hash) {
	s := hasher{h: h}
	s.trip(t)
	s.flush()
}

type hasher struct {
	h hash.Hash
	b bytes.Buffer
}

func (h *hasher) flush() {
	h.h.Write(h.b.Bytes())
	h.b.Reset()
}

func (h *hasher) trip(t *Trip) {
	h.location(&t.From)
	h.location(&t.To)
	h.number(int64(t.Duration))
	h.number(int64(t.NumChanges))
	h.number(int64(len(t.Legs)))
	for _, leg := range t.Legs {
		switch l := leg.(type) {
		case *PublicLeg:
			h.number(int8(0))
			h.number(l.Line.Product)
			h.stringPtr(l.Line.Label)
			h.stringPtr(l.Line.Network)
			h.number(l.Destination == nil)
			if l.Destination != nil {
				h.location(l.Destination)
			}
			h.plannedEvent(&l.Departure)
			h.plannedEvent(&l.Arrival)
			h.number(int64(len(l.IntermediateStops)))
			for i := range l.IntermediateStops {
				h.plannedEvent(&l.IntermediateStops[i].Arrival)
				h.plannedEvent(&l.IntermediateStops[i].Departure)
			}
		case *IndividualLeg:
			h.number(int8(1))
			h.number(l.Type)
			h.location(&l.Departure)
			h.number(l.DepartureTime.Unix())
			h.location(&l.Arrival)
			h.number(l.ArrivalTime.Unix())
		}
	}
}

func (h *hasher) plannedEvent(e *StopEvent) {
	h.location(&e.Location)
	h.timePtr(e.PlannedTime)
	h.stringPtr(e.PlannedPlatform)
}

func (h *hasher) location(l *Location) {
	h.number(l.Type)
	h.stringPtr(l.ID)
	h.stringPtr(l.Place)
	h.stringPtr(l.Name)
	h.number(l.Coord == nil)
	if l.Coord != nil {
		h.number(l.Coord.Lat)
		h.number(l.Coord.Lon)
	}
}

func (h *hasher) string(s string) {
	h.number(uint64(len(s)))
	h.flush()
	h.h.Write([]byte(s))
}

func hashNumberPtr[T any](h *hasher, a *T) {
	h.number(a == nil)
	if a != nil {
		h.number(*a)
	}
}

func (h *hasher) stringPtr(a *string) {
	h.number(a == nil)
	if a != nil {
		h.string(*a)
	}
}

func (h *hasher) number(a any) {
	err := binary.Write(&h.b, binary.LittleEndian, a)
	if err != nil {
		panic(fmt.Sprintf("failed to hash %T", a))
	}
}

func (h *hasher) timePtr(t *time.Time) {
	var up *int64
	if t != nil {
		u := t.Unix()
		up = &u
	}
	hashNumberPtr(h, up)
}
