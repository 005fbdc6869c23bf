// Package testutil builds binary trip search responses for tests.
package testutil

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// At returns a pointer to an HHMM time; a nil time is written as absent.
func At(hhmm uint16) *uint16 {
	return &hhmm
}

type Location struct {
	Name string
	// Type defaults to 1 (station).
	Type uint16
	Lon  int32
	Lat  int32
}

type Station struct {
	Name string
	ID   uint32
	Lon  int32
	Lat  int32
}

type Attribute struct {
	Key   string
	Value string
}

type Stop struct {
	Station uint16

	PlannedDeparture           *uint16
	PlannedArrival             *uint16
	PlannedDeparturePosition   string
	PlannedArrivalPosition     string
	PredictedDeparture         *uint16
	PredictedArrival           *uint16
	PredictedDeparturePosition string
	PredictedArrivalPosition   string
	Bits                       uint16
}

type Leg struct {
	// Type is the raw leg type: 1 footpath, 2 public, 3 and 4 transfer.
	Type uint16
	Line string

	DepartureStation         uint16
	ArrivalStation           uint16
	PlannedDeparture         *uint16
	PlannedArrival           *uint16
	PlannedDeparturePosition string
	PlannedArrivalPosition   string

	Attributes []Attribute
	Comments   []string

	PredictedDeparture         *uint16
	PredictedArrival           *uint16
	PredictedDeparturePosition string
	PredictedArrivalPosition   string
	Bits                       uint16

	Stops []Stop
}

type Disruption struct {
	Leg       uint16
	ShortText string
	// Text is stored as a "Text" attribute of the disruption record.
	Text string
}

type Trip struct {
	ServiceDaysText string
	ServiceBase     uint16
	ServiceMask     []byte

	NumChanges uint16
	// Duration is HHMM.
	Duration uint16

	RealtimeStatus uint16
	ConnectionID   string

	Legs        []Leg
	Disruptions []Disruption
}

// Response describes a complete trip search response. Empty strings are written as null
// string references.
type Response struct {
	// Version defaults to 6.
	Version uint16

	From          Location
	To            Location
	ReferenceDate uint16
	Stations      []Station
	Trips         []Trip

	// ExtensionLength defaults to the full 0x32 byte extension header.
	ExtensionLength uint32
	SeqNr           uint16
	RequestID       string
	ErrorCode       uint16
	Charset         string
	Ld              string

	// TripDetailsVersion defaults to 1.
	TripDetailsVersion uint16

	// Latin1 encodes the string pool as ISO-8859-1 rather than UTF-8.
	Latin1 bool
}

type buffer []byte

func (b *buffer) u16(v uint16) {
	*b = binary.LittleEndian.AppendUint16(*b, v)
}

func (b *buffer) u32(v uint32) {
	*b = binary.LittleEndian.AppendUint32(*b, v)
}

func (b *buffer) i32(v int32) {
	b.u32(uint32(v))
}

func (b *buffer) time(t *uint16) {
	if t == nil {
		b.u16(0xFFFF)
		return
	}
	b.u16(*t)
}

func (b buffer) putU32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(b[pos:], v)
}

type stringPool struct {
	latin1  bool
	data    buffer
	offsets map[string]uint16
}

func (p *stringPool) ref(s string) uint16 {
	if s == "" {
		return 0
	}
	if offset, ok := p.offsets[s]; ok {
		return offset
	}
	offset := uint16(len(p.data))
	encoded := []byte(s)
	if p.latin1 {
		var err error
		if encoded, err = charmap.ISO8859_1.NewEncoder().Bytes(encoded); err != nil {
			panic(err)
		}
	}
	p.data = append(p.data, encoded...)
	p.data = append(p.data, 0)
	p.offsets[s] = offset
	return offset
}

const (
	headerSize         = 0x4A
	tripRecordSize     = 12
	legRecordSize      = 20
	extensionSize      = 0x32
	detailsHeaderSize  = 14
	detailsTripSize    = 12
	detailsLegSize     = 16
	detailsStopSize    = 26
	disruptionRecSize  = 20
	attributeEntrySize = 4
)

// Build serializes the response.
func (r *Response) Build() []byte {
	// Offset 0 of the pool is the null string.
	strs := &stringPool{latin1: r.Latin1, data: buffer{0}, offsets: map[string]uint16{}}
	// The pool is copied before the headers are written, so their strings go in first.
	for _, s := range []string{r.From.Name, r.To.Name, r.RequestID, r.Charset, r.Ld} {
		strs.ref(s)
	}

	// Attribute entry 0 is an empty list.
	attrs := buffer{0, 0, 0, 0}
	attributeList := func(list []Attribute) uint16 {
		if len(list) == 0 {
			return 0
		}
		index := uint16(len(attrs) / attributeEntrySize)
		for _, a := range list {
			attrs.u16(strs.ref(a.Key))
			attrs.u16(strs.ref(a.Value))
		}
		attrs.u32(0)
		return index
	}

	// Comment entry 0 is an empty list.
	comments := buffer{0, 0}
	commentList := func(list []string) uint16 {
		if len(list) == 0 {
			return 0
		}
		ptr := uint16(len(comments))
		comments.u16(uint16(len(list)))
		for _, c := range list {
			comments.u16(strs.ref(c))
		}
		return ptr
	}

	var tripHeaders, legs, serviceDays buffer
	legIndex := 0
	for _, trip := range r.Trips {
		tripHeaders.u16(uint16(len(serviceDays)))
		tripHeaders.u32(uint32(len(r.Trips)*tripRecordSize + legIndex*legRecordSize))
		tripHeaders.u16(uint16(len(trip.Legs)))
		tripHeaders.u16(trip.NumChanges)
		tripHeaders.u16(trip.Duration)

		serviceDays.u16(strs.ref(trip.ServiceDaysText))
		serviceDays.u16(trip.ServiceBase)
		serviceDays.u16(uint16(len(trip.ServiceMask)))
		serviceDays = append(serviceDays, trip.ServiceMask...)

		for _, leg := range trip.Legs {
			legs.time(leg.PlannedDeparture)
			legs.u16(leg.DepartureStation)
			legs.time(leg.PlannedArrival)
			legs.u16(leg.ArrivalStation)
			legs.u16(leg.Type)
			legs.u16(strs.ref(leg.Line))
			legs.u16(strs.ref(leg.PlannedDeparturePosition))
			legs.u16(strs.ref(leg.PlannedArrivalPosition))
			legs.u16(attributeList(leg.Attributes))
			legs.u16(commentList(leg.Comments))
			legIndex++
		}
	}

	var stations buffer
	for _, s := range r.Stations {
		stations.u16(strs.ref(s.Name))
		stations.u32(s.ID)
		stations.i32(s.Lon)
		stations.i32(s.Lat)
	}

	details := r.tripDetails(strs)
	disruptions := r.disruptions(strs, attributeList)

	var tripAttrs buffer
	hasTripAttrs := false
	for _, trip := range r.Trips {
		if trip.ConnectionID != "" {
			hasTripAttrs = true
		}
	}
	if hasTripAttrs {
		for _, trip := range r.Trips {
			var list []Attribute
			if trip.ConnectionID != "" {
				list = []Attribute{{Key: "ConnectionId", Value: trip.ConnectionID}}
			}
			tripAttrs.u16(attributeList(list))
		}
	}

	// Every string is interned by now, so the section positions are final.
	var out buffer = make([]byte, headerSize)
	out = append(out, tripHeaders...)
	out = append(out, legs...)
	stringsPtr := len(out)
	out = append(out, strs.data...)
	serviceDaysPtr := len(out)
	out = append(out, serviceDays...)
	stationsPtr := len(out)
	out = append(out, stations...)
	commentsPtr := len(out)
	out = append(out, comments...)
	detailsPtr := len(out)
	out = append(out, details...)
	disruptionsPtr := 0
	if disruptions != nil {
		disruptionsPtr = len(out)
		out = append(out, disruptions...)
	}
	attrsPtr := len(out)
	out = append(out, attrs...)
	tripAttrsPtr := 0
	if hasTripAttrs {
		tripAttrsPtr = len(out)
		out = append(out, tripAttrs...)
	}
	extPtr := len(out)

	ext := make(buffer, extensionSize)
	extLength := r.ExtensionLength
	if extLength == 0 {
		extLength = extensionSize
	}
	ext.putU32(0x00, extLength)
	binary.LittleEndian.PutUint16(ext[0x08:], r.SeqNr)
	binary.LittleEndian.PutUint16(ext[0x0A:], strs.ref(r.RequestID))
	ext.putU32(0x0C, uint32(detailsPtr))
	binary.LittleEndian.PutUint16(ext[0x10:], r.ErrorCode)
	ext.putU32(0x14, uint32(disruptionsPtr))
	binary.LittleEndian.PutUint16(ext[0x20:], strs.ref(r.Charset))
	binary.LittleEndian.PutUint16(ext[0x22:], strs.ref(r.Ld))
	ext.putU32(0x24, uint32(attrsPtr))
	ext.putU32(0x2C, uint32(tripAttrsPtr))
	out = append(out, ext...)

	version := r.Version
	if version == 0 {
		version = 6
	}
	binary.LittleEndian.PutUint16(out[0x00:], version)
	r.putLocation(out[0x02:], strs, r.From)
	r.putLocation(out[0x10:], strs, r.To)
	binary.LittleEndian.PutUint16(out[0x1E:], uint16(len(r.Trips)))
	out.putU32(0x20, uint32(serviceDaysPtr))
	out.putU32(0x24, uint32(stringsPtr))
	binary.LittleEndian.PutUint16(out[0x28:], r.ReferenceDate)
	out.putU32(0x36, uint32(stationsPtr))
	out.putU32(0x3A, uint32(commentsPtr))
	out.putU32(0x46, uint32(extPtr))
	return out
}

func (r *Response) putLocation(dst buffer, strs *stringPool, l Location) {
	locationType := l.Type
	if locationType == 0 {
		locationType = 1
	}
	binary.LittleEndian.PutUint16(dst[0:], strs.ref(l.Name))
	binary.LittleEndian.PutUint16(dst[4:], locationType)
	dst.putU32(6, uint32(l.Lon))
	dst.putU32(10, uint32(l.Lat))
}

func (r *Response) tripDetails(strs *stringPool) buffer {
	version := r.TripDetailsVersion
	if version == 0 {
		version = 1
	}
	indexOffset := detailsHeaderSize
	recordsOffset := indexOffset + 2*len(r.Trips)
	var index, records, stops buffer
	numStops := 0
	for _, trip := range r.Trips {
		index.u16(uint16(recordsOffset + len(records)))
		records.u16(trip.RealtimeStatus)
		records.u16(0)
		records.u16(0)
		records.u16(0xFFFF)
		records.u16(0)
		records.u16(0)
		for _, leg := range trip.Legs {
			records.time(leg.PredictedDeparture)
			records.time(leg.PredictedArrival)
			records.u16(strs.ref(leg.PredictedDeparturePosition))
			records.u16(strs.ref(leg.PredictedArrivalPosition))
			records.u16(leg.Bits)
			records.u16(0)
			records.u16(uint16(numStops))
			records.u16(uint16(len(leg.Stops)))
			for _, stop := range leg.Stops {
				stops.time(stop.PlannedDeparture)
				stops.time(stop.PlannedArrival)
				stops.u16(strs.ref(stop.PlannedDeparturePosition))
				stops.u16(strs.ref(stop.PlannedArrivalPosition))
				stops.u32(0)
				stops.time(stop.PredictedDeparture)
				stops.time(stop.PredictedArrival)
				stops.u16(strs.ref(stop.PredictedDeparturePosition))
				stops.u16(strs.ref(stop.PredictedArrivalPosition))
				stops.u16(stop.Bits)
				stops.u16(0)
				stops.u16(stop.Station)
				numStops++
			}
		}
	}
	var b buffer
	b.u16(version)
	b.u16(0)
	b.u16(uint16(indexOffset))
	b.u16(detailsTripSize)
	b.u16(detailsLegSize)
	b.u16(detailsStopSize)
	b.u16(uint16(recordsOffset + len(records)))
	b = append(b, index...)
	b = append(b, records...)
	b = append(b, stops...)
	return b
}

func (r *Response) disruptions(strs *stringPool, attributeList func([]Attribute) uint16) buffer {
	found := false
	for _, trip := range r.Trips {
		if len(trip.Disruptions) > 0 {
			found = true
		}
	}
	if !found {
		return nil
	}
	first := 2 + 2*len(r.Trips)
	var heads, records buffer
	for _, trip := range r.Trips {
		if len(trip.Disruptions) == 0 {
			heads.u16(0)
			continue
		}
		heads.u16(uint16(first + len(records)))
		for k, d := range trip.Disruptions {
			next := 0
			if k < len(trip.Disruptions)-1 {
				next = first + len(records) + disruptionRecSize
			}
			records.u16(strs.ref("0"))
			records.u16(d.Leg)
			records.u16(0)
			records.u16(0) // start
			records.u16(0) // end
			records.u16(0) // id
			records.u16(0) // title
			records.u16(strs.ref(d.ShortText))
			records.u16(uint16(next))
			var list []Attribute
			if d.Text != "" {
				list = []Attribute{{Key: "Text", Value: d.Text}}
			}
			records.u16(attributeList(list))
		}
	}
	var b buffer
	b.u16(1)
	b = append(b, heads...)
	b = append(b, records...)
	return b
}
