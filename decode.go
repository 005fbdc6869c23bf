package hafas

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jamespfennell/hafas/calendar"
	"github.com/jamespfennell/hafas/constants"
	"github.com/jamespfennell/hafas/extensions"
	"github.com/jamespfennell/hafas/tables"
	"github.com/jamespfennell/hafas/warnings"
	"github.com/jamespfennell/hafas/wire"
)

// ParseTrips decodes a binary trip search response.
//
// The content must already be decompressed. Backend-reported outcomes such as "no trips"
// or an expired session are returned as a result with the corresponding Status. A
// non-nil error means the response is structurally invalid; no partial trips are
// returned in that case.
//
// ParseTrips keeps no state between calls and may be called concurrently.
func ParseTrips(content []byte, opts *ParseTripsOptions) (*TripsResult, error) {
	if opts == nil {
		opts = &ParseTripsOptions{}
	}
	ext := opts.Extension
	if ext == nil {
		ext = extensions.NoExtension()
	}
	d := &decoder{
		r:   &reader{c: wire.NewCursor(content)},
		ext: ext,
		tz:  opts.timezoneOrUTC(),
		log: opts.loggerOrDefault(),
	}
	result, err := d.decode()
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		d.log.Log(context.Background(), warningLevel(w), "hafas decode warning", slog.Int("trip", w.TripIndex()), slog.String("warning", w.Error()))
	}
	return result, nil
}

// warningLevel logs unknown attributes at debug; real responses carry many of them.
func warningLevel(w warnings.DecodeWarning) slog.Level {
	if _, ok := w.(warnings.UnknownAttribute); ok {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// reader wraps a cursor with a sticky error, in the manner of bufio.Scanner.
//
// After the first failure every read returns zero values; callers check err before
// acting on anything they read.
type reader struct {
	c       *wire.Cursor
	strings *tables.StringPool
	err     error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) seek(pos int) {
	if r.err != nil {
		return
	}
	r.fail(r.c.Seek(pos))
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	r.fail(r.c.Skip(n))
}

func (r *reader) u16() int {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadU16()
	r.fail(err)
	return int(v)
}

func (r *reader) u32() int {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadU32()
	r.fail(err)
	return int(v)
}

func (r *reader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadI32()
	r.fail(err)
	return v
}

func (r *reader) str() *string {
	if r.err != nil {
		return nil
	}
	s, err := r.strings.Read(r.c)
	r.fail(err)
	return s
}

type tripDetailsHeader struct {
	indexOffset int
	legOffset   int
	legSize     int
	stopSize    int
	stopsOffset int
}

type decoder struct {
	r   *reader
	ext extensions.Extension
	tz  *time.Location
	log *slog.Logger

	stations *tables.StationTable
	comments *tables.CommentTable

	serviceDaysPtr int
	tripDetailsPtr int
	disruptionsPtr int
	attrsOffset    int
	tripAttrsPtr   int

	// Derived once from the extension header length. Older servers send a shorter
	// header without leg details or trip attributes.
	hasLegDetails    bool
	hasLegAttributes bool

	details       tripDetailsHeader
	referenceDate time.Time

	warnings []warnings.DecodeWarning
}

func (d *decoder) warn(w warnings.DecodeWarning) {
	d.warnings = append(d.warnings, w)
}

func (d *decoder) decode() (*TripsResult, error) {
	r := d.r
	r.seek(constants.VersionOffset)
	version := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "version")
	}
	if version != 5 && version != 6 {
		return nil, newDecodeError(ErrorKind_UnsupportedVersion, "version %d", version)
	}
	result := &TripsResult{Version: version}

	r.seek(constants.ServiceDaysPtrOffset)
	d.serviceDaysPtr = r.u32()
	r.seek(constants.StringTablePtrOffset)
	stringTablePtr := r.u32()
	r.seek(constants.StationTablePtrOffset)
	stationTablePtr := r.u32()
	r.seek(constants.CommentTablePtrOffset)
	commentTablePtr := r.u32()
	r.seek(constants.ExtensionHeaderPtrOffset)
	extPtr := r.u32()
	if r.err != nil {
		return nil, wrapError(r.err, "header pointers")
	}

	pool, err := tables.NewStringPool(r.c, stringTablePtr, d.serviceDaysPtr)
	if err != nil {
		return nil, wrapError(err, "header pointers")
	}
	r.strings = pool

	r.seek(extPtr)
	extLength := r.u32()
	r.seek(extPtr + constants.ExtErrorCodeOffset)
	errorCode := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "extension header")
	}
	d.hasLegDetails = extLength >= constants.ExtMinLengthForLegDetails
	d.hasLegAttributes = extLength >= constants.ExtMinLengthForLegAttrs

	if errorCode != 0 {
		backendErr := TranslateErrorCode(errorCode)
		d.log.Debug("hafas backend error", slog.Int("code", errorCode), slog.String("status", backendErr.Kind.String()))
		result.Status = backendErr.Kind
		result.BackendError = &backendErr
		return result, nil
	}

	r.seek(extPtr + constants.ExtEncodingOffset)
	charset := r.str()
	if r.err != nil {
		return nil, wrapError(r.err, "charset")
	}
	if charset != nil && *charset != "" {
		if err := pool.SetEncoding(*charset); err != nil {
			d.warn(warnings.UnsupportedCharset{Charset: *charset, Err: err})
		}
	}

	r.seek(constants.NumTripsOffset)
	numTrips := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "number of trips")
	}
	if numTrips == 0 {
		result.Status = Status_NoTrips
		return result, nil
	}

	r.seek(constants.ResultLocationsOffset)
	from, err := d.location("origin")
	if err != nil {
		return nil, err
	}
	r.seek(constants.ResultLocationsOffset + constants.LocationRecordSize)
	to, err := d.location("destination")
	if err != nil {
		return nil, err
	}
	result.From, result.To = &from, &to

	r.seek(constants.ReferenceDateOffset)
	days := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "reference date")
	}
	// Day 1 is 1980-01-01.
	d.referenceDate = time.Date(1979, time.December, 31+days, 0, 0, 0, 0, d.tz)

	r.seek(extPtr + constants.ExtSeqNrOffset)
	seqNr := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "sequence number")
	}
	if seqNr == 0 {
		result.Status = Status_SessionExpired
		result.BackendError = &BackendError{Kind: Status_SessionExpired, Reason: "sequence number 0"}
		return result, nil
	}
	r.seek(extPtr + constants.ExtRequestIDOffset)
	requestID := r.str()
	r.seek(extPtr + constants.ExtTripDetailsPtrOffset)
	d.tripDetailsPtr = r.u32()
	r.seek(extPtr + constants.ExtDisruptionsPtrOffset)
	d.disruptionsPtr = r.u32()
	r.seek(extPtr + constants.ExtLdOffset)
	ld := r.str()
	if d.hasLegDetails {
		r.seek(extPtr + constants.ExtAttrsOffsetOffset)
		d.attrsOffset = r.u32()
	}
	if d.hasLegAttributes {
		r.seek(extPtr + constants.ExtTripAttrsPtrOffset)
		d.tripAttrsPtr = r.u32()
	}
	if r.err != nil {
		return nil, wrapError(r.err, "extension header")
	}
	if d.tripDetailsPtr == 0 {
		return nil, newDecodeError(ErrorKind_MissingRequiredField, "trip details pointer")
	}
	if err := d.readTripDetailsHeader(); err != nil {
		return nil, err
	}

	if d.stations, err = tables.NewStationTable(r.c, stationTablePtr, commentTablePtr, pool); err != nil {
		return nil, wrapError(err, "header pointers")
	}
	if d.comments, err = tables.NewCommentTable(r.c, commentTablePtr, d.tripDetailsPtr, pool); err != nil {
		return nil, wrapError(err, "header pointers")
	}

	trips := make([]Trip, 0, numTrips)
	for i := 0; i < numTrips; i++ {
		trip, err := d.trip(i, from, to)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	result.Status = Status_OK
	result.Trips = trips
	if requestID != nil {
		result.Context = &PaginationContext{
			Ident:        *requestID,
			SeqNr:        strconv.Itoa(seqNr),
			Ld:           ld,
			CanQueryMore: canQueryMore(trips),
		}
	}
	result.Warnings = d.warnings
	return result, nil
}

func (d *decoder) readTripDetailsHeader() error {
	r := d.r
	r.seek(d.tripDetailsPtr)
	version := r.u16()
	r.skip(2)
	d.details = tripDetailsHeader{
		indexOffset: r.u16(),
		legOffset:   r.u16(),
		legSize:     r.u16(),
		stopSize:    r.u16(),
		stopsOffset: r.u16(),
	}
	if r.err != nil {
		return wrapError(r.err, "trip details header")
	}
	if version != constants.TripDetailsVersion {
		return newDecodeError(ErrorKind_UnsupportedVersion, "trip details version %d", version)
	}
	if d.details.legSize != constants.TripDetailsLegSize {
		return newDecodeError(ErrorKind_UnsupportedVersion, "trip details leg size %d", d.details.legSize)
	}
	if d.details.stopSize != constants.TripDetailsStopSize {
		return newDecodeError(ErrorKind_UnsupportedVersion, "trip details stop size %d", d.details.stopSize)
	}
	return nil
}

func (d *decoder) trip(i int, from, to Location) (Trip, error) {
	r := d.r
	r.seek(constants.TripsOffset + i*constants.TripRecordSize)
	serviceDaysOffset := r.u16()
	legsOffset := r.u32()
	numLegs := r.u16()
	numChanges := r.u16()
	rawDuration := r.u16()
	if r.err != nil {
		return Trip{}, wrapError(r.err, "trip %d header", i)
	}
	duration, err := parseDuration(rawDuration)
	if err != nil {
		return Trip{}, wrapError(err, "trip %d duration", i)
	}

	r.seek(d.serviceDaysPtr + serviceDaysOffset)
	if r.err != nil {
		return Trip{}, wrapError(r.err, "trip %d service days", i)
	}
	serviceDays, err := calendar.Read(r.c, r.strings)
	if err != nil {
		return Trip{}, wrapError(err, "trip %d service days", i)
	}
	dayOffset := serviceDays.DayOffset()

	r.seek(d.tripDetailsPtr + d.details.indexOffset + i*2)
	detailsOffset := r.u16()
	r.seek(d.tripDetailsPtr + detailsOffset)
	realtimeStatus := r.u16()
	if r.err != nil {
		return Trip{}, wrapError(r.err, "trip %d details", i)
	}

	var connectionID *string
	if d.hasLegAttributes && d.tripAttrsPtr != 0 {
		r.seek(d.tripAttrsPtr + i*2)
		index := r.u16()
		if r.err != nil {
			return Trip{}, wrapError(r.err, "trip %d attributes", i)
		}
		attrs, _, err := d.attributes(index, constants.AttrConnectionID)
		if err != nil {
			return Trip{}, wrapError(err, "trip %d attributes", i)
		}
		connectionID = attrs[constants.AttrConnectionID]
	}

	var folder legFolder
	if d.hasLegDetails {
		// Disruptions attach to legs and resolve through the attribute table, so both
		// need the leg details of the extension header.
		disruptions, err := d.disruptions(i)
		if err != nil {
			return Trip{}, wrapError(err, "trip %d disruptions", i)
		}
		for j := 0; j < numLegs; j++ {
			leg, err := d.leg(legContext{
				trip:          i,
				leg:           j,
				legsOffset:    legsOffset,
				detailsOffset: detailsOffset,
				dayOffset:     dayOffset,
			}, disruptions)
			if err != nil {
				return Trip{}, err
			}
			if err := folder.push(leg); err != nil {
				return Trip{}, wrapError(err, "trip %d leg %d", i, j)
			}
		}
	}

	trip := Trip{
		From:       from,
		To:         to,
		Legs:       folder.legs,
		Duration:   duration,
		NumChanges: numChanges,
		Cancelled:  realtimeStatus == constants.RealtimeStatusCancelled,
	}
	if trip.Cancelled {
		cancelPublicLegs(trip.Legs)
	}
	switch {
	case connectionID != nil && *connectionID != "":
		trip.ID = *connectionID
	case len(trip.Legs) > 0:
		trip.ID = buildTripID(trip.Legs)
	default:
		trip.ID = strconv.Itoa(i)
	}
	return trip, nil
}

// location decodes one of the two result locations of the main header.
func (d *decoder) location(what string) (Location, error) {
	r := d.r
	name := r.str()
	r.skip(2)
	rawType := r.u16()
	lon := r.i32()
	lat := r.i32()
	if r.err != nil {
		return Location{}, wrapError(r.err, "%s location", what)
	}
	locationType, ok := parseLocationType(uint16(rawType))
	if !ok {
		return Location{}, newDecodeError(ErrorKind_InvalidValue, "%s location type %d", what, rawType)
	}
	l := Location{Type: locationType}
	l.Place, l.Name = splitStationName(name)
	if lat != 0 || lon != 0 {
		l.Coord = &Point{Lat: lat, Lon: lon}
	}
	return l, nil
}

func stationLocation(s tables.Station) Location {
	l := Location{Type: LocationType_Any}
	if s.HasID() {
		id := strconv.FormatUint(uint64(s.ID), 10)
		l.ID = &id
		l.Type = LocationType_Station
	}
	l.Place, l.Name = splitStationName(s.Name)
	if s.Latitude != 0 || s.Longitude != 0 {
		l.Coord = &Point{Lat: s.Latitude, Lon: s.Longitude}
	}
	return l
}

// splitStationName splits "Place, Name" at the first comma.
func splitStationName(s *string) (place *string, name *string) {
	if s == nil {
		return nil, nil
	}
	before, after, found := strings.Cut(*s, ",")
	before, after = strings.TrimSpace(before), strings.TrimSpace(after)
	if !found || before == "" || after == "" {
		n := *s
		return nil, &n
	}
	return &before, &after
}

// time reads an HHMM time relative to the reference date. Hours beyond 23 continue
// into the following days.
func (d *decoder) time(dayOffset int) *time.Time {
	r := d.r
	v := r.u16()
	if r.err != nil || v == constants.NoTime {
		return nil
	}
	hours, minutes := v/100, v%100
	if minutes >= 60 {
		r.fail(newDecodeError(ErrorKind_InvalidValue, "time %04d has minutes out of range", v))
		return nil
	}
	y, m, day := d.referenceDate.Date()
	t := time.Date(y, m, day+dayOffset, hours, minutes, 0, 0, d.tz)
	return &t
}

func parseDuration(v int) (time.Duration, error) {
	if v == constants.NoTime {
		return 0, nil
	}
	hours, minutes := v/100, v%100
	if minutes >= 60 {
		return 0, newDecodeError(ErrorKind_InvalidValue, "duration %04d has minutes out of range", v)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func (d *decoder) position(raw *string) *string {
	if raw == nil {
		return nil
	}
	p := d.ext.NormalizePosition(*raw)
	if p == "" {
		return nil
	}
	return &p
}

// attributes walks the key/value list at index. Values of the given keys are returned;
// the names of all other keys are returned as unknown.
func (d *decoder) attributes(index int, known ...constants.AttributeKey) (map[constants.AttributeKey]*string, []string, error) {
	r := d.r
	r.seek(d.attrsOffset + index*constants.AttributeRecordSize)
	values := map[constants.AttributeKey]*string{}
	var unknown []string
	for {
		key := r.str()
		if r.err != nil {
			return nil, nil, wrapError(r.err, "attribute list %d", index)
		}
		if key == nil {
			break
		}
		if isKnownAttribute(constants.AttributeKey(*key), known) {
			values[constants.AttributeKey(*key)] = r.str()
		} else {
			unknown = append(unknown, *key)
			r.skip(2)
		}
	}
	return values, unknown, nil
}

func isKnownAttribute(key constants.AttributeKey, known []constants.AttributeKey) bool {
	for _, k := range known {
		if k == key {
			return true
		}
	}
	return false
}

// disruptions returns the disruption texts of trip i, keyed by leg index.
func (d *decoder) disruptions(i int) (map[int]*string, error) {
	if d.disruptionsPtr == 0 {
		return nil, nil
	}
	r := d.r
	r.seek(d.disruptionsPtr)
	if marker := r.u16(); r.err != nil || marker != 1 {
		return nil, r.err
	}
	r.seek(d.disruptionsPtr + 2 + i*2)
	offset := r.u16()
	texts := map[int]*string{}
	visited := map[int]bool{}
	for r.err == nil && offset != 0 {
		if visited[offset] {
			return nil, newDecodeError(ErrorKind_InvalidValue, "disruption list loops at offset %d", offset)
		}
		visited[offset] = true
		r.seek(d.disruptionsPtr + offset)
		r.str() // always "0"
		leg := r.u16()
		r.skip(2) // bitmask
		r.str()   // start of line
		r.str()   // end of line
		r.str()   // id
		r.str()   // title
		shortText := r.str()
		offset = r.u16()
		attrIndex := r.u16()
		if r.err != nil {
			break
		}
		text := formatHTML(shortText)
		if text == nil {
			attrs, _, err := d.attributes(attrIndex, constants.AttrText)
			if err != nil {
				return nil, err
			}
			text = formatHTML(attrs[constants.AttrText])
		}
		if text != nil {
			texts[leg] = text
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return texts, nil
}

func buildTripID(legs []Leg) string {
	var b strings.Builder
	for i, leg := range legs {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(leg.DepartsAt().Format("200601021504"))
		switch l := leg.(type) {
		case *PublicLeg:
			if l.Line.Label != nil {
				b.WriteString(*l.Line.Label)
			}
		case *IndividualLeg:
			b.WriteString(l.Type.String())
		}
		b.WriteString(leg.ArrivesAt().Format("200601021504"))
	}
	return b.String()
}
