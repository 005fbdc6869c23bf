package hafas

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jamespfennell/hafas/constants"
	"github.com/jamespfennell/hafas/tables"
	"github.com/jamespfennell/hafas/warnings"
)

var legAttributeKeys = []constants.AttributeKey{
	constants.AttrDirection,
	constants.AttrClass,
	constants.AttrCategory,
	constants.AttrGisRoutingType,
	constants.AttrAdminCode,
}

// Comment prefixes with a fixed meaning across deployments.
var (
	wheelchairPrefixes = []string{"bf "}
	bicyclePrefixes    = []string{"FA ", "FB ", "FR "}
	onDemandPrefixes   = []string{"$R ", "ga ", "ja ", "Vs ", "mu ", "mx "}
)

// The free text of an on-demand comment starts after the prefix and a two-character code.
const onDemandCommentStart = 5

type legContext struct {
	trip          int
	leg           int
	legsOffset    int
	detailsOffset int
	dayOffset     int
}

// leg decodes a single leg record together with its trip-details record and its
// intermediate stops.
func (d *decoder) leg(lc legContext, disruptions map[int]*string) (Leg, error) {
	r := d.r
	r.seek(constants.TripsOffset + lc.legsOffset + lc.leg*constants.LegRecordSize)
	plannedDepartureTime := d.time(lc.dayOffset)
	departureStation := d.station()
	plannedArrivalTime := d.time(lc.dayOffset)
	arrivalStation := d.station()
	legType := constants.LegType(r.u16())
	lineName := r.str()
	plannedDeparturePosition := d.position(r.str())
	plannedArrivalPosition := d.position(r.str())
	attrIndex := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "trip %d leg %d", lc.trip, lc.leg)
	}
	comments, err := d.comments.Read(r.c)
	if err != nil {
		return nil, wrapError(err, "trip %d leg %d comments", lc.trip, lc.leg)
	}

	attrs, unknown, err := d.attributes(attrIndex, legAttributeKeys...)
	if err != nil {
		return nil, wrapError(err, "trip %d leg %d", lc.trip, lc.leg)
	}
	for _, key := range unknown {
		d.warn(warnings.UnknownAttribute{Trip: lc.trip, Leg: lc.leg, Key: key})
	}

	r.seek(d.tripDetailsPtr + lc.detailsOffset + d.details.legOffset + lc.leg*d.details.legSize)
	predictedDepartureTime := d.time(lc.dayOffset)
	predictedArrivalTime := d.time(lc.dayOffset)
	predictedDeparturePosition := d.position(r.str())
	predictedArrivalPosition := d.position(r.str())
	bits := r.u16()
	r.skip(2)
	firstStop := r.u16()
	numStops := r.u16()
	if r.err != nil {
		return nil, wrapError(r.err, "trip %d leg %d details", lc.trip, lc.leg)
	}

	departureLocation := stationLocation(departureStation)
	arrivalLocation := stationLocation(arrivalStation)

	switch legType {
	case constants.LegTypeFootpath, constants.LegTypeTransfer, constants.LegTypeTransfer2:
		routingType := attrs[constants.AttrGisRoutingType]
		individualType, ok := parseIndividualType(legType, routingType)
		if !ok {
			return nil, newDecodeError(ErrorKind_UnknownLegType, "trip %d leg %d GIS routing type %q", lc.trip, lc.leg, *routingType)
		}
		departureTime := firstTime(predictedDepartureTime, plannedDepartureTime)
		arrivalTime := firstTime(predictedArrivalTime, plannedArrivalTime)
		if departureTime == nil {
			return nil, newDecodeError(ErrorKind_MissingRequiredField, "trip %d leg %d departure time", lc.trip, lc.leg)
		}
		if arrivalTime == nil {
			return nil, newDecodeError(ErrorKind_MissingRequiredField, "trip %d leg %d arrival time", lc.trip, lc.leg)
		}
		return &IndividualLeg{
			Type:          individualType,
			Departure:     departureLocation,
			DepartureTime: *departureTime,
			Arrival:       arrivalLocation,
			ArrivalTime:   *arrivalTime,
		}, nil
	case constants.LegTypePublic:
	default:
		return nil, newDecodeError(ErrorKind_UnknownLegType, "trip %d leg %d type %d", lc.trip, lc.leg, legType)
	}

	if plannedDepartureTime == nil {
		return nil, newDecodeError(ErrorKind_MissingRequiredField, "trip %d leg %d planned departure time", lc.trip, lc.leg)
	}
	if plannedArrivalTime == nil {
		return nil, newDecodeError(ErrorKind_MissingRequiredField, "trip %d leg %d planned arrival time", lc.trip, lc.leg)
	}

	var stops []Stop
	if numStops > 0 {
		r.seek(d.tripDetailsPtr + d.details.stopsOffset + firstStop*d.details.stopSize)
		stops = make([]Stop, 0, numStops)
		for k := 0; k < numStops; k++ {
			stop, err := d.stop(lc.dayOffset)
			if err != nil {
				return nil, wrapError(err, "trip %d leg %d stop %d", lc.trip, lc.leg, k)
			}
			stops = append(stops, stop)
		}
	}

	line := d.line(lc, lineName, attrs, comments)
	var destination *Location
	if direction := attrs[constants.AttrDirection]; direction != nil && *direction != "" {
		l := Location{Type: LocationType_Any}
		l.Place, l.Name = splitStationName(direction)
		destination = &l
	}

	return &PublicLeg{
		Line:        line,
		Destination: destination,
		Departure: StopEvent{
			Location:          departureLocation,
			PlannedTime:       plannedDepartureTime,
			PredictedTime:     predictedDepartureTime,
			PlannedPlatform:   plannedDeparturePosition,
			PredictedPlatform: predictedDeparturePosition,
			Cancelled:         bits&constants.DepartureCancelledBit != 0,
		},
		Arrival: StopEvent{
			Location:          arrivalLocation,
			PlannedTime:       plannedArrivalTime,
			PredictedTime:     predictedArrivalTime,
			PlannedPlatform:   plannedArrivalPosition,
			PredictedPlatform: predictedArrivalPosition,
			Cancelled:         bits&constants.ArrivalCancelledBit != 0,
		},
		IntermediateStops: stops,
		Message:           disruptions[lc.leg],
	}, nil
}

func (d *decoder) station() tables.Station {
	r := d.r
	if r.err != nil {
		return tables.Station{}
	}
	s, err := d.stations.Read(r.c)
	r.fail(err)
	return s
}

func (d *decoder) stop(dayOffset int) (Stop, error) {
	r := d.r
	plannedDepartureTime := d.time(dayOffset)
	plannedArrivalTime := d.time(dayOffset)
	plannedDeparturePosition := d.position(r.str())
	plannedArrivalPosition := d.position(r.str())
	r.skip(4)
	predictedDepartureTime := d.time(dayOffset)
	predictedArrivalTime := d.time(dayOffset)
	predictedDeparturePosition := d.position(r.str())
	predictedArrivalPosition := d.position(r.str())
	bits := r.u16()
	r.skip(2)
	station := d.station()
	if r.err != nil {
		return Stop{}, r.err
	}
	location := stationLocation(station)
	return Stop{
		Arrival: StopEvent{
			Location:          location,
			PlannedTime:       plannedArrivalTime,
			PredictedTime:     predictedArrivalTime,
			PlannedPlatform:   plannedArrivalPosition,
			PredictedPlatform: predictedArrivalPosition,
			Cancelled:         bits&constants.ArrivalCancelledBit != 0,
		},
		Departure: StopEvent{
			Location:          location,
			PlannedTime:       plannedDepartureTime,
			PredictedTime:     predictedDepartureTime,
			PlannedPlatform:   plannedDeparturePosition,
			PredictedPlatform: predictedDeparturePosition,
			Cancelled:         bits&constants.DepartureCancelledBit != 0,
		},
	}, nil
}

func (d *decoder) line(lc legContext, lineName *string, attrs map[constants.AttributeKey]*string, comments []string) Line {
	line := Line{Label: lineName}
	onDemand := false
	for _, comment := range comments {
		switch {
		case hasAnyPrefix(comment, wheelchairPrefixes):
			line.Attributes = appendAttribute(line.Attributes, LineAttribute_WheelChairAccess)
		case hasAnyPrefix(comment, bicyclePrefixes):
			line.Attributes = appendAttribute(line.Attributes, LineAttribute_BicycleCarriage)
		case hasAnyPrefix(comment, onDemandPrefixes):
			onDemand = true
			if runes := []rune(comment); len(runes) > onDemandCommentStart {
				text := strings.TrimSpace(string(runes[onDemandCommentStart:]))
				if text != "" {
					line.Comment = &text
				}
			}
		}
	}

	class := 0
	if raw := attrs[constants.AttrClass]; raw != nil && *raw != "" {
		v, err := strconv.Atoi(*raw)
		if err != nil {
			d.warn(warnings.InvalidClass{Trip: lc.trip, Leg: lc.leg, Value: *raw})
		} else {
			class = v
		}
	}
	category := deref(attrs[constants.AttrCategory])
	if category == "" {
		category = categoryFromName(deref(lineName))
	}
	adminCode := deref(attrs[constants.AttrAdminCode])

	if onDemand {
		line.Product = Product_OnDemand
	} else {
		line.Product = d.ext.ClassifyProduct(category, class, adminCode)
	}
	if line.Product == Product_Unknown {
		d.warn(warnings.UnknownProduct{Trip: lc.trip, Leg: lc.leg, Line: deref(lineName), Category: category, Class: class})
	}
	if adminCode != "" {
		if network := d.ext.NormalizeNetwork(adminCode); network != "" {
			line.Network = &network
		}
	}
	return line
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func appendAttribute(attrs []LineAttribute, a LineAttribute) []LineAttribute {
	for _, existing := range attrs {
		if existing == a {
			return attrs
		}
	}
	return append(attrs, a)
}

// categoryFromName returns the leading letters of a line name, e.g. "ICE" for "ICE 1234".
func categoryFromName(name string) string {
	for i, c := range name {
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return name[:i]
		}
	}
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstTime(times ...*time.Time) *time.Time {
	for _, t := range times {
		if t != nil {
			return t
		}
	}
	return nil
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// formatHTML reduces disruption markup to plain text.
func formatHTML(s *string) *string {
	if s == nil {
		return nil
	}
	text := htmlTag.ReplaceAllString(*s, " ")
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return &text
}

// legFolder accumulates the legs of a trip, merging adjacent individual legs of the
// same type into one.
type legFolder struct {
	legs []Leg
}

func (f *legFolder) push(leg Leg) error {
	next, ok := leg.(*IndividualLeg)
	if !ok || len(f.legs) == 0 {
		f.legs = append(f.legs, leg)
		return nil
	}
	last, ok := f.legs[len(f.legs)-1].(*IndividualLeg)
	if !ok || last.Type != next.Type {
		f.legs = append(f.legs, leg)
		return nil
	}
	if !sameLocation(last.Arrival, next.Departure) {
		return newDecodeError(ErrorKind_LocationMismatch, "coalesced %s legs do not connect", next.Type)
	}
	arrivalTime := next.ArrivalTime
	if arrivalTime.Before(last.DepartureTime) {
		arrivalTime = last.DepartureTime
	}
	f.legs[len(f.legs)-1] = &IndividualLeg{
		Type:          last.Type,
		Departure:     last.Departure,
		DepartureTime: last.DepartureTime,
		Arrival:       next.Arrival,
		ArrivalTime:   arrivalTime,
	}
	return nil
}

// sameLocation compares ids where both locations have one, else names and coordinates.
func sameLocation(a, b Location) bool {
	if a.ID != nil && b.ID != nil {
		return *a.ID == *b.ID
	}
	if deref(a.Place) != deref(b.Place) || deref(a.Name) != deref(b.Name) {
		return false
	}
	if a.Coord == nil || b.Coord == nil {
		return a.Coord == nil && b.Coord == nil
	}
	return *a.Coord == *b.Coord
}

// cancelPublicLegs marks every stop event of every public leg as cancelled.
func cancelPublicLegs(legs []Leg) {
	for _, leg := range legs {
		publicLeg, ok := leg.(*PublicLeg)
		if !ok {
			continue
		}
		publicLeg.Departure.Cancelled = true
		publicLeg.Arrival.Cancelled = true
		for i := range publicLeg.IntermediateStops {
			publicLeg.IntermediateStops[i].Arrival.Cancelled = true
			publicLeg.IntermediateStops[i].Departure.Cancelled = true
		}
	}
}
