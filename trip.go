// Package hafas contains a decoder for trip search responses of the legacy binary HAFAS
// interface, and the trip model it produces.
package hafas

import (
	"log/slog"
	"time"

	"github.com/jamespfennell/hafas/extensions"
	"github.com/jamespfennell/hafas/products"
	"github.com/jamespfennell/hafas/warnings"
)

// TripsResult contains the decoded content of a single trip search response.
type TripsResult struct {
	// Version of the binary format, 5 or 6.
	Version int

	// Status is Status_OK when Trips were decoded. For every other status Trips is empty.
	Status Status

	// BackendError is set when the status was reported by the backend.
	BackendError *BackendError

	From *Location
	To   *Location

	Trips []Trip

	// Context is nil if the response carried no request id.
	Context *PaginationContext

	Warnings []warnings.DecodeWarning
}

// Err returns the backend error of the result, or nil for successful results.
func (r *TripsResult) Err() error {
	if r == nil || r.BackendError == nil {
		return nil
	}
	return r.BackendError
}

type Trip struct {
	// ID is unique within one response but not stable across pages.
	ID string

	From Location
	To   Location

	Legs []Leg

	Duration   time.Duration
	NumChanges int

	// Fares are never populated by the binary interface.
	Fares []Fare

	// Cancelled is set when the backend reports that the whole trip does not run.
	Cancelled bool
}

// FirstDeparture returns the departure time of the first leg, if there is one.
func (trip *Trip) FirstDeparture() *time.Time {
	if len(trip.Legs) == 0 {
		return nil
	}
	t := trip.Legs[0].DepartsAt()
	return &t
}

// LastArrival returns the arrival time of the last leg, if there is one.
func (trip *Trip) LastArrival() *time.Time {
	if len(trip.Legs) == 0 {
		return nil
	}
	t := trip.Legs[len(trip.Legs)-1].ArrivesAt()
	return &t
}

type Fare struct {
	Name     string
	Currency string
	Amount   float64
}

// Leg is either a *PublicLeg or an *IndividualLeg.
type Leg interface {
	DepartureLocation() Location
	ArrivalLocation() Location
	// DepartsAt and ArrivesAt prefer predicted times over planned ones.
	DepartsAt() time.Time
	ArrivesAt() time.Time

	isLeg()
}

// PublicLeg is a leg on a public transit line.
type PublicLeg struct {
	Line Line
	// Destination is the line's direction, which may lie beyond the arrival stop.
	Destination *Location

	Departure         StopEvent
	Arrival           StopEvent
	IntermediateStops []Stop

	// Message is the disruption text attached to this leg, if any.
	Message *string
}

func (leg *PublicLeg) isLeg() {}

func (leg *PublicLeg) DepartureLocation() Location {
	return leg.Departure.Location
}

func (leg *PublicLeg) ArrivalLocation() Location {
	return leg.Arrival.Location
}

func (leg *PublicLeg) DepartsAt() time.Time {
	return leg.Departure.Time()
}

func (leg *PublicLeg) ArrivesAt() time.Time {
	return leg.Arrival.Time()
}

// Cancelled reports whether the departure or the arrival of the leg is cancelled.
func (leg *PublicLeg) Cancelled() bool {
	return leg.Departure.Cancelled || leg.Arrival.Cancelled
}

// IndividualLeg is a leg outside the public transit network.
//
// Its times are already resolved: predicted where the backend had realtime data, planned otherwise.
type IndividualLeg struct {
	Type IndividualType

	Departure     Location
	DepartureTime time.Time
	Arrival       Location
	ArrivalTime   time.Time
}

func (leg *IndividualLeg) isLeg() {}

func (leg *IndividualLeg) DepartureLocation() Location {
	return leg.Departure
}

func (leg *IndividualLeg) ArrivalLocation() Location {
	return leg.Arrival
}

func (leg *IndividualLeg) DepartsAt() time.Time {
	return leg.DepartureTime
}

func (leg *IndividualLeg) ArrivesAt() time.Time {
	return leg.ArrivalTime
}

func (leg *IndividualLeg) Duration() time.Duration {
	return leg.ArrivalTime.Sub(leg.DepartureTime)
}

// StopEvent is a single arrival at or departure from a location.
type StopEvent struct {
	Location Location

	// PlannedTime is the timetabled time. It is nil only for the missing half of a
	// terminal intermediate stop.
	PlannedTime *time.Time
	// PredictedTime is nil when the backend has no realtime data, which does not imply
	// the event is on time.
	PredictedTime *time.Time

	PlannedPlatform   *string
	PredictedPlatform *string

	Cancelled bool
}

// Time returns the predicted time if known, else the planned time, else the zero time.
func (e *StopEvent) Time() time.Time {
	if e.PredictedTime != nil {
		return *e.PredictedTime
	}
	if e.PlannedTime != nil {
		return *e.PlannedTime
	}
	return time.Time{}
}

// Delay returns predicted minus planned time, or nil if either is unknown.
func (e *StopEvent) Delay() *time.Duration {
	if e.PlannedTime == nil || e.PredictedTime == nil {
		return nil
	}
	d := e.PredictedTime.Sub(*e.PlannedTime)
	return &d
}

// Platform returns the predicted platform if known, else the planned one.
func (e *StopEvent) Platform() *string {
	if e.PredictedPlatform != nil {
		return e.PredictedPlatform
	}
	return e.PlannedPlatform
}

// Stop is an intermediate stop of a public leg.
type Stop struct {
	Arrival   StopEvent
	Departure StopEvent
}

func (stop *Stop) Location() Location {
	return stop.Departure.Location
}

type Location struct {
	Type LocationType
	// ID is nil for locations without a backend id, such as addresses.
	ID    *string
	Place *string
	Name  *string
	Coord *Point
}

// Point is a WGS-84 coordinate in micro-degrees.
type Point struct {
	Lat int32
	Lon int32
}

func (p Point) LatDegrees() float64 {
	return float64(p.Lat) / 1e6
}

func (p Point) LonDegrees() float64 {
	return float64(p.Lon) / 1e6
}

type Product = products.Product

const (
	Product_Unknown        = products.Unknown
	Product_HighSpeedTrain = products.HighSpeedTrain
	Product_RegionalTrain  = products.RegionalTrain
	Product_SuburbanTrain  = products.SuburbanTrain
	Product_Subway         = products.Subway
	Product_Tram           = products.Tram
	Product_Bus            = products.Bus
	Product_Ferry          = products.Ferry
	Product_Cablecar       = products.Cablecar
	Product_OnDemand       = products.OnDemand
)

type Line struct {
	Network    *string
	Product    Product
	Label      *string
	Comment    *string
	Attributes []LineAttribute
}

type ParseTripsOptions struct {
	// The timezone to interpret times in.
	//
	// It can be nil, in which case UTC will used.
	Timezone *time.Location

	// The network extension to use when decoding.
	//
	// This can be nil, in which case no extension is used.
	Extension extensions.Extension

	// Logger receives debug and warning output. It can be nil, in which case slog.Default is used.
	Logger *slog.Logger
}

func (opts *ParseTripsOptions) timezoneOrUTC() *time.Location {
	if opts.Timezone != nil {
		return opts.Timezone
	}
	return time.UTC
}

func (opts *ParseTripsOptions) loggerOrDefault() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}
