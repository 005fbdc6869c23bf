package warnings

import (
	"fmt"
)

// DecodeWarning is a non-fatal problem found while decoding a trip response.
//
// Unlike structural errors, warnings never discard decoded trips.
type DecodeWarning interface {
	// TripIndex is the index of the affected trip, or -1 for the response as a whole.
	TripIndex() int
	Error() string
}

type UnsupportedCharset struct {
	Charset string
	Err     error
}

func (w UnsupportedCharset) TripIndex() int {
	return -1
}

func (w UnsupportedCharset) Error() string {
	return fmt.Sprintf("falling back to ISO-8859-1 because charset %q is unsupported: %s", w.Charset, w.Err)
}

type UnknownAttribute struct {
	Trip int
	Leg  int
	Key  string
}

func (w UnknownAttribute) TripIndex() int {
	return w.Trip
}

func (w UnknownAttribute) Error() string {
	return fmt.Sprintf("trip %d leg %d: skipping unknown attribute %q", w.Trip, w.Leg, w.Key)
}

type InvalidClass struct {
	Trip  int
	Leg   int
	Value string
}

func (w InvalidClass) TripIndex() int {
	return w.Trip
}

func (w InvalidClass) Error() string {
	return fmt.Sprintf("trip %d leg %d: ignoring non-numeric line class %q", w.Trip, w.Leg, w.Value)
}

type UnknownProduct struct {
	Trip     int
	Leg      int
	Line     string
	Category string
	Class    int
}

func (w UnknownProduct) TripIndex() int {
	return w.Trip
}

func (w UnknownProduct) Error() string {
	return fmt.Sprintf("trip %d leg %d: no product for line %q (category %q, class %d)", w.Trip, w.Leg, w.Line, w.Category, w.Class)
}
