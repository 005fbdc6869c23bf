package hafas

import (
	"crypto/md5"
	"fmt"
	"testing"
	"time"
)

func BenchmarkHashTrip(b *testing.B) {
	trip := mkTrip(0)
	for n := 0; n < b.N; n++ {
		h := md5.New()
		trip.Hash(h)
		_ = h.Sum(nil)
	}
}

func TestHashTrip(t *testing.T) {
	for _, tc := range []struct {
		field  string
		getter func(t *Trip) any
	}{
		{
			"from.name",
			func(t *Trip) any {
				return &t.From.Name
			},
		},
		{
			"to.id",
			func(t *Trip) any {
				return &t.To.ID
			},
		},
		{
			"duration",
			func(t *Trip) any {
				return &t.Duration
			},
		},
		{
			"num_changes",
			func(t *Trip) any {
				return &t.NumChanges
			},
		},
		{
			"legs[0].line.label",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).Line.Label
			},
		},
		{
			"legs[0].line.product",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).Line.Product
			},
		},
		{
			"legs[0].departure.planned_time",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).Departure.PlannedTime
			},
		},
		{
			"legs[0].departure.planned_platform",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).Departure.PlannedPlatform
			},
		},
		{
			"legs[0].arrival.location.place",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).Arrival.Location.Place
			},
		},
		{
			"legs[0].intermediate_stops[0].arrival.planned_time",
			func(t *Trip) any {
				return &t.Legs[0].(*PublicLeg).IntermediateStops[0].Arrival.PlannedTime
			},
		},
		{
			"legs[1].departure_time",
			func(t *Trip) any {
				return &t.Legs[1].(*IndividualLeg).DepartureTime
			},
		},
		{
			"legs[1].arrival.name",
			func(t *Trip) any {
				return &t.Legs[1].(*IndividualLeg).Arrival.Name
			},
		},
	} {
		t.Run(tc.field, func(t *testing.T) {
			trip := mkTrip(0)
			modifierPairs := combinations(allModifiers(tc.getter(&trip)))
			for _, pair := range modifierPairs {
				t.Run(fmt.Sprintf("%s-%s", pair[0].name, pair[1].name), func(t *testing.T) {
					trip1 := mkTrip(0)
					pair[0].fn(tc.getter(&trip1))
					trip2 := mkTrip(0)
					pair[1].fn(tc.getter(&trip2))

					if hashOf(&trip1) == hashOf(&trip2) {
						t.Errorf("hashes match but trips are different\ntrip1: %v\ntrip2: %v", trip1, trip2)
					}
				})
			}
		})
	}
}

func TestHashTripIgnoresRealtime(t *testing.T) {
	for _, tc := range []struct {
		field  string
		modify func(t *Trip)
	}{
		{
			"id",
			func(t *Trip) {
				t.ID = "other"
			},
		},
		{
			"cancelled",
			func(t *Trip) {
				t.Cancelled = true
				t.Legs[0].(*PublicLeg).Departure.Cancelled = true
			},
		},
		{
			"legs[0].departure.predicted_time",
			func(t *Trip) {
				t.Legs[0].(*PublicLeg).Departure.PredictedTime = ptr(mkTime(50))
			},
		},
		{
			"legs[0].arrival.predicted_platform",
			func(t *Trip) {
				t.Legs[0].(*PublicLeg).Arrival.PredictedPlatform = ptr("9")
			},
		},
		{
			"legs[0].message",
			func(t *Trip) {
				t.Legs[0].(*PublicLeg).Message = ptr("construction works")
			},
		},
	} {
		t.Run(tc.field, func(t *testing.T) {
			trip1 := mkTrip(0)
			trip2 := mkTrip(0)
			tc.modify(&trip2)

			if hashOf(&trip1) != hashOf(&trip2) {
				t.Errorf("hashes differ but trips only differ in %s", tc.field)
			}
		})
	}
}

func hashOf(trip *Trip) string {
	h := md5.New()
	trip.Hash(h)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func mkTrip(i int) Trip {
	return Trip{
		ID:         "trip.id",
		From:       mkLocation("from", i+1),
		To:         mkLocation("to", i+2),
		Duration:   mkDuration(i + 3),
		NumChanges: i + 1,
		Legs: []Leg{
			&PublicLeg{
				Line: Line{
					Product: Product_SuburbanTrain,
					Label:   ptr("legs.0.line.label"),
					Network: ptr("legs.0.line.network"),
				},
				Departure: StopEvent{
					Location:        mkLocation("legs.0.departure", i+4),
					PlannedTime:     ptr(mkTime(i + 5)),
					PlannedPlatform: ptr("legs.0.departure.platform"),
				},
				Arrival: StopEvent{
					Location:        mkLocation("legs.0.arrival", i+6),
					PlannedTime:     ptr(mkTime(i + 7)),
					PlannedPlatform: ptr("legs.0.arrival.platform"),
				},
				IntermediateStops: []Stop{
					{
						Arrival: StopEvent{
							Location:    mkLocation("legs.0.stop", i+8),
							PlannedTime: ptr(mkTime(i + 9)),
						},
						Departure: StopEvent{
							Location:    mkLocation("legs.0.stop", i+8),
							PlannedTime: ptr(mkTime(i + 10)),
						},
					},
				},
			},
			&IndividualLeg{
				Type:          IndividualType_Walk,
				Departure:     mkLocation("legs.1.departure", i+11),
				DepartureTime: mkTime(i + 12),
				Arrival:       mkLocation("legs.1.arrival", i+13),
				ArrivalTime:   mkTime(i + 14),
			},
		},
	}
}

func mkLocation(name string, i int) Location {
	return Location{
		Type:  LocationType_Station,
		ID:    ptr(fmt.Sprintf("%d", 8000000+i)),
		Place: ptr(name + ".place"),
		Name:  ptr(name + ".name"),
		Coord: &Point{Lat: int32(52000000 + i), Lon: int32(13000000 + i)},
	}
}

func mkTime(i int) time.Time {
	return time.Date(2023, time.April, 24, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
}

func mkDuration(i int) time.Duration {
	return time.Hour * time.Duration(i)
}

func ptr[T any](t T) *T {
	return &t
}

type modifier struct {
	name string
	fn   func(a any)
}

func allModifiers(a any) []modifier {
	noOpModifier := modifier{name: "no op", fn: noOpModifierFn}
	otherValueModifier := modifier{name: "other value", fn: otherValueModifierFn}
	zeroModifier := modifier{name: "zero value", fn: zeroModifierFn}
	nilModifier := modifier{name: "nil value", fn: nilModifierFn}
	switch a.(type) {
	case *int:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier}
	case *Product:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier}
	case **string:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier, nilModifier}
	case *time.Duration:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier}
	case *time.Time:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier}
	case **time.Time:
		return []modifier{noOpModifier, otherValueModifier, zeroModifier, nilModifier}
	default:
		panic(fmt.Sprintf("invalid type %T", a))
	}
}

func noOpModifierFn(a any) {}

func zeroModifierFn(a any) {
	switch t := a.(type) {
	case *int:
		*t = 0
	case *Product:
		*t = Product_Unknown
	case **string:
		*t = ptr("")
	case *time.Duration:
		var d time.Duration
		*t = d
	case *time.Time:
		var ti time.Time
		*t = ti
	case **time.Time:
		var ti time.Time
		*t = ptr(ti)
	default:
		panic(fmt.Sprintf("invalid type %T", a))
	}
}

func nilModifierFn(a any) {
	switch t := a.(type) {
	case **string:
		*t = nil
	case **time.Time:
		*t = nil
	default:
		panic(fmt.Sprintf("invalid type %T", a))
	}
}

func otherValueModifierFn(a any) {
	switch t := a.(type) {
	case *int:
		*t = 101
	case *Product:
		*t = Product_Ferry
	case **string:
		*t = ptr("other")
	case *time.Duration:
		*t = mkDuration(105)
	case *time.Time:
		*t = mkTime(107)
	case **time.Time:
		*t = ptr(mkTime(108))
	default:
		panic(fmt.Sprintf("invalid type %T", a))
	}
}

func combinations(m []modifier) [][2]modifier {
	var c [][2]modifier
	for i, lhs := range m {
		for _, rhs := range m[i+1:] {
			c = append(c, [2]modifier{lhs, rhs})
		}
	}
	return c
}
