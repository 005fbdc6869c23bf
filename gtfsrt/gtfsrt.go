// Package gtfsrt exports decoded trips as a GTFS Realtime feed.
//
// Every public leg becomes one TripUpdate entity. Individual legs have no counterpart
// in GTFS Realtime and are skipped.
package gtfsrt

import (
	"fmt"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/jamespfennell/hafas"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

type Options struct {
	// Timestamp of the feed header. If zero, time.Now is used.
	Timestamp time.Time
}

func ptr[T any](v T) *T { return &v }

// Feed builds a full-dataset FeedMessage for the trips of a result.
func Feed(result *hafas.TripsResult, opts *Options) *gtfs.FeedMessage {
	timestamp := time.Now()
	if opts != nil && !opts.Timestamp.IsZero() {
		timestamp = opts.Timestamp
	}
	var entities []*gtfs.FeedEntity
	if result != nil {
		for i := range result.Trips {
			trip := &result.Trips[i]
			for j, leg := range trip.Legs {
				publicLeg, ok := leg.(*hafas.PublicLeg)
				if !ok {
					continue
				}
				entities = append(entities, entity(fmt.Sprintf("%s/%d", trip.ID, j), publicLeg))
			}
		}
	}
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: ptr("2.0"),
			Incrementality:      ptr(gtfs.FeedHeader_FULL_DATASET),
			Timestamp:           ptr(uint64(timestamp.Unix())),
		},
		Entity: entities,
	}
}

// Marshal serializes a feed in the protobuf wire format, or in the protobuf text
// format if humanReadable is set.
func Marshal(m *gtfs.FeedMessage, humanReadable bool) ([]byte, error) {
	var b []byte
	var err error
	if humanReadable {
		b, err = prototext.MarshalOptions{Multiline: true}.Marshal(m)
	} else {
		b, err = proto.Marshal(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GTFS-RT message: %w", err)
	}
	return b, nil
}

func entity(id string, leg *hafas.PublicLeg) *gtfs.FeedEntity {
	descriptor := &gtfs.TripDescriptor{
		TripId:               ptr(id),
		RouteId:              leg.Line.Label,
		ScheduleRelationship: ptr(gtfs.TripDescriptor_SCHEDULED),
	}
	if planned := leg.Departure.PlannedTime; planned != nil {
		descriptor.StartDate = ptr(planned.Format("20060102"))
		descriptor.StartTime = ptr(planned.Format("15:04:05"))
	}

	update := &gtfs.TripUpdate{Trip: descriptor}
	if leg.Departure.Cancelled && leg.Arrival.Cancelled {
		descriptor.ScheduleRelationship = ptr(gtfs.TripDescriptor_CANCELED)
	} else {
		seq := uint32(0)
		update.StopTimeUpdate = append(update.StopTimeUpdate, stopTimeUpdate(seq, leg.Departure.Location, nil, &leg.Departure))
		for i := range leg.IntermediateStops {
			seq++
			stop := &leg.IntermediateStops[i]
			update.StopTimeUpdate = append(update.StopTimeUpdate, stopTimeUpdate(seq, stop.Location(), &stop.Arrival, &stop.Departure))
		}
		update.StopTimeUpdate = append(update.StopTimeUpdate, stopTimeUpdate(seq+1, leg.Arrival.Location, &leg.Arrival, nil))
	}
	if t := leg.DepartsAt(); !t.IsZero() {
		update.Timestamp = ptr(uint64(t.Unix()))
	}
	return &gtfs.FeedEntity{
		Id:         ptr(id),
		TripUpdate: update,
	}
}

func stopTimeUpdate(seq uint32, location hafas.Location, arrival, departure *hafas.StopEvent) *gtfs.TripUpdate_StopTimeUpdate {
	u := &gtfs.TripUpdate_StopTimeUpdate{
		StopSequence: ptr(seq),
		StopId:       location.ID,
	}
	cancelled := true
	if arrival != nil {
		cancelled = cancelled && arrival.Cancelled
		u.Arrival = stopTimeEvent(arrival)
	}
	if departure != nil {
		cancelled = cancelled && departure.Cancelled
		u.Departure = stopTimeEvent(departure)
	}
	relationship := gtfs.TripUpdate_StopTimeUpdate_NO_DATA
	switch {
	case cancelled:
		relationship = gtfs.TripUpdate_StopTimeUpdate_SKIPPED
		u.Arrival, u.Departure = nil, nil
	case u.Arrival != nil || u.Departure != nil:
		relationship = gtfs.TripUpdate_StopTimeUpdate_SCHEDULED
	}
	u.ScheduleRelationship = &relationship
	return u
}

// stopTimeEvent is nil unless the backend predicted a time.
func stopTimeEvent(e *hafas.StopEvent) *gtfs.TripUpdate_StopTimeEvent {
	if e.PredictedTime == nil {
		return nil
	}
	event := &gtfs.TripUpdate_StopTimeEvent{Time: ptr(e.PredictedTime.Unix())}
	if delay := e.Delay(); delay != nil {
		event.Delay = ptr(int32(delay.Seconds()))
	}
	return event
}
