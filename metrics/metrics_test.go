package metrics

import (
	"testing"

	"github.com/jamespfennell/hafas"
	"github.com/jamespfennell/hafas/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkTrip(departure, arrival uint16) testutil.Trip {
	return testutil.Trip{
		ServiceMask: []byte{0x80},
		Duration:    arrival - departure,
		Legs: []testutil.Leg{
			{
				Type:             1,
				DepartureStation: 0,
				ArrivalStation:   1,
				PlannedDeparture: testutil.At(departure),
				PlannedArrival:   testutil.At(arrival),
			},
		},
	}
}

func response(trips ...testutil.Trip) *testutil.Response {
	return &testutil.Response{
		From:          testutil.Location{Name: "Hamburg, Dammtor", Lon: 9989000, Lat: 53560000},
		To:            testutil.Location{Name: "Hamburg, Stephansplatz", Lon: 9987000, Lat: 53558000},
		ReferenceDate: 16000,
		Stations: []testutil.Station{
			{Name: "Hamburg, Dammtor", ID: 8002548, Lon: 9989000, Lat: 53560000},
			{Name: "Hamburg, Stephansplatz", ID: 694, Lon: 9987000, Lat: 53558000},
		},
		Trips:     trips,
		SeqNr:     1,
		RequestID: "req",
	}
}

func TestParseTrips(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	result, err := m.ParseTrips(response(walkTrip(900, 910), walkTrip(930, 940)).Build(), nil)
	require.NoError(t, err)
	require.Len(t, result.Trips, 2)

	failed := response()
	failed.ErrorCode = 9260
	result, err = m.ParseTrips(failed.Build(), nil)
	require.NoError(t, err)
	assert.Equal(t, hafas.Status_UnknownFrom, result.Status)

	bad := response(walkTrip(900, 910))
	bad.Version = 4
	_, err = m.ParseTrips(bad.Build(), nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.responses.WithLabelValues("OK")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.responses.WithLabelValues("UNKNOWN_FROM")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.responses.WithLabelValues(decodeErrorOutcome)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.decodeErrors.WithLabelValues("unsupported version")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.trips))
	assert.Equal(t, uint64(3), durationSamples(t, reg))
}

func durationSamples(t *testing.T, reg *prometheus.Registry) uint64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "hafas_decode_duration_seconds" {
			return family.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("duration histogram not registered")
	return 0
}

func TestObserve_OtherError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe(nil, assert.AnError)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.decodeErrors.WithLabelValues("other")))
}
