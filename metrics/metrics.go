// Package metrics records Prometheus metrics about decoded trip search responses.
package metrics

import (
	"errors"
	"time"

	"github.com/jamespfennell/hafas"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label of responses that failed to decode.
const decodeErrorOutcome = "DECODE_ERROR"

type Metrics struct {
	responses    *prometheus.CounterVec
	decodeErrors *prometheus.CounterVec
	trips        prometheus.Counter
	warnings     prometheus.Counter
	duration     prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hafas",
			Name:      "responses_total",
			Help:      "Trip search responses decoded, by outcome.",
		}, []string{"outcome"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hafas",
			Name:      "decode_errors_total",
			Help:      "Responses that failed to decode, by error kind.",
		}, []string{"kind"}),
		trips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hafas",
			Name:      "trips_total",
			Help:      "Trips decoded from successful responses.",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hafas",
			Name:      "decode_warnings_total",
			Help:      "Non-fatal anomalies seen while decoding.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hafas",
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding a single response.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(m.responses, m.decodeErrors, m.trips, m.warnings, m.duration)
	return m
}

// ParseTrips decodes content with hafas.ParseTrips and records the outcome.
func (m *Metrics) ParseTrips(content []byte, opts *hafas.ParseTripsOptions) (*hafas.TripsResult, error) {
	start := time.Now()
	result, err := hafas.ParseTrips(content, opts)
	m.duration.Observe(time.Since(start).Seconds())
	m.Observe(result, err)
	return result, err
}

// Observe records a decode outcome that was produced elsewhere.
func (m *Metrics) Observe(result *hafas.TripsResult, err error) {
	if err != nil {
		m.responses.WithLabelValues(decodeErrorOutcome).Inc()
		m.decodeErrors.WithLabelValues(errorKind(err)).Inc()
		return
	}
	m.responses.WithLabelValues(result.Status.String()).Inc()
	m.trips.Add(float64(len(result.Trips)))
	m.warnings.Add(float64(len(result.Warnings)))
}

func errorKind(err error) string {
	var decodeErr *hafas.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Kind.String()
	}
	return "other"
}
