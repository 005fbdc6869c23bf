package journal

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/jamespfennell/hafas"
)

//go:embed trips.csv.tmpl
var tripsCsvTmpl string

//go:embed legs.csv.tmpl
var legsCsvTmpl string

var funcMap = template.FuncMap{
	"NullableString": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"NullableUnix": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return fmt.Sprintf("%d", t.Unix())
	},
	"Minutes": func(d time.Duration) string {
		return fmt.Sprintf("%d", int64(d/time.Minute))
	},
	"LocationName": func(l hafas.Location) string {
		switch {
		case l.Name == nil:
			return ""
		case l.Place == nil:
			return *l.Name
		default:
			return *l.Place + ", " + *l.Name
		}
	},
	"Quote": quote,
}

var tripsCsv *template.Template = template.Must(template.New("trips.csv.tmpl").Funcs(funcMap).Parse(tripsCsvTmpl))
var legsCsv *template.Template = template.Must(template.New("legs.csv.tmpl").Funcs(funcMap).Parse(legsCsvTmpl))

// quote escapes a CSV field if it contains a separator, a quote or a line break.
func quote(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CsvExport contains CSV exports of a journal
type CsvExport struct {
	TripsCsv []byte
	LegsCsv  []byte
}

type legRow struct {
	TripID             string
	Index              int
	Mode               string
	Line               *string
	Product            string
	From               hafas.Location
	To                 hafas.Location
	PlannedDeparture   *time.Time
	PredictedDeparture *time.Time
	PlannedArrival     *time.Time
	PredictedArrival   *time.Time
	DeparturePlatform  *string
	ArrivalPlatform    *string
	Cancelled          bool
	Message            *string
}

func legRows(trips []hafas.Trip) []legRow {
	var rows []legRow
	for _, trip := range trips {
		for i, leg := range trip.Legs {
			row := legRow{
				TripID: trip.ID,
				Index:  i,
				From:   leg.DepartureLocation(),
				To:     leg.ArrivalLocation(),
			}
			switch l := leg.(type) {
			case *hafas.PublicLeg:
				row.Mode = "PUBLIC"
				row.Line = l.Line.Label
				row.Product = l.Line.Product.String()
				row.PlannedDeparture = l.Departure.PlannedTime
				row.PredictedDeparture = l.Departure.PredictedTime
				row.PlannedArrival = l.Arrival.PlannedTime
				row.PredictedArrival = l.Arrival.PredictedTime
				row.DeparturePlatform = l.Departure.Platform()
				row.ArrivalPlatform = l.Arrival.Platform()
				row.Cancelled = l.Cancelled()
				row.Message = l.Message
			case *hafas.IndividualLeg:
				row.Mode = l.Type.String()
				departure, arrival := l.DepartureTime, l.ArrivalTime
				row.PlannedDeparture = &departure
				row.PlannedArrival = &arrival
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (journal *Journal) ExportToCsv() (*CsvExport, error) {
	trips := make([]*hafas.Trip, len(journal.Trips))
	for i := range journal.Trips {
		trips[i] = &journal.Trips[i]
	}
	var tripsB bytes.Buffer
	err := tripsCsv.Execute(&tripsB, trips)
	if err != nil {
		return nil, err
	}

	var legsB bytes.Buffer
	err = legsCsv.Execute(&legsB, legRows(journal.Trips))
	if err != nil {
		return nil, err
	}
	return &CsvExport{
		TripsCsv: tripsB.Bytes(),
		LegsCsv:  legsB.Bytes(),
	}, nil
}
