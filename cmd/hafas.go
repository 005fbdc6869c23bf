package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jamespfennell/hafas"
	"github.com/jamespfennell/hafas/config"
	"github.com/jamespfennell/hafas/gtfsrt"
	"github.com/jamespfennell/hafas/journal"
	"github.com/jamespfennell/hafas/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var decoderFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML config file",
	},
	&cli.StringFlag{
		Name:  "extension",
		Usage: "network extension to use: none, db",
	},
	&cli.StringFlag{
		Name:  "timezone",
		Usage: "IANA timezone of the backend, e.g. Europe/Berlin",
	},
}

func main() {
	app := &cli.App{
		Name:  "HAFAS parser",
		Usage: "decode trip search responses of the legacy binary HAFAS interface",
		Commands: []*cli.Command{
			{
				Name:  "trips",
				Usage: "decode a single trip search response",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "print the legs of each trip and log at debug level",
					},
				}, decoderFlags...),
				ArgsUsage: "path",
				Action: func(ctx *cli.Context) error {
					if ctx.Args().Len() == 0 {
						return fmt.Errorf("a path to the response was not provided")
					}
					opts, err := parseTripsOptions(ctx)
					if err != nil {
						return err
					}
					path := ctx.Args().First()
					b, err := readResponse(path)
					if err != nil {
						return err
					}
					result, err := hafas.ParseTrips(b, opts)
					if err != nil {
						return fmt.Errorf("failed to decode response: %w", err)
					}
					fmt.Printf("Read %s, version %d, status %s\n", humanize.Bytes(uint64(len(b))), result.Version, result.Status)
					if result.BackendError != nil {
						fmt.Printf("Backend error: %s\n", result.BackendError)
						return nil
					}
					fmt.Printf("From %s to %s\n", formatLocation(result.From), formatLocation(result.To))
					fmt.Printf("%d trips:\n", len(result.Trips))
					for _, trip := range result.Trips {
						fmt.Printf("- %s\n", formatTrip(trip, 2, ctx.Bool("verbose")))
					}
					if len(result.Warnings) > 0 {
						fmt.Printf("%d warnings:\n", len(result.Warnings))
						for _, w := range result.Warnings {
							fmt.Printf("- trip %d: %s\n", w.TripIndex(), w)
						}
					}
					if result.Context != nil {
						fmt.Printf("Pagination token: %s (more: %t)\n", result.Context.Token(), result.Context.CanQueryMore)
					}
					return nil
				},
			},
			{
				Name:      "error-code",
				Usage:     "explain a backend error code",
				ArgsUsage: "code",
				Action: func(ctx *cli.Context) error {
					if ctx.Args().Len() == 0 {
						return fmt.Errorf("an error code was not provided")
					}
					raw := strings.TrimPrefix(strings.ToUpper(ctx.Args().First()), "H")
					code, err := strconv.Atoi(raw)
					if err != nil {
						return fmt.Errorf("invalid error code %q: %w", ctx.Args().First(), err)
					}
					e := hafas.TranslateErrorCode(code)
					fmt.Println(e.Error())
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "merge the pages of a paginated search and export the trips",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "csv",
						Usage: "export format: csv, gtfsrt",
					},
					&cli.StringFlag{
						Name:  "out",
						Value: ".",
						Usage: "directory to write the export to",
					},
					&cli.BoolFlag{
						Name:  "text",
						Usage: "write GTFS realtime feeds in the protobuf text format",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "write decode metrics in the Prometheus text format to this path",
					},
				}, decoderFlags...),
				ArgsUsage: "path...",
				Action: func(ctx *cli.Context) error {
					if ctx.Args().Len() == 0 {
						return fmt.Errorf("no response paths were provided")
					}
					opts, err := parseTripsOptions(ctx)
					if err != nil {
						return err
					}
					reg := prometheus.NewRegistry()
					m := metrics.New(reg)
					var j journal.Journal
					for _, path := range ctx.Args().Slice() {
						b, err := readResponse(path)
						if err != nil {
							return err
						}
						result, err := m.ParseTrips(b, opts)
						if err != nil {
							return fmt.Errorf("failed to decode %s: %w", path, err)
						}
						if err := result.Err(); err != nil {
							opts.Logger.Warn("skipping response", slog.String("path", path), slog.String("error", err.Error()))
							continue
						}
						n := j.Add(result)
						opts.Logger.Info("added response", slog.String("path", path), slog.Int("new_trips", n))
					}
					if err := writeExport(ctx, &j); err != nil {
						return err
					}
					fmt.Printf("Exported %s trips\n", humanize.Comma(int64(len(j.Trips))))
					if path := ctx.String("metrics-file"); path != "" {
						if err := prometheus.WriteToTextfile(path, reg); err != nil {
							return fmt.Errorf("failed to write metrics: %w", err)
						}
					}
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func parseTripsOptions(ctx *cli.Context) (*hafas.ParseTripsOptions, error) {
	cfg := &config.Config{}
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if tz := ctx.String("timezone"); tz != "" {
		cfg.Timezone = tz
	}
	if ext := ctx.String("extension"); ext != "" {
		cfg.Extension = ext
	}
	level := cfg.Level()
	if ctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg.ParseTripsOptions(logger)
}

func readResponse(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defer f.Close()
	return hafas.ReadResponse(f)
}

func writeExport(ctx *cli.Context, j *journal.Journal) error {
	out := ctx.String("out")
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files := map[string][]byte{}
	switch ctx.String("format") {
	case "csv":
		export, err := j.ExportToCsv()
		if err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
		files["trips.csv"] = export.TripsCsv
		files["legs.csv"] = export.LegsCsv
	case "gtfsrt":
		feed := gtfsrt.Feed(&hafas.TripsResult{Trips: j.Trips}, nil)
		b, err := gtfsrt.Marshal(feed, ctx.Bool("text"))
		if err != nil {
			return err
		}
		name := "trip_updates.pb"
		if ctx.Bool("text") {
			name = "trip_updates.txt"
		}
		files[name] = b
	default:
		return fmt.Errorf("unknown export format %q", ctx.String("format"))
	}
	for name, b := range files {
		path := filepath.Join(out, name)
		if err := os.WriteFile(path, b, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s (%s)\n", path, humanize.Bytes(uint64(len(b))))
	}
	return nil
}

func formatTrip(trip hafas.Trip, indent int, printLegs bool) string {
	var b strings.Builder
	tc := color.New(color.FgCyan)
	lc := color.New(color.FgMagenta)
	sc := color.New(color.FgGreen)
	rc := color.New(color.FgRed)
	newLine := fmt.Sprintf("\n%*s", indent, "")
	fmt.Fprintf(&b,
		"TripID %s  Departure %s  Arrival %s  Duration %s  Changes %s%s",
		tc.Sprint(trip.ID),
		unPtrT(trip.FirstDeparture(), tc),
		unPtrT(trip.LastArrival(), tc),
		tc.Sprint(trip.Duration),
		tc.Sprint(trip.NumChanges),
		newLine,
	)
	if trip.Cancelled {
		fmt.Fprintf(&b, "%s%s", rc.Sprint("Cancelled"), newLine)
	}
	if !printLegs {
		fmt.Fprintf(&b, "Num legs: %d (show with -v)%s", len(trip.Legs), newLine)
		return b.String()
	}
	fmt.Fprintf(&b, "Legs (%d):%s", len(trip.Legs), newLine)
	for _, leg := range trip.Legs {
		switch leg := leg.(type) {
		case *hafas.PublicLeg:
			fmt.Fprintf(&b,
				"  Line %s  Product %s  From %s %s  To %s %s  Stops %s%s",
				lc.Sprint(unPtr(leg.Line.Label)),
				lc.Sprint(leg.Line.Product),
				formatLocation(&leg.Departure.Location),
				formatEvent(&leg.Departure, sc, rc),
				formatLocation(&leg.Arrival.Location),
				formatEvent(&leg.Arrival, sc, rc),
				sc.Sprint(len(leg.IntermediateStops)),
				newLine,
			)
			if leg.Message != nil {
				fmt.Fprintf(&b, "    Message %s%s", rc.Sprint(*leg.Message), newLine)
			}
		case *hafas.IndividualLeg:
			fmt.Fprintf(&b,
				"  %s  From %s %s  To %s %s%s",
				lc.Sprint(leg.Type),
				formatLocation(&leg.Departure),
				sc.Sprint(leg.DepartureTime.Format("15:04")),
				formatLocation(&leg.Arrival),
				sc.Sprint(leg.ArrivalTime.Format("15:04")),
				newLine,
			)
		}
	}
	return b.String()
}

func formatLocation(l *hafas.Location) string {
	if l == nil {
		return "<none>"
	}
	name := unPtr(l.Name)
	if l.Place != nil {
		name = *l.Place + ", " + name
	}
	if l.ID != nil {
		name += " (" + *l.ID + ")"
	}
	if l.Coord != nil {
		name += fmt.Sprintf(" @%.6f,%.6f", l.Coord.LatDegrees(), l.Coord.LonDegrees())
	}
	return name
}

func formatEvent(e *hafas.StopEvent, c, cancelled *color.Color) string {
	if e.Cancelled {
		return cancelled.Sprint("cancelled")
	}
	s := unPtrT(e.PlannedTime, c)
	if d := e.Delay(); d != nil && *d != 0 {
		s += c.Sprintf(" %+d", int(d.Minutes()))
	}
	if p := e.Platform(); p != nil {
		s += " platform " + c.Sprint(*p)
	}
	return s
}

func unPtr(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}

func unPtrT(t *time.Time, c *color.Color) string {
	if t == nil {
		return "<none>"
	}
	return c.Sprint(t.Format("2006-01-02 15:04"))
}
