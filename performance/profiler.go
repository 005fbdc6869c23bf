package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/jamespfennell/hafas"
)

var (
	out        = flag.String("out", "hafas_package_profile.pb.gz", "file path to output the profile to")
	iterations = flag.Int("n", 100, "number of times to decode each response")
)

func main() {
	if err := run(); err != nil {
		fmt.Println("failed:", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	var responses [][]byte
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		b, err := hafas.ReadResponse(f)
		f.Close()
		if err != nil {
			return err
		}
		responses = append(responses, b)
	}
	opts := &hafas.ParseTripsOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	fmt.Println("starting profile")
	var profile bytes.Buffer
	if err := pprof.StartCPUProfile(&profile); err != nil {
		return err
	}
	for i, in := range responses {
		fmt.Printf("decoding response %d/%d\n", i+1, len(responses))
		for n := 0; n < *iterations; n++ {
			if _, err := hafas.ParseTrips(in, opts); err != nil {
				pprof.StopCPUProfile()
				return err
			}
		}
	}
	pprof.StopCPUProfile()

	fmt.Println("writing profile to", *out)
	return os.WriteFile(*out, profile.Bytes(), 0644)
}
