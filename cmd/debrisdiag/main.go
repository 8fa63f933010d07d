// Command debrisdiag runs the frame pipeline without a terminal and prints
// each body's world position per frame.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/star/debrisview/internal/config"
	"github.com/star/debrisview/internal/debris"
	"github.com/star/debrisview/internal/scene"
	"github.com/star/debrisview/internal/simclock"
	"github.com/star/debrisview/internal/tle"
)

func main() {
	configPath := flag.String("config", "", "config file (overrides DEBRIS_CONFIG)")
	frames := flag.Int("frames", 5, "number of frames to run")
	step := flag.Duration("step", time.Second, "wall-clock time between frames")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("ERROR loading config:", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	elements, err := tle.LoadFile(cfg.TLEPath, logger)
	if err != nil {
		fmt.Println("ERROR loading element records:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d element records from %s\n", len(elements), cfg.TLEPath)

	field, err := debris.Build(elements, cfg.Field, logger)
	if err != nil {
		fmt.Println("ERROR building field:", err)
		os.Exit(1)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	clock, err := simclock.New(start, cfg.TimeScale)
	if err != nil {
		fmt.Println("ERROR creating clock:", err)
		os.Exit(1)
	}
	fmt.Printf("Clock base %v, time scale %g, frame %s\n\n", clock.Base().Time().Format(time.RFC3339), clock.TimeScale(), field.Frame())

	positions := scene.NewTransforms(field.Len())
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for f := 0; f < *frames; f++ {
		sample := clock.At(float64(f) * step.Seconds())
		stats := field.UpdateAll(sample, positions)
		fmt.Fprintf(tw, "frame %d\t%s\tupdated %d\tfailed %d\t%v\n",
			f, sample.Time().Format(time.RFC3339Nano), stats.Updated, stats.Failed, stats.Duration)

		for i := 0; i < field.Len(); i++ {
			b := field.Body(i)
			p, ok := positions.Position(i)
			if !ok {
				fmt.Fprintf(tw, "  %d\t%s\t%05d\tno position\t\n", i, b.Name, b.CatalogID)
				continue
			}
			altKm := float64(p.Len())*cfg.Field.PlanetRadiusKm - cfg.Field.PlanetRadiusKm
			fmt.Fprintf(tw, "  %d\t%s\t%05d\t(%.4f, %.4f, %.4f)\talt %.1f km\n",
				i, b.Name, b.CatalogID, p.X(), p.Y(), p.Z(), altKm)
		}
	}
	tw.Flush()
}
