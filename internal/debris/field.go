// Package debris owns the tracked bodies and turns a clock sample into one
// world position per body each frame.
package debris

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/star/debrisview/internal/metrics"
	"github.com/star/debrisview/internal/propagation"
	"github.com/star/debrisview/internal/simclock"
	"github.com/star/debrisview/internal/tle"
	"github.com/star/debrisview/internal/transform"
)

// EarthRadiusKm is the WGS-84 equatorial radius. The rendered planet has
// radius 1, so one world unit is this many kilometres.
const EarthRadiusKm = 6378.137

// Frame selects the reference frame positions are rendered in.
type Frame string

const (
	// FrameInertial renders propagator (TEME) output directly.
	FrameInertial Frame = "inertial"
	// FrameEarthFixed rotates positions with the planet (ECEF).
	FrameEarthFixed Frame = "earth-fixed"
)

// Config holds field configuration.
type Config struct {
	PlanetRadiusKm float64
	Frame          Frame
	Propagation    propagation.PropConfig
}

// PositionSink receives world positions keyed by body index. SetPosition is
// called concurrently for distinct indices when the field runs more than one
// worker.
type PositionSink interface {
	SetPosition(index int, p mgl32.Vec3)
}

// Source describes one body to track.
type Source struct {
	Name       string
	CatalogID  int
	Propagator propagation.Propagator
}

// Body is a tracked body. Index is its position in the source order and is
// the key shared with render-side state.
type Body struct {
	Index     int
	Name      string
	CatalogID int
	prop      propagation.Propagator
}

// Stats summarizes one UpdateAll call.
type Stats struct {
	Updated  int
	Failed   int
	Duration time.Duration
}

// Field is the fixed set of tracked bodies.
type Field struct {
	bodies []Body
	errs   []error // per-body result of the last update
	pool   *propagation.WorkerPool
	config Config
	logger *slog.Logger
}

// NewField creates a field from sources, assigning indices in order.
func NewField(sources []Source, config Config, logger *slog.Logger) *Field {
	if config.PlanetRadiusKm <= 0 {
		config.PlanetRadiusKm = EarthRadiusKm
	}
	if config.Frame == "" {
		config.Frame = FrameInertial
	}

	bodies := make([]Body, len(sources))
	for i, s := range sources {
		bodies[i] = Body{Index: i, Name: s.Name, CatalogID: s.CatalogID, prop: s.Propagator}
	}

	metrics.SetTrackedBodies(len(bodies))

	return &Field{
		bodies: bodies,
		errs:   make([]error, len(bodies)),
		pool:   propagation.NewWorkerPool(config.Propagation.Workers, logger),
		config: config,
		logger: logger,
	}
}

// Build creates an SGP4 propagator per element record, in record order.
// Any initialization failure aborts the build.
func Build(elements []tle.Element, config Config, logger *slog.Logger) (*Field, error) {
	sources := make([]Source, 0, len(elements))
	for i, e := range elements {
		prop, err := propagation.NewSGP4Propagator(e.Line1, e.Line2, e.CatalogID, config.Propagation.Gravity)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, e.Name, err)
		}
		sources = append(sources, Source{Name: e.Name, CatalogID: e.CatalogID, Propagator: prop})
	}

	f := NewField(sources, config, logger)
	logger.Info("debris field built",
		"bodies", len(sources),
		"frame", f.config.Frame,
		"workers", f.pool.Workers(),
	)
	return f, nil
}

// Len returns the number of tracked bodies.
func (f *Field) Len() int {
	return len(f.bodies)
}

// Frame returns the frame positions are rendered in.
func (f *Field) Frame() Frame {
	return f.config.Frame
}

// SunDirection returns the unit world-space direction toward the Sun at
// sample, in the same frame the field renders positions in.
func (f *Field) SunDirection(sample simclock.Sample) mgl32.Vec3 {
	sun := transform.SunDirection(sample.Day, sample.Fraction)
	if f.config.Frame == FrameEarthFixed {
		sun = transform.TEMEToECEF(transform.State{Position: sun}, transform.GMST(sample.Day, sample.Fraction)).Position
	}
	return ToWorld(sun, 1).Normalize()
}

// Body returns the body at index i.
func (f *Field) Body(i int) Body {
	return f.bodies[i]
}

// UpdateAll propagates every body to sample and writes the world position of
// each success to sink. A failed body is logged and its previous position is
// left untouched; it is tried again on the next call.
func (f *Field) UpdateAll(sample simclock.Sample, sink PositionSink) Stats {
	start := time.Now()

	var gmst float64
	earthFixed := f.config.Frame == FrameEarthFixed
	if earthFixed {
		gmst = transform.GMST(sample.Day, sample.Fraction)
	}

	f.pool.Run(len(f.bodies), func(i int) {
		b := &f.bodies[i]
		st, err := b.prop.Propagate(sample.Day, sample.Fraction)
		if err != nil {
			f.errs[i] = err
			return
		}
		f.errs[i] = nil
		if earthFixed {
			st = transform.TEMEToECEF(st, gmst)
		}
		sink.SetPosition(b.Index, ToWorld(st.Position, f.config.PlanetRadiusKm))
	})

	var stats Stats
	for i, err := range f.errs {
		if err != nil {
			stats.Failed++
			f.logger.Warn("propagation failed",
				"index", i,
				"catalog_id", f.bodies[i].CatalogID,
				"jd", sample.JD(),
				"error", err,
			)
			continue
		}
		stats.Updated++
	}
	stats.Duration = time.Since(start)

	metrics.RecordFieldUpdate(stats.Duration, stats.Updated, stats.Failed)
	return stats
}

// ToWorld maps a propagator position (km, Z toward the pole) to world units
// with Y up: (x, y, z) km → (x, z, y) / planetRadiusKm.
func ToWorld(km [3]float64, planetRadiusKm float64) mgl32.Vec3 {
	inv := 1.0 / planetRadiusKm
	return mgl32.Vec3{
		float32(km[0] * inv),
		float32(km[2] * inv),
		float32(km[1] * inv),
	}
}
