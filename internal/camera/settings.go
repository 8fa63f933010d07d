package camera

import (
	"errors"
	"fmt"
	"math"
)

// Range is a closed interval.
type Range struct {
	Min, Max float32
}

// Clamp limits v to the range.
func (r Range) Clamp(v float32) float32 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Settings controls how input moves the orbit camera. Construct once at
// startup and share by pointer.
type Settings struct {
	// RadiusRange bounds the distance from the target.
	RadiusRange Range
	// PitchRange must stay strictly inside ±π/2 so the view never flips
	// over a pole.
	PitchRange Range
	// RotateSpeed is radians per pixel of drag.
	RotateSpeed float32
	// ZoomSpeed is the fractional radius change per scroll line.
	ZoomSpeed float32
}

// DefaultPitchLimit keeps pitch just shy of ±90°.
const DefaultPitchLimit = math.Pi/2 - 0.01

// DefaultSettings returns the compiled-in camera settings.
func DefaultSettings() Settings {
	return Settings{
		RadiusRange: Range{Min: 1.5, Max: 50},
		PitchRange:  Range{Min: -DefaultPitchLimit, Max: DefaultPitchLimit},
		RotateSpeed: 0.005,
		ZoomSpeed:   0.15,
	}
}

// Validate reports settings that would break the camera invariants.
func (s Settings) Validate() error {
	var errs []error
	if !(s.RadiusRange.Min > 0) || s.RadiusRange.Min > s.RadiusRange.Max {
		errs = append(errs, fmt.Errorf("radius range [%v, %v] must be positive and ordered", s.RadiusRange.Min, s.RadiusRange.Max))
	}
	if s.PitchRange.Min > s.PitchRange.Max {
		errs = append(errs, fmt.Errorf("pitch range [%v, %v] is inverted", s.PitchRange.Min, s.PitchRange.Max))
	}
	if !(s.PitchRange.Min > -math.Pi/2) || !(s.PitchRange.Max < math.Pi/2) {
		errs = append(errs, fmt.Errorf("pitch range [%v, %v] must lie strictly inside ±π/2", s.PitchRange.Min, s.PitchRange.Max))
	}
	if !finite32(s.RotateSpeed) || !finite32(s.ZoomSpeed) {
		errs = append(errs, errors.New("rotate and zoom speeds must be finite"))
	}
	return errors.Join(errs...)
}

func finite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
