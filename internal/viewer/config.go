package viewer

import (
	"errors"
	"fmt"
	"math"
)

// Config holds viewer configuration.
type Config struct {
	FPS        int     // frame ticks per second
	FovYDeg    float64 // vertical field of view
	CellAspect float64 // terminal cell height / width
}

// DefaultConfig returns the compiled-in viewer settings.
func DefaultConfig() Config {
	return Config{FPS: 30, FovYDeg: 60, CellAspect: 2}
}

// Validate reports out-of-range settings.
func (c Config) Validate() error {
	var errs []error
	if c.FPS < 1 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d outside [1, 240]", c.FPS))
	}
	if !(c.FovYDeg > 0 && c.FovYDeg < 180) {
		errs = append(errs, fmt.Errorf("fov %v outside (0, 180)", c.FovYDeg))
	}
	if !(c.CellAspect > 0) || math.IsInf(c.CellAspect, 0) {
		errs = append(errs, fmt.Errorf("cell aspect %v must be positive", c.CellAspect))
	}
	return errors.Join(errs...)
}
