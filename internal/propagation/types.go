package propagation

import (
	"errors"

	"github.com/star/debrisview/internal/transform"
)

// ErrPropagation marks a per-call propagation failure. It is never fatal:
// the next call with a different date may succeed.
var ErrPropagation = errors.New("propagation failed")

// State is a position (km) and velocity (km/s) in the propagator frame:
// X/Y in the equatorial plane, Z toward the pole.
type State = transform.State

// Propagator maps a Julian date, split into integer day and day fraction,
// to a body's state. Implementations own their internal state exclusively.
type Propagator interface {
	Propagate(day, fraction float64) (State, error)
}

// PropConfig holds propagation configuration.
type PropConfig struct {
	Workers int    // Worker pool size (default: 1, sequential)
	Gravity string // "wgs72" or "wgs84" (default: wgs84)
}
