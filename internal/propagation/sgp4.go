package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/star/debrisview/internal/transform"
	"gonum.org/v1/gonum/floats"
)

// Position magnitude bounds for a plausible Earth orbit (km).
const (
	minRadiusKm = 6200.0
	maxRadiusKm = 50000.0
)

// unixEpochJD is the Julian Date of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

// SGP4Propagator wraps go-satellite for a single body.
//
// Propagate() in go-satellite takes Satellite by value so SGP4 error codes are
// not visible to the caller. Failures are detected from NaN/Inf output and
// unreasonable position magnitudes.
type SGP4Propagator struct {
	sat       satellite.Satellite
	catalogID int
}

// NewSGP4Propagator creates an SGP4 propagator from element lines.
// gravity selects the constants ("wgs72" or "wgs84"; empty means wgs84).
//
// Pre-validates the line format before passing it to the library, because
// go-satellite calls log.Fatal on malformed input.
func NewSGP4Propagator(line1, line2 string, catalogID int, gravity string) (*SGP4Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid elements for catalog %d: %w", catalogID, err)
	}

	grav, err := gravityModel(gravity)
	if err != nil {
		return nil, err
	}

	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), grav)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for catalog %d: code=%d %s", catalogID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, catalogID: catalogID}, nil
}

func gravityModel(name string) (satellite.Gravity, error) {
	switch strings.ToLower(name) {
	case "", "wgs84":
		return satellite.GravityWGS84, nil
	case "wgs72":
		return satellite.GravityWGS72, nil
	default:
		return satellite.GravityWGS84, fmt.Errorf("unknown gravity model %q", name)
	}
}

// validateTLELines performs basic format validation on element lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// CatalogID returns the catalog number the propagator was built for.
func (p *SGP4Propagator) CatalogID() int {
	return p.catalogID
}

// Propagate computes the body state at the Julian date day+fraction.
//
// go-satellite resolves time to whole seconds, so the state is evaluated at
// the floored second and the position advanced linearly by the remainder.
func (p *SGP4Propagator) Propagate(day, fraction float64) (State, error) {
	t, rem := TimeFromJulian(day, fraction)

	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	st := State{
		Position: [3]float64{pos.X + vel.X*rem, pos.Y + vel.Y*rem, pos.Z + vel.Z*rem},
		Velocity: [3]float64{vel.X, vel.Y, vel.Z},
	}

	if !transform.Plausible(st.Position, minRadiusKm, maxRadiusKm) {
		mag := floats.Norm(st.Position[:], 2)
		return State{}, fmt.Errorf("%w for catalog %d: implausible position magnitude %.1f km", ErrPropagation, p.catalogID, mag)
	}
	return st, nil
}

// TimeFromJulian converts a Julian date pair to a UTC time truncated to the
// second, plus the sub-second remainder in seconds.
func TimeFromJulian(day, fraction float64) (time.Time, float64) {
	secs := ((day - unixEpochJD) + fraction) * 86400.0
	whole := math.Floor(secs)
	return time.Unix(int64(whole), 0).UTC(), secs - whole
}
