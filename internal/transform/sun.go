package transform

import "github.com/soniakeys/meeus/v3/solar"

// SunDirection returns the unit vector toward the apparent Sun in the
// equatorial inertial frame (X toward the equinox, Z toward the pole) for a
// Julian date given as integer day and fraction. UT is used in place of TT;
// the minute of difference does not move the terminator visibly.
func SunDirection(day, fraction float64) [3]float64 {
	ra, dec := solar.ApparentEquatorial(day + fraction)
	return [3]float64{
		dec.Cos() * ra.Cos(),
		dec.Cos() * ra.Sin(),
		dec.Sin(),
	}
}
