// Package transform rotates propagator output between reference frames.
//
// SGP4 produces positions in TEME (True Equator Mean Equinox), an inertial
// frame. For an earth-fixed view the positions are rotated into ECEF with a
// simplified Vallado-style rotation using GMST only (TEME → PEF ≈ ECEF). This
// ignores polar motion and the equation of the equinoxes, which is well below
// a rendered pixel.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is a position (km) and velocity (km/s) triple pair.
type State struct {
	Position [3]float64
	Velocity [3]float64
}

// TEMEToECEF rotates a TEME state into ECEF using a precomputed GMST angle
// (radians). Units are preserved (km, km/s).
//
// Position transform: r_ECEF = R3(θ) * r_TEME
// Velocity transform: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
func TEMEToECEF(teme State, gmst float64) State {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	r, v := teme.Position, teme.Velocity

	x := r[0]*cosG + r[1]*sinG
	y := -r[0]*sinG + r[1]*cosG
	z := r[2]

	vx := v[0]*cosG + v[1]*sinG
	vy := -v[0]*sinG + v[1]*cosG
	vz := v[2]

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	return State{
		Position: [3]float64{x, y, z},
		Velocity: [3]float64{vx + OmegaEarth*y, vy - OmegaEarth*x, vz},
	}
}

// Plausible reports whether a position (km) is finite and lies between
// minKm and maxKm from the planet center.
func Plausible(pos [3]float64, minKm, maxKm float64) bool {
	for _, c := range pos {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	mag := floats.Norm(pos[:], 2)
	return mag >= minKm && mag <= maxKm
}
