package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// TestGMST validates the GMST calculation against go-satellite's
// GSTimeFromDate, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{"J2000.0 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"Vallado example date", time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC)},
		{"recent date 2026", time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jd := julian.TimeToJD(tt.time)
			day := math.Floor(jd)
			our := GMST(day, jd-day)

			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			// 1e-8 radians ≈ 0.06 arcsec.
			if !scalar.EqualWithinAbs(our, ref, 1e-8) {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad", tt.time, our, ref)
			}
		})
	}
}

func TestGMSTRange(t *testing.T) {
	for d := 0.0; d < 400; d += 7.3 {
		g := GMST(2451545+math.Floor(d), d-math.Floor(d))
		if g < 0 || g >= 2*math.Pi {
			t.Fatalf("GMST out of [0, 2π): %f", g)
		}
	}
}

func TestTEMEToECEFPreservesMagnitude(t *testing.T) {
	teme := State{
		Position: [3]float64{4000, -3000, 4500},
		Velocity: [3]float64{1.2, 5.5, -4.1},
	}

	for _, gmst := range []float64{0, 0.7, math.Pi, 5.9} {
		ecef := TEMEToECEF(teme, gmst)
		if !scalar.EqualWithinAbs(floats.Norm(ecef.Position[:], 2), floats.Norm(teme.Position[:], 2), 1e-9) {
			t.Errorf("gmst=%.2f: magnitude changed", gmst)
		}
		if ecef.Position[2] != teme.Position[2] {
			t.Errorf("gmst=%.2f: Z changed %f -> %f", gmst, teme.Position[2], ecef.Position[2])
		}
	}
}

func TestTEMEToECEFZeroAngle(t *testing.T) {
	teme := State{Position: [3]float64{7000, 0, 0}}
	ecef := TEMEToECEF(teme, 0)
	if ecef.Position != teme.Position {
		t.Errorf("zero rotation changed position: %v", ecef.Position)
	}
	// A body at rest in TEME appears to move westward in ECEF.
	if !scalar.EqualWithinAbs(ecef.Velocity[1], -OmegaEarth*7000, 1e-12) {
		t.Errorf("vy = %g, want %g", ecef.Velocity[1], -OmegaEarth*7000)
	}
}

func TestPlausible(t *testing.T) {
	tests := []struct {
		name string
		pos  [3]float64
		want bool
	}{
		{"LEO", [3]float64{6800, 0, 0}, true},
		{"inside planet", [3]float64{100, 0, 0}, false},
		{"beyond range", [3]float64{0, 60000, 0}, false},
		{"NaN", [3]float64{math.NaN(), 0, 0}, false},
		{"Inf", [3]float64{0, 0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plausible(tt.pos, 6200, 50000); got != tt.want {
				t.Errorf("Plausible(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

// TestGMSTMatchesMeeus cross-checks against Meeus' mean sidereal time
// (Astronomical Algorithms, eq. 12.4).
func TestGMSTMatchesMeeus(t *testing.T) {
	for _, tm := range []time.Time{
		time.Date(1987, 4, 10, 19, 21, 0, 0, time.UTC),
		time.Date(2024, 10, 6, 12, 0, 0, 0, time.UTC),
	} {
		jd := julian.TimeToJD(tm)
		day := math.Floor(jd)
		ref := sidereal.Mean(jd).Angle().Rad()

		diff := math.Remainder(GMST(day, jd-day)-ref, 2*math.Pi)
		// 1e-6 rad ≈ 0.2 arcsec.
		if math.Abs(diff) > 1e-6 {
			t.Errorf("GMST(%v) differs from meeus by %.3g rad", tm, diff)
		}
	}
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name  string
		time  time.Time
		wantZ float64 // sin(declination)
		wantX float64 // only checked when non-zero
	}{
		// 2024 March equinox 03:06 UTC: RA ≈ 0, dec ≈ 0.
		{"march equinox", time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC), 0, 1},
		// 2024 June solstice 20:51 UTC: dec ≈ +23.44°.
		{"june solstice", time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC), math.Sin(23.44 * math.Pi / 180), 0},
		// 2024 December solstice 09:20 UTC: dec ≈ -23.44°.
		{"december solstice", time.Date(2024, 12, 21, 9, 20, 0, 0, time.UTC), -math.Sin(23.44 * math.Pi / 180), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jd := julian.TimeToJD(tt.time)
			day := math.Floor(jd)
			sun := SunDirection(day, jd-day)

			if n := floats.Norm(sun[:], 2); !scalar.EqualWithinAbs(n, 1, 1e-12) {
				t.Errorf("|sun| = %v, want 1", n)
			}
			if !scalar.EqualWithinAbs(sun[2], tt.wantZ, 0.002) {
				t.Errorf("z = %.4f, want %.4f", sun[2], tt.wantZ)
			}
			if tt.wantX != 0 && !scalar.EqualWithinAbs(sun[0], tt.wantX, 0.001) {
				t.Errorf("x = %.4f, want %.4f", sun[0], tt.wantX)
			}
		})
	}
}
