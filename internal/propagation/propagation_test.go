package propagation

import (
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Real ISS elements, epoch 2025-05-18.
const (
	issLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	issLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func julianPair(t time.Time) (float64, float64) {
	jd := julian.TimeToJD(t)
	day := math.Floor(jd)
	return day, jd - day
}

// TestPropagateSingle verifies that a body near its epoch propagates to a
// plausible low Earth orbit.
func TestPropagateSingle(t *testing.T) {
	prop, err := NewSGP4Propagator(issLine1, issLine2, 25544, "wgs84")
	if err != nil {
		t.Fatalf("NewSGP4Propagator failed: %v", err)
	}
	if prop.CatalogID() != 25544 {
		t.Errorf("CatalogID = %d, want 25544", prop.CatalogID())
	}

	day, frac := julianPair(time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC))
	st, err := prop.Propagate(day, frac)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	// ~6371 + 420 km.
	mag := floats.Norm(st.Position[:], 2)
	if mag < 6500 || mag > 7000 {
		t.Errorf("position magnitude = %.1f km, expected ~6791 km", mag)
	}
	speed := floats.Norm(st.Velocity[:], 2)
	if speed < 7.4 || speed > 7.9 {
		t.Errorf("speed = %.3f km/s, expected ~7.66 km/s", speed)
	}
}

// TestPropagateSubSecond verifies positions move smoothly between whole seconds.
func TestPropagateSubSecond(t *testing.T) {
	prop, err := NewSGP4Propagator(issLine1, issLine2, 25544, "")
	if err != nil {
		t.Fatalf("NewSGP4Propagator failed: %v", err)
	}

	base := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	day, frac := julianPair(base)
	a, err := prop.Propagate(day, frac)
	if err != nil {
		t.Fatal(err)
	}
	b, err := prop.Propagate(day, frac+0.5/86400)
	if err != nil {
		t.Fatal(err)
	}

	moved := math.Sqrt(math.Pow(b.Position[0]-a.Position[0], 2) +
		math.Pow(b.Position[1]-a.Position[1], 2) +
		math.Pow(b.Position[2]-a.Position[2], 2))
	// Half a second at ~7.66 km/s.
	if moved < 3.5 || moved > 4.2 {
		t.Errorf("half-second displacement = %.3f km, want ~3.83 km", moved)
	}
}

func TestPropagateInvalidElements(t *testing.T) {
	_, err := NewSGP4Propagator("invalid line 1", "invalid line 2", 99999, "wgs84")
	if err == nil {
		t.Fatal("expected error for invalid elements, got nil")
	}
}

func TestUnknownGravityModel(t *testing.T) {
	_, err := NewSGP4Propagator(issLine1, issLine2, 25544, "egm96")
	if err == nil {
		t.Fatal("expected error for unknown gravity model")
	}
}

func TestTimeFromJulian(t *testing.T) {
	tests := []struct {
		name      string
		day, frac float64
		want      time.Time
		rem       float64
	}{
		{"unix epoch", 2440587, 0.5, time.Unix(0, 0).UTC(), 0},
		{"J2000", 2451545, 0, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 0},
		{"quarter second", 2451545, 0.25 / 86400, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rem := TimeFromJulian(tt.day, tt.frac)
			if !got.Equal(tt.want) {
				t.Errorf("time = %v, want %v", got, tt.want)
			}
			if !scalar.EqualWithinAbs(rem, tt.rem, 1e-4) {
				t.Errorf("remainder = %f, want %f", rem, tt.rem)
			}
		})
	}
}

func TestWorkerPoolVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		pool := NewWorkerPool(workers, testLogger())
		for _, n := range []int{0, 1, 5, 100} {
			counts := make([]atomic.Int32, n)
			pool.Run(n, func(i int) { counts[i].Add(1) })
			for i := range counts {
				if c := counts[i].Load(); c != 1 {
					t.Fatalf("workers=%d n=%d: index %d visited %d times", workers, n, i, c)
				}
			}
		}
	}
}

func TestWorkerPoolClampsSize(t *testing.T) {
	if got := NewWorkerPool(-2, testLogger()).Workers(); got != 1 {
		t.Errorf("Workers() = %d, want 1", got)
	}
}

func BenchmarkPropagate1000(b *testing.B) {
	props := make([]*SGP4Propagator, 1000)
	for i := range props {
		p, err := NewSGP4Propagator(issLine1, issLine2, 25544, "wgs84")
		if err != nil {
			b.Fatal(err)
		}
		props[i] = p
	}
	pool := NewWorkerPool(4, testLogger())
	day, frac := julianPair(time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Run(len(props), func(j int) {
			_, _ = props[j].Propagate(day, frac)
		})
	}
}
