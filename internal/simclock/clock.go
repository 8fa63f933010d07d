// Package simclock maps wall-clock elapsed time to a simulated Julian date.
//
// Dates are carried as an integer day and a day fraction. Propagators need
// sub-second resolution, and a single float64 holding a Julian date near
// 2.46 million days keeps only about 40 microseconds of it.
package simclock

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const secondsPerDay = 86400.0

// unixEpochJD is the Julian Date of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

// Sample is a Julian date split into integer day and fraction in [0, 1).
type Sample struct {
	Day      float64
	Fraction float64
}

// JD returns the sample as a single Julian date, losing sub-millisecond precision.
func (s Sample) JD() float64 {
	return s.Day + s.Fraction
}

// Time converts the sample to UTC, rounded to the microsecond.
func (s Sample) Time() time.Time {
	secs := ((s.Day - unixEpochJD) + s.Fraction) * secondsPerDay
	whole := math.Floor(secs)
	usec := math.Round((secs - whole) * 1e6)
	return time.Unix(int64(whole), int64(usec)*int64(time.Microsecond)).UTC()
}

// Before reports whether s is strictly earlier than o.
func (s Sample) Before(o Sample) bool {
	if s.Day != o.Day {
		return s.Day < o.Day
	}
	return s.Fraction < o.Fraction
}

// Split normalizes day+fraction so that Day is integral and Fraction in [0, 1).
func Split(day, fraction float64) Sample {
	whole := math.Floor(day)
	fraction += day - whole
	carry := math.Floor(fraction)
	fraction -= carry
	whole += carry
	// Rounding in the subtraction can land exactly on 1.
	if fraction >= 1 {
		fraction = 0
		whole++
	}
	return Sample{Day: whole, Fraction: fraction}
}

// Clock is the simulation clock. The base date is fixed at construction;
// the time scale may be changed at any time from any goroutine.
type Clock struct {
	base  Sample
	scale atomic.Uint64 // math.Float64bits of the time scale
}

// New creates a clock whose base is start (converted to UTC).
func New(start time.Time, timeScale float64) (*Clock, error) {
	// The fraction comes from the time of day directly; a full Julian date in
	// one float64 has already lost the sub-millisecond part.
	u := start.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	dayStart := julian.TimeToJD(midnight) // always N.5
	whole := math.Floor(dayStart)
	sinceMidnight := u.Sub(midnight).Seconds() / secondsPerDay
	return NewFromJulian(whole, (dayStart-whole)+sinceMidnight, timeScale)
}

// NewFromJulian creates a clock from an explicit Julian date pair.
func NewFromJulian(day, fraction, timeScale float64) (*Clock, error) {
	if !finite(day) || !finite(fraction) {
		return nil, fmt.Errorf("base date must be finite, got day=%v fraction=%v", day, fraction)
	}
	c := &Clock{base: Split(day, fraction)}
	if err := c.SetTimeScale(timeScale); err != nil {
		return nil, err
	}
	return c, nil
}

// Base returns the simulated date at elapsed time zero.
func (c *Clock) Base() Sample {
	return c.base
}

// TimeScale returns simulated seconds per wall-clock second.
func (c *Clock) TimeScale() float64 {
	return math.Float64frombits(c.scale.Load())
}

// SetTimeScale changes the time scale. Negative runs time backwards, zero
// freezes it. The scale applies to the whole elapsed time, not just to time
// elapsed after the change.
func (c *Clock) SetTimeScale(scale float64) error {
	if !finite(scale) {
		return fmt.Errorf("time scale must be finite, got %v", scale)
	}
	c.scale.Store(math.Float64bits(scale))
	return nil
}

// At returns the simulated date after elapsedSeconds of wall-clock time.
func (c *Clock) At(elapsedSeconds float64) Sample {
	delta := elapsedSeconds / secondsPerDay * c.TimeScale()
	return Split(c.base.Day, c.base.Fraction+delta)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
