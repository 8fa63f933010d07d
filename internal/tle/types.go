package tle

import "time"

// Element represents a single body's two-line element set.
type Element struct {
	CatalogID int
	Name      string
	Epoch     time.Time
	Line1     string
	Line2     string
}

// EpochRange represents the minimum and maximum epoch times in a set of elements.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Range returns the epoch span covered by elements.
// The zero EpochRange is returned for an empty slice.
func Range(elements []Element) EpochRange {
	if len(elements) == 0 {
		return EpochRange{}
	}
	r := EpochRange{Min: elements[0].Epoch, Max: elements[0].Epoch}
	for _, e := range elements[1:] {
		if e.Epoch.Before(r.Min) {
			r.Min = e.Epoch
		}
		if e.Epoch.After(r.Max) {
			r.Max = e.Epoch
		}
	}
	return r
}
