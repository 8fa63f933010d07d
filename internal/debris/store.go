package debris

import (
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/star/debrisview/internal/simclock"
)

// BodyPosition is one body's last known world position.
type BodyPosition struct {
	Index     int        `json:"index"`
	Name      string     `json:"name"`
	CatalogID int        `json:"catalog_id"`
	World     [3]float32 `json:"world"`
}

// Snapshot is an immutable copy of the field state after a frame.
type Snapshot struct {
	Frame     uint64         `json:"frame"`
	JulianDay float64        `json:"julian_day"`
	Fraction  float64        `json:"julian_fraction"`
	Time      time.Time      `json:"time"`
	Updated   int            `json:"updated"`
	Failed    int            `json:"failed"`
	Bodies    []BodyPosition `json:"bodies"`
}

// PositionSource is read-side access to rendered positions.
type PositionSource interface {
	Position(i int) (mgl32.Vec3, bool)
}

// NewSnapshot copies the field's placed positions out of src.
func NewSnapshot(frame uint64, f *Field, sample simclock.Sample, stats Stats, src PositionSource) *Snapshot {
	s := &Snapshot{
		Frame:     frame,
		JulianDay: sample.Day,
		Fraction:  sample.Fraction,
		Time:      sample.Time(),
		Updated:   stats.Updated,
		Failed:    stats.Failed,
		Bodies:    make([]BodyPosition, 0, f.Len()),
	}
	for _, b := range f.bodies {
		p, ok := src.Position(b.Index)
		if !ok {
			continue
		}
		s.Bodies = append(s.Bodies, BodyPosition{
			Index:     b.Index,
			Name:      b.Name,
			CatalogID: b.CatalogID,
			World:     [3]float32{p.X(), p.Y(), p.Z()},
		})
	}
	return s
}

// Store provides thread-safe access to the latest snapshot.
type Store struct {
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the latest snapshot, or nil before the first frame.
func (s *Store) Get() *Snapshot {
	return s.snapshot.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snapshot.Store(snap)
}
