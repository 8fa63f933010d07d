// Package scene holds render-side entity state, keyed by the same stable
// index the simulation uses. It knows nothing about propagation.
package scene

import "github.com/go-gl/mathgl/mgl32"

// Transforms is arena storage for entity world positions.
//
// Writes to distinct indices may happen concurrently; writes and reads of the
// same index may not.
type Transforms struct {
	positions []mgl32.Vec3
	placed    []bool
}

// NewTransforms allocates n entities, all unplaced at the origin.
func NewTransforms(n int) *Transforms {
	return &Transforms{
		positions: make([]mgl32.Vec3, n),
		placed:    make([]bool, n),
	}
}

// Len returns the number of entities.
func (t *Transforms) Len() int {
	return len(t.positions)
}

// SetPosition moves entity i. Out-of-range indices are ignored.
func (t *Transforms) SetPosition(i int, p mgl32.Vec3) {
	if i < 0 || i >= len(t.positions) {
		return
	}
	t.positions[i] = p
	t.placed[i] = true
}

// Position returns entity i's position and whether it has ever been placed.
func (t *Transforms) Position(i int) (mgl32.Vec3, bool) {
	if i < 0 || i >= len(t.positions) {
		return mgl32.Vec3{}, false
	}
	return t.positions[i], t.placed[i]
}

// Each calls fn for every placed entity in index order.
func (t *Transforms) Each(fn func(i int, p mgl32.Vec3)) {
	for i, p := range t.positions {
		if t.placed[i] {
			fn(i, p)
		}
	}
}
