// Package input aggregates pointer events into one sample per frame.
package input

import (
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame is the pointer input accumulated since the previous frame.
type Frame struct {
	// Motion is the pointer travel while the rotate button was held, in
	// pixels. Screen Y grows downward.
	Motion mgl32.Vec2
	// Scroll is the wheel travel in lines; positive is wheel up.
	Scroll float32
	// RotateHeld is set if the rotate button was down at any point in the frame.
	RotateHeld bool
}

// Accumulator collects tcell mouse events between frames.
// It is not safe for concurrent use; feed it from the frame loop goroutine.
type Accumulator struct {
	cellW, cellH float32 // pixels per terminal cell

	motion  mgl32.Vec2
	scroll  float32
	held    bool
	touched bool
	lastX   int
	lastY   int
}

// NewAccumulator creates an accumulator that reports motion in pixels, given
// the size of one terminal cell.
func NewAccumulator(cellW, cellH float32) *Accumulator {
	if cellW <= 0 {
		cellW = 1
	}
	if cellH <= 0 {
		cellH = 1
	}
	return &Accumulator{cellW: cellW, cellH: cellH}
}

// HandleMouse folds one mouse event into the current frame.
// Button1 drags rotate; the wheel zooms.
func (a *Accumulator) HandleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()

	switch {
	case buttons&tcell.WheelUp != 0:
		a.scroll++
	case buttons&tcell.WheelDown != 0:
		a.scroll--
	}

	down := buttons&tcell.Button1 != 0
	if a.held {
		a.motion = a.motion.Add(mgl32.Vec2{
			float32(x-a.lastX) * a.cellW,
			float32(y-a.lastY) * a.cellH,
		})
	}
	if down {
		a.touched = true
	}
	a.held = down
	a.lastX, a.lastY = x, y
}

// Take returns the accumulated frame and starts a new one. The held state
// carries over; motion and scroll do not.
func (a *Accumulator) Take() Frame {
	f := Frame{
		Motion:     a.motion,
		Scroll:     a.scroll,
		RotateHeld: a.held || a.touched,
	}
	a.motion = mgl32.Vec2{}
	a.scroll = 0
	a.touched = false
	return f
}
