package viewer

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/star/debrisview/internal/camera"
)

// Canvas is a grid of styled cells. tcell.Screen satisfies it.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
}

const (
	debrisRune = '•'
	nearPlane  = 0.01
)

// shadeRamp runs from unlit to fully lit. Every planet cell gets at least
// the first rune so the night side keeps its outline.
var shadeRamp = []rune(".:-=+*#%@")

var (
	planetStyle = tcell.StyleDefault.Foreground(tcell.ColorSteelBlue)
	debrisStyle = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed).Bold(true)
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// projection maps between terminal cells and world rays for one camera pose
// and canvas size.
type projection struct {
	tr       camera.Transform
	w, h     int
	tanHalfY float32
	tanHalfX float32
}

func newProjection(tr camera.Transform, w, h int, c Config) projection {
	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(float32(c.FovYDeg))) / 2))
	// Cells are CellAspect times taller than wide.
	aspect := float32(w) / (float32(h) * float32(c.CellAspect))
	return projection{tr: tr, w: w, h: h, tanHalfY: tanHalf, tanHalfX: tanHalf * aspect}
}

// ray returns the unit direction through the centre of cell (x, y).
func (p projection) ray(x, y int) mgl32.Vec3 {
	sx := 2*(float32(x)+0.5)/float32(p.w) - 1
	sy := 1 - 2*(float32(y)+0.5)/float32(p.h)
	d := p.tr.Forward.
		Add(p.tr.Right.Mul(sx * p.tanHalfX)).
		Add(p.tr.Up.Mul(sy * p.tanHalfY))
	return d.Normalize()
}

// cell projects a world point. ok is false behind the camera or off canvas.
func (p projection) cell(pt mgl32.Vec3) (x, y int, ok bool) {
	v := pt.Sub(p.tr.Translation)
	z := v.Dot(p.tr.Forward)
	if z < nearPlane {
		return 0, 0, false
	}
	sx := v.Dot(p.tr.Right) / (z * p.tanHalfX)
	sy := v.Dot(p.tr.Up) / (z * p.tanHalfY)
	fx := float64((sx + 1) / 2 * float32(p.w))
	fy := float64((1 - sy) / 2 * float32(p.h))
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	if x < 0 || x >= p.w || y < 0 || y >= p.h {
		return 0, 0, false
	}
	return x, y, true
}

// hitPlanet intersects a unit-direction ray from origin with the unit sphere
// at the world origin and returns the nearest forward distance.
func hitPlanet(origin, dir mgl32.Vec3) (float32, bool) {
	b := origin.Dot(dir)
	c := origin.Dot(origin) - 1
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - float32(math.Sqrt(float64(disc)))
	if t < 0 {
		return 0, false
	}
	return t, true
}

// occluded reports whether the planet hides pt from eye.
func occluded(eye, pt mgl32.Vec3) bool {
	to := pt.Sub(eye)
	dist := to.Len()
	if dist == 0 {
		return false
	}
	t, ok := hitPlanet(eye, to.Mul(1/dist))
	return ok && t < dist
}

func shade(normal, sun mgl32.Vec3) rune {
	lit := max(0, normal.Dot(sun))
	i := int(lit * float32(len(shadeRamp)-1))
	return shadeRamp[min(i, len(shadeRamp)-1)]
}

// Draw renders the planet, visible debris and the status line. Row 0 is the
// status line; the scene uses the rows below it.
func (v *Viewer) Draw(c Canvas) {
	w, h := c.Size()
	if w <= 0 || h <= 1 {
		return
	}

	sceneH := h - 1
	p := newProjection(v.rig.Transform, w, sceneH, v.config)
	eye := v.rig.Transform.Translation

	for y := 0; y < sceneH; y++ {
		for x := 0; x < w; x++ {
			d := p.ray(x, y)
			t, ok := hitPlanet(eye, d)
			if !ok {
				continue
			}
			c.SetContent(x, y+1, shade(eye.Add(d.Mul(t)), v.sun), nil, planetStyle)
		}
	}

	v.positions.Each(func(_ int, pt mgl32.Vec3) {
		if occluded(eye, pt) {
			return
		}
		x, y, ok := p.cell(pt)
		if !ok {
			return
		}
		c.SetContent(x, y+1, debrisRune, nil, debrisStyle)
	})

	drawText(c, 0, 0, w, v.statusLine(), hudStyle)
}

func (v *Viewer) statusLine() string {
	o := v.rig.Orbit
	return fmt.Sprintf(" %s  x%g %s  bodies %d  failed %d  yaw %.2f pitch %.2f r %.2f  [drag: orbit, wheel: zoom, q: quit]",
		v.sample.Time().Format(time.RFC3339),
		v.clock.TimeScale(),
		v.field.Frame(),
		v.field.Len(),
		v.stats.Failed,
		o.Yaw, o.Pitch, o.Radius,
	)
}

func drawText(c Canvas, x, y, maxW int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= maxW {
			return
		}
		c.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < maxW; x++ {
		c.SetContent(x, y, ' ', nil, style)
	}
}
