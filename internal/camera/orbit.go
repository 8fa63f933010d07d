// Package camera implements an orbit camera: spherical coordinates around a
// fixed target, driven by pointer drag and scroll.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/star/debrisview/internal/input"
)

// minZoomFactor bounds how far one scroll sample can shrink the radius.
const minZoomFactor = 0.1

// worldUp is the renderer's vertical axis.
var worldUp = mgl32.Vec3{0, 1, 0}

// OrbitCamera is the camera's spherical state.
//
//	Yaw    rotation around Y (longitude), unbounded
//	Pitch  tilt north/south (latitude), clamped
//	Radius distance from Target, clamped
type OrbitCamera struct {
	Yaw    float32
	Pitch  float32
	Radius float32
	Target mgl32.Vec3
}

// Default starts on the equator, looking from +X toward the origin.
func Default() OrbitCamera {
	return OrbitCamera{Radius: 4}
}

// Rotate applies a drag. Nothing happens unless held is set.
// Screen Y grows downward, so dragging up (negative dy) raises pitch.
func (c *OrbitCamera) Rotate(held bool, delta mgl32.Vec2, s *Settings) bool {
	if !held || !finite32(delta.X()) || !finite32(delta.Y()) {
		return false
	}
	if delta.X() == 0 && delta.Y() == 0 {
		return false
	}

	c.Yaw += delta.X() * s.RotateSpeed
	c.Pitch -= delta.Y() * s.RotateSpeed
	c.Pitch = s.PitchRange.Clamp(c.Pitch)
	return true
}

// Zoom applies a scroll. Positive scrollY (wheel up) zooms in.
func (c *OrbitCamera) Zoom(scrollY float32, s *Settings) bool {
	if scrollY == 0 || !finite32(scrollY) {
		return false
	}

	factor := max(minZoomFactor, 1-scrollY*s.ZoomSpeed)
	c.Radius = s.RadiusRange.Clamp(c.Radius * factor)
	return true
}

// Transform derives the camera pose.
func (c *OrbitCamera) Transform() Transform {
	sinYaw, cosYaw := math.Sincos(float64(c.Yaw))
	sinPitch, cosPitch := math.Sincos(float64(c.Pitch))

	// Direction from target to camera.
	dir := mgl32.Vec3{
		float32(cosYaw * cosPitch),
		float32(sinPitch),
		float32(sinYaw * cosPitch),
	}

	return lookAt(c.Target.Add(dir.Mul(c.Radius)), c.Target)
}

// Rig pairs an orbit camera with its derived transform.
type Rig struct {
	Orbit     OrbitCamera
	Transform Transform
}

// NewRig clamps orbit into the settings' ranges and derives the initial
// transform.
func NewRig(orbit OrbitCamera, s *Settings) *Rig {
	orbit.Pitch = s.PitchRange.Clamp(orbit.Pitch)
	orbit.Radius = s.RadiusRange.Clamp(orbit.Radius)
	return &Rig{Orbit: orbit, Transform: orbit.Transform()}
}

// Update applies one frame of input: rotate, then zoom, then at most one
// transform recomputation. It reports whether the camera moved.
func (r *Rig) Update(in input.Frame, s *Settings) bool {
	rotated := r.Orbit.Rotate(in.RotateHeld, in.Motion, s)
	zoomed := r.Orbit.Zoom(in.Scroll, s)
	if !rotated && !zoomed {
		return false
	}
	r.Transform = r.Orbit.Transform()
	return true
}
