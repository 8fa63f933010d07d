package camera

import "github.com/go-gl/mathgl/mgl32"

// Transform is a camera pose: position plus an orthonormal basis. The camera
// looks along Forward; Rotation maps the camera's local -Z to Forward and
// local +Y to Up.
type Transform struct {
	Translation mgl32.Vec3
	Forward     mgl32.Vec3
	Right       mgl32.Vec3
	Up          mgl32.Vec3
	Rotation    mgl32.Quat
}

// lookAt builds a transform at eye facing center with worldUp as vertical.
// eye must not lie on the vertical line through center.
func lookAt(eye, center mgl32.Vec3) Transform {
	forward := center.Sub(eye).Normalize()
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	basis := mgl32.Mat3FromCols(right, up, forward.Mul(-1))
	return Transform{
		Translation: eye,
		Forward:     forward,
		Right:       right,
		Up:          up,
		Rotation:    mgl32.Mat4ToQuat(basis.Mat4()).Normalize(),
	}
}

// View returns the world-to-camera matrix.
func (t Transform) View() mgl32.Mat4 {
	return mgl32.LookAtV(t.Translation, t.Translation.Add(t.Forward), t.Up)
}
