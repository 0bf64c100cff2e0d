package viewer

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshport/pkg/math"
)

// UpAxis is the model axis drawn pointing up on screen.
type UpAxis int

const (
	UpY UpAxis = iota
	UpX
	UpZ
)

func (a UpAxis) String() string {
	switch a {
	case UpX:
		return "X"
	case UpZ:
		return "Z"
	default:
		return "Y"
	}
}

// Matrix returns the model rotation that turns the axis into +Y, applied
// about pivot so a camera fitted to the bounds stays fitted.
func (a UpAxis) Matrix(pivot math.Vec3) math.Mat4 {
	var rot math.Mat4
	switch a {
	case UpX:
		rot = math.RotateAxis([3]float32{0, 0, 1}, math32.Pi/2)
	case UpZ:
		rot = math.RotateX(-math32.Pi / 2)
	default:
		return math.Identity()
	}
	return math.Translate(pivot.X, pivot.Y, pivot.Z).
		Mul(rot).
		Mul(math.Translate(-pivot.X, -pivot.Y, -pivot.Z))
}
