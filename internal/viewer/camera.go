package viewer

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians, positive looks down
	Yaw      float32 // radians

	// Constraints, rescaled by FitToBounds
	MinDistance float32
	MaxDistance float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	radius float32 // half the fitted bounds diagonal

	homeCenter   math.Vec3
	homeDistance float32
}

const (
	defaultPitch = 0.45
	defaultYaw   = 0.6
)

// NewOrbitCamera creates an orbit camera around the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        3,
		Pitch:           defaultPitch,
		Yaw:             defaultYaw,
		MinDistance:     0.05,
		MaxDistance:     100,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		radius:          1,
		homeDistance:    3,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := math32.Sincos(c.Pitch)
	sy, cy := math32.Sincos(c.Yaw)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * sy,
		Y: c.Distance * sp,
		Z: c.Distance * cp * cy,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ClipPlanes returns near and far distances that enclose the fitted bounds.
func (c *OrbitCamera) ClipPlanes() (near, far float32) {
	near = math32.Max(c.Distance-c.radius*2, c.radius*0.001)
	far = c.Distance + c.radius*2
	return near, far
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	if c.Pitch < -c.MaxPitch {
		c.Pitch = -c.MaxPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// FitToBounds centers the camera on b at a distance where the bounding
// sphere fills the vertical field of view fovY (radians).
func (c *OrbitCamera) FitToBounds(b scene.Bounds, fovY float32) {
	if b.IsEmpty() {
		c.Center = math.Vec3{}
		c.radius = 1
	} else {
		c.Center = b.Center()
		c.radius = b.Diagonal() / 2
		if c.radius < 1e-4 {
			c.radius = 1e-4
		}
	}

	c.Distance = c.radius / math32.Sin(fovY/2) * 1.1
	c.MinDistance = c.radius * 0.05
	c.MaxDistance = c.Distance * 20
	c.homeCenter, c.homeDistance = c.Center, c.Distance
}

// Pan slides the center across the view plane so the mesh follows a mouse
// delta given in pixels. viewHeight is the viewport height in pixels.
func (c *OrbitCamera) Pan(deltaX, deltaY, fovY float32, viewHeight int) {
	if viewHeight <= 0 {
		return
	}
	perPixel := 2 * c.Distance * math32.Tan(fovY/2) / float32(viewHeight)
	forward := c.Center.Sub(c.Position()).Normalize()
	right := forward.Cross(math.Vec3{Y: 1}).Normalize()
	up := right.Cross(forward)
	c.Center = c.Center.
		Sub(right.Scale(deltaX * perPixel)).
		Add(up.Scale(deltaY * perPixel))
}

// Reset returns to the view FitToBounds produced, undoing orbit, zoom and
// pan.
func (c *OrbitCamera) Reset() {
	c.Center = c.homeCenter
	c.Distance = c.homeDistance
	c.Pitch = defaultPitch
	c.Yaw = defaultYaw
}
