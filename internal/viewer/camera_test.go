package viewer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

func approx(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func box(lo, hi math.Vec3) scene.Bounds {
	b := scene.EmptyBounds()
	b.Extend(lo)
	b.Extend(hi)
	return b
}

func TestFitToBounds(t *testing.T) {
	fov := math32.Pi / 2

	tests := []struct {
		name       string
		bounds     scene.Bounds
		wantCenter math.Vec3
		wantDist   float32
	}{
		{
			name:       "unit cube",
			bounds:     box(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}),
			wantCenter: math.Vec3{},
			wantDist:   math32.Sqrt(3) / math32.Sin(fov/2) * 1.1,
		},
		{
			name:       "offset box",
			bounds:     box(math.Vec3{X: 10, Y: 0, Z: 0}, math.Vec3{X: 14, Y: 3, Z: 0}),
			wantCenter: math.Vec3{X: 12, Y: 1.5},
			wantDist:   2.5 / math32.Sin(fov/2) * 1.1,
		},
		{
			name:       "empty",
			bounds:     scene.EmptyBounds(),
			wantCenter: math.Vec3{},
			wantDist:   1 / math32.Sin(fov/2) * 1.1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			c.FitToBounds(tt.bounds, fov)
			if c.Center != tt.wantCenter {
				t.Errorf("center = %+v, want %+v", c.Center, tt.wantCenter)
			}
			if !approx(c.Distance, tt.wantDist) {
				t.Errorf("distance = %v, want %v", c.Distance, tt.wantDist)
			}
			if c.MinDistance >= c.Distance || c.MaxDistance <= c.Distance {
				t.Errorf("limits %v..%v do not contain %v", c.MinDistance, c.MaxDistance, c.Distance)
			}
		})
	}
}

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 5
	for _, angles := range [][2]float32{{0, 0}, {0.3, 1.2}, {-1, 3}} {
		c.Pitch, c.Yaw = angles[0], angles[1]
		if d := c.Position().Distance(c.Center); !approx(d, 5) {
			t.Errorf("pitch %v yaw %v: distance %v", c.Pitch, c.Yaw, d)
		}
	}

	c.Pitch, c.Yaw = 0, 0
	if p := c.Position(); !approx(p.Z, 8) || !approx(p.X, 1) || !approx(p.Y, 2) {
		t.Errorf("front position = %+v", p)
	}
}

func TestViewMatrixLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 2, Y: -1, Z: 4}
	c.Distance = 7
	p := c.ViewMatrix().TransformPoint(c.Center)
	if !approx(p.X, 0) || !approx(p.Y, 0) || !approx(p.Z, -7) {
		t.Errorf("center in view space = %+v, want (0,0,-7)", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != -c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, -c.MaxPitch)
	}

	yaw := c.Yaw
	c.HandleDrag(100, 0)
	if !approx(c.Yaw, yaw-100*c.DragSensitivity) {
		t.Errorf("yaw = %v", c.Yaw)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(box(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}), math32.Pi/4)

	start := c.Distance
	c.HandleZoom(1)
	if c.Distance >= start {
		t.Errorf("zoom in did not move closer: %v", c.Distance)
	}
	for i := 0; i < 200; i++ {
		c.HandleZoom(5)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want min %v", c.Distance, c.MinDistance)
	}
	for i := 0; i < 200; i++ {
		c.HandleZoom(-5)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want max %v", c.Distance, c.MaxDistance)
	}
}

func TestClipPlanes(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(box(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}), math32.Pi/4)
	near, far := c.ClipPlanes()
	r := math32.Sqrt(3)
	if near <= 0 || near > c.Distance-r {
		t.Errorf("near = %v", near)
	}
	if far < c.Distance+r {
		t.Errorf("far = %v", far)
	}
}

func TestPan(t *testing.T) {
	c := NewOrbitCamera()
	c.Pitch, c.Yaw = 0, 0
	c.Distance = 5
	fov := math32.Pi / 2 // one pixel is 2*5*tan(45°)/100 = 0.1 units

	c.Pan(10, 0, fov, 100)
	if !approx(c.Center.X, -1) || !approx(c.Center.Y, 0) || !approx(c.Center.Z, 0) {
		t.Errorf("after horizontal pan center = %+v, want (-1,0,0)", c.Center)
	}
	c.Pan(0, 10, fov, 100)
	if !approx(c.Center.X, -1) || !approx(c.Center.Y, 1) {
		t.Errorf("after vertical pan center = %+v, want (-1,1,0)", c.Center)
	}
	if d := c.Position().Distance(c.Center); !approx(d, 5) {
		t.Errorf("pan changed the orbit distance to %v", d)
	}

	before := c.Center
	c.Pan(10, 10, fov, 0)
	if c.Center != before {
		t.Error("pan with an empty viewport moved the camera")
	}
}

func TestReset(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(box(math.Vec3{X: 2}, math.Vec3{X: 4, Y: 2, Z: 2}), math32.Pi/4)
	center, dist := c.Center, c.Distance

	c.HandleDrag(120, -40)
	c.HandleZoom(3)
	c.Pan(50, 20, math32.Pi/4, 600)
	c.Reset()

	if c.Center != center || c.Distance != dist {
		t.Errorf("reset to %+v at %v, want %+v at %v", c.Center, c.Distance, center, dist)
	}
	if c.Pitch != defaultPitch || c.Yaw != defaultYaw {
		t.Errorf("reset angles = %v, %v", c.Pitch, c.Yaw)
	}
}

func TestUpAxisMatrix(t *testing.T) {
	pivot := math.Vec3{X: 1, Y: 2, Z: 3}
	tests := []struct {
		axis UpAxis
		dir  math.Vec3
		name string
	}{
		{UpY, math.Vec3{Y: 1}, "Y"},
		{UpX, math.Vec3{X: 1}, "X"},
		{UpZ, math.Vec3{Z: 1}, "Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.axis.String() != tt.name {
				t.Errorf("String() = %q", tt.axis.String())
			}
			m := tt.axis.Matrix(pivot)
			up := m.TransformDirection(tt.dir)
			if !approx(up.X, 0) || !approx(up.Y, 1) || !approx(up.Z, 0) {
				t.Errorf("%s axis maps to %+v, want +Y", tt.name, up)
			}
			if p := m.TransformPoint(pivot); p.Distance(pivot) > 1e-4 {
				t.Errorf("pivot moved to %+v", p)
			}
		})
	}
}

func TestViewStateKeys(t *testing.T) {
	var s viewState
	cam := NewOrbitCamera()

	keys := []struct {
		sym  sdl.Keycode
		want viewState
	}{
		{sdl.K_f, viewState{flat: true}},
		{sdl.K_w, viewState{flat: true, wireframe: true}},
		{sdl.K_z, viewState{flat: true, wireframe: true, up: UpZ}},
		{sdl.K_x, viewState{flat: true, wireframe: true, up: UpX}},
		{sdl.K_f, viewState{wireframe: true, up: UpX}},
		{sdl.K_y, viewState{wireframe: true, up: UpY}},
		{sdl.K_w, viewState{up: UpY}},
	}
	for i, k := range keys {
		if s.handleKey(k.sym, cam) {
			t.Fatalf("key %d requested quit", i)
		}
		if s != k.want {
			t.Errorf("after key %d state = %+v, want %+v", i, s, k.want)
		}
	}

	cam.Yaw, cam.Distance = 2, 40
	s.handleKey(sdl.K_r, cam)
	if cam.Yaw != defaultYaw || cam.Distance != 3 {
		t.Errorf("R did not reset the camera: yaw %v distance %v", cam.Yaw, cam.Distance)
	}
	if !s.handleKey(sdl.K_ESCAPE, cam) {
		t.Error("Esc should quit")
	}
}
