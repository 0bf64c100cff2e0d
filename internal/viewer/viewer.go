// Package viewer is an interactive OpenGL viewer for imported meshes.
//
// Meshes are loaded through an importer.Registry exactly as a host
// application using the C bridge would: every load gets a handle, and the
// previous handle is released once its replacement is on screen.
package viewer

import (
	"fmt"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/math"
)

const windowTitle = "meshview"

// Viewer owns the window, the GPU copy of the current mesh and its handle.
type Viewer struct {
	cfg  config.ViewerConfig
	opts importer.Options
	log  *zap.Logger

	win      *Window
	program  uint32
	locMVP   int32
	locModel int32
	locLight int32
	locFlat  int32

	cam    *OrbitCamera
	reg    *importer.Registry
	handle importer.Handle
	mesh   *gpuMesh
	pivot  math.Vec3 // bounds center of the current mesh

	state    viewState
	dragging bool
	panning  bool
}

// viewState holds the display toggles bound to keys.
type viewState struct {
	wireframe bool
	flat      bool
	up        UpAxis
}

// handleKey applies a key press: F toggles flat shading, W wireframe,
// R resets the camera, X/Y/Z pick the up axis. It reports whether the
// viewer should quit.
func (s *viewState) handleKey(sym sdl.Keycode, cam *OrbitCamera) (quit bool) {
	switch sym {
	case sdl.K_ESCAPE:
		return true
	case sdl.K_f:
		s.flat = !s.flat
	case sdl.K_w:
		s.wireframe = !s.wireframe
	case sdl.K_r:
		cam.Reset()
	case sdl.K_x:
		s.up = UpX
	case sdl.K_y:
		s.up = UpY
	case sdl.K_z:
		s.up = UpZ
	}
	return false
}

// New opens the window and compiles the mesh shader.
func New(cfg config.ViewerConfig, opts importer.Options, log *zap.Logger) (*Viewer, error) {
	win, err := NewWindow(WindowConfig{
		Title:  windowTitle,
		Width:  cfg.Width,
		Height: cfg.Height,
		VSync:  cfg.VSync,
	}, log)
	if err != nil {
		return nil, err
	}

	program, err := compileProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("mesh shader: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)

	return &Viewer{
		cfg:      cfg,
		opts:     opts,
		log:      log,
		win:      win,
		program:  program,
		locMVP:   uniform(program, "uMVP"),
		locModel: uniform(program, "uModel"),
		locLight: uniform(program, "uLightDir"),
		locFlat:  uniform(program, "uFlat"),
		cam:      NewOrbitCamera(),
		reg:      importer.NewRegistry(),
	}, nil
}

// Load imports path under a new handle and makes it the displayed mesh.
// On failure the current mesh stays on screen.
func (v *Viewer) Load(path string) error {
	h := v.reg.Open(path, v.opts)
	im, err := v.reg.Get(h)
	if err != nil {
		return err
	}
	if !im.Valid() {
		err := im.Err()
		v.release(h)
		return err
	}

	mesh, err := uploadMesh(im)
	if err != nil {
		v.release(h)
		return err
	}
	bounds, err := im.Bounds()
	if err != nil {
		mesh.release()
		v.release(h)
		return err
	}

	if v.mesh != nil {
		v.mesh.release()
	}
	if v.handle != 0 {
		v.release(v.handle)
	}
	v.mesh, v.handle = mesh, h
	v.pivot = bounds.Center()

	v.cam.FitToBounds(bounds, v.fovY())
	v.win.SetTitle(fmt.Sprintf("%s - %s (%d triangles)", windowTitle, filepath.Base(path), im.TriangleCount()))
	v.log.Info("mesh loaded",
		zap.String("path", path),
		zap.Uint64("handle", uint64(h)),
		zap.Int("vertices", im.VertexCount()),
		zap.Int("triangles", im.TriangleCount()),
		zap.Float32("diagonal", bounds.Diagonal()),
	)
	return nil
}

func (v *Viewer) release(h importer.Handle) {
	if err := v.reg.Release(h); err != nil {
		v.log.Debug("release failed", zap.Uint64("handle", uint64(h)), zap.Error(err))
	}
}

func (v *Viewer) fovY() float32 {
	fov := v.cfg.FOV
	if fov <= 0 || fov >= 180 {
		fov = 45
	}
	return fov * math32.Pi / 180
}

// Run processes events and draws until the window closes or Esc is pressed.
// Left drag orbits, right drag pans and the wheel zooms.
func (v *Viewer) Run() {
	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false

			case *sdl.KeyboardEvent:
				if e.State == sdl.PRESSED && v.state.handleKey(e.Keysym.Sym, v.cam) {
					running = false
				}

			case *sdl.MouseButtonEvent:
				switch e.Button {
				case sdl.BUTTON_LEFT:
					v.dragging = e.State == sdl.PRESSED
				case sdl.BUTTON_RIGHT:
					v.panning = e.State == sdl.PRESSED
				}

			case *sdl.MouseMotionEvent:
				if v.dragging {
					v.cam.HandleDrag(float32(e.XRel), float32(e.YRel))
				}
				if v.panning {
					_, h := v.win.Size()
					v.cam.Pan(float32(e.XRel), float32(e.YRel), v.fovY(), int(h))
				}

			case *sdl.MouseWheelEvent:
				v.cam.HandleZoom(float32(e.Y))

			case *sdl.DropEvent:
				if e.Type == sdl.DROPFILE {
					if err := v.Load(e.File); err != nil {
						v.log.Warn("failed to load dropped file", zap.String("path", e.File), zap.Error(err))
					}
				}
			}
		}

		v.render()
		v.win.SwapBuffers()
	}
}

func (v *Viewer) render() {
	w, h := v.win.DrawableSize()
	gl.Viewport(0, 0, w, h)
	bg := v.cfg.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if v.mesh == nil || h == 0 {
		return
	}

	near, far := v.cam.ClipPlanes()
	proj := math.Perspective(v.fovY(), float32(w)/float32(h), near, far)
	model := v.state.up.Matrix(v.pivot)
	mvp := proj.Mul(v.cam.ViewMatrix()).Mul(model)
	light := v.cam.Position().Sub(v.cam.Center).Normalize()

	gl.UseProgram(v.program)
	gl.UniformMatrix4fv(v.locMVP, 1, false, mvp.Ptr())
	gl.UniformMatrix4fv(v.locModel, 1, false, model.Ptr())
	gl.Uniform3f(v.locLight, light.X, light.Y, light.Z)
	var flat int32
	if v.state.flat {
		flat = 1
	}
	gl.Uniform1i(v.locFlat, flat)

	if v.state.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	v.mesh.draw()
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// Close releases the GPU resources, every handle and the window.
func (v *Viewer) Close() {
	if v.mesh != nil {
		v.mesh.release()
		v.mesh = nil
	}
	if err := v.reg.CloseAll(); err != nil {
		v.log.Debug("closing importers", zap.Error(err))
	}
	v.handle = 0
	gl.DeleteProgram(v.program)
	v.win.Close()
}
