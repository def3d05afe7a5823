// Package scene is a minimal 3D world of flat panels and a ray picker that
// produces focusx pick results.
package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/comalice/focusx"
)

// Panel is an axis-aligned quad facing +Z.
type Panel struct {
	Name   string
	Center mgl32.Vec3
	Width  float32
	Height float32
	// HideCursor turns off the interactive cursor while this panel has focus.
	HideCursor bool
}

// Intersect returns where the ray origin+t*dir crosses p, and the distance
// along the ray. Rays parallel to the panel or pointing away never hit.
func (p Panel) Intersect(origin, dir mgl32.Vec3) (mgl32.Vec3, float32, bool) {
	if mgl32.Abs(dir.Z()) < mgl32.Epsilon {
		return mgl32.Vec3{}, 0, false
	}
	t := (p.Center.Z() - origin.Z()) / dir.Z()
	if t < 0 {
		return mgl32.Vec3{}, 0, false
	}
	point := origin.Add(dir.Mul(t))
	if mgl32.Abs(point.X()-p.Center.X()) > p.Width/2 || mgl32.Abs(point.Y()-p.Center.Y()) > p.Height/2 {
		return mgl32.Vec3{}, 0, false
	}
	return point, t * dir.Len(), true
}

// Corners returns the panel's corners counter-clockwise from bottom-left.
func (p Panel) Corners() [4]mgl32.Vec3 {
	hw, hh := p.Width/2, p.Height/2
	c := p.Center
	return [4]mgl32.Vec3{
		{c.X() - hw, c.Y() - hh, c.Z()},
		{c.X() + hw, c.Y() - hh, c.Z()},
		{c.X() + hw, c.Y() + hh, c.Z()},
		{c.X() - hw, c.Y() + hh, c.Z()},
	}
}

// Scene holds panels in insertion order. Handles derive from panel names.
type Scene struct {
	panels  []Panel
	handles []focusx.Handle
}

// New creates a scene containing panels.
func New(panels ...Panel) *Scene {
	s := &Scene{}
	for _, p := range panels {
		s.Add(p)
	}
	return s
}

// Add appends p and returns its handle.
func (s *Scene) Add(p Panel) focusx.Handle {
	h := focusx.HandleFor(p.Name)
	s.panels = append(s.panels, p)
	s.handles = append(s.handles, h)
	return h
}

// Panels returns a copy of the scene's panels.
func (s *Scene) Panels() []Panel {
	return append([]Panel(nil), s.panels...)
}

// Handle returns the handle for the panel called name.
func (s *Scene) Handle(name string) (focusx.Handle, bool) {
	for i, p := range s.panels {
		if p.Name == name {
			return s.handles[i], true
		}
	}
	return focusx.NilHandle, false
}

// Pick casts a ray and returns every panel it hits, nearest first.
func (s *Scene) Pick(origin, dir mgl32.Vec3) focusx.PickResult {
	if dir.Len() == 0 {
		return nil
	}
	dir = dir.Normalize()

	var out focusx.PickResult
	for i, p := range s.panels {
		point, dist, ok := p.Intersect(origin, dir)
		if !ok {
			continue
		}
		out = append(out, focusx.Pick{
			Handle: s.handles[i],
			Hit:    focusx.Hit{Origin: origin, Direction: dir, Point: point, Distance: dist},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hit.Distance < out[j].Hit.Distance })
	return out
}

// Nearest returns only the closest hit, or nil. Use it when occluded panels
// should not take focus.
func (s *Scene) Nearest(origin, dir mgl32.Vec3) focusx.PickResult {
	all := s.Pick(origin, dir)
	if len(all) == 0 {
		return nil
	}
	return all[:1]
}

// Register adds every panel to reg. callbacks, if non-nil, supplies each
// panel's callbacks by name.
func (s *Scene) Register(reg *focusx.Registry, callbacks func(name string) focusx.Callbacks) {
	for i, p := range s.panels {
		var cb focusx.Callbacks
		if callbacks != nil {
			cb = callbacks(p.Name)
		}
		f := reg.Register(s.handles[i], p.Name, cb)
		f.ShowInteractiveCursor = !p.HideCursor
	}
}

// Demo returns the three-panel layout used by the interactive demo.
func Demo() *Scene {
	return New(
		Panel{Name: "menu", Center: mgl32.Vec3{-2.2, 0.4, -5}, Width: 1.6, Height: 2.2},
		Panel{Name: "video", Center: mgl32.Vec3{0, 0.4, -6}, Width: 2.4, Height: 1.6},
		Panel{Name: "settings", Center: mgl32.Vec3{2.2, 0.4, -5}, Width: 1.6, Height: 2.2},
		Panel{Name: "floor", Center: mgl32.Vec3{0, -1.6, -4}, Width: 6, Height: 0.8, HideCursor: true},
	)
}

// Camera is a pinhole camera looking from Eye at Target.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	// FOV is the vertical field of view in degrees.
	FOV float32
	// CellAspect is a screen cell's height over its width; terminal cells are
	// about twice as tall as they are wide.
	CellAspect float32
}

// DefaultCamera sits at the origin looking down -Z.
func DefaultCamera() Camera {
	return Camera{
		Eye:        mgl32.Vec3{0, 0, 0},
		Target:     mgl32.Vec3{0, 0, -1},
		Up:         mgl32.Vec3{0, 1, 0},
		FOV:        60,
		CellAspect: 2,
	}
}

func (c Camera) matrices(w, h int) (view, proj mgl32.Mat4) {
	aspect := float32(w) / (float32(h) * c.CellAspect)
	view = mgl32.LookAtV(c.Eye, c.Target, c.Up)
	proj = mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, 0.1, 100)
	return view, proj
}

// Ray maps screen cell (x, y) of a w by h screen to a gaze ray. Row 0 is the top.
func (c Camera) Ray(x, y, w, h int) (origin, dir mgl32.Vec3) {
	if w <= 0 || h <= 0 {
		return c.Eye, c.Target.Sub(c.Eye).Normalize()
	}
	view, proj := c.matrices(w, h)
	wx := float32(x) + 0.5
	wy := float32(h) - float32(y) - 0.5
	near, err1 := mgl32.UnProject(mgl32.Vec3{wx, wy, 0}, view, proj, 0, 0, w, h)
	far, err2 := mgl32.UnProject(mgl32.Vec3{wx, wy, 1}, view, proj, 0, 0, w, h)
	if err1 != nil || err2 != nil {
		return c.Eye, c.Target.Sub(c.Eye).Normalize()
	}
	return c.Eye, far.Sub(near).Normalize()
}

// Project maps a world point to a screen cell. ok is false for points behind
// the camera.
func (c Camera) Project(p mgl32.Vec3, w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	view, proj := c.matrices(w, h)
	if view.Mul4x1(p.Vec4(1)).Z() >= 0 {
		return 0, 0, false
	}
	win := mgl32.Project(p, view, proj, 0, 0, w, h)
	x = int(math.Floor(float64(win.X())))
	y = h - 1 - int(math.Floor(float64(win.Y())))
	return x, y, true
}

// RayFromScreen is DefaultCamera().Ray.
func RayFromScreen(x, y, w, h int) (origin, dir mgl32.Vec3) {
	return DefaultCamera().Ray(x, y, w, h)
}
