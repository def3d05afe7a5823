// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/comalice/focusx/internal/scene"
	"github.com/comalice/focusx/internal/trace"
)

// GenGridScene lays out n unit panels on a grid at z = -10.
func GenGridScene(n int) *scene.Scene {
	if n < 1 {
		n = 1
	}
	cols := 1
	for cols*cols < n {
		cols++
	}
	s := scene.New()
	for i := 0; i < n; i++ {
		x := float32(i%cols) - float32(cols)/2
		y := float32(i/cols) - float32(cols)/2
		s.Add(scene.Panel{
			Name:   fmt.Sprintf("p%d", i),
			Center: mgl32.Vec3{x, y, -10},
			Width:  0.9,
			Height: 0.9,
		})
	}
	return s
}

// GenSweepTrace creates a trace over n entities where the gaze rests on each
// entity for dwell frames before moving on, clicking once per entity.
func GenSweepTrace(n, dwell, frames int) *trace.Trace {
	if n < 1 {
		n = 1
	}
	if dwell < 1 {
		dwell = 1
	}
	threshold := 1
	tr := &trace.Trace{Threshold: &threshold}
	for i := 0; i < n; i++ {
		tr.Entities = append(tr.Entities, trace.Entity{Name: fmt.Sprintf("e%d", i)})
	}
	for f := 0; f < frames; f++ {
		target := tr.Entities[(f/dwell)%n].Name
		tr.Frames = append(tr.Frames, trace.Frame{
			Picks: []string{target},
			Click: f%dwell == dwell-1,
		})
	}
	return tr
}
