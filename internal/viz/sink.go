package viz

import (
	"math"

	"github.com/san-kum/dragonzoom/internal/camera"
)

// maxDot bounds projected coordinates so int conversion never overflows
// when the raw view is far from the fitted one.
const maxDot = 1 << 20

// CanvasSink draws an emitted polyline onto a Canvas through a camera view.
// One dot corresponds to one screen pixel of the view.
type CanvasSink struct {
	canvas   *Canvas
	view     camera.View
	x, y     int
	started  bool
	segments int
}

func NewCanvasSink(c *Canvas, v camera.View) *CanvasSink {
	return &CanvasSink{canvas: c, view: v}
}

func (s *CanvasSink) project(x, y float64) (int, int) {
	cw, ch := s.canvas.Dots()
	px := (x+s.view.Translate.X)/s.view.Scale + float64(cw)/2
	py := float64(ch)/2 - (y+s.view.Translate.Y)/s.view.Scale
	return clampDot(px), clampDot(py)
}

func clampDot(v float64) int {
	if math.IsNaN(v) {
		return -maxDot
	}
	return int(math.Round(math.Max(-maxDot, math.Min(maxDot, v))))
}

func (s *CanvasSink) MoveTo(x, y float64) {
	s.x, s.y = s.project(x, y)
	s.started = true
	s.canvas.Set(s.x, s.y)
}

func (s *CanvasSink) LineTo(x, y float64) {
	px, py := s.project(x, y)
	if !s.started {
		s.MoveTo(x, y)
		return
	}
	if px == s.x && py == s.y {
		return
	}
	s.canvas.DrawLine(s.x, s.y, px, py)
	s.x, s.y = px, py
	s.segments++
}

// Segments returns how many dot-level segments were drawn.
func (s *CanvasSink) Segments() int { return s.segments }
