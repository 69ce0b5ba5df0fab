package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/dragonzoom/internal/camera"
)

// pathBuilder collects a polyline as SVG path data in screen coordinates.
type pathBuilder struct {
	sb     strings.Builder
	view   camera.View
	width  float64
	height float64
}

func (p *pathBuilder) screen(x, y float64) (float64, float64) {
	sx := (x+p.view.Translate.X)/p.view.Scale + p.width/2
	sy := p.height/2 - (y+p.view.Translate.Y)/p.view.Scale
	return sx, sy
}

func (p *pathBuilder) MoveTo(x, y float64) {
	sx, sy := p.screen(x, y)
	if p.sb.Len() > 0 {
		p.sb.WriteByte(' ')
	}
	fmt.Fprintf(&p.sb, "M%.2f,%.2f", sx, sy)
}

func (p *pathBuilder) LineTo(x, y float64) {
	sx, sy := p.screen(x, y)
	fmt.Fprintf(&p.sb, " L%.2f,%.2f", sx, sy)
}

// FrameToSVG writes the frame at animation time t as a vector image using
// the camera's active view. Colours are SVG colour strings.
func FrameToSVG(w io.Writer, cam *camera.Camera, width, height int, t float64, background, stroke string) error {
	view := cam.Apply(t)
	p := &pathBuilder{view: view, width: float64(width), height: float64(height)}
	cam.Store().EmitPolyline(camera.WarpTime(t), p)

	_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="%.3f" stroke-linecap="round" stroke-linejoin="round" d="%s"/>
</svg>
`, width, height, width, height, background, stroke, cam.LineWidth(t)/view.Scale, p.sb.String())
	return err
}
