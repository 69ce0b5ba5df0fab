package render

import (
	"github.com/gogpu/gg"

	"github.com/san-kum/dragonzoom/internal/camera"
)

// Style holds the colours of a frame.
type Style struct {
	Background gg.RGBA
	Stroke     gg.RGBA
}

// DefaultStyle is a red curve on white.
func DefaultStyle() Style {
	return Style{
		Background: gg.White,
		Stroke:     gg.RGB(0.957, 0.263, 0.212),
	}
}

// ParseStyle builds a Style from hex colours such as "#f44336".
func ParseStyle(background, stroke string) Style {
	return Style{
		Background: gg.Hex(background),
		Stroke:     gg.Hex(stroke),
	}
}

// ApplyView sets the context transform so that curve coordinates land on
// screen for the given view: y points up, the origin sits at the screen
// centre, and one pixel spans v.Scale curve units after translating by
// v.Translate.
func ApplyView(dc *gg.Context, v camera.View) {
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.Identity()
	dc.Scale(1, -1)
	dc.Translate(w/2, -h/2)
	dc.Scale(1/v.Scale, 1/v.Scale)
	dc.Translate(v.Translate.X, v.Translate.Y)
}

// Frame draws the curve as it appears at animation time t.
func Frame(dc *gg.Context, cam *camera.Camera, style Style, t float64) error {
	dc.Identity()
	dc.ClearPath()
	dc.ClearWithColor(style.Background)

	ApplyView(dc, cam.Apply(t))

	dc.SetColor(style.Stroke.Color())
	dc.SetLineWidth(cam.LineWidth(t))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	cam.Store().EmitPolyline(camera.WarpTime(t), dc)
	return dc.Stroke()
}

// RenderStill draws the frame at time t into a width×height PNG at path.
func RenderStill(path string, cam *camera.Camera, style Style, width, height int, t float64) error {
	dc := gg.NewContext(width, height)
	defer dc.Close()

	if err := Frame(dc, cam, style, t); err != nil {
		return err
	}
	return dc.SavePNG(path)
}
