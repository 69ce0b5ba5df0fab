package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dragonzoom/internal/dragon"
)

type CurveData struct {
	Tau        float64     `json:"tau"`
	Generation int         `json:"generation"`
	Bounds     dragon.Box  `json:"bounds"`
	Points     [][2]float64 `json:"points"`
}

type pointCollector struct {
	points [][2]float64
}

func (c *pointCollector) MoveTo(x, y float64) { c.points = append(c.points, [2]float64{x, y}) }
func (c *pointCollector) LineTo(x, y float64) { c.points = append(c.points, [2]float64{x, y}) }

// CurveJSON writes the polyline up to tau with its bounding box.
func CurveJSON(w io.Writer, store *dragon.Store, tau float64) error {
	c := &pointCollector{}
	store.EmitPolyline(tau, c)

	data := CurveData{
		Tau:        tau,
		Generation: store.Generation(),
		Bounds:     store.Bounds(tau),
		Points:     c.points,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
