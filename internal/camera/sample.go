package camera

import "github.com/san-kum/dragonzoom/internal/dragon"

// Sample pairs the raw and active camera functions at one time.
type Sample struct {
	T            float64
	Tau          float64
	RawScale     float64
	Scale        float64
	RawTranslate dragon.Point
	Translate    dragon.Point
}

// Samples evaluates both function variants at n+1 evenly spaced times over
// the configured duration.
func (c *Camera) Samples(n int) []Sample {
	times := SampleTimes(n, c.settings.Duration)
	out := make([]Sample, len(times))
	for i, t := range times {
		out[i] = Sample{
			T:            t,
			Tau:          WarpTime(t),
			RawScale:     c.RawScale(t),
			Scale:        c.Scale(t),
			RawTranslate: c.RawTranslate(t),
			Translate:    c.Translate(t),
		}
	}
	return out
}
