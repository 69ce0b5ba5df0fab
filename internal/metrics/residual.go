package metrics

import "math"

// Metric accumulates a summary of fit residuals.
type Metric interface {
	Name() string
	Observe(r float64)
	Value() float64
	Reset()
}

type MaxAbs struct {
	name string
	max  float64
}

func NewMaxAbs(name string) *MaxAbs {
	return &MaxAbs{name: name}
}

func (m *MaxAbs) Name() string { return m.name }

func (m *MaxAbs) Observe(r float64) {
	if a := math.Abs(r); a > m.max || math.IsNaN(a) {
		m.max = a
	}
}

func (m *MaxAbs) Value() float64 { return m.max }
func (m *MaxAbs) Reset()         { m.max = 0 }

type RMS struct {
	name    string
	sum     float64
	samples int
}

func NewRMS(name string) *RMS {
	return &RMS{name: name}
}

func (m *RMS) Name() string { return m.name }

func (m *RMS) Observe(r float64) {
	m.sum += r * r
	m.samples++
}

func (m *RMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sum / float64(m.samples))
}

func (m *RMS) Reset() {
	m.sum = 0
	m.samples = 0
}

type SumSquares struct {
	name string
	sum  float64
}

func NewSumSquares(name string) *SumSquares {
	return &SumSquares{name: name}
}

func (m *SumSquares) Name() string      { return m.name }
func (m *SumSquares) Observe(r float64) { m.sum += r * r }
func (m *SumSquares) Value() float64    { return m.sum }
func (m *SumSquares) Reset()            { m.sum = 0 }

// Residuals returns the max, rms and sum-of-squares metrics for a fit,
// named <prefix>_max, <prefix>_rms and <prefix>_sse.
func Residuals(prefix string) []Metric {
	return []Metric{
		NewMaxAbs(prefix + "_max"),
		NewRMS(prefix + "_rms"),
		NewSumSquares(prefix + "_sse"),
	}
}

// Collect resets ms, feeds every residual through them and returns the
// values keyed by metric name.
func Collect(residuals []float64, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, r := range residuals {
			m.Observe(r)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
