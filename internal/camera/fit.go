package camera

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/dragonzoom/internal/dragon"
	"github.com/san-kum/dragonzoom/internal/metrics"
	"github.com/san-kum/dragonzoom/internal/optim"
)

// ScaleCoeffs are (a, b, c) of exp(a + b·t + c·√t).
type ScaleCoeffs [3]float64

func (k ScaleCoeffs) LogEval(t float64) float64 {
	return k[0] + k[1]*t + k[2]*math.Sqrt(t)
}

func (k ScaleCoeffs) Eval(t float64) float64 {
	return math.Exp(k.LogEval(t))
}

// TranslateCoeffs are (a..j) of
// ((a + b·t + c·√t)·cos(d + e·t), (f + g·t + h·√t)·sin(i + j·t)).
type TranslateCoeffs [10]float64

func (k TranslateCoeffs) Eval(t float64) dragon.Point {
	st := math.Sqrt(t)
	return dragon.Point{
		X: (k[0] + k[1]*t + k[2]*st) * math.Cos(k[3]+k[4]*t),
		Y: (k[5] + k[6]*t + k[7]*st) * math.Sin(k[8]+k[9]*t),
	}
}

func toScaleCoeffs(x []float64) ScaleCoeffs {
	var k ScaleCoeffs
	copy(k[:], x)
	return k
}

func toTranslateCoeffs(x []float64) TranslateCoeffs {
	var k TranslateCoeffs
	copy(k[:], x)
	return k
}

type ScaleFit struct {
	Coeffs      ScaleCoeffs
	Samples     int
	Duration    float64
	Status      string
	Converged   bool
	Evaluations int
	// Metrics holds scale_log_residual_{max,rms,sse}.
	Metrics map[string]float64
}

type TranslateFit struct {
	Coeffs      TranslateCoeffs
	Samples     int
	Duration    float64
	Status      string
	Converged   bool
	Evaluations int
	Hops        int
	Accepted    int
	// Metrics holds translate_residual_{max,rms,sse}.
	Metrics map[string]float64
}

// SampleTimes returns n+1 evenly spaced times covering [0, duration].
func SampleTimes(n int, duration float64) []float64 {
	times := make([]float64, n+1)
	for i := range times {
		times[i] = duration * float64(i) / float64(n)
	}
	return times
}

// FitScale regresses exp(a + b·t + c·√t) against the raw scale sampled at
// sampleCount+1 points, minimising the squared log ratio, and makes the
// fitted function active. The raw function stays available.
func (c *Camera) FitScale(ctx context.Context, sampleCount int) (*ScaleFit, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if sampleCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, sampleCount)
	}

	times := SampleTimes(sampleCount, c.settings.Duration)
	logs := make([]float64, len(times))
	for i, t := range times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logs[i] = math.Log(c.RawScale(t))
	}

	objective := func(x []float64) float64 {
		k := toScaleCoeffs(x)
		var sum float64
		for i, t := range times {
			r := k.LogEval(t) - logs[i]
			sum += r * r
		}
		return sum
	}
	gradient := func(grad, x []float64) {
		k := toScaleCoeffs(x)
		grad[0], grad[1], grad[2] = 0, 0, 0
		for i, t := range times {
			r := 2 * (k.LogEval(t) - logs[i])
			grad[0] += r
			grad[1] += r * t
			grad[2] += r * math.Sqrt(t)
		}
	}

	res := optim.ConjugateGradient(objective, gradient, []float64{0.1, 0.1, 0}, optim.DefaultLocal())

	fit := &ScaleFit{
		Coeffs:      toScaleCoeffs(res.X),
		Samples:     sampleCount,
		Duration:    c.settings.Duration,
		Status:      res.Status,
		Converged:   res.Converged,
		Evaluations: res.Evaluations,
	}

	fitted := fittedScale{coeffs: fit.Coeffs, floor: c.floor}
	residuals := make([]float64, len(times))
	for i, t := range times {
		residuals[i] = math.Log(fitted.scaleAt(t)) - logs[i]
	}
	fit.Metrics = metrics.Collect(residuals, metrics.Residuals("scale_log_residual")...)

	c.logFit("scale fit", res, fit.Coeffs[:], fit.Metrics)
	c.scale = fitted
	return fit, nil
}

// FitTranslate regresses the spiral translate model against the raw
// translate sampled at sampleCount+1 points with basin hopping, and makes
// the fitted function active.
func (c *Camera) FitTranslate(ctx context.Context, sampleCount int) (*TranslateFit, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if sampleCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, sampleCount)
	}

	times := SampleTimes(sampleCount, c.settings.Duration)
	raw := make([]dragon.Point, len(times))
	for i, t := range times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw[i] = c.RawTranslate(t)
	}

	objective := func(x []float64) float64 {
		k := toTranslateCoeffs(x)
		var sum float64
		for i, t := range times {
			d := k.Eval(t).Sub(raw[i])
			sum += d.X*d.X + d.Y*d.Y
		}
		return sum
	}

	start, err := c.translateStart(ctx, objective, raw)
	if err != nil {
		return nil, err
	}

	res, err := c.hopping.Minimize(ctx, objective, translateGradient(times, raw), start)
	if err != nil {
		return nil, err
	}

	fit := &TranslateFit{
		Coeffs:      toTranslateCoeffs(res.X),
		Samples:     sampleCount,
		Duration:    c.settings.Duration,
		Status:      res.Status,
		Converged:   res.Converged,
		Evaluations: res.Evaluations,
		Hops:        res.Hops,
		Accepted:    res.Accepted,
	}

	residuals := make([]float64, len(times))
	for i, t := range times {
		residuals[i] = fit.Coeffs.Eval(t).Sub(raw[i]).Hypot()
	}
	fit.Metrics = metrics.Collect(residuals, metrics.Residuals("translate_residual")...)

	c.logFit("translate fit", res.Result, fit.Coeffs[:], fit.Metrics)
	c.translate = fittedTranslate{coeffs: fit.Coeffs}
	return fit, nil
}

// translateStart picks the basin-hopping start from a coarse grid over the
// amplitude slopes and angular rates. The zero vector is part of the grid.
func (c *Camera) translateStart(ctx context.Context, objective optim.Objective, raw []dragon.Point) ([]float64, error) {
	var extent float64
	for _, p := range raw {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	slope := extent / c.settings.Duration
	slopes := []float64{-slope, 0, slope}
	rates := []float64{-math.Pi / 8, -math.Pi / 16, 0, math.Pi / 16, math.Pi / 8}

	toVector := func(p map[string]float64) []float64 {
		x := make([]float64, len(TranslateCoeffs{}))
		x[1], x[4], x[6], x[9] = p["b"], p["e"], p["g"], p["j"]
		return x
	}

	grid := optim.NewGridSearch(
		[]string{"b", "e", "g", "j"},
		[][]float64{slopes, rates, slopes, rates},
	)
	best, _, err := grid.Search(ctx, func(p map[string]float64) float64 {
		return objective(toVector(p))
	})
	if err != nil {
		return nil, err
	}
	return toVector(best), nil
}

func translateGradient(times []float64, raw []dragon.Point) optim.Gradient {
	return func(grad, x []float64) {
		for i := range grad {
			grad[i] = 0
		}
		for i, t := range times {
			st := math.Sqrt(t)
			amp := x[0] + x[1]*t + x[2]*st
			phase := x[3] + x[4]*t
			ampY := x[5] + x[6]*t + x[7]*st
			phaseY := x[8] + x[9]*t
			cos, sin := math.Cos(phase), math.Sin(phase)
			cosY, sinY := math.Cos(phaseY), math.Sin(phaseY)

			rx := 2 * (amp*cos - raw[i].X)
			ry := 2 * (ampY*sinY - raw[i].Y)

			grad[0] += rx * cos
			grad[1] += rx * cos * t
			grad[2] += rx * cos * st
			grad[3] -= rx * amp * sin
			grad[4] -= rx * amp * sin * t
			grad[5] += ry * sinY
			grad[6] += ry * sinY * t
			grad[7] += ry * sinY * st
			grad[8] += ry * ampY * cosY
			grad[9] += ry * ampY * cosY * t
		}
	}
}

func (c *Camera) logFit(msg string, res optim.Result, coeffs []float64, m map[string]float64) {
	args := []any{
		"coeffs", coeffs,
		"status", res.Status,
		"evaluations", res.Evaluations,
	}
	for _, name := range slices.Sorted(maps.Keys(m)) {
		args = append(args, name, m[name])
	}
	c.logger.Info(msg, args...)

	if !res.Converged {
		c.logger.Warn(msg+" did not converge", "status", res.Status, "err", res.Err)
	}
}
