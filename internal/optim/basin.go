package optim

import (
	"context"
	"math"
	"math/rand/v2"
)

// BasinHopping repeatedly perturbs the current minimum, descends locally
// from the perturbed point and accepts the new minimum with the Metropolis
// criterion. The best minimum seen is returned.
type BasinHopping struct {
	Hops        int
	StepSize    float64
	Temperature float64
	Seed        uint64
	Local       Local
}

func DefaultBasinHopping() BasinHopping {
	return BasinHopping{
		Hops:        100,
		StepSize:    0.5,
		Temperature: 1.0,
		Seed:        1,
		Local:       Local{MaxIterations: 500, GradientThreshold: 1e-9},
	}
}

// HopResult extends Result with hop statistics.
type HopResult struct {
	Result
	Hops     int
	Accepted int
}

func (b BasinHopping) Minimize(ctx context.Context, f Objective, grad Gradient, x0 []float64) (HopResult, error) {
	rng := rand.New(rand.NewPCG(b.Seed, b.Seed^0x9e3779b97f4a7c15))

	cur := LBFGS(f, grad, x0, b.Local)
	best := cur
	out := HopResult{}
	evals := cur.Evaluations

	trial := make([]float64, len(x0))
	for hop := 0; hop < b.Hops; hop++ {
		if err := ctx.Err(); err != nil {
			best.Evaluations = evals
			out.Result = best
			return out, err
		}

		for i := range trial {
			trial[i] = cur.X[i] + b.StepSize*(2*rng.Float64()-1)
		}

		next := LBFGS(f, grad, trial, b.Local)
		evals += next.Evaluations
		out.Hops++

		if accept(next.F, cur.F, b.Temperature, rng) {
			cur = next
			out.Accepted++
		}
		if next.F < best.F {
			best = next
		}
	}

	best.Evaluations = evals
	out.Result = best
	return out, nil
}

func accept(fNew, fOld, temperature float64, rng *rand.Rand) bool {
	if math.IsNaN(fNew) {
		return false
	}
	if fNew < fOld {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-(fNew-fOld)/temperature)
}
