package optim

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Objective is a scalar function of a parameter vector.
type Objective func(x []float64) float64

// Gradient writes the gradient of an objective at x into grad.
type Gradient func(grad, x []float64)

// Result is the outcome of a minimisation. X is always set, even when the
// optimiser stopped without converging.
type Result struct {
	X           []float64
	F           float64
	Status      string
	Converged   bool
	Evaluations int
	Err         error
}

// Local configures a single local descent.
type Local struct {
	MaxIterations     int
	GradientThreshold float64
}

func DefaultLocal() Local {
	return Local{MaxIterations: 2000, GradientThreshold: 1e-6}
}

// stallRatio is how far the gradient norm must have fallen, relative to the
// start, for a failed line search to count as converged. Near a least-squares
// optimum the line search runs out of representable decrease in f long before
// an absolute gradient threshold is met.
const stallRatio = 1e-6

func ConjugateGradient(f Objective, grad Gradient, x0 []float64, cfg Local) Result {
	return minimize(f, grad, x0, cfg, &optimize.CG{})
}

func LBFGS(f Objective, grad Gradient, x0 []float64, cfg Local) Result {
	return minimize(f, grad, x0, cfg, &optimize.LBFGS{})
}

func minimize(f Objective, grad Gradient, x0 []float64, cfg Local, method optimize.Method) Result {
	if grad == nil {
		grad = func(g, x []float64) { fd.Gradient(g, f, x, nil) }
	}

	problem := optimize.Problem{
		Func: f,
		Grad: grad,
	}
	settings := &optimize.Settings{
		MajorIterations:   cfg.MaxIterations,
		GradientThreshold: cfg.GradientThreshold,
	}

	res, err := optimize.Minimize(problem, x0, settings, method)
	if res == nil {
		x := append([]float64(nil), x0...)
		return Result{X: x, F: f(x), Status: "Failure", Err: err}
	}

	converged := err == nil && isConverged(res.Status)
	if !converged && res.Status == optimize.Failure {
		converged = Settled(grad, x0, res.X)
	}

	return Result{
		X:           res.X,
		F:           res.F,
		Status:      res.Status.String(),
		Converged:   converged,
		Evaluations: res.FuncEvaluations,
		Err:         err,
	}
}

// Settled reports whether the gradient norm at x has fallen below stallRatio
// times its norm at start. A start that is already stationary only settles
// at a stationary x.
func Settled(grad Gradient, start, x []float64) bool {
	g0 := make([]float64, len(start))
	g1 := make([]float64, len(x))
	grad(g0, start)
	grad(g1, x)

	n0, n1 := floats.Norm(g0, 2), floats.Norm(g1, 2)
	if math.IsNaN(n1) || math.IsInf(n1, 0) {
		return false
	}
	return n1 <= stallRatio*n0 || n1 == 0
}

func isConverged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}
