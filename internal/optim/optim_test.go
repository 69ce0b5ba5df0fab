package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func rosenbrock(x []float64) float64 {
	a := 1 - x[0]
	b := x[1] - x[0]*x[0]
	return a*a + 100*b*b
}

func rosenbrockGrad(grad, x []float64) {
	grad[0] = -2*(1-x[0]) - 400*x[0]*(x[1]-x[0]*x[0])
	grad[1] = 200 * (x[1] - x[0]*x[0])
}

func TestConjugateGradient_Rosenbrock(t *testing.T) {
	g := NewWithT(t)

	res := ConjugateGradient(rosenbrock, rosenbrockGrad, []float64{-1.2, 1}, DefaultLocal())

	g.Expect(res.X).To(HaveLen(2))
	g.Expect(res.X[0]).To(BeNumerically("~", 1, 1e-3))
	g.Expect(res.X[1]).To(BeNumerically("~", 1, 1e-3))
	g.Expect(res.F).To(BeNumerically("<", 1e-6))
}

func TestLBFGS_FiniteDifferenceGradient(t *testing.T) {
	g := NewWithT(t)

	quad := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + 2*(x[1]+1)*(x[1]+1) + 0.5*x[2]*x[2]
	}

	res := LBFGS(quad, nil, []float64{0, 0, 5}, DefaultLocal())

	g.Expect(res.X[0]).To(BeNumerically("~", 3, 1e-5))
	g.Expect(res.X[1]).To(BeNumerically("~", -1, 1e-5))
	g.Expect(res.X[2]).To(BeNumerically("~", 0, 1e-5))
	g.Expect(res.Evaluations).To(BeNumerically(">", 0))
}

func TestMinimize_DoesNotModifyStart(t *testing.T) {
	x0 := []float64{-1.2, 1}
	ConjugateGradient(rosenbrock, rosenbrockGrad, x0, DefaultLocal())

	if x0[0] != -1.2 || x0[1] != 1 {
		t.Errorf("start point modified: %v", x0)
	}
}

func TestSettled(t *testing.T) {
	quad := func(grad, x []float64) {
		grad[0] = 2 * (x[0] - 3)
		grad[1] = 4 * (x[1] + 1)
	}

	tests := []struct {
		name  string
		start []float64
		x     []float64
		want  bool
	}{
		{"at the optimum", []float64{0, 0}, []float64{3, -1}, true},
		{"negligible gradient left", []float64{1000, 1000}, []float64{3 + 1e-6, -1}, true},
		{"halfway", []float64{0, 0}, []float64{1.5, -0.5}, false},
		{"stationary start", []float64{3, -1}, []float64{3, -1}, true},
		{"moved off a stationary start", []float64{3, -1}, []float64{3.1, -1}, false},
		{"not finite", []float64{0, 0}, []float64{math.NaN(), 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Settled(quad, tt.start, tt.x); got != tt.want {
				t.Errorf("Settled(%v -> %v) = %v, want %v", tt.start, tt.x, got, tt.want)
			}
		})
	}
}

func wells(x []float64) float64 {
	return 0.1*x[0]*x[0] - math.Cos(2*math.Pi*x[0])
}

func TestBasinHopping_EscapesLocalMinimum(t *testing.T) {
	g := NewWithT(t)

	bh := DefaultBasinHopping()
	bh.StepSize = 1.0
	bh.Hops = 200

	res, err := bh.Minimize(context.Background(), wells, nil, []float64{4})

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.X[0]).To(BeNumerically("~", 0, 0.05))
	g.Expect(res.F).To(BeNumerically("~", -1, 1e-4))
	g.Expect(res.Hops).To(Equal(200))
	g.Expect(res.Accepted).To(BeNumerically(">", 0))
}

func TestBasinHopping_Deterministic(t *testing.T) {
	bh := DefaultBasinHopping()
	bh.Hops = 30

	a, _ := bh.Minimize(context.Background(), wells, nil, []float64{2.3})
	b, _ := bh.Minimize(context.Background(), wells, nil, []float64{2.3})

	if a.X[0] != b.X[0] || a.F != b.F {
		t.Errorf("same seed gave different results: %v vs %v", a.X, b.X)
	}
}

func TestBasinHopping_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := DefaultBasinHopping().Minimize(ctx, wells, nil, []float64{1.7})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.X) != 1 {
		t.Errorf("expected a parameter vector even when canceled, got %v", res.X)
	}
	if res.Hops != 0 {
		t.Errorf("expected no hops, got %d", res.Hops)
	}
}

func TestGridSearch(t *testing.T) {
	grid := NewGridSearch(
		[]string{"a", "b"},
		[][]float64{{-1, 0, 1, 2}, {-2, -1, 0}},
	)

	best, val, err := grid.Search(context.Background(), func(p map[string]float64) float64 {
		return (p["a"]-1)*(p["a"]-1) + (p["b"]+1)*(p["b"]+1)
	})

	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best["a"] != 1 || best["b"] != -1 {
		t.Errorf("expected a=1 b=-1, got %v", best)
	}
	if val != 0 {
		t.Errorf("expected objective 0, got %f", val)
	}
}

func TestGridSearch_VisitsEveryPoint(t *testing.T) {
	grid := NewGridSearch([]string{"a", "b", "c"}, [][]float64{{1, 2}, {1, 2, 3}, {0}})
	if grid.Size() != 6 {
		t.Fatalf("expected 6 grid points, got %d", grid.Size())
	}

	seen := map[[2]float64]bool{}
	best, _, err := grid.Search(context.Background(), func(p map[string]float64) float64 {
		seen[[2]float64{p["a"], p["b"]}] = true
		return 0
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct points, got %d", len(seen))
	}
	if best["a"] != 1 || best["b"] != 1 {
		t.Errorf("ties should keep the first point, got %v", best)
	}
}

func TestGridSearch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := NewGridSearch([]string{"a"}, [][]float64{{1, 2}})
	_, _, err := grid.Search(ctx, func(map[string]float64) float64 { return 0 })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
