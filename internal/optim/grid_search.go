package optim

import (
	"context"
	"math"
)

// GridSearch evaluates an objective at every combination of the given
// parameter values and keeps the lowest. Combinations are visited with the
// last parameter varying fastest; ties keep the first point visited.
type GridSearch struct {
	names  []string
	values [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{names: params, values: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.names) == 0 {
		return 0
	}
	n := 1
	for _, vals := range g.values {
		n *= len(vals)
	}
	return n
}

// Search returns the best point, its objective value and ctx.Err() if the
// search was cut short. The best point so far is returned either way.
func (g *GridSearch) Search(
	ctx context.Context,
	objective func(params map[string]float64) float64,
) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	if g.Size() == 0 {
		return bestParams, best, nil
	}

	idx := make([]int, len(g.names))
	point := make(map[string]float64, len(g.names))
	for {
		if err := ctx.Err(); err != nil {
			return bestParams, best, err
		}

		for i, name := range g.names {
			point[name] = g.values[i][idx[i]]
		}
		if val := objective(point); val < best {
			best = val
			bestParams = make(map[string]float64, len(point))
			for k, v := range point {
				bestParams[k] = v
			}
		}

		// odometer step
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g.values[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return bestParams, best, nil
		}
	}
}
