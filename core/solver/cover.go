package solver

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// coverProblem is a bounded integer covering program:
//
//	minimize  Σ cost[g]·x[g]
//	s.t.      Σ rows[r][g]·x[g] ≥ rhs[r]
//	          0 ≤ x[g] ≤ bound[g]
type coverProblem struct {
	cost  []float64
	bound []int
	rows  [][]float64
	rhs   []float64
}

// feasible reports whether taking every group at its bound covers all rows.
func (c coverProblem) feasible() bool {
	full := make([]int, len(c.bound))
	copy(full, c.bound)
	return c.covers(full)
}

func (c coverProblem) covers(x []int) bool {
	for r, row := range c.rows {
		var sum float64
		for g, a := range row {
			sum += a * float64(x[g])
		}
		if sum+1e-9 < c.rhs[r] {
			return false
		}
	}
	return true
}

// solveRelaxation solves the continuous relaxation with the simplex method.
func solveRelaxation(c coverProblem) ([]float64, error) {
	n := len(c.cost)
	nRows := len(c.rows) + 2*n
	g := mat.NewDense(nRows, n, nil)
	h := make([]float64, nRows)
	for r, row := range c.rows {
		for j, a := range row {
			g.Set(r, j, -a)
		}
		h[r] = -c.rhs[r]
	}
	off := len(c.rows)
	for j := 0; j < n; j++ {
		g.Set(off+2*j, j, 1)
		h[off+2*j] = float64(c.bound[j])
		g.Set(off+2*j+1, j, -1)
	}

	cStd, AStd, bStd := lp.Convert(c.cost, g, h, nil, nil)
	_, sol, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits every variable into positive and negative parts.
	x := make([]float64, n)
	for j := range x {
		x[j] = sol[j] - sol[n+j]
	}
	return x, nil
}

// relax points to the function used for the relaxation. It can be overridden
// in tests to simulate solver failures.
var relax = solveRelaxation

// solveCover rounds the relaxation up within the bounds, then drops the most
// expensive units that are not needed to keep every row covered. A failing
// relaxation other than infeasibility degrades to trimming the full bounds.
func solveCover(c coverProblem) ([]int, error) {
	n := len(c.cost)
	x := make([]int, n)
	if !c.feasible() {
		return nil, ErrInfeasible
	}
	if n == 0 || len(c.rows) == 0 {
		return x, nil
	}
	frac, err := relax(c)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, ErrInfeasible
	case err != nil:
		// Numerical trouble in the simplex: start the trim from the bounds.
		copy(x, c.bound)
	default:
		for j, v := range frac {
			x[j] = min(c.bound[j], max(0, int(math.Ceil(v-1e-6))))
		}
		if !c.covers(x) {
			copy(x, c.bound)
		}
	}
	trim(c, x)
	return x, nil
}

func trim(c coverProblem, x []int) {
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return c.cost[order[a]] > c.cost[order[b]] })
	for _, j := range order {
		for x[j] > 0 {
			x[j]--
			if !c.covers(x) {
				x[j]++
				break
			}
		}
	}
}
