package routing

import (
	"context"
	"math"
	"math/rand"
	"time"

	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
)

const (
	greedyStallLimit = 200
	glsStallLimit    = 20
)

// Stats describes a finished search.
type Stats struct {
	Metaheuristic    Metaheuristic
	Iterations       int
	Improvements     int
	AcceptedWorse    int
	Rejected         int
	InitialObjective int64
	Objective        int64
	WallTime         time.Duration
	DestroySelects   [destroyOpCount]int
	RepairSelects    [repairOpCount]int
}

// acceptor decides whether the search moves to a candidate solution.
type acceptor interface {
	accept(cand, cur *solution, candObj, curObj int64) bool
	// observe is called after every iteration with the current solution and
	// whether the candidate was accepted.
	observe(cur *solution, accepted bool)
}

type greedyAcceptor struct{}

func (greedyAcceptor) accept(_, _ *solution, candObj, curObj int64) bool { return candObj <= curObj }
func (greedyAcceptor) observe(*solution, bool)                          {}

type annealingAcceptor struct {
	temp    float64
	cooling float64
	rng     *rand.Rand
}

func (a *annealingAcceptor) accept(_, _ *solution, candObj, curObj int64) bool {
	delta := float64(candObj - curObj)
	return delta <= 0 || a.rng.Float64() < math.Exp(-delta/(a.temp+1e-9))
}

func (a *annealingAcceptor) observe(*solution, bool) { a.temp *= a.cooling }

// tabuAcceptor moves to every feasible candidate; the tabu list itself lives
// in the destroy step.
type tabuAcceptor struct{}

func (tabuAcceptor) accept(_, _ *solution, _, _ int64) bool { return true }
func (tabuAcceptor) observe(*solution, bool)             {}

type arcKey struct{ from, to int64 }

// glsAcceptor compares solutions on costs augmented by arc penalties that
// grow on the arcs of local optima.
type glsAcceptor struct {
	p         *plan
	penalties map[arcKey]int64
	lambda    float64
	stall     int
}

func (g *glsAcceptor) augmented(s *solution, obj int64) float64 {
	var pen int64
	for v := range s.routes {
		r := &s.routes[v]
		if len(r.seq) == 0 {
			continue
		}
		idx := r.indices(g.p.m, v)
		for k := 1; k < len(idx); k++ {
			pen += g.penalties[arcKey{idx[k-1], idx[k]}]
		}
	}
	return float64(obj) + g.lambda*float64(pen)
}

func (g *glsAcceptor) accept(cand, cur *solution, candObj, curObj int64) bool {
	return g.augmented(cand, candObj) <= g.augmented(cur, curObj)
}

func (g *glsAcceptor) observe(cur *solution, accepted bool) {
	if accepted {
		g.stall = 0
		return
	}
	g.stall++
	if g.stall < glsStallLimit {
		return
	}
	g.stall = 0
	var (
		best     arcKey
		bestUtil = -1.0
	)
	for v := range cur.routes {
		r := &cur.routes[v]
		if len(r.seq) == 0 {
			continue
		}
		idx := r.indices(g.p.m, v)
		for k := 1; k < len(idx); k++ {
			key := arcKey{idx[k-1], idx[k]}
			util := float64(g.p.arcCost(v, key.from, key.to)) / float64(1+g.penalties[key])
			if util > bestUtil {
				best, bestUtil = key, util
			}
		}
	}
	if bestUtil >= 0 {
		g.penalties[best]++
	}
}

func newAcceptor(params SearchParameters, p *plan, initial *solution, rng *rand.Rand) acceptor {
	switch params.Metaheuristic {
	case GreedyDescent:
		return greedyAcceptor{}
	case TabuSearch:
		return tabuAcceptor{}
	case GuidedLocalSearch:
		arcs := 0
		for _, r := range initial.routes {
			if len(r.seq) > 0 {
				arcs += len(r.seq) + 1
			}
		}
		lambda := 0.1 * float64(initial.routeCost()) / float64(max(1, arcs))
		return &glsAcceptor{p: p, penalties: make(map[arcKey]int64), lambda: lambda}
	default:
		temp := params.InitialTemperature
		if temp <= 0 {
			temp = max(1, 0.01*float64(initial.routeCost()))
		}
		return &annealingAcceptor{temp: temp, cooling: params.Cooling, rng: rng}
	}
}

// SolveWithParameters searches for a low-cost assignment. It returns nil when
// no solution performing every mandatory index is found. The search stops at
// the first of the time limit, the iteration limit and ctx cancellation.
func (m *Model) SolveWithParameters(ctx context.Context, params SearchParameters) *Assignment {
	params.normalize()
	log := params.Logger
	if log == nil {
		log = infralogger.NopLogger{}
	}
	began := time.Now()
	p := newPlan(m)
	rng := rand.New(rand.NewSource(params.Seed))

	cur := newSolution(p)
	if !seedRequired(p, cur) {
		log.Warnf("routing: required vehicle routes are infeasible")
		return nil
	}
	newInserter(p, cur).run(repairGreedy)
	if !complete(p, cur) || !p.globalHolds(cur) {
		log.Warnf("routing: no initial solution performs every mandatory index")
		return nil
	}
	for v := range cur.routes {
		if len(cur.routes[v].seq) > 1 {
			twoOpt(p, cur, v)
		}
	}
	curObj := cur.objective(p)
	best, bestObj := cur, curObj
	stats := Stats{Metaheuristic: params.Metaheuristic, InitialObjective: curObj}
	log.Debugw("routing: initial solution", map[string]any{
		"objective":     curObj,
		"performed":     cur.performedCount(),
		"metaheuristic": params.Metaheuristic.String(),
	})

	acc := newAcceptor(params, p, cur, rng)
	tenure := max(3, p.size/10)
	tabuUntil := make([]int, p.size)
	destroyW := make([]float64, destroyOpCount)
	repairW := make([]float64, repairOpCount)
	for i := range destroyW {
		destroyW[i] = 1
	}
	for i := range repairW {
		repairW[i] = 1
	}
	var deadline time.Time
	if params.TimeLimit > 0 {
		deadline = began.Add(params.TimeLimit)
	}
	stall := 0

	for it := 0; ; it++ {
		if params.IterationLimit > 0 && it >= params.IterationLimit {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if ctx.Err() != nil {
			log.Infof("routing: search cancelled after %d iterations", it)
			break
		}
		if params.Metaheuristic == GreedyDescent && stall >= greedyStallLimit {
			break
		}
		stats.Iterations++

		op := destroyOp(selectOp(destroyW, rng))
		ip := repairOp(selectOp(repairW, rng))
		stats.DestroySelects[op]++
		stats.RepairSelects[ip]++

		var skip func(int64) bool
		if params.Metaheuristic == TabuSearch {
			iter := it
			skip = func(i int64) bool { return tabuUntil[i] > iter }
		}
		cand := cur.clone()
		k := 1 + rng.Intn(max(1, min(params.MaxRemoval, cand.performedCount())))
		removed := op.apply(p, cand, k, rng, skip)
		newInserter(p, cand).run(ip)
		for v := range cand.routes {
			if routeTouched(cand, cur, v) && len(cand.routes[v].seq) > 1 {
				twoOpt(p, cand, v)
			}
		}
		if !complete(p, cand) || !p.globalHolds(cand) {
			stats.Rejected++
			acc.observe(cur, false)
			stall++
			continue
		}
		candObj := cand.objective(p)
		if acc.accept(cand, cur, candObj, curObj) {
			improvedCurrent := candObj < curObj
			cur, curObj = cand, candObj
			if params.Metaheuristic == TabuSearch {
				for _, i := range removed {
					tabuUntil[i] = it + tenure
				}
			}
			if curObj < bestObj {
				best, bestObj = cur, curObj
				destroyW[op] += 0.1
				repairW[ip] += 0.1
				stats.Improvements++
				stall = 0
			} else {
				destroyW[op] += 0.01
				repairW[ip] += 0.01
				if !improvedCurrent {
					stats.AcceptedWorse++
				}
				stall++
			}
			acc.observe(cur, true)
		} else {
			destroyW[op] = math.Max(0.01, destroyW[op]*0.999)
			repairW[ip] = math.Max(0.01, repairW[ip]*0.999)
			stats.Rejected++
			acc.observe(cur, false)
			stall++
		}
	}
	stats.Objective = bestObj
	stats.WallTime = time.Since(began)
	log.Debugw("routing: search finished", map[string]any{
		"iterations":   stats.Iterations,
		"improvements": stats.Improvements,
		"objective":    bestObj,
		"wall_time_ms": stats.WallTime.Milliseconds(),
	})
	return newAssignment(p, best, bestObj, stats)
}

func routeTouched(a, b *solution, v int) bool {
	x, y := a.routes[v].seq, b.routes[v].seq
	if len(x) != len(y) {
		return true
	}
	for i := range x {
		if x[i] != y[i] {
			return true
		}
	}
	return false
}
