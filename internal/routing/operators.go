package routing

import (
	"math"
	"math/rand"
	"sort"
)

type destroyOp int

const (
	destroyRandom destroyOp = iota
	destroyWorst
	destroyShaw
	destroyRoute
	destroyOpCount
)

type repairOp int

const (
	repairGreedy repairOp = iota
	repairRegret
	repairOpCount
)

// removable lists the performed indices a destroy operator may pick.
func removable(p *plan, s *solution, skip func(int64) bool) []int64 {
	var out []int64
	for _, r := range s.routes {
		for _, i := range r.seq {
			if p.isCoupled(i) || (skip != nil && skip(i)) {
				continue
			}
			out = append(out, i)
		}
	}
	return out
}

func (op destroyOp) apply(p *plan, s *solution, k int, rng *rand.Rand, skip func(int64) bool) []int64 {
	pool := removable(p, s, skip)
	if len(pool) == 0 {
		return nil
	}
	k = min(k, len(pool))
	var picked []int64
	switch op {
	case destroyWorst:
		picked = worstRemoval(p, s, pool, k, rng)
	case destroyShaw:
		picked = shawRemoval(p, s, pool, k, rng)
	case destroyRoute:
		picked = routeRemoval(p, s, pool, rng)
	default:
		picked = randomRemoval(pool, k, rng)
	}
	return removeIndices(p, s, picked)
}

func randomRemoval(pool []int64, k int, rng *rand.Rand) []int64 {
	rest := append([]int64(nil), pool...)
	out := make([]int64, 0, k)
	for len(out) < k {
		j := rng.Intn(len(rest))
		out = append(out, rest[j])
		rest = append(rest[:j], rest[j+1:]...)
	}
	return out
}

type scored struct {
	index int64
	score float64
}

// pickRanked draws k entries from a list sorted by decreasing score, biased
// towards the head.
func pickRanked(list []scored, k int, rng *rand.Rand) []int64 {
	sort.SliceStable(list, func(a, b int) bool { return list[a].score > list[b].score })
	out := make([]int64, 0, k)
	for len(out) < k && len(list) > 0 {
		j := int(math.Pow(rng.Float64(), 3) * float64(len(list)))
		out = append(out, list[j].index)
		list = append(list[:j], list[j+1:]...)
	}
	return out
}

func worstRemoval(p *plan, s *solution, pool []int64, k int, rng *rand.Rand) []int64 {
	list := make([]scored, 0, len(pool))
	for _, i := range pool {
		v := s.vehicleOf[i]
		r := s.routes[v]
		without := make([]int64, 0, len(r.seq)-1)
		for _, j := range r.seq {
			if j != i {
				without = append(without, j)
			}
		}
		c, ok := p.evaluate(v, without, nil)
		saving := float64(r.cost - c)
		if !ok {
			saving = math.Inf(-1)
		}
		list = append(list, scored{index: i, score: saving})
	}
	return pickRanked(list, k, rng)
}

// cumulOf maps every performed index to its first-dimension cumul.
func cumulOf(p *plan, s *solution) []int64 {
	out := make([]int64, p.size)
	if len(p.dims) == 0 {
		return out
	}
	for v := range s.routes {
		r := &s.routes[v]
		if len(r.seq) == 0 {
			continue
		}
		for k, i := range r.seq {
			out[i] = r.rec.cumul[k+1][0]
		}
	}
	return out
}

func shawRemoval(p *plan, s *solution, pool []int64, k int, rng *rand.Rand) []int64 {
	if len(p.dims) == 0 {
		return randomRemoval(pool, k, rng)
	}
	cumuls := cumulOf(p, s)
	seed := pool[rng.Intn(len(pool))]
	dim := p.dims[0]
	list := make([]scored, 0, len(pool))
	for _, i := range pool {
		if i == seed {
			continue
		}
		v := s.vehicleOf[seed]
		rel := float64(dim.Transit(v, seed, i)) + math.Abs(float64(cumuls[seed]-cumuls[i]))
		if s.vehicleOf[i] == v {
			rel *= 0.5
		}
		list = append(list, scored{index: i, score: -rel})
	}
	return append([]int64{seed}, pickRanked(list, k-1, rng)...)
}

func routeRemoval(p *plan, s *solution, pool []int64, rng *rand.Rand) []int64 {
	used := make([]int, 0)
	for v, r := range s.routes {
		if len(r.seq) > 0 {
			used = append(used, v)
		}
	}
	v := used[rng.Intn(len(used))]
	var out []int64
	for _, i := range pool {
		if s.vehicleOf[i] == v {
			out = append(out, i)
		}
	}
	return out
}

// removeIndices takes the given indices out of their routes. Routes left with
// coupled indices only are emptied unless their vehicle is required. Indices
// whose removal would break their route stay in place and are not returned.
func removeIndices(p *plan, s *solution, picked []int64) []int64 {
	drop := make(map[int64]bool, len(picked))
	for _, i := range picked {
		drop[i] = true
	}
	byVehicle := make(map[int]bool)
	var vehicles []int
	for _, i := range picked {
		v := s.vehicleOf[i]
		if v >= 0 && !byVehicle[v] {
			byVehicle[v] = true
			vehicles = append(vehicles, v)
		}
	}
	sort.Ints(vehicles)
	var removed []int64
	for _, v := range vehicles {
		var seq []int64
		free := 0
		for _, i := range s.routes[v].seq {
			if drop[i] {
				continue
			}
			seq = append(seq, i)
			if !p.isCoupled(i) {
				free++
			}
		}
		if free == 0 && !p.required[v] {
			seq = nil
		}
		old := s.routes[v].seq
		if !s.setRoute(p, v, seq) {
			continue
		}
		for _, i := range old {
			if drop[i] {
				removed = append(removed, i)
			}
		}
	}
	return removed
}

// insertion is the cheapest way found to add an index to one route.
type insertion struct {
	ok    bool
	pos   int
	delta int64
}

type inserter struct {
	p       *plan
	s       *solution
	pending []int64
	cache   map[int64][]insertion
	buf     []int64
}

func newInserter(p *plan, s *solution) *inserter {
	in := &inserter{p: p, s: s, cache: make(map[int64][]insertion)}
	for i := 0; i < p.size; i++ {
		idx := int64(i)
		if s.vehicleOf[i] >= 0 || p.m.IsStart(idx) || p.m.IsEnd(idx) || p.isCoupled(idx) {
			continue
		}
		in.pending = append(in.pending, idx)
	}
	for _, i := range in.pending {
		in.refresh(i, -1)
	}
	return in
}

// baseRoute is the sequence an index is inserted into. An unused vehicle
// starts from its coupled indices.
func (in *inserter) baseRoute(v int) []int64 {
	if seq := in.s.routes[v].seq; len(seq) > 0 {
		return seq
	}
	return in.p.m.coupled[v]
}

func (in *inserter) best(i int64, v int) insertion {
	p := in.p
	if !p.allowed[i][v] {
		return insertion{}
	}
	base := in.baseRoute(v)
	current := in.s.routes[v].cost
	bestIns := insertion{}
	for pos := 0; pos <= len(base); pos++ {
		in.buf = append(in.buf[:0], base[:pos]...)
		in.buf = append(in.buf, i)
		in.buf = append(in.buf, base[pos:]...)
		c, ok := p.evaluate(v, in.buf, nil)
		if !ok {
			continue
		}
		d := c - current
		if !bestIns.ok || d < bestIns.delta {
			bestIns = insertion{ok: true, pos: pos, delta: d}
		}
	}
	return bestIns
}

// refresh recomputes the cache of i for vehicle v, or for all vehicles when v < 0.
func (in *inserter) refresh(i int64, v int) {
	row, ok := in.cache[i]
	if !ok {
		row = make([]insertion, in.p.vehicles)
		in.cache[i] = row
	}
	if v >= 0 {
		row[v] = in.best(i, v)
		return
	}
	for w := range row {
		row[w] = in.best(i, w)
	}
}

// worthwhile reports whether inserting at the given delta beats leaving i unperformed.
func (in *inserter) worthwhile(i int64, delta int64) bool {
	if in.p.mandatory[i] {
		return true
	}
	return delta < in.p.penaltyOf(i)
}

func (in *inserter) commit(i int64, v int, ins insertion) bool {
	seq := insertAt(in.baseRoute(v), ins.pos, i)
	if !in.s.setRoute(in.p, v, seq) {
		return false
	}
	rest := in.pending[:0]
	for _, j := range in.pending {
		if j == i || !in.p.disjunctionFree(in.s, j) {
			delete(in.cache, j)
			continue
		}
		rest = append(rest, j)
	}
	in.pending = rest
	for _, j := range in.pending {
		in.refresh(j, v)
	}
	return true
}

func (in *inserter) run(op repairOp) {
	for len(in.pending) > 0 {
		var (
			bestI   int64 = -1
			bestV         = -1
			bestIns insertion
			bestKey = math.Inf(-1)
		)
		for _, i := range in.pending {
			row := in.cache[i]
			first, second := -1, -1
			for v, ins := range row {
				if !ins.ok {
					continue
				}
				switch {
				case first < 0 || ins.delta < row[first].delta:
					second, first = first, v
				case second < 0 || ins.delta < row[second].delta:
					second = v
				}
			}
			if first < 0 || !in.worthwhile(i, row[first].delta) {
				continue
			}
			var key float64
			switch op {
			case repairRegret:
				if second < 0 {
					key = math.MaxFloat64 / 2
				} else {
					key = float64(row[second].delta - row[first].delta)
				}
				key -= float64(row[first].delta) * 1e-9
			default:
				key = -float64(row[first].delta)
			}
			if bestI < 0 || key > bestKey {
				bestI, bestV, bestIns, bestKey = i, first, row[first], key
			}
		}
		if bestI < 0 {
			return
		}
		if !in.commit(bestI, bestV, bestIns) {
			in.cache[bestI][bestV] = insertion{}
		}
	}
}

// complete reports whether every mandatory index is performed and every
// required vehicle is used.
func complete(p *plan, s *solution) bool {
	for i, m := range p.mandatory {
		if m && s.vehicleOf[i] < 0 {
			return false
		}
	}
	for v, r := range p.required {
		if r && len(s.routes[v].seq) == 0 {
			return false
		}
	}
	return true
}

// seedRequired puts the coupled indices of required vehicles on their routes.
func seedRequired(p *plan, s *solution) bool {
	for v, r := range p.required {
		if r && len(s.routes[v].seq) == 0 {
			if !s.setRoute(p, v, append([]int64(nil), p.m.coupled[v]...)) {
				return false
			}
		}
	}
	return true
}

// twoOpt reverses segments of a route free of coupled indices while it improves the cost.
func twoOpt(p *plan, s *solution, v int) {
	improved := true
	for improved {
		improved = false
		seq := s.routes[v].seq
		for a := 0; a < len(seq)-1 && !improved; a++ {
			for b := a + 1; b < len(seq); b++ {
				if p.isCoupled(seq[b]) {
					break
				}
				if p.isCoupled(seq[a]) {
					break
				}
				cand := append([]int64(nil), seq...)
				for l, r := a, b; l < r; l, r = l+1, r-1 {
					cand[l], cand[r] = cand[r], cand[l]
				}
				c, ok := p.evaluate(v, cand, nil)
				if ok && c < s.routes[v].cost {
					s.setRoute(p, v, cand)
					improved = true
					break
				}
			}
		}
	}
}

// selectOp draws an operator with probability proportional to its weight.
func selectOp(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}
