package routing

import "math"

// routeRecord holds the cumul and slack values of every dimension along a
// route, start and end included, indexed [position][dimension].
type routeRecord struct {
	cumul [][]int64
	slack [][]int64
}

// plan is the frozen, solve-time view of a Model. Bounds set on variables are
// copied once so route evaluation only reads flat arrays.
type plan struct {
	m        *Model
	size     int
	vehicles int
	dims     []*Dimension

	cumMin, cumMax     [][]int64
	slackMin, slackMax [][]int64
	links              [][][]int
	gapsAt             [][]gap
	allowed            [][]bool
	mandatory          []bool
	coupledOwner       []int
	required           []bool

	cumulatives []*cumulative
	gaps        []gap
	intervalsAt [][]*IntervalVar

	// scratch
	stamp int
	mark  []int
	posOf []int
	trail []int64
	need  []int64
	base  []int64
}

func newPlan(m *Model) *plan {
	n, nv, nd := m.Size(), m.Vehicles(), len(m.dims)
	p := &plan{
		m:            m,
		size:         n,
		vehicles:     nv,
		dims:         m.dims,
		cumMin:       make([][]int64, nd),
		cumMax:       make([][]int64, nd),
		slackMin:     make([][]int64, nd),
		slackMax:     make([][]int64, nd),
		links:        make([][][]int, n),
		gapsAt:       make([][]gap, n),
		allowed:      make([][]bool, n),
		mandatory:    make([]bool, n),
		coupledOwner: m.coupledOwner,
		required:     make([]bool, nv),
		cumulatives:  m.solver.cumulatives,
		gaps:         m.solver.gaps,
		intervalsAt:  make([][]*IntervalVar, n),
		mark:         make([]int, n),
		posOf:        make([]int, n),
		need:         make([]int64, nd),
		base:         make([]int64, nd),
	}
	for d, dim := range m.dims {
		p.cumMin[d] = make([]int64, n)
		p.cumMax[d] = make([]int64, n)
		p.slackMin[d] = make([]int64, n)
		p.slackMax[d] = make([]int64, n)
		for i := 0; i < n; i++ {
			p.cumMin[d][i] = max(dim.cumuls[i].Min(), 0)
			p.cumMax[d][i] = dim.cumuls[i].Max()
			p.slackMin[d][i] = max(dim.slacks[i].Min(), 0)
			p.slackMax[d][i] = dim.slacks[i].Max()
		}
	}
	for _, iv := range m.solver.intervals {
		d, i := iv.start.dim.id, iv.start.index
		p.slackMin[d][i] = max(p.slackMin[d][i], iv.duration)
		p.intervalsAt[i] = append(p.intervalsAt[i], iv)
	}
	p.buildLinks(m.solver.links, nd)
	for _, g := range m.solver.gaps {
		p.gapsAt[g.later] = append(p.gapsAt[g.later], g)
	}
	for i := 0; i < n; i++ {
		p.allowed[i] = make([]bool, nv)
		for v := 0; v < nv; v++ {
			p.allowed[i][v] = m.vehicles[i].Contains(int64(v))
		}
		idx := int64(i)
		p.mandatory[i] = !m.IsStart(idx) && !m.IsEnd(idx) && m.disjunctionOf[i] < 0
	}
	for v, nodes := range m.coupled {
		for _, i := range nodes {
			if p.mandatory[i] {
				p.required[v] = true
			}
		}
	}
	return p
}

// buildLinks groups, per index, the dimensions sharing one slack variable.
func (p *plan) buildLinks(links []slackLink, nd int) {
	byIndex := make(map[int64][]slackLink)
	var order []int64
	for _, l := range links {
		if _, ok := byIndex[l.index]; !ok {
			order = append(order, l.index)
		}
		byIndex[l.index] = append(byIndex[l.index], l)
	}
	for _, idx := range order {
		parent := make([]int, nd)
		for d := range parent {
			parent[d] = d
		}
		var find func(int) int
		find = func(x int) int {
			for parent[x] != x {
				parent[x] = parent[parent[x]]
				x = parent[x]
			}
			return x
		}
		for _, l := range byIndex[idx] {
			parent[find(l.a)] = find(l.b)
		}
		groups := make(map[int][]int)
		var roots []int
		for d := 0; d < nd; d++ {
			r := find(d)
			if _, ok := groups[r]; !ok {
				roots = append(roots, r)
			}
			groups[r] = append(groups[r], d)
		}
		for _, r := range roots {
			if len(groups[r]) > 1 {
				p.links[idx] = append(p.links[idx], groups[r])
			}
		}
	}
}

func (p *plan) upper(d, v int, index int64) int64 {
	return min(p.dims[d].capacities[v], p.cumMax[d][index])
}

func (p *plan) arcCost(v int, from, to int64) int64 {
	e := p.m.arcCost[v]
	if e < 0 {
		return 0
	}
	return p.m.transits[e](from, to)
}

// evaluate schedules the route of vehicle v over seq (start and end excluded)
// with the smallest slack at every step and returns its cost. Empty routes
// cost nothing and are always feasible.
func (p *plan) evaluate(v int, seq []int64, rec *routeRecord) (int64, bool) {
	if len(seq) == 0 && rec == nil {
		return 0, true
	}
	nd := len(p.dims)
	start, end := p.m.Start(v), p.m.End(v)
	length := len(seq) + 2
	if cap(p.trail) < length*nd {
		p.trail = make([]int64, length*nd)
	}
	trail := p.trail[:length*nd]

	p.stamp++
	at := func(k int) int64 {
		switch {
		case k == 0:
			return start
		case k == length-1:
			return end
		default:
			return seq[k-1]
		}
	}
	for k := 0; k < length; k++ {
		i := at(k)
		p.mark[i] = p.stamp
		p.posOf[i] = k
	}

	feasible := true
	for d, dim := range p.dims {
		lo := p.cumMin[d][start]
		if dim.fixStartZero {
			if lo > 0 {
				feasible = false
			}
			lo = 0
		}
		if lo > p.upper(d, v, start) {
			feasible = false
		}
		trail[d] = lo
	}

	var cost int64
	var slacks []int64
	if rec != nil {
		slacks = make([]int64, length*nd)
	}
	for k := 1; k < length && (feasible || rec != nil); k++ {
		prev, next := at(k-1), at(k)
		if !p.allowed[next][v] {
			feasible = false
		}
		cur := trail[(k-1)*nd : k*nd]
		for d, dim := range p.dims {
			p.base[d] = capAdd(cur[d], dim.Transit(v, prev, next))
			lo := p.cumMin[d][next]
			for _, g := range p.gapsAt[next] {
				if g.dim == d && p.onRoute(g.earlier) && p.posOf[g.earlier] < k && p.conditionsOnRoute(g) {
					lo = max(lo, capAdd(trail[p.posOf[g.earlier]*nd+d], g.offset))
				}
			}
			p.need[d] = max(0, lo-p.base[d], p.slackMin[d][prev])
		}
		for _, group := range p.links[prev] {
			var s int64
			for _, d := range group {
				s = max(s, p.need[d])
			}
			for _, d := range group {
				p.need[d] = s
			}
		}
		for d := range p.dims {
			if p.need[d] > p.slackMax[d][prev] {
				feasible = false
			}
			val := capAdd(p.base[d], p.need[d])
			if val > p.upper(d, v, next) || val < 0 {
				feasible = false
			}
			trail[k*nd+d] = val
			if slacks != nil {
				slacks[(k-1)*nd+d] = p.need[d]
			}
		}
		cost = capAdd(cost, p.arcCost(v, prev, next))
	}
	if feasible {
		feasible = p.backwardGapsHold(length, at, trail, nd)
	}
	if len(seq) > 0 {
		cost = capAdd(cost, p.m.fixedCost[v])
	}
	if rec != nil {
		rec.cumul = make([][]int64, length)
		rec.slack = make([][]int64, length)
		for k := 0; k < length; k++ {
			rec.cumul[k] = append([]int64(nil), trail[k*nd:(k+1)*nd]...)
			rec.slack[k] = slacks[k*nd : (k+1)*nd]
		}
	}
	if len(seq) == 0 {
		return 0, true
	}
	return cost, feasible
}

func (p *plan) onRoute(i int64) bool { return p.mark[i] == p.stamp }

func (p *plan) conditionsOnRoute(g gap) bool {
	for _, c := range g.conditions {
		if !p.onRoute(c) {
			return false
		}
	}
	return true
}

// backwardGapsHold checks gaps whose earlier index comes after the later one on the route.
func (p *plan) backwardGapsHold(length int, at func(int) int64, trail []int64, nd int) bool {
	for k := 0; k < length; k++ {
		for _, g := range p.gapsAt[at(k)] {
			if !p.onRoute(g.earlier) || p.posOf[g.earlier] < k || !p.conditionsOnRoute(g) {
				continue
			}
			if trail[k*nd+g.dim] < capAdd(trail[p.posOf[g.earlier]*nd+g.dim], g.offset) {
				return false
			}
		}
	}
	return true
}

// globalHolds verifies the constraints spanning several routes: cumulative
// resources and conditional gaps between indices of different routes.
func (p *plan) globalHolds(s *solution) bool {
	if len(p.cumulatives) == 0 && len(p.gaps) == 0 {
		return true
	}
	nd := len(p.dims)
	values := make([]int64, p.size*nd)
	active := make([]bool, p.size)
	for v := range s.routes {
		r := &s.routes[v]
		if len(r.seq) == 0 {
			continue
		}
		for k, i := range r.indices(p.m, v) {
			active[i] = true
			copy(values[int(i)*nd:], r.rec.cumul[k])
		}
	}
	for _, g := range p.gaps {
		ok := active[g.later] && active[g.earlier]
		for _, c := range g.conditions {
			ok = ok && active[c]
		}
		if ok && values[int(g.later)*nd+g.dim] < capAdd(values[int(g.earlier)*nd+g.dim], g.offset) {
			return false
		}
	}
	for _, c := range p.cumulatives {
		if !cumulativeHolds(c, active, values, nd) {
			return false
		}
	}
	return true
}

type usageEvent struct {
	at    int64
	delta int64
}

func cumulativeHolds(c *cumulative, active []bool, values []int64, nd int) bool {
	var events []usageEvent
	for k, iv := range c.intervals {
		i := iv.start.index
		if !active[i] || c.demands[k] == 0 {
			continue
		}
		s := values[int(i)*nd+iv.start.dim.id]
		events = append(events, usageEvent{at: s, delta: c.demands[k]}, usageEvent{at: capAdd(s, iv.duration), delta: -c.demands[k]})
	}
	sortUsageEvents(events)
	var load int64
	for _, e := range events {
		load += e.delta
		if load > c.capacity {
			return false
		}
	}
	return true
}

// sortUsageEvents orders by time with releases before acquisitions at equal times.
func sortUsageEvents(events []usageEvent) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && usageLess(events[j], events[j-1]); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

func usageLess(a, b usageEvent) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return a.delta < b.delta
}

// unperformedPenalty sums the penalties of disjunctions with no performed index.
func (p *plan) unperformedPenalty(s *solution) int64 {
	var total int64
	for _, d := range p.m.disjunctions {
		performed := false
		for _, i := range d.indices {
			if s.vehicleOf[i] >= 0 {
				performed = true
				break
			}
		}
		if !performed {
			total = capAdd(total, d.penalty)
		}
	}
	return total
}

// disjunctionFree reports whether index may be performed without breaking
// the at-most-one rule of its disjunction.
func (p *plan) disjunctionFree(s *solution, i int64) bool {
	d := p.m.disjunctionOf[i]
	if d < 0 {
		return true
	}
	for _, j := range p.m.disjunctions[d].indices {
		if j != i && s.vehicleOf[j] >= 0 {
			return false
		}
	}
	return true
}

func (p *plan) penaltyOf(i int64) int64 {
	d := p.m.disjunctionOf[i]
	if d < 0 {
		return math.MaxInt64
	}
	return p.m.disjunctions[d].penalty
}

func (p *plan) isCoupled(i int64) bool { return p.coupledOwner[i] >= 0 }
