package routing

type route struct {
	seq  []int64
	cost int64
	rec  routeRecord
}

// indices returns the full route, terminals included.
func (r *route) indices(m *Model, v int) []int64 {
	out := make([]int64, 0, len(r.seq)+2)
	out = append(out, m.Start(v))
	out = append(out, r.seq...)
	return append(out, m.End(v))
}

// solution is a working set of routes, one per vehicle.
type solution struct {
	routes    []route
	vehicleOf []int
}

func newSolution(p *plan) *solution {
	s := &solution{
		routes:    make([]route, p.vehicles),
		vehicleOf: make([]int, p.size),
	}
	for i := range s.vehicleOf {
		s.vehicleOf[i] = -1
	}
	for v := 0; v < p.vehicles; v++ {
		s.vehicleOf[p.m.Start(v)] = v
		s.vehicleOf[p.m.End(v)] = v
		p.evaluate(v, nil, &s.routes[v].rec)
	}
	return s
}

func (s *solution) clone() *solution {
	c := &solution{
		routes:    make([]route, len(s.routes)),
		vehicleOf: append([]int(nil), s.vehicleOf...),
	}
	for v, r := range s.routes {
		c.routes[v] = route{seq: append([]int64(nil), r.seq...), cost: r.cost, rec: r.rec}
	}
	return c
}

// routeCost is the sum of fixed and arc costs of all routes.
func (s *solution) routeCost() int64 {
	var total int64
	for _, r := range s.routes {
		total = capAdd(total, r.cost)
	}
	return total
}

func (s *solution) objective(p *plan) int64 {
	return capAdd(s.routeCost(), p.unperformedPenalty(s))
}

// setRoute replaces the route of v and re-evaluates it. It returns false and
// leaves the solution untouched when the new route is infeasible.
func (s *solution) setRoute(p *plan, v int, seq []int64) bool {
	var rec routeRecord
	cost, ok := p.evaluate(v, seq, &rec)
	if !ok {
		return false
	}
	for _, i := range s.routes[v].seq {
		s.vehicleOf[i] = -1
	}
	for _, i := range seq {
		s.vehicleOf[i] = v
	}
	s.routes[v] = route{seq: seq, cost: cost, rec: rec}
	return true
}

// performedCount returns the number of performed non-terminal indices.
func (s *solution) performedCount() int {
	n := 0
	for _, r := range s.routes {
		n += len(r.seq)
	}
	return n
}

func insertAt(seq []int64, pos int, i int64) []int64 {
	out := make([]int64, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, i)
	return append(out, seq[pos:]...)
}
