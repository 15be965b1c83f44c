package routing

// Assignment is a solution read back through the model variables.
type Assignment struct {
	next      []int64
	vehicle   []int64
	cumul     [][]int64
	slack     [][]int64
	used      []bool
	objective int64
	stats     Stats
}

func newAssignment(p *plan, s *solution, objective int64, stats Stats) *Assignment {
	n, nd := p.size, len(p.dims)
	a := &Assignment{
		next:      make([]int64, n),
		vehicle:   make([]int64, n),
		cumul:     make([][]int64, nd),
		slack:     make([][]int64, nd),
		used:      make([]bool, p.vehicles),
		objective: objective,
		stats:     stats,
	}
	for d := range a.cumul {
		a.cumul[d] = make([]int64, n)
		a.slack[d] = make([]int64, n)
	}
	for i := range a.next {
		a.next[i] = int64(i)
		a.vehicle[i] = int64(s.vehicleOf[i])
	}
	for v := range s.routes {
		r := &s.routes[v]
		a.used[v] = len(r.seq) > 0
		idx := r.indices(p.m, v)
		for k, i := range idx {
			if k+1 < len(idx) {
				a.next[i] = idx[k+1]
			}
			for d := 0; d < nd; d++ {
				a.cumul[d][i] = r.rec.cumul[k][d]
				a.slack[d][i] = r.rec.slack[k][d]
			}
		}
	}
	return a
}

// Value returns the value of a model variable. Unperformed indices have
// themselves as successor and vehicle -1.
func (a *Assignment) Value(v *IntVar) int64 {
	switch v.kind {
	case kindNext:
		return a.next[v.index]
	case kindVehicle:
		return a.vehicle[v.index]
	case kindCumul:
		return a.cumul[v.dim.id][v.index]
	case kindSlack:
		return a.slack[v.dim.id][v.index]
	case kindActive:
		if a.vehicle[v.index] >= 0 {
			return 1
		}
		return 0
	case kindActiveVehicle:
		if a.used[v.index] {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Min and Max mirror Value; an assignment binds every variable.
func (a *Assignment) Min(v *IntVar) int64 { return a.Value(v) }
func (a *Assignment) Max(v *IntVar) int64 { return a.Value(v) }

// ObjectiveValue is the total route cost plus the penalties of skipped disjunctions.
func (a *Assignment) ObjectiveValue() int64 { return a.objective }

// Stats returns the search statistics.
func (a *Assignment) Stats() Stats { return a.stats }
