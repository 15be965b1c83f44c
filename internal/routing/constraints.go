package routing

import "fmt"

// Constraint is a side constraint posted on a Model.
type Constraint interface {
	post(m *Model) error
}

// Solver builds interval variables and side constraints of a routing model.
type Solver struct {
	model       *Model
	intervals   []*IntervalVar
	cumulatives []*cumulative
	links       []slackLink
	gaps        []gap
}

// Add posts c on the model. Constraints mixing unsupported variable kinds are
// programming errors and panic.
func (s *Solver) Add(c Constraint) {
	if err := c.post(s.model); err != nil {
		panic(err)
	}
}

// MakeFixedDurationIntervalVar anchors an interval of the given duration on a
// cumul variable. The vehicle stays at the node of that variable until the
// interval ends.
func (s *Solver) MakeFixedDurationIntervalVar(start *IntVar, duration int64, name string) *IntervalVar {
	if start == nil || start.kind != kindCumul {
		panic(fmt.Sprintf("routing: interval %q must start on a cumul variable", name))
	}
	iv := &IntervalVar{start: start, duration: duration, name: name}
	s.intervals = append(s.intervals, iv)
	return iv
}

type cumulative struct {
	intervals []*IntervalVar
	demands   []int64
	capacity  int64
	name      string
}

func (c *cumulative) post(m *Model) error {
	if len(c.intervals) != len(c.demands) {
		return fmt.Errorf("routing: cumulative %q has %d intervals and %d demands", c.name, len(c.intervals), len(c.demands))
	}
	m.solver.cumulatives = append(m.solver.cumulatives, c)
	return nil
}

// MakeCumulative limits the total demand of overlapping performed intervals to capacity.
func (s *Solver) MakeCumulative(intervals []*IntervalVar, demands []int64, capacity int64, name string) Constraint {
	return &cumulative{intervals: intervals, demands: demands, capacity: capacity, name: name}
}

type slackLink struct {
	index int64
	a, b  int
}

type coupling struct {
	index   int64
	vehicle int
}

type equality struct{ a, b *IntVar }

func (e equality) post(m *Model) error {
	a, b := e.a, e.b
	if a.kind == kindActiveVehicle && b.kind == kindActive {
		a, b = b, a
	}
	switch {
	case a.kind == kindSlack && b.kind == kindSlack:
		if a.index != b.index {
			return fmt.Errorf("routing: slack equality across indices %d and %d", a.index, b.index)
		}
		if a.dim != b.dim {
			m.solver.links = append(m.solver.links, slackLink{index: a.index, a: a.dim.id, b: b.dim.id})
		}
		return nil
	case a.kind == kindActive && b.kind == kindActiveVehicle:
		return coupling{index: a.index, vehicle: int(b.index)}.apply(m)
	default:
		return fmt.Errorf("routing: unsupported equality between variable kinds %d and %d", a.kind, b.kind)
	}
}

func (c coupling) apply(m *Model) error {
	if m.IsStart(c.index) || m.IsEnd(c.index) {
		return fmt.Errorf("routing: cannot couple vehicle terminal %d", c.index)
	}
	if owner := m.coupledOwner[c.index]; owner >= 0 {
		if owner == c.vehicle {
			return nil
		}
		return fmt.Errorf("routing: index %d already follows vehicle %d", c.index, owner)
	}
	m.coupledOwner[c.index] = c.vehicle
	m.coupled[c.vehicle] = append(m.coupled[c.vehicle], c.index)
	m.vehicles[c.index].SetValues([]int64{int64(c.vehicle)})
	return nil
}

// MakeEquality supports two forms: slack variables of two dimensions at the
// same index, and ActiveVar(index) == ActiveVehicleVar(vehicle), which makes
// the index part of the vehicle route exactly when the vehicle is used.
// Coupled indices keep the order in which they were coupled.
func (s *Solver) MakeEquality(a, b *IntVar) Constraint { return equality{a: a, b: b} }

type gap struct {
	dim        int
	later      int64
	earlier    int64
	offset     int64
	conditions []int64
}

func (g gap) post(m *Model) error {
	m.solver.gaps = append(m.solver.gaps, g)
	return nil
}

// MakeGreaterOrEqualIfActive enforces later >= earlier + offset on two cumul
// variables of the same dimension whenever every condition variable is 1.
// Conditions must be ActiveVar variables.
func (s *Solver) MakeGreaterOrEqualIfActive(later, earlier *IntVar, offset int64, conditions ...*IntVar) Constraint {
	if later.kind != kindCumul || earlier.kind != kindCumul || later.dim != earlier.dim {
		panic("routing: conditional inequality needs two cumul variables of one dimension")
	}
	g := gap{dim: later.dim.id, later: later.index, earlier: earlier.index, offset: offset}
	for _, c := range conditions {
		if c.kind != kindActive {
			panic("routing: conditional inequality conditions must be active variables")
		}
		g.conditions = append(g.conditions, c.index)
	}
	return g
}
