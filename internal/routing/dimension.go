package routing

// Dimension is a quantity accumulated along routes. For consecutive indices i
// and j of a route: cumul(j) = cumul(i) + transit(i, j) + slack(i), with
// 0 <= slack(i) <= slackMax and 0 <= cumul <= capacity of the vehicle.
type Dimension struct {
	model        *Model
	id           int
	name         string
	evaluators   []int
	slackMax     int64
	capacities   []int64
	fixStartZero bool
	cumuls       []*IntVar
	slacks       []*IntVar
}

func newDimension(m *Model, id int, name string, evaluators []int, slackMax int64, capacities []int64, fixStartZero bool) *Dimension {
	var maxCap int64
	for _, c := range capacities {
		if c > maxCap {
			maxCap = c
		}
	}
	d := &Dimension{
		model:        m,
		id:           id,
		name:         name,
		evaluators:   evaluators,
		slackMax:     slackMax,
		capacities:   capacities,
		fixStartZero: fixStartZero,
		cumuls:       make([]*IntVar, m.manager.Size()),
		slacks:       make([]*IntVar, m.manager.Size()),
	}
	for i := range d.cumuls {
		d.cumuls[i] = newIntVar(kindCumul, d, int64(i), 0, maxCap)
		d.slacks[i] = newIntVar(kindSlack, d, int64(i), 0, slackMax)
	}
	return d
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// CumulVar returns the cumulative variable at index.
func (d *Dimension) CumulVar(index int64) *IntVar { return d.cumuls[index] }

// SlackVar returns the slack variable at index.
func (d *Dimension) SlackVar(index int64) *IntVar { return d.slacks[index] }

// SlackMax returns the maximum slack at any index.
func (d *Dimension) SlackMax() int64 { return d.slackMax }

// Capacity returns the cumul upper bound on routes of vehicle.
func (d *Dimension) Capacity(vehicle int) int64 { return d.capacities[vehicle] }

// Transit evaluates the transit of vehicle on arc (from, to).
func (d *Dimension) Transit(vehicle int, from, to int64) int64 {
	return d.model.transits[d.evaluators[vehicle]](from, to)
}
