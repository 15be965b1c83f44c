package intervals

import (
	"fmt"

	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

// Name identifies the encoding in configuration.
const Name = "intervals"

// Encoding is the intervals variant of encoding.Encoding.
type Encoding struct {
	nodes  *NodeSpace
	matrix *Matrix
}

var _ encoding.Encoding = (*Encoding)(nil)

// New builds the node space and matrix for the vehicle pool.
func New(p model.ProblemModel, vm *vehicles.Manager) (*Encoding, error) {
	nodes, err := NewNodeSpace(p, vm)
	if err != nil {
		return nil, err
	}
	return &Encoding{nodes: nodes, matrix: NewMatrix(nodes, vm.MaxVehicleCapacity())}, nil
}

func (e *Encoding) Name() string { return Name }
func (e *Encoding) Nodes() encoding.NodeSpace { return e.nodes }
func (e *Encoding) Matrix() encoding.DimensionMatrix { return e.matrix }

// AddRest holds the vehicle at each day-boundary depot for MinBreakDuration.
// The boundary arrival is kept inside the day it closes and all rests of the
// vehicle share a unary resource.
func (e *Encoding) AddRest(c encoding.RestContext, v model.IndexedVehicle) []int {
	solver := c.Routing.Solver()
	var (
		nodes     []int
		intervals []*routing.IntervalVar
		demands   []int64
	)
	for day := v.StartDay; day < v.EndDay; day++ {
		node := e.nodes.EndDepotForDay(v.Index, day)
		cumul := c.Time.CumulVar(c.Index(node))
		cumul.SetRange(encoding.DayWindow(day))
		intervals = append(intervals, solver.MakeFixedDurationIntervalVar(cumul, model.MinBreakDuration, fmt.Sprintf("rest_%d_%d", v.Index, day)))
		demands = append(demands, 1)
		nodes = append(nodes, node)
	}
	if len(intervals) > 0 {
		solver.Add(solver.MakeCumulative(intervals, demands, 1, fmt.Sprintf("rests_%d", v.Index)))
	}
	return nodes
}
