package multinode

import (
	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
)

// Name identifies the encoding in configuration.
const Name = "multinode"

// Encoding is the multinode variant of encoding.Encoding.
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

// AddRest keeps each end node inside the day it closes and the following
// start node at least MinBreakDuration later whenever both are performed.
func (e *Encoding) AddRest(c encoding.RestContext, v model.IndexedVehicle) []int {
	solver := c.Routing.Solver()
	var nodes []int
	for day := v.StartDay; day < v.EndDay; day++ {
		end := e.nodes.EndDepotForDay(v.Index, day)
		start := e.nodes.StartNodeForEndNode(end)
		endIdx, startIdx := c.Index(end), c.Index(start)

		endCumul := c.Time.CumulVar(endIdx)
		endCumul.SetRange(encoding.DayWindow(day))
		startCumul := c.Time.CumulVar(startIdx)
		next, _ := encoding.DayWindow(day + 1)
		startCumul.SetMin(next)

		solver.Add(solver.MakeGreaterOrEqualIfActive(startCumul, endCumul, model.MinBreakDuration,
			c.Routing.ActiveVar(endIdx), c.Routing.ActiveVar(startIdx)))
		nodes = append(nodes, end, start)
	}
	return nodes
}
