package multinode

import (
	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/model"
)

// Matrix computes arc transits over a multinode space. Forbidden arcs get
// encoding.Unreachable.
type Matrix struct {
	nodes  *NodeSpace
	maxCap int64
}

var _ encoding.DimensionMatrix = (*Matrix)(nil)

// NewMatrix returns the matrix of the node space.
func NewMatrix(nodes *NodeSpace, maxCapacity int64) *Matrix {
	return &Matrix{nodes: nodes, maxCap: maxCapacity}
}

// Distance forbids leaving an end node for anything but its paired start node
// and jumping between visits of different days.
func (m *Matrix) Distance(from, to int) int64 {
	n := m.nodes
	if n.IsEndNode(from) && n.StartNodeForEndNode(from) != to {
		return encoding.Unreachable
	}
	if !n.IsDepot(from) && !n.IsDepot(to) && !n.IsFromTheSameDay(from, to) {
		return encoding.Unreachable
	}
	return n.Point(from).DistanceTo(n.Point(to))
}

// Time is the driving time plus the service time spent at from.
func (m *Matrix) Time(from, to int) int64 {
	t := m.Distance(from, to)
	if !m.nodes.IsDepot(from) {
		t += m.nodes.Visit(from).ServiceTime
	}
	return t
}

// Demand is the load picked at a visit, or a full unload at a depot.
func (m *Matrix) Demand(at int) int64 {
	if m.nodes.IsDepot(at) {
		return -m.maxCap
	}
	return m.nodes.Visit(at).Demand
}

// Duration follows Time except on arcs entering a start node, where the work span is reset.
func (m *Matrix) Duration(from, to int) int64 {
	if m.nodes.IsStartNode(to) {
		return -model.MaxWorkDuration
	}
	return m.Time(from, to)
}
