// Package multinode encodes the multi-day problem with two depot nodes per
// vehicle and working day: a start node and an end node. The end node of day d
// may only be followed by the start node of day d+1, which is kept at least
// MinBreakDuration after it.
package multinode

import (
	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
)

type depotSlot struct {
	point model.Point
	owner int
	day   int
	start bool
}

// NodeSpace allocates a (start, end) node pair per vehicle and active day.
type NodeSpace struct {
	encoding.VisitTable
	slots     []depotSlot
	firstNode []int
	startDay  []int
	endDay    []int
}

var _ encoding.NodeSpace = (*NodeSpace)(nil)

// NewNodeSpace builds the frozen node tables in one pass.
func NewNodeSpace(p model.ProblemModel, vm *vehicles.Manager) (*NodeSpace, error) {
	visits, err := encoding.NewVisitTable(p)
	if err != nil {
		return nil, err
	}
	vs := vm.Vehicles()
	depots, err := encoding.DepotPoints(p, vs)
	if err != nil {
		return nil, err
	}
	n := &NodeSpace{
		VisitTable: visits,
		firstNode:  make([]int, len(vs)),
		startDay:   make([]int, len(vs)),
		endDay:     make([]int, len(vs)),
	}
	next := visits.VisitCount()
	for i, v := range vs {
		n.firstNode[i] = next
		n.startDay[i] = v.StartDay
		n.endDay[i] = v.EndDay
		for d := v.StartDay; d <= v.EndDay; d++ {
			n.slots = append(n.slots,
				depotSlot{point: depots[i], owner: v.Index, day: d, start: true},
				depotSlot{point: depots[i], owner: v.Index, day: d, start: false},
			)
			next += 2
		}
	}
	return n, nil
}

// DepotNodeCount returns the number of depot slots.
func (n *NodeSpace) DepotNodeCount() int { return len(n.slots) }

// NodeCount returns visits plus depot slots.
func (n *NodeSpace) NodeCount() int { return n.VisitCount() + len(n.slots) }

// IsDepot reports whether node is a depot slot.
func (n *NodeSpace) IsDepot(node int) bool { return node >= n.VisitCount() }

func (n *NodeSpace) slot(node int) depotSlot { return n.slots[node-n.VisitCount()] }

// Point returns the location of any node.
func (n *NodeSpace) Point(node int) model.Point {
	if n.IsDepot(node) {
		return n.slot(node).point
	}
	return n.VisitPoint(node)
}

// DepotVehicle returns the owner of a depot node.
func (n *NodeSpace) DepotVehicle(node int) int {
	if !n.IsDepot(node) {
		return -1
	}
	return n.slot(node).owner
}

// IsStartNode reports whether node opens a working day.
func (n *NodeSpace) IsStartNode(node int) bool { return n.IsDepot(node) && n.slot(node).start }

// IsEndNode reports whether node closes a working day.
func (n *NodeSpace) IsEndNode(node int) bool { return n.IsDepot(node) && !n.slot(node).start }

// Day returns the day a node belongs to.
func (n *NodeSpace) Day(node int) int {
	if n.IsDepot(node) {
		return n.slot(node).day
	}
	return n.Visit(node).Day
}

// IsFromTheSameDay reports whether both nodes belong to the same day.
func (n *NodeSpace) IsFromTheSameDay(a, b int) bool { return n.Day(a) == n.Day(b) }

// StartNodeForEndNode returns the start node of the day following end, or -1
// when end closes the vehicle's last day.
func (n *NodeSpace) StartNodeForEndNode(end int) int {
	if !n.IsEndNode(end) {
		return -1
	}
	next := end + 1
	if next >= n.NodeCount() || n.slot(next).owner != n.slot(end).owner {
		return -1
	}
	return next
}

// StartDepotForDay returns the start node of the vehicle on day, or -1.
func (n *NodeSpace) StartDepotForDay(vehicle, day int) int {
	if day < n.startDay[vehicle] || day > n.endDay[vehicle] {
		return -1
	}
	return n.firstNode[vehicle] + 2*(day-n.startDay[vehicle])
}

// EndDepotForDay returns the end node of the vehicle on day, or -1.
func (n *NodeSpace) EndDepotForDay(vehicle, day int) int {
	s := n.StartDepotForDay(vehicle, day)
	if s < 0 {
		return -1
	}
	return s + 1
}

// VehicleStart is the start node of the first active day.
func (n *NodeSpace) VehicleStart(vehicle int) int {
	return n.StartDepotForDay(vehicle, n.startDay[vehicle])
}

// VehicleEnd is the end node of the last active day.
func (n *NodeSpace) VehicleEnd(vehicle int) int {
	return n.EndDepotForDay(vehicle, n.endDay[vehicle])
}
