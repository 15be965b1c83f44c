// Package intervals encodes the multi-day problem with one depot node per
// vehicle and day boundary. The node ending day d is the node starting day
// d+1, and the rest is a fixed-duration interval anchored on its arrival time.
package intervals

import (
	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
)

// NodeSpace allocates, for each vehicle, one depot node per day in [StartDay, EndDay+1].
type NodeSpace struct {
	encoding.VisitTable
	depotPoint []model.Point
	depotOwner []int
	firstNode  []int
	startDay   []int
	endDay     []int
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
		for d := v.StartDay; d <= v.EndDay+1; d++ {
			n.depotPoint = append(n.depotPoint, depots[i])
			n.depotOwner = append(n.depotOwner, v.Index)
			next++
		}
	}
	return n, nil
}

// DepotNodeCount returns the number of depot slots.
func (n *NodeSpace) DepotNodeCount() int { return len(n.depotPoint) }

// NodeCount returns visits plus depot slots.
func (n *NodeSpace) NodeCount() int { return n.VisitCount() + n.DepotNodeCount() }

// IsDepot reports whether node is a depot slot.
func (n *NodeSpace) IsDepot(node int) bool { return node >= n.VisitCount() }

// Point returns the location of any node.
func (n *NodeSpace) Point(node int) model.Point {
	if n.IsDepot(node) {
		return n.depotPoint[node-n.VisitCount()]
	}
	return n.VisitPoint(node)
}

// DepotVehicle returns the owner of a depot node.
func (n *NodeSpace) DepotVehicle(node int) int {
	if !n.IsDepot(node) {
		return -1
	}
	return n.depotOwner[node-n.VisitCount()]
}

func (n *NodeSpace) node(vehicle, day int) int {
	if day < n.startDay[vehicle] || day > n.endDay[vehicle]+1 {
		return -1
	}
	return n.firstNode[vehicle] + day - n.startDay[vehicle]
}

// StartDepotForDay is the depot node the vehicle leaves on day.
func (n *NodeSpace) StartDepotForDay(vehicle, day int) int { return n.node(vehicle, day) }

// EndDepotForDay is the depot node the vehicle returns to after day. It is the
// start node of day+1.
func (n *NodeSpace) EndDepotForDay(vehicle, day int) int { return n.node(vehicle, day+1) }

// VehicleStart is the first node of the vehicle route.
func (n *NodeSpace) VehicleStart(vehicle int) int {
	return n.StartDepotForDay(vehicle, n.startDay[vehicle])
}

// VehicleEnd is the last node of the vehicle route.
func (n *NodeSpace) VehicleEnd(vehicle int) int {
	return n.EndDepotForDay(vehicle, n.endDay[vehicle])
}
