// Package constraint assembles the routing model of a multi-day fleet problem
// from an encoding: dimensions, visit windows, rests and optional nodes.
package constraint

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetsizer/core/encoding"
	"github.com/kilianp07/fleetsizer/core/encoding/intervals"
	"github.com/kilianp07/fleetsizer/core/encoding/multinode"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

// Dimension names.
const (
	TimeDimension        = "Time"
	DurationDimension    = "Duration"
	DemandDimension      = "Demand"
	DistanceDimension    = "Distance"
	VehicleCostDimension = "VehicleCost"
)

// NewEncoding builds the named encoding ("intervals" or "multinode").
func NewEncoding(name string, p model.ProblemModel, vm *vehicles.Manager) (encoding.Encoding, error) {
	switch name {
	case intervals.Name, "":
		return intervals.New(p, vm)
	case multinode.Name:
		return multinode.New(p, vm)
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// Model is a routing model built over one encoding of a problem.
type Model struct {
	Problem  model.ProblemModel
	Vehicles *vehicles.Manager
	Encoding encoding.Encoding
	Manager  *routing.IndexManager
	Routing  *routing.Model

	restNodes []int
}

// Build creates the routing model. It never fails on infeasibility; an
// unsatisfiable problem yields a nil assignment at solve time.
func Build(p model.ProblemModel, vm *vehicles.Manager, enc encoding.Encoding) (*Model, error) {
	nodes, matrix := enc.Nodes(), enc.Matrix()
	vs := vm.Vehicles()
	if len(vs) == 0 {
		return nil, fmt.Errorf("build routing model: no vehicles")
	}
	starts := make([]int, len(vs))
	ends := make([]int, len(vs))
	for i := range vs {
		starts[i] = nodes.VehicleStart(i)
		ends[i] = nodes.VehicleEnd(i)
	}
	mgr, err := routing.NewIndexManager(nodes.NodeCount(), len(vs), starts, ends)
	if err != nil {
		return nil, fmt.Errorf("build routing model: %w", err)
	}
	m := &Model{Problem: p, Vehicles: vm, Encoding: enc, Manager: mgr, Routing: routing.NewModel(mgr)}
	m.addDimensions(matrix)
	m.addVisitWindows(nodes)
	m.addRests()
	m.addOptionalNodes(nodes)
	return m, nil
}

func (m *Model) addDimensions(matrix encoding.DimensionMatrix) {
	rm, node := m.Routing, m.Manager.IndexToNode
	vs := m.Vehicles.Vehicles()

	timeCb := rm.RegisterTransitCallback(func(from, to int64) int64 { return matrix.Time(node(from), node(to)) })
	durationCb := rm.RegisterTransitCallback(func(from, to int64) int64 { return matrix.Duration(node(from), node(to)) })
	distanceCb := rm.RegisterTransitCallback(func(from, to int64) int64 { return matrix.Distance(node(from), node(to)) })
	demandCb := rm.RegisterUnaryTransitCallback(func(i int64) int64 { return matrix.Demand(node(i)) })

	costCbs := make([]int, len(vs))
	capacities := make([]int64, len(vs))
	for i, v := range vs {
		perKm := v.CostPerKm
		costCbs[i] = rm.RegisterTransitCallback(func(from, to int64) int64 {
			return matrix.Distance(node(from), node(to)) * perKm
		})
		capacities[i] = v.Capacity
	}

	horizon := int64(m.Problem.CharacteristicDayCount()) * model.DayDuration
	rm.AddDimension(timeCb, horizon, horizon, false, TimeDimension)
	rm.AddDimension(durationCb, model.MaxWorkDuration, model.MaxWorkDuration, true, DurationDimension)
	rm.AddDimensionWithVehicleCapacity(demandCb, m.Vehicles.MaxVehicleCapacity(), capacities, true, DemandDimension)
	rm.AddDimension(distanceCb, 0, m.Problem.MaxDistance, true, DistanceDimension)
	rm.AddDimensionWithVehicleTransits(costCbs, 0, m.Problem.Budget, true, VehicleCostDimension)

	t := m.Time()
	for i, v := range vs {
		rm.SetFixedCostOfVehicle(v.MonthUsageCost, i)
		rm.SetArcCostEvaluatorOfVehicle(costCbs[i], i)
		if v.RentalType == model.Spot {
			lo, hi := encoding.DayWindow(v.StartDay)
			t.CumulVar(rm.Start(i)).SetRange(lo, hi)
			t.CumulVar(rm.End(i)).SetRange(lo, hi)
		}
	}
}

func (m *Model) addVisitWindows(nodes encoding.NodeSpace) {
	solver := m.Routing.Solver()
	t, d := m.Time(), m.Duration()
	for n := 0; n < nodes.VisitCount(); n++ {
		idx := m.Manager.NodeToIndex(n)
		v := nodes.Visit(n)
		t.CumulVar(idx).SetRange(v.FromTime, v.ToTime)
		solver.Add(solver.MakeEquality(t.SlackVar(idx), d.SlackVar(idx)))
	}
}

func (m *Model) addRests() {
	ctx := encoding.RestContext{
		Nodes:   m.Encoding.Nodes(),
		Manager: m.Manager,
		Routing: m.Routing,
		Time:    m.Time(),
	}
	for _, v := range m.Vehicles.ContractVehicles() {
		for _, n := range m.Encoding.AddRest(ctx, v) {
			m.Routing.VehicleVar(m.Manager.NodeToIndex(n)).SetValues([]int64{int64(v.Index)})
			m.restNodes = append(m.restNodes, n)
		}
	}
}

// addOptionalNodes lets visits be dropped at DropVisitPenalty and makes every
// intermediate depot node free to skip but performed exactly when its
// vehicle is used.
func (m *Model) addOptionalNodes(nodes encoding.NodeSpace) {
	rm := m.Routing
	solver := rm.Solver()
	for n := 0; n < nodes.VisitCount(); n++ {
		rm.AddDisjunction([]int64{m.Manager.NodeToIndex(n)}, model.DropVisitPenalty)
	}
	for n := nodes.VisitCount(); n < nodes.NodeCount(); n++ {
		idx := m.Manager.NodeToIndex(n)
		if idx < 0 || rm.IsStart(idx) || rm.IsEnd(idx) {
			continue
		}
		rm.AddDisjunction([]int64{idx}, 0)
		solver.Add(solver.MakeEquality(rm.ActiveVar(idx), rm.ActiveVehicleVar(nodes.DepotVehicle(n))))
	}
}

// Time returns the Time dimension.
func (m *Model) Time() *routing.Dimension { return m.Routing.GetDimensionOrDie(TimeDimension) }

// Duration returns the Duration dimension.
func (m *Model) Duration() *routing.Dimension {
	return m.Routing.GetDimensionOrDie(DurationDimension)
}

// Demand returns the Demand dimension.
func (m *Model) Demand() *routing.Dimension { return m.Routing.GetDimensionOrDie(DemandDimension) }

// RestNodes returns the nodes used by the rest constraints, in vehicle order.
func (m *Model) RestNodes() []int { return m.restNodes }

// Solve runs the routing search.
func (m *Model) Solve(ctx context.Context, params routing.SearchParameters) *routing.Assignment {
	return m.Routing.SolveWithParameters(ctx, params)
}
