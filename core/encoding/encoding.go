// Package encoding defines the contracts shared by the node space encodings of
// the multi-day routing problem. Visits are numbered first, depot slots after,
// and every encoding decides how depot slots model the rest between two days.
package encoding

import (
	"fmt"
	"math"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

// Unreachable is the transit returned for arcs an encoding forbids. It is far
// above any dimension capacity so the engine rejects such arcs, and small
// enough that int64 sums of a few of them cannot overflow.
const Unreachable int64 = math.MaxInt32

// NodeSpace is the flat node index space consumed by the routing engine.
type NodeSpace interface {
	VisitCount() int
	DepotNodeCount() int
	NodeCount() int
	IsDepot(node int) bool
	// Visit returns the visit behind a visit node.
	Visit(node int) model.VisitWithDay
	Point(node int) model.Point
	// DepotVehicle returns the vehicle owning a depot node, -1 for visits.
	DepotVehicle(node int) int
	StartDepotForDay(vehicle, day int) int
	EndDepotForDay(vehicle, day int) int
	// VehicleStart and VehicleEnd are the literal route terminals of a vehicle.
	VehicleStart(vehicle int) int
	VehicleEnd(vehicle int) int
}

// DimensionMatrix computes the per-arc transits of every dimension. All
// methods are pure functions of node identity.
type DimensionMatrix interface {
	Distance(from, to int) int64
	Time(from, to int) int64
	Demand(at int) int64
	Duration(from, to int) int64
}

// RestContext gives a rest policy access to the model being built.
type RestContext struct {
	Nodes   NodeSpace
	Manager *routing.IndexManager
	Routing *routing.Model
	Time    *routing.Dimension
}

// Index resolves a node to its routing index.
func (c RestContext) Index(node int) int64 { return c.Manager.NodeToIndex(node) }

// Encoding bundles a node space, its matrix and the way it encodes rests.
type Encoding interface {
	Name() string
	Nodes() NodeSpace
	Matrix() DimensionMatrix
	// AddRest constrains the rests between the working days of a multi-day
	// vehicle and returns the rest nodes it used.
	AddRest(c RestContext, v model.IndexedVehicle) []int
}

// VisitTable is the frozen visit half of a node space.
type VisitTable struct {
	visits []model.VisitWithDay
	points []model.Point
}

// NewVisitTable flattens the problem days into visit nodes and resolves their points once.
func NewVisitTable(p model.ProblemModel) (VisitTable, error) {
	visits := p.FlattenVisits()
	points := make([]model.Point, len(visits))
	for i, v := range visits {
		pt, err := p.Point(v.PointName)
		if err != nil {
			return VisitTable{}, fmt.Errorf("visit node %d: %w", i, err)
		}
		points[i] = pt
	}
	return VisitTable{visits: visits, points: points}, nil
}

// VisitCount returns the number of visit nodes.
func (t VisitTable) VisitCount() int { return len(t.visits) }

// Visit returns the visit of a visit node.
func (t VisitTable) Visit(node int) model.VisitWithDay { return t.visits[node] }

// VisitPoint returns the location of a visit node.
func (t VisitTable) VisitPoint(node int) model.Point { return t.points[node] }

// DepotPoints resolves the source depot of every vehicle.
func DepotPoints(p model.ProblemModel, vehicles []model.IndexedVehicle) ([]model.Point, error) {
	out := make([]model.Point, len(vehicles))
	for i, v := range vehicles {
		pt, err := p.Point(v.SourceDepotName)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", v.Index, err)
		}
		out[i] = pt
	}
	return out, nil
}

// DayWindow returns the absolute [start, end] minutes of a day.
func DayWindow(day int) (int64, int64) {
	return int64(day) * model.DayDuration, int64(day+1) * model.DayDuration
}
