package solver

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
)

// LinearConfig tunes the LinearSolver.
type LinearConfig struct {
	// ContractOnly removes spot vehicles from the pool.
	ContractOnly bool `json:"contract_only"`
	// SpotQuota overrides the number of spot vehicles per day when > 0.
	SpotQuota int `json:"spot_quota"`
}

// LinearSolver picks the cheapest set of vehicle groups whose capacity covers
// the total demand of every characteristic day.
type LinearSolver struct {
	cfg LinearConfig
}

// NewLinearSolver returns a LinearSolver.
func NewLinearSolver(cfg LinearConfig) *LinearSolver { return &LinearSolver{cfg: cfg} }

// Name implements FleetSolver.
func (s *LinearSolver) Name() string { return LinearMethod }

// vehicleGroup gathers interchangeable vehicles of the pool.
type vehicleGroup struct {
	vehicle model.VehicleInstance
	count   int
}

type linearKey struct {
	rental   model.RentalType
	startDay int
	name     string
}

// Predict implements FleetSolver.
func (s *LinearSolver) Predict(_ context.Context, p model.ProblemModel) (model.FleetStructure, error) {
	vm, err := vehiclePool(p, s.cfg.ContractOnly, s.cfg.SpotQuota)
	if err != nil {
		return model.FleetStructure{}, err
	}
	var groups []vehicleGroup
	idx := make(map[linearKey]int)
	for _, v := range vm.Vehicles() {
		k := linearKey{v.RentalType, v.StartDay, v.Name}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, vehicleGroup{vehicle: v.VehicleInstance})
		}
		groups[i].count++
	}

	var demand int64
	for _, d := range p.Days {
		for _, v := range d.Visits {
			demand += v.Demand
		}
	}
	cp := coverProblem{
		cost:  make([]float64, len(groups)),
		bound: make([]int, len(groups)),
		rows:  [][]float64{make([]float64, len(groups))},
		rhs:   []float64{float64(demand)},
	}
	for i, g := range groups {
		cp.cost[i] = float64(g.vehicle.MonthUsageCost)
		cp.bound[i] = g.count
		cp.rows[0][i] = float64(g.vehicle.Capacity)
	}
	x, err := solveCover(cp)
	if err != nil {
		return model.FleetStructure{}, err
	}
	return fleetFromGroups(groups, x), nil
}

func vehiclePool(p model.ProblemModel, contractOnly bool, spotQuota int) (*vehicles.Manager, error) {
	var opts []vehicles.Option
	if contractOnly {
		opts = append(opts, vehicles.WithoutSpot())
	}
	if spotQuota > 0 {
		opts = append(opts, vehicles.WithSpotQuota(spotQuota))
	}
	vm, err := vehicles.New(p, opts...)
	if err != nil {
		return nil, fmt.Errorf("vehicle pool: %w", err)
	}
	return vm, nil
}

func fleetFromGroups(groups []vehicleGroup, x []int) model.FleetStructure {
	var fs model.FleetStructure
	for i, g := range groups {
		if x[i] == 0 {
			continue
		}
		fs.FleetPositions = append(fs.FleetPositions, model.FleetPosition{VehicleInstance: g.vehicle, Count: x[i]})
		fs.EstimatedCost += int64(x[i]) * g.vehicle.MonthUsageCost
	}
	return fs
}
