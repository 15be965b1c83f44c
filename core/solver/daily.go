package solver

import (
	"context"

	"github.com/kilianp07/fleetsizer/core/model"
)

// DefaultMaxStopsPerVehicle is the number of visits one vehicle is assumed to
// serve in a day.
const DefaultMaxStopsPerVehicle = 8

// DailyConfig tunes the DailySolver.
type DailyConfig struct {
	MaxStopsPerVehicle int  `json:"max_stops_per_vehicle"`
	ContractOnly       bool `json:"contract_only"`
	SpotQuota          int  `json:"spot_quota"`
}

// DailySolver covers the demand and the stop count of each characteristic day
// with contract vehicles shared by all days plus that day's spot vehicles.
type DailySolver struct {
	cfg DailyConfig
}

// NewDailySolver returns a DailySolver.
func NewDailySolver(cfg DailyConfig) *DailySolver {
	if cfg.MaxStopsPerVehicle <= 0 {
		cfg.MaxStopsPerVehicle = DefaultMaxStopsPerVehicle
	}
	return &DailySolver{cfg: cfg}
}

// Name implements FleetSolver.
func (s *DailySolver) Name() string { return DailyMethod }

type dailyKey struct {
	rental model.RentalType
	name   string
	depot  string
	day    int
}

// Predict implements FleetSolver.
func (s *DailySolver) Predict(_ context.Context, p model.ProblemModel) (model.FleetStructure, error) {
	vm, err := vehiclePool(p, s.cfg.ContractOnly, s.cfg.SpotQuota)
	if err != nil {
		return model.FleetStructure{}, err
	}
	var groups []vehicleGroup
	idx := make(map[dailyKey]int)
	for _, v := range vm.Vehicles() {
		k := dailyKey{v.RentalType, v.Name, v.SourceDepotName, v.StartDay}
		if v.RentalType == model.Contract {
			k.day = -1
		}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, vehicleGroup{vehicle: v.VehicleInstance})
		}
		groups[i].count++
	}

	n := len(groups)
	cp := coverProblem{cost: make([]float64, n), bound: make([]int, n)}
	for i, g := range groups {
		cp.cost[i] = float64(g.vehicle.MonthUsageCost)
		cp.bound[i] = g.count
	}
	stops := float64(s.cfg.MaxStopsPerVehicle)
	for day, d := range p.Days {
		if len(d.Visits) == 0 {
			continue
		}
		capRow := make([]float64, n)
		stopRow := make([]float64, n)
		for i, g := range groups {
			if !g.vehicle.IsActiveOn(day) {
				continue
			}
			capRow[i] = float64(g.vehicle.Capacity)
			stopRow[i] = stops
		}
		var demand int64
		for _, v := range d.Visits {
			demand += v.Demand
		}
		cp.rows = append(cp.rows, capRow, stopRow)
		cp.rhs = append(cp.rhs, float64(demand), float64(len(d.Visits)))
	}
	x, err := solveCover(cp)
	if err != nil {
		return model.FleetStructure{}, err
	}
	return fleetFromGroups(groups, x), nil
}
