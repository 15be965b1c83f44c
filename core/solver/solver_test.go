package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/events"
	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
	"github.com/kilianp07/fleetsizer/internal/fixture"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

func quickConfig(enc string) Config {
	return Config{
		Encoding:       enc,
		Metaheuristic:  "gd",
		IterationLimit: 80,
		TimeLimit:      time.Minute,
		Seed:           3,
	}
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	var c Config
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "intervals", c.Encoding)
	assert.Equal(t, "sa", c.Metaheuristic)
	assert.Equal(t, routing.DefaultTimeLimit, c.TimeLimit)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"metaheuristic", Config{Encoding: "intervals", Metaheuristic: "hill"}},
		{"encoding", Config{Encoding: "graph", Metaheuristic: "sa"}},
		{"limit", Config{Encoding: "multinode", Metaheuristic: "ts", TimeLimit: -time.Second}},
		{"spot", Config{Encoding: "multinode", Metaheuristic: "ts", SpotQuota: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}

	params, err := quickConfig("multinode").SearchParameters()
	require.NoError(t, err)
	assert.Equal(t, routing.GreedyDescent, params.Metaheuristic)
	assert.Equal(t, 80, params.IterationLimit)
	assert.Equal(t, int64(3), params.Seed)
}

func TestVrpSolverFiveCustomers(t *testing.T) {
	for _, enc := range []string{"intervals", "multinode"} {
		t.Run(enc, func(t *testing.T) {
			bus := eventbus.New()
			defer bus.Close()
			sub := bus.Subscribe()

			s, err := NewVrpSolver(quickConfig(enc), bus, nil)
			require.NoError(t, err)
			sol, err := s.WithRunID("run-1").Solve(context.Background(), fixture.FiveCustomers(2))
			require.NoError(t, err)
			require.NotNil(t, sol)

			assert.Zero(t, sol.NotVisitedClientsCount)
			require.Len(t, sol.UsedVehicles, 1)
			assert.Equal(t, model.Contract, sol.UsedVehicles[0].RentalType)
			assert.Len(t, sol.UnusedVehicles, 1+model.SpotVehiclesPerDay)

			require.Len(t, sol.Routes, 1)
			stops := sol.Routes[0].Stops
			assert.True(t, stops[0].IsDepot)
			assert.True(t, stops[len(stops)-1].IsDepot)
			visited := map[string]bool{}
			for _, st := range stops {
				if !st.IsDepot {
					visited[st.PointName] = true
					assert.LessOrEqual(t, st.Load, int64(100))
				}
			}
			assert.Len(t, visited, 5)

			ev := (<-sub).(events.SolveEvent)
			assert.True(t, ev.Feasible)
			assert.Equal(t, "run-1", ev.RunID)
			assert.Equal(t, enc, ev.Encoding)
			assert.Equal(t, sol.ObjectiveValue, ev.Objective)
		})
	}
}

func TestVrpSolverRejectsBadInput(t *testing.T) {
	_, err := NewVrpSolver(Config{Encoding: "graph"}, nil, nil)
	assert.Error(t, err)

	s, err := NewVrpSolver(quickConfig("intervals"), nil, nil)
	require.NoError(t, err)
	p := fixture.FiveCustomers(1)
	p.Depots[0].Vehicles = map[string]int{"truck": 1}
	_, err = s.Solve(context.Background(), p)
	assert.ErrorIs(t, err, model.ErrUnknownVehicleType)
}

func TestFleetFromVehicles(t *testing.T) {
	mk := func(i int, name string, rt model.RentalType, day int, cost int64) model.IndexedVehicle {
		return model.IndexedVehicle{Index: i, VehicleInstance: model.VehicleInstance{
			Name: name, RentalType: rt, SourceDepotName: "d", StartDay: day, MonthUsageCost: cost,
		}}
	}
	fs := FleetFromVehicles([]model.IndexedVehicle{
		mk(0, "van", model.Contract, 0, 100),
		mk(1, "truck", model.Contract, 0, 300),
		mk(2, "van", model.Contract, 0, 100),
		mk(5, "van", model.Spot, 1, 40),
	})
	want := model.FleetStructure{
		FleetPositions: []model.FleetPosition{
			{VehicleInstance: mk(0, "van", model.Contract, 0, 100).VehicleInstance, Count: 2},
			{VehicleInstance: mk(1, "truck", model.Contract, 0, 300).VehicleInstance, Count: 1},
			{VehicleInstance: mk(5, "van", model.Spot, 1, 40).VehicleInstance, Count: 1},
		},
		EstimatedCost: 540,
	}
	if diff := cmp.Diff(want, fs); diff != "" {
		t.Fatalf("fleet mismatch (-want +got):\n%s", diff)
	}
}

func TestVrpFleetSolver(t *testing.T) {
	vrp, err := NewVrpSolver(quickConfig("intervals"), nil, nil)
	require.NoError(t, err)
	fs, err := NewFleetSolver(factory.ModuleConfig{Type: VrpMethod}, vrp)
	require.NoError(t, err)
	assert.Equal(t, VrpMethod, fs.Name())

	fleet, err := fs.Predict(context.Background(), fixture.FiveCustomers(2))
	require.NoError(t, err)
	require.Len(t, fleet.FleetPositions, 1)
	assert.Equal(t, 1, fleet.FleetPositions[0].Count)
	assert.Equal(t, model.Contract, fleet.FleetPositions[0].RentalType)
	assert.Equal(t, int64(100), fleet.EstimatedCost)

	_, err = NewFleetSolver(factory.ModuleConfig{Type: VrpMethod}, nil)
	assert.Error(t, err)
	_, err = NewFleetSolver(factory.ModuleConfig{Type: "magic"}, vrp)
	assert.Error(t, err)
}

func TestLinearSolverCoversTotalDemand(t *testing.T) {
	fs, err := NewFleetSolver(factory.ModuleConfig{Type: LinearMethod}, nil)
	require.NoError(t, err)
	fleet, err := fs.Predict(context.Background(), fixture.MultiDay())
	require.NoError(t, err)

	// 195 units of demand; the cheapest capacity is a spot van at 750.
	assert.Equal(t, 2, fleet.VehicleCount())
	assert.Equal(t, int64(1500), fleet.EstimatedCost)
	for _, p := range fleet.FleetPositions {
		assert.Equal(t, model.Spot, p.RentalType)
	}
}

func TestLinearSolverInfeasible(t *testing.T) {
	p := fixture.MultiDay()
	p.Depots[0].Vehicles = map[string]int{}
	s := NewLinearSolver(LinearConfig{ContractOnly: true})
	_, err := s.Predict(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestLinearSolverFallsBackWhenSimplexFails(t *testing.T) {
	orig := relax
	relax = func(coverProblem) ([]float64, error) { return nil, errors.New("singular") }
	defer func() { relax = orig }()

	fleet, err := NewLinearSolver(LinearConfig{}).Predict(context.Background(), fixture.MultiDay())
	require.NoError(t, err)
	assert.Equal(t, 2, fleet.VehicleCount())
	assert.Equal(t, int64(1500), fleet.EstimatedCost)
}

func TestDailySolverSharesContractVehicles(t *testing.T) {
	fs, err := NewFleetSolver(factory.ModuleConfig{Type: DailyMethod, Conf: map[string]any{"max_stops_per_vehicle": 8}}, nil)
	require.NoError(t, err)
	fleet, err := fs.Predict(context.Background(), fixture.MultiDay())
	require.NoError(t, err)

	// One contract van covers days 0 and 1, day 2 adds a spot van.
	assert.Equal(t, int64(2500+750), fleet.EstimatedCost)
	require.Len(t, fleet.FleetPositions, 2)
	contract := fleet.ContractPositions()
	require.Len(t, contract, 1)
	assert.Equal(t, "small", contract[0].Name)
	assert.Equal(t, 1, contract[0].Count)
	for _, p := range fleet.FleetPositions {
		if p.RentalType == model.Spot {
			assert.Equal(t, 2, p.StartDay)
		}
	}
}

func TestDailySolverStopLimit(t *testing.T) {
	p := fixture.MultiDay()
	// With a single stop per vehicle, day 2 needs eight vehicles but only
	// three contract and five spot vans exist.
	fleet, err := NewDailySolver(DailyConfig{MaxStopsPerVehicle: 1}).Predict(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 8, countActiveOn(fleet, 2))

	_, err = NewDailySolver(DailyConfig{MaxStopsPerVehicle: 1, ContractOnly: true}).Predict(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func countActiveOn(fs model.FleetStructure, day int) int {
	n := 0
	for _, p := range fs.FleetPositions {
		if p.IsActiveOn(day) {
			n += p.Count
		}
	}
	return n
}

func TestSolveCoverEmpty(t *testing.T) {
	x, err := solveCover(coverProblem{})
	require.NoError(t, err)
	assert.Empty(t, x)

	_, err = solveCover(coverProblem{rows: [][]float64{{}}, rhs: []float64{1}})
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestFleetMethods(t *testing.T) {
	assert.Equal(t, []string{DailyMethod, LinearMethod, VrpMethod}, FleetMethods())
}
