package benchmark

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/internal/fixture"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

const tiny = `TINY

VEHICLE
NUMBER     CAPACITY
  25         200

CUSTOMER
CUST NO.  XCOORD.   YCOORD.    DEMAND   READY TIME  DUE DATE   SERVICE   TIME

    0      40         50          0          0       1236          0
    1      45         68         10        912        967         90
    2      45         70         30        825        870         90
    3      42         66         10         65        146         90
    4      42         68         10        727        782         90
    5      42         65         10         15         67         90
`

func parseTiny(t *testing.T) Instance {
	t.Helper()
	inst, err := ParseSolomon(strings.NewReader(tiny))
	require.NoError(t, err)
	return inst
}

func TestParseSolomon(t *testing.T) {
	inst := parseTiny(t)
	assert.Equal(t, "TINY", inst.Name)
	assert.Equal(t, 25, inst.VehicleCount)
	assert.Equal(t, int64(200), inst.Capacity)
	assert.Equal(t, Customer{ID: 0, X: 40, Y: 50, DueTime: 1236}, inst.Depot)
	require.Len(t, inst.Customers, 5)
	assert.Equal(t, Customer{ID: 2, X: 45, Y: 70, Demand: 30, ReadyTime: 825, DueTime: 870, ServiceTime: 90}, inst.Customers[1])
}

func TestParseSolomonRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"no vehicles":  "X\nCUSTOMER\n0 1 1 0 0 10 0\n",
		"no depot":     "X\n25 200\n1 1 1 1 0 10 5\n",
		"no customers": "X\n25 200\n0 1 1 0 0 10 0\n",
		"short row":    "X\n25 200\n0 1 1 0 0 10 0\n1 2 3\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSolomon(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrMalformedInstance)
		})
	}
}

func TestLoadSolomon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.txt")
	require.NoError(t, os.WriteFile(path, []byte(tiny), 0o644))
	inst, err := LoadSolomon(path)
	require.NoError(t, err)
	assert.Len(t, inst.Customers, 5)

	_, err = LoadSolomon(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestMutations(t *testing.T) {
	inst := parseTiny(t)
	ms := Mutations(inst.Customers)
	// 4 window lengths, 5 due times, 1 service time, 2 demands.
	require.Len(t, ms, 40)
	assert.Equal(t, Mutation{FromTime: 967, ToTime: 1022, ServiceTime: 90, Demand: 10}, ms[0])
	for _, m := range ms {
		assert.LessOrEqual(t, m.FromTime, m.ToTime)
		assert.LessOrEqual(t, m.ToTime, int64(model.DayDuration))
	}

	late := Mutations([]Customer{{ID: 1, Demand: 5, ReadyTime: 1400, DueTime: 1500}})
	assert.Equal(t, []Mutation{{FromTime: model.DayDuration, ToTime: model.DayDuration, Demand: 5}}, late)
}

func TestGenerate(t *testing.T) {
	inst := parseTiny(t)
	descs := []DayDescription{
		{DayType: simulation.Easy, Occurrences: 3},
		{DayType: simulation.Hard, Occurrences: 2},
	}
	p, err := NewGenerator().Generate(inst, descs, rand.New(rand.NewSource(DefaultSeed)))
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultBudget), p.Budget)
	assert.Equal(t, int64(DefaultBudget), p.MaxDistance)
	require.Len(t, p.Depots, 1)
	assert.Equal(t, "depot 0", p.Depots[0].Name)
	assert.Equal(t, map[string]int{"small": 15, "medium": 15, "large": 15}, p.Depots[0].Vehicles)
	assert.Len(t, p.Clients, 5)
	assert.Equal(t, "customer 1", p.Clients[0].Name)

	require.Len(t, p.Days, 2)
	assert.Equal(t, 3, p.Days[0].Occurrences)
	assert.Len(t, p.Days[0].Visits, 2)
	assert.Len(t, p.Days[1].Visits, 5)
	for _, d := range p.Days {
		seen := map[string]bool{}
		for _, v := range d.Visits {
			assert.False(t, seen[v.PointName], "customer %s visited twice", v.PointName)
			seen[v.PointName] = true
			assert.Equal(t, int64(90), v.ServiceTime)
		}
	}

	again, err := NewGenerator().Generate(inst, descs, rand.New(rand.NewSource(DefaultSeed)))
	require.NoError(t, err)
	if diff := cmp.Diff(p, again); diff != "" {
		t.Fatalf("generation is not reproducible (-first +second):\n%s", diff)
	}
}

func TestGenerateRejectsBadDescriptions(t *testing.T) {
	inst := parseTiny(t)
	g := NewGenerator()
	_, err := g.Generate(inst, nil, nil)
	assert.Error(t, err)
	_, err = g.Generate(inst, []DayDescription{{DayType: simulation.Easy, Occurrences: -1}}, nil)
	assert.Error(t, err)
}

func TestDefaultSuites(t *testing.T) {
	suites := DefaultSuites()
	require.Len(t, suites, 4)
	order, err := SuiteByName("day_order")
	require.NoError(t, err)
	require.Len(t, order.Cases, 2)
	assert.Equal(t, "c101_hard5_normal5_easy5", order.Cases[0].Name())
	assert.Equal(t, "c101_easy5_normal5_hard5", order.Cases[1].Name())

	amount, err := SuiteByName("day_amount")
	require.NoError(t, err)
	lengths := []int{}
	for _, c := range amount.Cases {
		lengths = append(lengths, len(c.Days))
	}
	assert.Equal(t, []int{3, 6, 9}, lengths)

	occ, err := SuiteByName("day_occurrences")
	require.NoError(t, err)
	assert.Equal(t, []DayDescription{{simulation.Easy, 20}, {simulation.Hard, 5}}, occ.Cases[0].Days)

	_, err = SuiteByName("nope")
	assert.Error(t, err)
}

type stubFleet struct {
	name  string
	fleet model.FleetStructure
	err   error
}

func (s stubFleet) Name() string { return s.name }

func (s stubFleet) Predict(context.Context, model.ProblemModel) (model.FleetStructure, error) {
	return s.fleet, s.err
}

func TestRunnerPersistsFeasibleFleets(t *testing.T) {
	bench := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bench, "tiny.txt"), []byte(tiny), 0o644))
	results := t.TempDir()

	fleet := model.FleetStructure{
		FleetPositions: []model.FleetPosition{{
			VehicleInstance: model.VehicleInstance{RentalType: model.Contract, Name: "small", Capacity: 100, MonthUsageCost: 100, SourceDepotName: "depot 0"},
			Count:           2,
		}},
		EstimatedCost: 200,
	}
	methods := []solver.FleetSolver{
		stubFleet{name: "good", fleet: fleet},
		stubFleet{name: "bad", err: solver.ErrInfeasible},
	}
	evaluated := 0
	r, err := NewRunner(BatchConfig{BenchmarkDir: bench, ResultsDir: results, Concurrency: 2}, methods,
		WithEvaluation(func(_ context.Context, runID string, _ model.ProblemModel, f model.FleetStructure) (simulation.EvaluationResult, error) {
			evaluated++
			return simulation.EvaluationResult{RunID: runID, PredictedCost: f.EstimatedCost, RealCost: 150}, nil
		}))
	require.NoError(t, err)

	suite := Suite{Name: "smoke", Cases: []TestCase{{Instance: "tiny.txt", Days: month(1, 2)}}}
	got, err := r.Run(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, evaluated)

	assert.Equal(t, "good", got[0].Method)
	assert.True(t, got[0].Feasible)
	assert.Equal(t, 2, got[0].Vehicles)
	assert.Equal(t, "tiny_easy2_normal2_hard2", got[0].Case)
	assert.FileExists(t, got[0].ProblemPath)
	assert.FileExists(t, got[0].FleetPath)
	assert.FileExists(t, got[0].EvaluationPath)
	require.NotNil(t, got[0].Evaluation)
	assert.Equal(t, int64(150), got[0].Evaluation.RealCost)

	saved, err := model.LoadFleetStructure(got[0].FleetPath)
	require.NoError(t, err)
	assert.Equal(t, fleet, saved)
	problem, err := model.LoadProblem(got[0].ProblemPath)
	require.NoError(t, err)
	assert.Len(t, problem.Days, 3)

	assert.Equal(t, "bad", got[1].Method)
	assert.False(t, got[1].Feasible)
	assert.Empty(t, got[1].FleetPath)
	assert.NotEqual(t, got[0].RunID, got[1].RunID)

	stats := Summarize(got)
	require.Len(t, stats, 2)
	assert.Equal(t, MethodStats{Method: "good", Runs: 1, Feasible: 1, MeanCost: 200, MeanVehicles: 2}, stats[0])
	assert.Equal(t, MethodStats{Method: "bad", Runs: 1}, stats[1])
}

func TestRunnerFailsOnMissingInstance(t *testing.T) {
	r, err := NewRunner(BatchConfig{BenchmarkDir: t.TempDir(), ResultsDir: t.TempDir()}, []solver.FleetSolver{stubFleet{name: "x"}})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), Suite{Name: "s", Cases: []TestCase{{Instance: "c101.txt", Days: month(1, 1)}}})
	assert.Error(t, err)

	_, err = NewRunner(BatchConfig{}, nil)
	assert.Error(t, err)
}

func TestCompareMetaheuristics(t *testing.T) {
	vrp, err := solver.NewVrpSolver(solver.Config{
		Metaheuristic:  "sa",
		IterationLimit: 40,
		TimeLimit:      time.Minute,
		Seed:           5,
	}, nil, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	got, err := CompareMetaheuristics(context.Background(), vrp, fixture.FiveCustomers(2), nil, dir, "")
	require.NoError(t, err)
	require.Len(t, got, len(routing.Metaheuristics()))
	for i, r := range got {
		assert.Equal(t, routing.Metaheuristics()[i].String(), r.Metaheuristic)
		assert.True(t, r.Feasible, r.Metaheuristic)
		assert.Zero(t, r.Dropped, r.Metaheuristic)
		assert.LessOrEqual(t, r.Objective, r.InitialObjective, r.Metaheuristic)
		assert.FileExists(t, filepath.Join(dir, "vrp_solver_"+r.Metaheuristic+".json"))
	}
}
