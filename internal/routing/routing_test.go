package routing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineModel places node i at positions[i] on a line. Every vehicle starts and
// ends at node 0.
func lineModel(t *testing.T, positions []int64, vehicles int) (*IndexManager, *Model, int) {
	t.Helper()
	starts := make([]int, vehicles)
	ends := make([]int, vehicles)
	mgr, err := NewIndexManager(len(positions), vehicles, starts, ends)
	require.NoError(t, err)
	m := NewModel(mgr)
	dist := m.RegisterTransitCallback(func(from, to int64) int64 {
		d := positions[mgr.IndexToNode(from)] - positions[mgr.IndexToNode(to)]
		if d < 0 {
			d = -d
		}
		return d
	})
	m.SetArcCostEvaluatorOfAllVehicles(dist)
	require.True(t, m.AddDimension(dist, 1000, 1000, false, "Time"))
	return mgr, m, dist
}

func quickParams(mh Metaheuristic) SearchParameters {
	return SearchParameters{Metaheuristic: mh, IterationLimit: 60, TimeLimit: 30 * time.Second, Seed: 7}
}

func TestIndexManager(t *testing.T) {
	mgr, err := NewIndexManager(5, 2, []int{0, 0}, []int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 8, mgr.Size())
	assert.Equal(t, int64(0), mgr.NodeToIndex(1))
	assert.Equal(t, int64(3), mgr.NodeToIndex(4))
	assert.Equal(t, int64(4), mgr.StartIndex(0))
	assert.Equal(t, int64(5), mgr.StartIndex(1))
	assert.Equal(t, int64(6), mgr.EndIndex(0))
	assert.Equal(t, int64(4), mgr.NodeToIndex(0))
	assert.Equal(t, 0, mgr.IndexToNode(7))

	mgr, err = NewIndexManager(3, 1, []int{0}, []int{2})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), mgr.NodeToIndex(2))
	assert.Equal(t, 2, mgr.IndexToNode(mgr.EndIndex(0)))

	_, err = NewIndexManager(3, 2, []int{0}, []int{0, 0})
	assert.Error(t, err)
	_, err = NewIndexManager(3, 1, []int{5}, []int{0})
	assert.Error(t, err)
}

func TestParseMetaheuristic(t *testing.T) {
	tests := []struct {
		in   string
		want Metaheuristic
	}{
		{"sa", SimulatedAnnealing},
		{"GLS", GuidedLocalSearch},
		{"tabu", TabuSearch},
		{" gd ", GreedyDescent},
	}
	for _, tt := range tests {
		got, err := ParseMetaheuristic(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseMetaheuristic("ant-colony")
	assert.Error(t, err)
	assert.Equal(t, "gls", GuidedLocalSearch.String())
}

func TestSolveLineTour(t *testing.T) {
	for _, mh := range Metaheuristics() {
		t.Run(mh.String(), func(t *testing.T) {
			_, m, _ := lineModel(t, []int64{0, 1, 2, 3, 4}, 1)
			a := m.SolveWithParameters(context.Background(), quickParams(mh))
			require.NotNil(t, a)
			assert.Equal(t, int64(8), a.ObjectiveValue())
			assert.True(t, m.IsVehicleUsed(a, 0))
			for i := int64(0); i < 4; i++ {
				assert.Equal(t, int64(0), a.Value(m.VehicleVar(i)))
				assert.Equal(t, int64(1), a.Value(m.ActiveVar(i)))
			}
			assert.Equal(t, int64(1), a.Value(m.ActiveVehicleVar(0)))
		})
	}
}

func TestSolveVehicleCapacity(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 1, 2, 3, 4}, 2)
	demand := m.RegisterUnaryTransitCallback(func(i int64) int64 {
		if mgr.IndexToNode(i) == 0 {
			return 0
		}
		return 1
	})
	require.True(t, m.AddDimensionWithVehicleCapacity(demand, 0, []int64{2, 2}, true, "Demand"))

	a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, a)
	load := m.GetDimensionOrDie("Demand")
	for v := 0; v < 2; v++ {
		assert.True(t, m.IsVehicleUsed(a, v))
		assert.LessOrEqual(t, a.Value(load.CumulVar(m.End(v))), int64(2))
	}
	for i := int64(0); i < 4; i++ {
		assert.NotEqual(t, int64(-1), a.Value(m.VehicleVar(i)))
	}
}

func TestSolveTimeWindowsFixOrder(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 10, 20}, 1)
	tm := m.GetDimensionOrDie("Time")
	a, b := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
	tm.CumulVar(a).SetRange(40, 60)
	tm.CumulVar(b).SetRange(0, 25)

	sol := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, sol)
	assert.Equal(t, b, sol.Value(m.NextVar(m.Start(0))))
	assert.Equal(t, a, sol.Value(m.NextVar(b)))
	assert.Equal(t, int64(20), sol.Value(tm.CumulVar(b)))
	assert.Equal(t, int64(40), sol.Value(tm.CumulVar(a)))
	assert.Equal(t, int64(10), sol.Value(tm.SlackVar(b)))
}

func TestSolveDropsUnreachableOptionalVisit(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 5, 100}, 1)
	tm := m.GetDimensionOrDie("Time")
	near, far := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
	tm.CumulVar(far).SetRange(0, 1)
	m.AddDisjunction([]int64{far}, 1000)

	a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, a)
	assert.Equal(t, far, a.Value(m.NextVar(far)))
	assert.Equal(t, int64(-1), a.Value(m.VehicleVar(far)))
	assert.Equal(t, int64(0), a.Value(m.ActiveVar(far)))
	assert.Equal(t, int64(0), a.Value(m.VehicleVar(near)))
	assert.Equal(t, int64(10+1000), a.ObjectiveValue())
}

func TestSolveReturnsNilWhenMandatoryVisitImpossible(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 100}, 1)
	m.GetDimensionOrDie("Time").CumulVar(mgr.NodeToIndex(1)).SetMax(1)
	assert.Nil(t, m.SolveWithParameters(context.Background(), quickParams(GreedyDescent)))
}

func TestCoupledIndexFollowsVehicleUsage(t *testing.T) {
	t.Run("unused vehicle leaves coupled index out", func(t *testing.T) {
		mgr, m, _ := lineModel(t, []int64{0, 0, 50}, 1)
		rest, visit := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
		m.AddDisjunction([]int64{rest}, 0)
		m.AddDisjunction([]int64{visit}, 1)
		m.Solver().Add(m.Solver().MakeEquality(m.ActiveVar(rest), m.ActiveVehicleVar(0)))

		a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
		require.NotNil(t, a)
		assert.False(t, m.IsVehicleUsed(a, 0))
		assert.Equal(t, int64(0), a.Value(m.ActiveVar(rest)))
		assert.Equal(t, int64(1), a.ObjectiveValue())
	})
	t.Run("used vehicle carries coupled index", func(t *testing.T) {
		mgr, m, _ := lineModel(t, []int64{0, 0, 50}, 2)
		rest, visit := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
		m.AddDisjunction([]int64{rest}, 0)
		m.Solver().Add(m.Solver().MakeEquality(m.ActiveVehicleVar(1), m.ActiveVar(rest)))
		m.VehicleVar(visit).SetValues([]int64{1})

		a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
		require.NotNil(t, a)
		assert.False(t, m.IsVehicleUsed(a, 0))
		assert.True(t, m.IsVehicleUsed(a, 1))
		assert.Equal(t, int64(1), a.Value(m.VehicleVar(rest)))
		assert.Equal(t, int64(1), a.Value(m.VehicleVar(visit)))
	})
}

func TestIntervalHoldsVehicleAtNode(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 0, 10}, 1)
	tm := m.GetDimensionOrDie("Time")
	rest, visit := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
	s := m.Solver()
	m.AddDisjunction([]int64{rest}, 0)
	s.Add(s.MakeEquality(m.ActiveVar(rest), m.ActiveVehicleVar(0)))
	iv := s.MakeFixedDurationIntervalVar(tm.CumulVar(rest), 100, "rest")
	s.Add(s.MakeCumulative([]*IntervalVar{iv}, []int64{1}, 1, "rests"))

	a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, a)
	assert.Equal(t, int64(0), a.Value(m.VehicleVar(visit)))
	after := a.Value(m.NextVar(rest))
	assert.GreaterOrEqual(t, a.Value(tm.CumulVar(after)), a.Value(tm.CumulVar(rest))+100)
	assert.GreaterOrEqual(t, a.Value(tm.SlackVar(rest)), int64(100))
}

func TestConditionalGap(t *testing.T) {
	mgr, m, _ := lineModel(t, []int64{0, 0, 0, 10}, 1)
	tm := m.GetDimensionOrDie("Time")
	first, second := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
	s := m.Solver()
	for _, i := range []int64{first, second} {
		m.AddDisjunction([]int64{i}, 0)
		s.Add(s.MakeEquality(m.ActiveVar(i), m.ActiveVehicleVar(0)))
	}
	s.Add(s.MakeGreaterOrEqualIfActive(tm.CumulVar(second), tm.CumulVar(first), 50, m.ActiveVar(first), m.ActiveVar(second)))

	a := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, a)
	assert.Equal(t, int64(1), a.Value(m.ActiveVar(first)))
	assert.Equal(t, int64(1), a.Value(m.ActiveVar(second)))
	assert.GreaterOrEqual(t, a.Value(tm.CumulVar(second))-a.Value(tm.CumulVar(first)), int64(50))
}

func TestLinkedSlackMovesTogether(t *testing.T) {
	mgr, m, dist := lineModel(t, []int64{0, 10, 20}, 1)
	require.True(t, m.AddDimension(dist, 1000, 1000, true, "Duration"))
	tm, du := m.GetDimensionOrDie("Time"), m.GetDimensionOrDie("Duration")
	a, b := mgr.NodeToIndex(1), mgr.NodeToIndex(2)
	tm.CumulVar(a).SetRange(0, 10)
	tm.CumulVar(b).SetRange(50, 60)
	s := m.Solver()
	for _, i := range []int64{a, b} {
		s.Add(s.MakeEquality(tm.SlackVar(i), du.SlackVar(i)))
	}

	sol := m.SolveWithParameters(context.Background(), quickParams(GreedyDescent))
	require.NotNil(t, sol)
	assert.Equal(t, sol.Value(tm.SlackVar(a)), sol.Value(du.SlackVar(a)))
	assert.Equal(t, int64(30), sol.Value(du.SlackVar(a)))
	assert.Equal(t, int64(50), sol.Value(du.CumulVar(b)))
}

func TestSolveIsReproducibleForASeed(t *testing.T) {
	positions := []int64{0, 7, 3, 12, 5, 9, 1, 15, 4}
	run := func() (*Model, *Assignment) {
		_, m, _ := lineModel(t, positions, 3)
		m.SetFixedCostOfVehicle(5, 1)
		return m, m.SolveWithParameters(context.Background(), quickParams(SimulatedAnnealing))
	}
	m1, a1 := run()
	m2, a2 := run()
	require.NotNil(t, a1)
	require.NotNil(t, a2)
	assert.Equal(t, a1.ObjectiveValue(), a2.ObjectiveValue())
	for i := int64(0); i < int64(m1.Size()); i++ {
		assert.Equal(t, a1.Value(m1.NextVar(i)), a2.Value(m2.NextVar(i)))
	}
	assert.Equal(t, 60, a1.Stats().Iterations)
}

func TestSolveStopsOnCancelledContext(t *testing.T) {
	_, m, _ := lineModel(t, []int64{0, 1, 2}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := m.SolveWithParameters(ctx, SearchParameters{Metaheuristic: SimulatedAnnealing})
	require.NotNil(t, a)
	assert.Equal(t, 0, a.Stats().Iterations)
	assert.Equal(t, int64(4), a.ObjectiveValue())
}
