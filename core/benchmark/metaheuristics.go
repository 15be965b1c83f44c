package benchmark

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

// ComparisonDays is the single easy day routed by the metaheuristic comparison.
func ComparisonDays() []DayDescription {
	return []DayDescription{{DayType: simulation.Easy, Occurrences: 1}}
}

// MetaheuristicResult is the outcome of one search of the comparison.
type MetaheuristicResult struct {
	Metaheuristic    string `json:"metaheuristic" yaml:"metaheuristic"`
	Feasible         bool   `json:"feasible" yaml:"feasible"`
	InitialObjective int64  `json:"initial_objective" yaml:"initial_objective"`
	Objective        int64  `json:"objective" yaml:"objective"`
	UsedVehicles     int    `json:"used_vehicles" yaml:"used_vehicles"`
	Dropped          int    `json:"dropped" yaml:"dropped"`
	Iterations       int    `json:"iterations" yaml:"iterations"`
	ElapsedMS        int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
	SolutionPath     string `json:"solution_path,omitempty" yaml:"solution_path,omitempty"`
}

// CompareMetaheuristics routes p once per metaheuristic with the search limits
// of vrp. Searches run one after the other so their wall times compare. When
// outDir is set each feasible solution is saved as <prefix>_<mh>.json.
func CompareMetaheuristics(ctx context.Context, vrp *solver.VrpSolver, p model.ProblemModel, mhs []routing.Metaheuristic, outDir, prefix string) ([]MetaheuristicResult, error) {
	if len(mhs) == 0 {
		mhs = routing.Metaheuristics()
	}
	if prefix == "" {
		prefix = "vrp_solver"
	}
	out := make([]MetaheuristicResult, 0, len(mhs))
	for _, mh := range mhs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		m, err := vrp.Build(p)
		if err != nil {
			return nil, err
		}
		params := vrp.Params()
		params.Metaheuristic = mh
		sol, stats := vrp.SolveModel(ctx, m, params)

		res := MetaheuristicResult{
			Metaheuristic:    mh.String(),
			InitialObjective: stats.InitialObjective,
			Iterations:       stats.Iterations,
			ElapsedMS:        stats.WallTime.Milliseconds(),
		}
		if sol != nil {
			res.Feasible = true
			res.Objective = sol.ObjectiveValue
			res.UsedVehicles = len(sol.UsedVehicles)
			res.Dropped = sol.NotVisitedClientsCount
			if outDir != "" {
				res.SolutionPath = filepath.Join(outDir, fmt.Sprintf("%s_%s.json", prefix, mh))
				if err := model.SaveFile(res.SolutionPath, sol); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, res)
	}
	return out, nil
}
