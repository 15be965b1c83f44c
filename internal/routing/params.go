package routing

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/fleetsizer/core/logger"
)

// Metaheuristic selects how the search escapes local optima.
type Metaheuristic int

const (
	SimulatedAnnealing Metaheuristic = iota
	GuidedLocalSearch
	TabuSearch
	GreedyDescent
)

var metaheuristicNames = map[Metaheuristic]string{
	SimulatedAnnealing: "sa",
	GuidedLocalSearch:  "gls",
	TabuSearch:         "ts",
	GreedyDescent:      "gd",
}

// String returns the short name of the metaheuristic.
func (m Metaheuristic) String() string {
	if s, ok := metaheuristicNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Metaheuristic(%d)", int(m))
}

// Metaheuristics lists every supported metaheuristic.
func Metaheuristics() []Metaheuristic {
	return []Metaheuristic{SimulatedAnnealing, GuidedLocalSearch, TabuSearch, GreedyDescent}
}

// ParseMetaheuristic accepts short (sa, gls, ts, gd) and long names.
func ParseMetaheuristic(s string) (Metaheuristic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sa", "simulated_annealing", "simulatedannealing":
		return SimulatedAnnealing, nil
	case "gls", "guided_local_search", "guidedlocalsearch":
		return GuidedLocalSearch, nil
	case "ts", "tabu", "tabu_search", "tabusearch":
		return TabuSearch, nil
	case "gd", "greedy", "greedy_descent", "greedydescent":
		return GreedyDescent, nil
	default:
		return 0, fmt.Errorf("unknown metaheuristic %q", s)
	}
}

// DefaultTimeLimit bounds a search when neither a time nor an iteration limit is given.
const DefaultTimeLimit = 180 * time.Second

// SearchParameters configure SolveWithParameters. The search stops at the
// first limit reached; with a fixed Seed and an IterationLimit reached before
// the TimeLimit the result is reproducible.
type SearchParameters struct {
	Metaheuristic  Metaheuristic
	TimeLimit      time.Duration
	IterationLimit int
	Seed           int64
	// InitialTemperature of simulated annealing; derived from the first solution when zero.
	InitialTemperature float64
	// Cooling factor applied to the temperature every iteration.
	Cooling float64
	// MaxRemoval caps the number of indices removed per iteration.
	MaxRemoval int
	Logger     logger.Logger
}

// DefaultSearchParameters returns simulated annealing with the default time limit.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{Metaheuristic: SimulatedAnnealing, TimeLimit: DefaultTimeLimit, Seed: 1}
}

func (p *SearchParameters) normalize() {
	if p.TimeLimit <= 0 && p.IterationLimit <= 0 {
		p.TimeLimit = DefaultTimeLimit
	}
	if p.Cooling <= 0 || p.Cooling >= 1 {
		p.Cooling = 0.995
	}
	if p.MaxRemoval <= 0 {
		p.MaxRemoval = 10
	}
}
