package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetsizer/core/logger"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/core/solver"
	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

// TestCase is one Solomon instance sliced into characteristic days.
type TestCase struct {
	Instance string           `json:"instance" yaml:"instance"`
	Days     []DayDescription `json:"days" yaml:"days"`
}

// Name identifies the case inside its suite.
func (tc TestCase) Name() string {
	parts := make([]string, 0, len(tc.Days)+1)
	parts = append(parts, strings.TrimSuffix(tc.Instance, filepath.Ext(tc.Instance)))
	for _, d := range tc.Days {
		parts = append(parts, fmt.Sprintf("%s%d", d.DayType, d.Occurrences))
	}
	return strings.Join(parts, "_")
}

// Suite groups test cases answering one planning question.
type Suite struct {
	Name  string     `json:"name" yaml:"name"`
	Cases []TestCase `json:"cases" yaml:"cases"`
}

func day(t simulation.DayType, occurrences int) DayDescription {
	return DayDescription{DayType: t, Occurrences: occurrences}
}

// month repeats the easy, normal, hard sequence n times.
func month(n, occurrences int) []DayDescription {
	var out []DayDescription
	for range n {
		out = append(out,
			day(simulation.Easy, occurrences),
			day(simulation.Normal, occurrences),
			day(simulation.Hard, occurrences))
	}
	return out
}

// DefaultSuites returns the day order, day complexity, day amount and day
// occurrences experiments.
func DefaultSuites() []Suite {
	const easy, normal, hard = simulation.Easy, simulation.Normal, simulation.Hard
	return []Suite{
		{Name: "day_order", Cases: []TestCase{
			{Instance: "c101.txt", Days: []DayDescription{day(hard, 5), day(normal, 5), day(easy, 5)}},
			{Instance: "c101.txt", Days: month(1, 5)},
		}},
		{Name: "day_complexity", Cases: []TestCase{
			{Instance: "c51.txt", Days: month(1, 5)},
			{Instance: "c101.txt", Days: month(1, 5)},
		}},
		{Name: "day_amount", Cases: []TestCase{
			{Instance: "c101.txt", Days: month(1, 5)},
			{Instance: "c101.txt", Days: month(2, 3)},
			{Instance: "c101.txt", Days: month(3, 2)},
		}},
		{Name: "day_occurrences", Cases: []TestCase{
			{Instance: "c101.txt", Days: []DayDescription{day(easy, 20), day(hard, 5)}},
			{Instance: "c101.txt", Days: []DayDescription{day(easy, 5), day(hard, 20)}},
		}},
	}
}

// SuiteByName looks up one of the default suites.
func SuiteByName(name string) (Suite, error) {
	var names []string
	for _, s := range DefaultSuites() {
		if s.Name == name {
			return s, nil
		}
		names = append(names, s.Name)
	}
	return Suite{}, fmt.Errorf("unknown suite %q (known: %s)", name, strings.Join(names, ", "))
}

// EvaluateFunc simulates a predicted fleet over its problem.
type EvaluateFunc func(ctx context.Context, runID string, p model.ProblemModel, fleet model.FleetStructure) (simulation.EvaluationResult, error)

// BatchConfig locates the benchmarks and the results tree.
type BatchConfig struct {
	BenchmarkDir string `json:"benchmark_dir"`
	ResultsDir   string `json:"results_dir"`
	Seed         int64  `json:"seed"`
	Concurrency  int    `json:"concurrency"`
}

// SetDefaults fills zero values.
func (c *BatchConfig) SetDefaults() {
	if c.BenchmarkDir == "" {
		c.BenchmarkDir = "benchmarks"
	}
	if c.ResultsDir == "" {
		c.ResultsDir = filepath.Join("results", "batch")
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
}

// CaseResult records one fleet prediction of a batch.
type CaseResult struct {
	RunID          string                       `json:"run_id" yaml:"run_id"`
	Suite          string                       `json:"suite" yaml:"suite"`
	Case           string                       `json:"case" yaml:"case"`
	Method         string                       `json:"method" yaml:"method"`
	Feasible       bool                         `json:"feasible" yaml:"feasible"`
	Vehicles       int                          `json:"vehicles" yaml:"vehicles"`
	EstimatedCost  int64                        `json:"estimated_cost" yaml:"estimated_cost"`
	ElapsedMS      int64                        `json:"elapsed_ms" yaml:"elapsed_ms"`
	ProblemPath    string                       `json:"problem_path,omitempty" yaml:"problem_path,omitempty"`
	FleetPath      string                       `json:"fleet_path,omitempty" yaml:"fleet_path,omitempty"`
	EvaluationPath string                       `json:"evaluation_path,omitempty" yaml:"evaluation_path,omitempty"`
	Evaluation     *simulation.EvaluationResult `json:"-" yaml:"-"`
}

// MethodStats summarises the feasible predictions of one method.
type MethodStats struct {
	Method       string  `json:"method" yaml:"method"`
	Runs         int     `json:"runs" yaml:"runs"`
	Feasible     int     `json:"feasible" yaml:"feasible"`
	MeanCost     float64 `json:"mean_cost" yaml:"mean_cost"`
	StdDevCost   float64 `json:"stddev_cost" yaml:"stddev_cost"`
	MeanVehicles float64 `json:"mean_vehicles" yaml:"mean_vehicles"`
}

// BatchOption configures a Runner.
type BatchOption func(*Runner)

// WithBatchLogger sets the logger.
func WithBatchLogger(log logger.Logger) BatchOption { return func(r *Runner) { r.log = log } }

// WithBatchBus publishes a FleetEvent per prediction.
func WithBatchBus(bus eventbus.EventBus) BatchOption { return func(r *Runner) { r.bus = bus } }

// WithEvaluation simulates every feasible fleet with fn.
func WithEvaluation(fn EvaluateFunc) BatchOption { return func(r *Runner) { r.evaluate = fn } }

// WithGenerator overrides the problem generator.
func WithGenerator(g *Generator) BatchOption { return func(r *Runner) { r.gen = g } }

// Runner solves every case of a suite with every fleet method.
type Runner struct {
	cfg      BatchConfig
	methods  []solver.FleetSolver
	gen      *Generator
	log      logger.Logger
	bus      eventbus.EventBus
	evaluate EvaluateFunc
}

// NewRunner needs at least one fleet method.
func NewRunner(cfg BatchConfig, methods []solver.FleetSolver, opts ...BatchOption) (*Runner, error) {
	if len(methods) == 0 {
		return nil, errors.New("batch runner needs at least one fleet method")
	}
	cfg.SetDefaults()
	r := &Runner{cfg: cfg, methods: methods, gen: NewGenerator(), log: infralogger.NopLogger{}}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

type job struct {
	suite   string
	tc      TestCase
	problem model.ProblemModel
	method  solver.FleetSolver
}

// Run generates every case problem with a fresh seeded source, then predicts
// the fleets concurrently. Infeasible predictions are recorded, not fatal.
// Results keep the suite, case and method order.
func (r *Runner) Run(ctx context.Context, suites ...Suite) ([]CaseResult, error) {
	var jobs []job
	for _, s := range suites {
		for _, tc := range s.Cases {
			inst, err := LoadSolomon(filepath.Join(r.cfg.BenchmarkDir, tc.Instance))
			if err != nil {
				return nil, err
			}
			p, err := r.gen.Generate(inst, tc.Days, rand.New(rand.NewSource(r.cfg.Seed)))
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", s.Name, tc.Name(), err)
			}
			for _, m := range r.methods {
				jobs = append(jobs, job{suite: s.Name, tc: tc, problem: p, method: m})
			}
		}
	}

	results := make([]CaseResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			res, err := r.runJob(ctx, j)
			if err != nil {
				return fmt.Errorf("%s/%s/%s: %w", j.suite, j.tc.Name(), j.method.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runJob(ctx context.Context, j job) (CaseResult, error) {
	res := CaseResult{
		RunID:  uuid.NewString(),
		Suite:  j.suite,
		Case:   j.tc.Name(),
		Method: j.method.Name(),
	}
	r.log.Infof("batch %s: %s with %s", j.suite, res.Case, res.Method)
	began := time.Now()
	fleet, err := solver.PredictFleet(ctx, j.method, j.problem, res.RunID, r.bus, r.log)
	res.ElapsedMS = time.Since(began).Milliseconds()
	switch {
	case errors.Is(err, solver.ErrInfeasible):
		r.log.Warnf("batch %s: %s has no feasible fleet with %s", j.suite, res.Case, res.Method)
		return res, nil
	case err != nil:
		return res, err
	}
	res.Feasible = true
	res.Vehicles = fleet.VehicleCount()
	res.EstimatedCost = fleet.EstimatedCost

	dir := filepath.Join(r.cfg.ResultsDir, j.suite, j.method.Name())
	res.ProblemPath = filepath.Join(dir, "problem_model_"+res.Case+".json")
	res.FleetPath = filepath.Join(dir, "fleet_structure_"+res.Case+".json")
	if err := model.SaveFile(res.ProblemPath, j.problem); err != nil {
		return res, err
	}
	if err := model.SaveFile(res.FleetPath, fleet); err != nil {
		return res, err
	}

	if r.evaluate != nil {
		ev, err := r.evaluate(ctx, res.RunID, j.problem, fleet)
		switch {
		case errors.Is(err, simulation.ErrNoContractVehicles):
			r.log.Warnf("batch %s: %s fleet of %s has no contract vehicles", j.suite, res.Case, res.Method)
		case err != nil:
			return res, fmt.Errorf("evaluate: %w", err)
		default:
			res.Evaluation = &ev
			res.EvaluationPath = filepath.Join(dir, "evaluation_"+res.Case+".json")
			if err := model.SaveFile(res.EvaluationPath, ev); err != nil {
				return res, err
			}
		}
	}
	r.log.Debugw("batch case saved", map[string]any{
		"suite":  j.suite,
		"case":   res.Case,
		"method": res.Method,
		"fleet":  res.FleetPath,
	})
	return res, nil
}

// Summarize aggregates results per method in order of first appearance.
func Summarize(results []CaseResult) []MethodStats {
	var (
		order []string
		costs = map[string][]float64{}
		vehs  = map[string][]float64{}
		runs  = map[string]int{}
	)
	for _, r := range results {
		if _, ok := runs[r.Method]; !ok {
			order = append(order, r.Method)
		}
		runs[r.Method]++
		if r.Feasible {
			costs[r.Method] = append(costs[r.Method], float64(r.EstimatedCost))
			vehs[r.Method] = append(vehs[r.Method], float64(r.Vehicles))
		}
	}
	out := make([]MethodStats, 0, len(order))
	for _, m := range order {
		s := MethodStats{Method: m, Runs: runs[m], Feasible: len(costs[m])}
		if s.Feasible > 0 {
			s.MeanCost, s.StdDevCost = stat.PopMeanStdDev(costs[m], nil)
			s.MeanVehicles = stat.Mean(vehs[m], nil)
		}
		out = append(out, s)
	}
	return out
}
