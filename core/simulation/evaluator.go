// Package simulation replays a predicted fleet against randomly generated days
// to measure what it really costs.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetsizer/core/events"
	"github.com/kilianp07/fleetsizer/core/logger"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

var tracer = otel.Tracer("github.com/kilianp07/fleetsizer/core/simulation")

// Config controls a fleet evaluation.
type Config struct {
	Seed int64 `json:"seed"`
	// Concurrency bounds the number of days solved at once; 0 or 1 is sequential.
	Concurrency int `json:"concurrency"`
	// FailedDayPenalty is added to the real cost for every day without a solution.
	FailedDayPenalty int64 `json:"failed_day_penalty"`
}

// Validate checks the bounds.
func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("negative concurrency")
	}
	if c.FailedDayPenalty < 0 {
		return fmt.Errorf("negative failed day penalty")
	}
	return nil
}

// ErrNoContractVehicles is returned when the fleet has nothing to simulate with.
var ErrNoContractVehicles = errors.New("fleet has no contract vehicles")

// DaySolver routes a one-day problem. A nil solution means no feasible assignment.
type DaySolver interface {
	Solve(ctx context.Context, p model.ProblemModel, opts ...vehicles.Option) (*model.VrpSolution, error)
}

// DayObserver receives every evaluated day, in day order.
type DayObserver interface {
	ObserveDay(runID string, d DayResult) error
}

// DayResult is the outcome of one simulated day.
type DayResult struct {
	CharacteristicDay      int     `json:"characteristic_day" yaml:"characteristic_day"`
	Occurrence             int     `json:"occurrence" yaml:"occurrence"`
	DayType                DayType `json:"day_type" yaml:"day_type"`
	Visits                 int     `json:"visits" yaml:"visits"`
	Solved                 bool    `json:"solved" yaml:"solved"`
	NotVisitedClientsCount int     `json:"not_visited_clients_count" yaml:"not_visited_clients_count"`
	UsedVehicles           int     `json:"used_vehicles" yaml:"used_vehicles"`
	Cost                   int64   `json:"cost" yaml:"cost"`
	ElapsedMS              int64   `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// EvaluationResult compares the predicted fleet cost with the simulated one.
type EvaluationResult struct {
	RunID            string      `json:"run_id" yaml:"run_id"`
	PredictedCost    int64       `json:"predicted_cost" yaml:"predicted_cost"`
	RealCost         int64       `json:"real_cost" yaml:"real_cost"`
	CostOverestimate int64       `json:"cost_overestimate" yaml:"cost_overestimate"`
	FailedDays       int         `json:"failed_days" yaml:"failed_days"`
	DroppedVisits    int         `json:"dropped_visits" yaml:"dropped_visits"`
	MeanDayCost      float64     `json:"mean_day_cost" yaml:"mean_day_cost"`
	StdDevDayCost    float64     `json:"stddev_day_cost" yaml:"stddev_day_cost"`
	P90DayCost       float64     `json:"p90_day_cost" yaml:"p90_day_cost"`
	Days             []DayResult `json:"days" yaml:"days"`
}

// DayPlan is a generated one-day problem before it is solved.
type DayPlan struct {
	CharacteristicDay int
	Occurrence        int
	DayType           DayType
	Problem           model.ProblemModel
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBus publishes a DayEvent per simulated day.
func WithBus(bus eventbus.EventBus) Option { return func(e *Evaluator) { e.bus = bus } }

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option { return func(e *Evaluator) { e.log = log } }

// WithObserver adds a day observer.
func WithObserver(o DayObserver) Option {
	return func(e *Evaluator) { e.observers = append(e.observers, o) }
}

// WithRunID tags results and events.
func WithRunID(id string) Option { return func(e *Evaluator) { e.runID = id } }

// Evaluator simulates every occurrence of every characteristic day with the
// contract part of a predicted fleet.
type Evaluator struct {
	problem   model.ProblemModel
	fleet     model.FleetStructure
	solver    DaySolver
	cfg       Config
	universe  []model.Visit
	maxVisits int
	depots    []model.Depot

	bus       eventbus.EventBus
	log       logger.Logger
	observers []DayObserver
	runID     string
}

// NewEvaluator checks that the fleet references known depots and vehicle types.
func NewEvaluator(p model.ProblemModel, fleet model.FleetStructure, solver DaySolver, cfg Config, opts ...Option) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	depots, err := contractDepots(p, fleet)
	if err != nil {
		return nil, err
	}
	if countVehicles(fleet.ContractPositions()) == 0 {
		return nil, ErrNoContractVehicles
	}
	var all []model.Visit
	for _, d := range p.Days {
		all = append(all, d.Visits...)
	}
	e := &Evaluator{
		problem:   p,
		fleet:     fleet,
		solver:    solver,
		cfg:       cfg,
		universe:  VisitUniverse(all),
		maxVisits: p.MaxVisitsPerDay(),
		depots:    depots,
		log:       infralogger.NopLogger{},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// contractDepots rebuilds the depot list keeping only the contract vehicles of the fleet.
func contractDepots(p model.ProblemModel, fleet model.FleetStructure) ([]model.Depot, error) {
	depots := make([]model.Depot, len(p.Depots))
	byName := make(map[string]int, len(p.Depots))
	for i, d := range p.Depots {
		depots[i] = model.Depot{Point: d.Point, Vehicles: map[string]int{}}
		byName[d.Name] = i
	}
	for _, pos := range fleet.ContractPositions() {
		i, ok := byName[pos.SourceDepotName]
		if !ok {
			return nil, fmt.Errorf("fleet position %s: %w: %s", pos.Name, model.ErrUnknownPoint, pos.SourceDepotName)
		}
		if _, err := p.VehicleType(pos.Name); err != nil {
			return nil, fmt.Errorf("fleet position: %w", err)
		}
		depots[i].Vehicles[pos.Name] += pos.Count
	}
	return depots, nil
}

// Universe returns the visit universe days are sampled from.
func (e *Evaluator) Universe() []model.Visit { return e.universe }

// Plan generates the one-day problems of the evaluation from a generator
// seeded with the configured seed. The same seed always yields the same plan.
func (e *Evaluator) Plan() ([]DayPlan, error) {
	return e.PlanWith(rand.New(rand.NewSource(e.cfg.Seed)))
}

// PlanWith generates the one-day problems drawing from rng.
func (e *Evaluator) PlanWith(rng *rand.Rand) ([]DayPlan, error) {
	var plans []DayPlan
	for ci, cd := range e.problem.Days {
		dt, err := DetermineDayType(len(cd.Visits), e.maxVisits)
		if err != nil {
			return nil, fmt.Errorf("characteristic day %d: %w", ci, err)
		}
		for occ := 0; occ < cd.Occurrences; occ++ {
			n := visitCount(rng, dt.VisitsCount(e.maxVisits), len(e.universe))
			plans = append(plans, DayPlan{
				CharacteristicDay: ci,
				Occurrence:        occ,
				DayType:           dt,
				Problem:           e.dayProblem(sampleVisits(rng, e.universe, n)),
			})
		}
	}
	return plans, nil
}

func (e *Evaluator) dayProblem(visits []model.Visit) model.ProblemModel {
	depots := make([]model.Depot, len(e.depots))
	for i, d := range e.depots {
		vs := make(map[string]int, len(d.Vehicles))
		for k, v := range d.Vehicles {
			vs[k] = v
		}
		depots[i] = model.Depot{Point: d.Point, Vehicles: vs}
	}
	return model.ProblemModel{
		Budget:       e.problem.Budget,
		MaxDistance:  e.problem.MaxDistance,
		Depots:       depots,
		Clients:      e.problem.Clients,
		Days:         []model.Day{{Occurrences: 1, Visits: visits}},
		VehicleTypes: e.problem.VehicleTypes,
	}
}

// Evaluate solves every planned day and aggregates the costs. Days are solved
// concurrently up to the configured bound; results do not depend on it.
func (e *Evaluator) Evaluate(ctx context.Context) (EvaluationResult, error) {
	return e.EvaluateWith(ctx, rand.New(rand.NewSource(e.cfg.Seed)))
}

// EvaluateWith is Evaluate drawing the simulated days from rng.
func (e *Evaluator) EvaluateWith(ctx context.Context, rng *rand.Rand) (EvaluationResult, error) {
	plans, err := e.PlanWith(rng)
	if err != nil {
		return EvaluationResult{}, err
	}
	e.log.Infof("simulation: %d days, %d possible visits, fleet of %d contract vehicles",
		len(plans), len(e.universe), countVehicles(e.fleet.ContractPositions()))
	ctx, span := tracer.Start(ctx, "simulation.evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", e.runID), attribute.Int("days", len(plans)))

	days := make([]DayResult, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.Concurrency))
	for i := range plans {
		g.Go(func() error {
			d, err := e.solveDay(gctx, plans[i])
			if err != nil {
				return err
			}
			days[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvaluationResult{}, err
	}

	res := EvaluationResult{RunID: e.runID, PredictedCost: e.fleet.EstimatedCost, Days: days}
	var costs []float64
	for _, d := range days {
		for _, o := range e.observers {
			if err := o.ObserveDay(e.runID, d); err != nil {
				e.log.Warnf("simulation: day observer: %v", err)
			}
		}
		res.RealCost += d.Cost
		res.DroppedVisits += d.NotVisitedClientsCount
		if !d.Solved {
			res.FailedDays++
			continue
		}
		costs = append(costs, float64(d.Cost))
	}
	res.CostOverestimate = res.PredictedCost - res.RealCost
	span.SetAttributes(
		attribute.Int64("real_cost", res.RealCost),
		attribute.Int("failed_days", res.FailedDays),
	)
	if len(costs) > 0 {
		res.MeanDayCost, res.StdDevDayCost = stat.MeanStdDev(costs, nil)
		sort.Float64s(costs)
		res.P90DayCost = stat.Quantile(0.9, stat.Empirical, costs, nil)
	}
	if res.FailedDays > 0 {
		e.log.Warnf("simulation: %d of %d days had no solution", res.FailedDays, len(days))
	}
	e.log.Infof("simulation: predicted %d, real %d, overestimate %d",
		res.PredictedCost, res.RealCost, res.CostOverestimate)
	return res, nil
}

func (e *Evaluator) solveDay(ctx context.Context, plan DayPlan) (DayResult, error) {
	ctx, span := tracer.Start(ctx, "simulation.day")
	defer span.End()
	span.SetAttributes(
		attribute.Int("characteristic_day", plan.CharacteristicDay),
		attribute.Int("occurrence", plan.Occurrence),
		attribute.String("day_type", plan.DayType.String()),
	)

	began := time.Now()
	sol, err := e.solver.Solve(ctx, plan.Problem, vehicles.WithoutSpot())
	if err != nil {
		return DayResult{}, fmt.Errorf("day %d/%d: %w", plan.CharacteristicDay, plan.Occurrence, err)
	}
	d := DayResult{
		CharacteristicDay: plan.CharacteristicDay,
		Occurrence:        plan.Occurrence,
		DayType:           plan.DayType,
		Visits:            len(plan.Problem.Days[0].Visits),
		ElapsedMS:         time.Since(began).Milliseconds(),
	}
	if sol == nil {
		d.Cost = e.cfg.FailedDayPenalty
	} else {
		d.Solved = true
		d.NotVisitedClientsCount = sol.NotVisitedClientsCount
		d.UsedVehicles = len(sol.UsedVehicles)
		d.Cost = sol.UsageCost()
	}
	e.log.Debugw("simulation: day solved", map[string]any{
		"day":        plan.CharacteristicDay,
		"occurrence": plan.Occurrence,
		"type":       plan.DayType.String(),
		"visits":     d.Visits,
		"solved":     d.Solved,
		"cost":       d.Cost,
	})
	if e.bus != nil {
		e.bus.Publish(events.DayEvent{
			RunID:             e.runID,
			CharacteristicDay: d.CharacteristicDay,
			Occurrence:        d.Occurrence,
			DayType:           d.DayType.String(),
			Visits:            d.Visits,
			Cost:              d.Cost,
			Dropped:           d.NotVisitedClientsCount,
			Failed:            !d.Solved,
			Duration:          time.Since(began),
			Time:              time.Now(),
		})
	}
	return d, nil
}

func countVehicles(ps []model.FleetPosition) int {
	n := 0
	for _, p := range ps {
		n += p.Count
	}
	return n
}
