// Package solver turns problem models into routing solutions and fleet
// structures.
package solver

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kilianp07/fleetsizer/core/constraint"
	"github.com/kilianp07/fleetsizer/core/events"
	"github.com/kilianp07/fleetsizer/core/logger"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

var tracer = otel.Tracer("github.com/kilianp07/fleetsizer/core/solver")

// VrpSolver builds the constraint model of a problem and runs the routing search.
type VrpSolver struct {
	cfg    Config
	params routing.SearchParameters
	bus    eventbus.EventBus
	log    logger.Logger
	runID  string
	cache  SolutionCache
}

// NewVrpSolver validates the config. bus and log may be nil.
func NewVrpSolver(cfg Config, bus eventbus.EventBus, log logger.Logger) (*VrpSolver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vrp solver config: %w", err)
	}
	params, err := cfg.SearchParameters()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	params.Logger = log
	return &VrpSolver{cfg: cfg, params: params, bus: bus, log: log}, nil
}

// WithRunID returns a copy tagging its events with id.
func (s *VrpSolver) WithRunID(id string) *VrpSolver {
	cp := *s
	cp.runID = id
	return &cp
}

// WithCache returns a copy reusing solutions stored in c.
func (s *VrpSolver) WithCache(c SolutionCache) *VrpSolver {
	cp := *s
	cp.cache = c
	return &cp
}

// Config returns the normalized config.
func (s *VrpSolver) Config() Config { return s.cfg }

// Params returns the search parameters used by Solve.
func (s *VrpSolver) Params() routing.SearchParameters { return s.params }

// Build creates the constraint model of p with the configured encoding.
func (s *VrpSolver) Build(p model.ProblemModel, opts ...vehicles.Option) (*constraint.Model, error) {
	if s.cfg.SpotQuota > 0 {
		opts = append([]vehicles.Option{vehicles.WithSpotQuota(s.cfg.SpotQuota)}, opts...)
	}
	vm, err := vehicles.New(p, opts...)
	if err != nil {
		return nil, fmt.Errorf("vehicle pool: %w", err)
	}
	enc, err := constraint.NewEncoding(s.cfg.Encoding, p, vm)
	if err != nil {
		return nil, err
	}
	return constraint.Build(p, vm, enc)
}

// Solve builds and solves p. It returns a nil solution and a nil error when
// no assignment performing every mandatory node exists.
func (s *VrpSolver) Solve(ctx context.Context, p model.ProblemModel, opts ...vehicles.Option) (*model.VrpSolution, error) {
	m, err := s.Build(p, opts...)
	if err != nil {
		return nil, err
	}
	key := s.cacheKey(p, m)
	if key != "" {
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warnf("vrp: solution cache get: %v", err)
		case ok:
			s.log.Debugf("vrp: solution cache hit %s", key[:12])
			return cached, nil
		}
	}
	sol, _ := s.SolveModel(ctx, m, s.params)
	if sol != nil && key != "" {
		if err := s.cache.Put(ctx, key, sol); err != nil {
			s.log.Warnf("vrp: solution cache put: %v", err)
		}
	}
	return sol, nil
}

func (s *VrpSolver) cacheKey(p model.ProblemModel, m *constraint.Model) string {
	if s.cache == nil {
		return ""
	}
	key, err := SolutionKey(p, s.cfg, m.Vehicles.Vehicles())
	if err != nil {
		s.log.Warnf("vrp: solution cache key: %v", err)
		return ""
	}
	return key
}

// SolveModel runs one search over an already built model.
func (s *VrpSolver) SolveModel(ctx context.Context, m *constraint.Model, params routing.SearchParameters) (*model.VrpSolution, routing.Stats) {
	if params.Logger == nil {
		params.Logger = s.log
	}
	ctx, span := tracer.Start(ctx, "vrp.solve", trace.WithAttributes(
		attribute.String("encoding", m.Encoding.Name()),
		attribute.String("metaheuristic", params.Metaheuristic.String()),
		attribute.Int("vehicles", m.Vehicles.Count()),
	))
	defer span.End()

	began := time.Now()
	a := m.Solve(ctx, params)
	ev := events.SolveEvent{
		RunID:         s.runID,
		Encoding:      m.Encoding.Name(),
		Metaheuristic: params.Metaheuristic.String(),
		Duration:      time.Since(began),
		Time:          time.Now(),
	}
	if a == nil {
		span.SetAttributes(attribute.Bool("feasible", false))
		s.log.Warnf("vrp: no feasible assignment (%s, %s)", ev.Encoding, ev.Metaheuristic)
		s.publish(ev)
		return nil, routing.Stats{Metaheuristic: params.Metaheuristic, WallTime: ev.Duration}
	}
	sol := Extract(m, a)
	ev.Feasible = true
	ev.Objective = sol.ObjectiveValue
	ev.UsedVehicles = len(sol.UsedVehicles)
	ev.Dropped = sol.NotVisitedClientsCount
	ev.Iterations = a.Stats().Iterations
	s.publish(ev)
	span.SetAttributes(
		attribute.Bool("feasible", true),
		attribute.Int64("objective", sol.ObjectiveValue),
		attribute.Int("dropped", sol.NotVisitedClientsCount),
	)
	s.log.Debugw("vrp: solved", map[string]any{
		"objective":     sol.ObjectiveValue,
		"used_vehicles": len(sol.UsedVehicles),
		"dropped":       sol.NotVisitedClientsCount,
		"iterations":    ev.Iterations,
	})
	return &sol, a.Stats()
}

func (s *VrpSolver) publish(ev events.SolveEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// Extract translates an assignment into domain terms. Routes follow the
// successor chain of each used vehicle from its start to its end.
func Extract(m *constraint.Model, a *routing.Assignment) model.VrpSolution {
	rm, mgr := m.Routing, m.Manager
	nodes := m.Encoding.Nodes()
	t, d := m.Time(), m.Demand()

	sol := model.VrpSolution{ObjectiveValue: a.ObjectiveValue()}
	for _, v := range m.Vehicles.Vehicles() {
		if !rm.IsVehicleUsed(a, v.Index) {
			sol.UnusedVehicles = append(sol.UnusedVehicles, v)
			continue
		}
		sol.UsedVehicles = append(sol.UsedVehicles, v)
		route := model.Route{Vehicle: v}
		idx := rm.Start(v.Index)
		for {
			n := mgr.IndexToNode(idx)
			route.Stops = append(route.Stops, model.Stop{
				PointName: nodes.Point(n).Name,
				Node:      n,
				Time:      a.Value(t.CumulVar(idx)),
				Load:      a.Value(d.CumulVar(idx)),
				IsDepot:   nodes.IsDepot(n),
			})
			if rm.IsEnd(idx) {
				break
			}
			idx = a.Value(rm.NextVar(idx))
		}
		sol.Routes = append(sol.Routes, route)
	}
	for n := 0; n < nodes.VisitCount(); n++ {
		idx := mgr.NodeToIndex(n)
		if a.Value(rm.NextVar(idx)) == idx {
			sol.NotVisitedClientsCount++
		}
	}
	return sol
}
