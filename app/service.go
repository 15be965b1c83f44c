// Package app assembles the solvers, the event bus and the observability
// stack described by a configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/fleetsizer/config"
	"github.com/kilianp07/fleetsizer/core/factory"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/runlog"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/infra/cache"
	"github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/infra/metrics"
	"github.com/kilianp07/fleetsizer/infra/tracing"
	"github.com/kilianp07/fleetsizer/internal/eventbus"

	// Registers the postgres run log store.
	_ "github.com/kilianp07/fleetsizer/infra/postgres"
)

// Service holds everything a command needs to predict and evaluate fleets.
type Service struct {
	Config *config.Config
	Bus    *eventbus.Bus
	Vrp    *solver.VrpSolver
	RunLog runlog.Store

	sink          coremetrics.MetricsSink
	cache         solver.SolutionCache
	log           logger.Logger
	stopCollector context.CancelFunc
	collectorDone <-chan struct{}
	stopTracing   func(context.Context) error
}

// New sets up logging, tracing, the metrics sinks, the solution cache and the
// run log. Close releases them in reverse order.
func New(ctx context.Context, cfg *config.Config) (svc *Service, err error) {
	if err := logger.Setup(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := logger.New("service")
	s := &Service{Config: cfg, log: log}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if s.stopTracing, err = tracing.Init(ctx, cfg.Tracing, log); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	s.Bus = eventbus.New(eventbus.WithBuffer(256))
	collectCtx, cancel := context.WithCancel(context.Background())
	s.stopCollector = cancel
	s.collectorDone = metrics.StartEventCollector(collectCtx, s.Bus, s.sink, logger.New("metrics"))

	if s.cache, err = cache.New(cfg.Cache); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	vrp, err := solver.NewVrpSolver(cfg.Solver.Config, s.Bus, logger.New("solver"))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		vrp = vrp.WithCache(s.cache)
	}
	s.Vrp = vrp

	if s.RunLog, err = runlog.Open(cfg.RunLog); err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	return s, nil
}

// Logger returns a logger for component.
func (s *Service) Logger(component string) logger.Logger { return logger.New(component) }

// FleetSolver creates the configured fleet method, or method when not empty.
func (s *Service) FleetSolver(method string) (solver.FleetSolver, error) {
	mc := s.Config.Solver.FleetMethod
	if method != "" && method != mc.Type {
		mc = factory.ModuleConfig{Type: method}
	}
	return solver.NewFleetSolver(mc, s.Vrp)
}

// Evaluate simulates fleet over p, recording every day in the run log.
func (s *Service) Evaluate(ctx context.Context, runID string, p model.ProblemModel, fleet model.FleetStructure) (simulation.EvaluationResult, error) {
	opts := []simulation.Option{
		simulation.WithBus(s.Bus),
		simulation.WithLogger(logger.New("simulation")),
		simulation.WithRunID(runID),
	}
	if s.RunLog != nil {
		opts = append(opts, simulation.WithObserver(runlog.Observer{Store: s.RunLog}))
	}
	ev, err := simulation.NewEvaluator(p, fleet, s.Vrp.WithRunID(runID), s.Config.Simulation, opts...)
	if err != nil {
		return simulation.EvaluationResult{}, err
	}
	return ev.Evaluate(ctx)
}

// Close flushes the metrics, closes the stores and stops tracing.
func (s *Service) Close() error {
	var errs []error
	if s.Bus != nil {
		s.Bus.Close()
	}
	if s.stopCollector != nil {
		<-s.collectorDone
		s.stopCollector()
	}
	if s.sink != nil {
		errs = append(errs, coremetrics.Close(s.sink))
	}
	if c, ok := s.cache.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.RunLog != nil {
		errs = append(errs, s.RunLog.Close())
	}
	tracing.ShutdownWithTimeout(context.Background(), s.stopTracing, s.log)
	errs = append(errs, logger.Shutdown())
	return errors.Join(errs...)
}
