package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/fleetsizer/core/events"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
)

// PromConfig configures the Prometheus sink.
type PromConfig struct {
	// ListenAddr serves /metrics while the command runs when set.
	ListenAddr string `json:"listen_addr"`
	// Textfile writes the gathered metrics to this path on Close when set.
	Textfile string `json:"textfile"`
}

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	cfg      PromConfig
	gatherer prometheus.Gatherer
	server   *http.Server

	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	dropped  *prometheus.CounterVec
	days     *prometheus.CounterVec
	dayCost  *prometheus.HistogramVec
	fleet    *prometheus.GaugeVec
}

// NewPromSink registers planning metrics on the default Prometheus registry.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// Nil arguments default to the global Prometheus registry.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer, g prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	s := &PromSink{cfg: cfg, gatherer: g}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsizer_solves_total",
		Help: "Routing searches run, by outcome",
	}, []string{"encoding", "metaheuristic", "feasible"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetsizer_solve_duration_seconds",
		Help:    "Wall time of routing searches",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"encoding", "metaheuristic"})); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsizer_dropped_visits_total",
		Help: "Visits left unperformed by feasible searches",
	}, []string{"encoding"})); err != nil {
		return nil, err
	}
	if s.days, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetsizer_simulated_days_total",
		Help: "Simulated days, by day type and outcome",
	}, []string{"day_type", "failed"})); err != nil {
		return nil, err
	}
	if s.dayCost, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetsizer_simulated_day_cost",
		Help:    "Cost charged for a simulated day",
		Buckets: prometheus.ExponentialBuckets(100, 2, 12),
	}, []string{"day_type"})); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetsizer_predicted_fleet_cost",
		Help: "Estimated cost of the last predicted fleet",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Serve exposes the registry on cfg.ListenAddr until Close. It is a no-op
// without a listen address.
func (s *PromSink) Serve() error {
	if s.cfg.ListenAddr == "" || s.server != nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.server = &http.Server{Addr: s.cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = s.server.ListenAndServe() }()
	return nil
}

// RecordSolve counts the search and observes its duration.
func (s *PromSink) RecordSolve(ev events.SolveEvent) error {
	s.solves.WithLabelValues(ev.Encoding, ev.Metaheuristic, strconv.FormatBool(ev.Feasible)).Inc()
	s.duration.WithLabelValues(ev.Encoding, ev.Metaheuristic).Observe(ev.Duration.Seconds())
	if ev.Feasible {
		s.dropped.WithLabelValues(ev.Encoding).Add(float64(ev.Dropped))
	}
	return nil
}

// RecordDay counts the simulated day and observes its cost.
func (s *PromSink) RecordDay(ev events.DayEvent) error {
	s.days.WithLabelValues(ev.DayType, strconv.FormatBool(ev.Failed)).Inc()
	s.dayCost.WithLabelValues(ev.DayType).Observe(float64(ev.Cost))
	return nil
}

// RecordFleet sets the predicted cost gauge of the method.
func (s *PromSink) RecordFleet(ev events.FleetEvent) error {
	s.fleet.WithLabelValues(ev.Method).Set(float64(ev.EstimatedCost))
	return nil
}

// Close stops the HTTP server and writes the textfile when configured.
func (s *PromSink) Close() error {
	var errs []error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.server.Shutdown(ctx))
		s.server = nil
	}
	if s.cfg.Textfile != "" {
		errs = append(errs, prometheus.WriteToTextfile(s.cfg.Textfile, s.gatherer))
	}
	return errors.Join(errs...)
}

var (
	_ coremetrics.DayRecorder   = (*PromSink)(nil)
	_ coremetrics.FleetRecorder = (*PromSink)(nil)
	_ coremetrics.Closer        = (*PromSink)(nil)
)
