package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/fleetsizer/core/events"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
	"github.com/kilianp07/fleetsizer/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes planning events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes a vrp_solve point.
func (s *InfluxSink) RecordSolve(ev events.SolveEvent) error {
	p := write.NewPointWithMeasurement("vrp_solve").
		AddTag("encoding", ev.Encoding).
		AddTag("metaheuristic", ev.Metaheuristic).
		AddTag("feasible", strconv.FormatBool(ev.Feasible))
	if ev.RunID != "" {
		p = p.AddTag("run_id", ev.RunID)
	}
	p = p.AddField("objective", ev.Objective).
		AddField("used_vehicles", ev.UsedVehicles).
		AddField("dropped", ev.Dropped).
		AddField("iterations", ev.Iterations).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDay writes a simulated_day point.
func (s *InfluxSink) RecordDay(ev events.DayEvent) error {
	p := write.NewPointWithMeasurement("simulated_day").
		AddTag("day_type", ev.DayType).
		AddTag("failed", strconv.FormatBool(ev.Failed))
	if ev.RunID != "" {
		p = p.AddTag("run_id", ev.RunID)
	}
	p = p.AddField("characteristic_day", ev.CharacteristicDay).
		AddField("occurrence", ev.Occurrence).
		AddField("visits", ev.Visits).
		AddField("cost", ev.Cost).
		AddField("dropped", ev.Dropped).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFleet writes a fleet_prediction point.
func (s *InfluxSink) RecordFleet(ev events.FleetEvent) error {
	p := write.NewPointWithMeasurement("fleet_prediction").
		AddTag("method", ev.Method)
	if ev.RunID != "" {
		p = p.AddTag("run_id", ev.RunID)
	}
	p = p.AddField("vehicles", ev.Vehicles).
		AddField("estimated_cost", ev.EstimatedCost).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
