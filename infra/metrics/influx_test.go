package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/events"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.bodies...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordSolve(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordSolve(events.SolveEvent{
		RunID: "r1", Encoding: "intervals", Metaheuristic: "sa", Feasible: true,
		Objective: 1200, UsedVehicles: 2, Dropped: 1, Iterations: 40,
		Duration: 1500 * time.Millisecond, Time: now,
	}))
	p := write.NewPointWithMeasurement("vrp_solve").
		AddTag("encoding", "intervals").
		AddTag("metaheuristic", "sa").
		AddTag("feasible", "true").
		AddTag("run_id", "r1").
		AddField("objective", int64(1200)).
		AddField("used_vehicles", 2).
		AddField("dropped", 1).
		AddField("iterations", 40).
		AddField("duration_ms", int64(1500)).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, rec.lines())
}

func TestInfluxSink_RecordDayAndFleet(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordDay(events.DayEvent{
		CharacteristicDay: 1, Occurrence: 3, DayType: "hard", Visits: 8,
		Cost: 500, Failed: false, Duration: time.Second, Time: now,
	}))
	require.NoError(t, sink.RecordFleet(events.FleetEvent{
		Method: "daily", Vehicles: 3, EstimatedCost: 3250, Duration: 20 * time.Millisecond, Time: now,
	}))

	day := write.NewPointWithMeasurement("simulated_day").
		AddTag("day_type", "hard").
		AddTag("failed", "false").
		AddField("characteristic_day", 1).
		AddField("occurrence", 3).
		AddField("visits", 8).
		AddField("cost", int64(500)).
		AddField("dropped", 0).
		AddField("duration_ms", int64(1000)).
		SetTime(now)
	fleet := write.NewPointWithMeasurement("fleet_prediction").
		AddTag("method", "daily").
		AddField("vehicles", 3).
		AddField("estimated_cost", int64(3250)).
		AddField("duration_ms", int64(20)).
		SetTime(now)
	assert.Equal(t, []string{line(day), line(fleet)}, rec.lines())
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{
		URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket",
	})
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called, "health endpoint not called")
}
