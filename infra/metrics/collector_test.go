package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/events"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
	infralogger "github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

type countingSink struct {
	solves, days, fleets int
}

func (c *countingSink) RecordSolve(events.SolveEvent) error { c.solves++; return nil }
func (c *countingSink) RecordDay(events.DayEvent) error     { c.days++; return nil }
func (c *countingSink) RecordFleet(events.FleetEvent) error { c.fleets++; return nil }

func TestEventCollectorDrainsUntilBusCloses(t *testing.T) {
	bus := eventbus.New(eventbus.WithBuffer(16))
	sink := &countingSink{}
	done := StartEventCollector(context.Background(), bus, sink, infralogger.NopLogger{})

	bus.Publish(events.SolveEvent{})
	bus.Publish(events.DayEvent{})
	bus.Publish(events.DayEvent{})
	bus.Publish(events.FleetEvent{})
	bus.Publish("unrelated")
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 1, sink.solves)
	assert.Equal(t, 2, sink.days)
	assert.Equal(t, 1, sink.fleets)
}

func TestEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{}, nil)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestEventCollectorWithoutBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{}, nil)
	_, ok := <-done
	require.False(t, ok)
}
