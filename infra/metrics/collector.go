package metrics

import (
	"context"

	"github.com/kilianp07/fleetsizer/core/events"
	"github.com/kilianp07/fleetsizer/core/logger"
	coremetrics "github.com/kilianp07/fleetsizer/core/metrics"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil && log != nil {
					log.Warnf("metrics: %T not recorded: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.SolveEvent:
		return sink.RecordSolve(e)
	case events.DayEvent:
		if r, ok := sink.(coremetrics.DayRecorder); ok {
			return r.RecordDay(e)
		}
	case events.FleetEvent:
		if r, ok := sink.(coremetrics.FleetRecorder); ok {
			return r.RecordFleet(e)
		}
	}
	return nil
}
