package metrics

import "github.com/kilianp07/fleetsizer/core/events"

// MetricsSink records routing searches.
type MetricsSink interface {
	RecordSolve(ev events.SolveEvent) error
}

// DayRecorder records simulated days.
type DayRecorder interface {
	RecordDay(ev events.DayEvent) error
}

// FleetRecorder records fleet predictions.
type FleetRecorder interface {
	RecordFleet(ev events.FleetEvent) error
}

// Closer is implemented by sinks holding resources that must be flushed.
type Closer interface {
	Close() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(events.SolveEvent) error { return nil }
func (NopSink) RecordDay(events.DayEvent) error     { return nil }
func (NopSink) RecordFleet(events.FleetEvent) error { return nil }

// Close closes s when it implements Closer.
func Close(s MetricsSink) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
