package metrics

import (
	"errors"

	"github.com/kilianp07/fleetsizer/core/events"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSolve(ev events.SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDay forwards simulated days to the sinks supporting them.
func (m *MultiSink) RecordDay(ev events.DayEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DayRecorder); ok {
			if err := rec.RecordDay(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleet forwards fleet predictions to the sinks supporting them.
func (m *MultiSink) RecordFleet(ev events.FleetEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetRecorder); ok {
			if err := rec.RecordFleet(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := Close(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
