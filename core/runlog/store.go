// Package runlog persists one JSON line per simulated day so evaluations can
// be inspected and compared after the run.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/fleetsizer/core/simulation"
)

// Record captures one simulated day of an evaluation run.
type Record struct {
	Timestamp time.Time            `json:"timestamp"`
	RunID     string               `json:"run_id"`
	Day       simulation.DayResult `json:"day"`
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	RunID      string
	DayType    string
	FailedOnly bool
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.DayType != "" && r.Day.DayType.String() != q.DayType {
		return false
	}
	if q.FailedOnly && r.Day.Solved {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Observer adapts a Store to simulation.DayObserver.
type Observer struct {
	Store Store
	Now   func() time.Time
}

// ObserveDay appends the day to the store.
func (o Observer) ObserveDay(runID string, d simulation.DayResult) error {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return o.Store.Append(context.Background(), Record{Timestamp: now().UTC(), RunID: runID, Day: d})
}

var _ simulation.DayObserver = Observer{}
