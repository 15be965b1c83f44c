package events

import "time"

// DayEvent is published for each simulated day of a fleet evaluation.
type DayEvent struct {
	RunID             string
	CharacteristicDay int
	Occurrence        int
	DayType           string
	Visits            int
	Cost              int64
	Dropped           int
	Failed            bool
	Duration          time.Duration
	Time              time.Time
}
