package events

import "time"

// FleetEvent is published when a fleet structure has been predicted.
type FleetEvent struct {
	RunID         string
	Method        string
	Vehicles      int
	EstimatedCost int64
	Duration      time.Duration
	Time          time.Time
}
