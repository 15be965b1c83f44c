package events

import "time"

// SolveEvent is published after every routing search.
type SolveEvent struct {
	RunID         string
	Encoding      string
	Metaheuristic string
	Feasible      bool
	Objective     int64
	UsedVehicles  int
	Dropped       int
	Iterations    int
	Duration      time.Duration
	Time          time.Time
}
