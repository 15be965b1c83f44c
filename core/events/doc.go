// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - SolveEvent: a routing model was solved (or found infeasible)
//   - DayEvent: one simulated day of a fleet evaluation finished
//   - FleetEvent: a fleet structure was predicted
package events
