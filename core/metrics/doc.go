// Package metrics defines the sinks recording planning metrics. Sinks like
// PromSink and InfluxSink record routing searches, simulated days and fleet
// predictions and can be combined with NewMultiSink. The factory helpers
// return a MultiSink automatically when multiple sinks are configured.
package metrics
