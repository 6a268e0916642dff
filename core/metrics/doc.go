// Package metrics defines the observability events emitted by the display
// pipeline and a registry of sinks able to record them. Sinks implement
// MetricsSink and any of the optional *Recorder interfaces; callers type
// assert before recording optional events.
package metrics
