// Package source talks to the upstream telemetry API. It pulls status,
// history, trips, exports and cell detail over HTTP, receives realtime
// snapshots over WebSocket or MQTT, and falls back to polling while the push
// channel is down. Every snapshot leaves this package as a model.Envelope.
package source
