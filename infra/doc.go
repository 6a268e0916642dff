// Package infra holds the adapters behind the core interfaces: the upstream
// telemetry source, the MQTT client, metrics sinks, the display cache, the
// zerolog logger and Sentry monitoring.
package infra
