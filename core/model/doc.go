// Package model defines the telemetry snapshot received from the vehicle API
// and the auxiliary payloads (history series, trips, cell reports).
//
// Every scalar is optional. Decoding is tolerant: a value of the wrong JSON
// type is recorded as absent instead of failing the whole snapshot, so a
// single bad sensor reading never blanks the dashboard.
package model
