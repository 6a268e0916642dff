// Package presentation turns a telemetry snapshot into the flat, formatted
// display mapping consumed by dashboard views.
//
// Everything in this package is pure: the same snapshot, clock reading and
// configuration always produce the same mapping. Ordering, transport and
// state live in the callers (core/ordering, app).
package presentation
