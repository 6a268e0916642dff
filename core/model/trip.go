package model

import "time"

// TripMetrics are the aggregates of a trip.
type TripMetrics struct {
	DurationMinutes   float64 `json:"duration_minutes"`
	DistanceKm        float64 `json:"distance_km"`
	EnergyConsumedKWh float64 `json:"energy_consumed_kwh"`
	EnergyRegenKWh    float64 `json:"energy_regen_kwh"`
	EfficiencyWhPerKm float64 `json:"efficiency_wh_per_km"`
	AvgSpeedKmh       float64 `json:"avg_speed_kmh"`
}

// Trip is a completed trip.
type Trip struct {
	ID        string    `json:"trip_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TripMetrics
}

// CurrentTrip is the in-progress trip. Active is false when the vehicle is
// parked.
type CurrentTrip struct {
	Active          bool        `json:"active"`
	ID              string      `json:"trip_id,omitempty"`
	StartTime       time.Time   `json:"start_time,omitempty"`
	DurationMinutes float64     `json:"duration_minutes"`
	Metrics         TripMetrics `json:"metrics"`
}
