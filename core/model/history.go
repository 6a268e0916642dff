package model

// HistoryPoint is one aggregated sample of a historical series.
type HistoryPoint struct {
	Time  Timestamp `json:"time"`
	Value OptFloat  `json:"value"`
}

// HistorySeries is the response of the historical query endpoint.
type HistorySeries struct {
	Measurement string         `json:"measurement"`
	Field       string         `json:"field"`
	Duration    string         `json:"duration"`
	Window      string         `json:"window"`
	Data        []HistoryPoint `json:"data"`
}
