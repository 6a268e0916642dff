package presentation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CellStatistics summarises a cell voltage sequence in mV. Indexes are 1-based
// positions within the filtered sequence. OK is false when no cell reported a
// positive voltage.
type CellStatistics struct {
	OK       bool
	Min      float64
	Max      float64
	Mean     float64
	MinIndex int
	MaxIndex int
	Count    int
}

// Spread is Max minus Min.
func (c CellStatistics) Spread() float64 { return c.Max - c.Min }

// CellStats drops non-positive readings and computes the extrema and mean of
// the rest.
func CellStats(cells []float64) CellStatistics {
	valid := make([]float64, 0, len(cells))
	for _, v := range cells {
		if v > 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return CellStatistics{}
	}
	minIdx := floats.MinIdx(valid)
	maxIdx := floats.MaxIdx(valid)
	return CellStatistics{
		OK:       true,
		Min:      valid[minIdx],
		Max:      valid[maxIdx],
		Mean:     stat.Mean(valid, nil),
		MinIndex: minIdx + 1,
		MaxIndex: maxIdx + 1,
		Count:    len(valid),
	}
}
