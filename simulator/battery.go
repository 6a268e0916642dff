package simulator

import (
	"math"
	"time"
)

const (
	// CellsInSeries is the cell count of the simulated pack.
	CellsInSeries = 96
	// CellsPerModule groups the cells into the four reported modules.
	CellsPerModule = CellsInSeries / 4

	emptyCellV = 3.4
	fullCellV  = 4.2
)

// Battery models the traction pack with charge and discharge limits.
type Battery struct {
	CapacityKWh     float64
	SoCPercent      float64
	ChargeRateKW    float64
	DischargeRateKW float64
}

// NewBattery returns a 40 kWh pack at the given state of charge.
func NewBattery(socPercent float64) *Battery {
	return &Battery{
		CapacityKWh:     40,
		SoCPercent:      clamp(socPercent, 0, 100),
		ChargeRateKW:    6.6,
		DischargeRateKW: 80,
	}
}

// ApplyPower updates the SoC according to the requested power and duration.
// Positive power discharges the pack, negative power charges it. It returns
// the power actually applied after enforcing limits.
func (b *Battery) ApplyPower(powerKW float64, dt time.Duration) float64 {
	hours := dt.Hours()
	if hours <= 0 || b.CapacityKWh <= 0 {
		return 0
	}
	soc := b.SoCPercent / 100

	actual := powerKW
	switch {
	case powerKW > 0:
		actual = math.Min(powerKW, b.DischargeRateKW)
		energy := math.Min(actual*hours, soc*b.CapacityKWh)
		actual = energy / hours
		soc -= energy / b.CapacityKWh
	case powerKW < 0:
		p := math.Min(-powerKW, b.ChargeRateKW)
		energy := math.Min(p*hours, (1-soc)*b.CapacityKWh)
		actual = -energy / hours
		soc += energy / b.CapacityKWh
	}
	b.SoCPercent = clamp(soc*100, 0, 100)
	return actual
}

// CellVoltage is the resting cell voltage for the current SoC.
func (b *Battery) CellVoltage() float64 {
	return emptyCellV + (fullCellV-emptyCellV)*b.SoCPercent/100
}

// Voltage is the pack voltage for the current SoC.
func (b *Battery) Voltage() float64 { return CellsInSeries * b.CellVoltage() }

// TimeToFull estimates the minutes left at the given charge power.
func (b *Battery) TimeToFull(powerKW float64) float64 {
	if powerKW <= 0 {
		return 0
	}
	missing := (100 - b.SoCPercent) / 100 * b.CapacityKWh
	return missing / powerKW * 60
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
