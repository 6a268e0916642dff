package simulator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestBatteryApplyPower(t *testing.T) {
	b := NewBattery(50)
	got := b.ApplyPower(100, time.Minute)
	if got != b.DischargeRateKW {
		t.Fatalf("expected discharge limited to %.1f, got %.1f", b.DischargeRateKW, got)
	}
	got = b.ApplyPower(80, time.Hour)
	assert.InDelta(t, 20-80.0/60, got, 1e-9)
	assert.InDelta(t, 0, b.SoCPercent, 1e-9)

	b = NewBattery(99)
	got = b.ApplyPower(-6.6, time.Hour)
	assert.InDelta(t, -0.4, got, 1e-9)
	assert.InDelta(t, 100, b.SoCPercent, 1e-9)

	assert.Zero(t, b.ApplyPower(10, 0))
	assert.InDelta(t, 403.2, b.Voltage(), 1e-9)
}

func TestPhaseAt(t *testing.T) {
	cases := map[time.Duration]Phase{
		0:                              PhaseParked,
		45 * time.Second:               PhaseAccelerating,
		5 * time.Minute:                PhaseCruising,
		570 * time.Second:              PhaseDecelerating,
		12 * time.Minute:               PhaseParked,
		18 * time.Minute:               PhaseCharging,
		CycleLength + 5*time.Minute:    PhaseCruising,
		2*CycleLength + 19*time.Minute: PhaseCharging,
	}
	for at, want := range cases {
		assert.Equal(t, want, phaseAt(at), "at %s", at)
	}
}

func TestVehicleCycleCompletesTrip(t *testing.T) {
	v := NewVehicle("sim", 80, 1)
	for at := time.Duration(0); at <= CycleLength; at += time.Second {
		v.Step(t0.Add(at))
	}
	trips := v.Trips().Recent(5)
	require.Len(t, trips, 1)
	tr := trips[0]
	assert.Greater(t, tr.DistanceKm, 5.0)
	assert.Greater(t, tr.EnergyConsumedKWh, tr.EnergyRegenKWh)
	assert.Greater(t, tr.EfficiencyWhPerKm, 0.0)
	assert.False(t, v.Trips().Current(t0.Add(CycleLength)).Active)
	assert.Equal(t, PhaseParked, v.Phase())
}

func TestVehicleSnapshotProjectsFresh(t *testing.T) {
	v := NewVehicle("leaf-sim", 80, 7)
	v.Step(t0)
	raw, err := json.Marshal(v.Snapshot(t0))
	require.NoError(t, err)

	snap, err := model.ParseSnapshot(raw)
	require.NoError(t, err)
	require.NotNil(t, snap.Battery)
	assert.Len(t, snap.Battery.CellVoltages, CellsInSeries)

	m := presentation.Project(snap, t0.Add(time.Second), presentation.DefaultConfig())
	for _, g := range model.Groups {
		assert.Equal(t, presentation.Fresh, m.Freshness[g], "group %s", g)
	}
	assert.Equal(t, "80", m.Text(presentation.KeySoC))
	assert.Equal(t, "leaf-sim", m.Text(presentation.KeyHostname))
	assert.Equal(t, presentation.FixAcquired, m.GPSFix)
	assert.Equal(t, "96", m.Text(presentation.KeyCellCount))
}

func TestVehicleCells(t *testing.T) {
	v := NewVehicle("sim", 60, 3)
	report := v.Cells(t0)
	require.Len(t, report.ModuleKeys(), model.ModuleCount)
	for _, k := range report.ModuleKeys() {
		m := report.Cells[k]
		hi, _ := m.MaxVoltageMV.Get()
		lo, _ := m.MinVoltageMV.Get()
		delta, _ := m.VoltageDeltaMV.Get()
		assert.GreaterOrEqual(t, hi, lo)
		assert.InDelta(t, hi-lo, delta, 1e-9)
	}
}
