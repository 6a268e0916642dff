package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoCCategoryBoundaries(t *testing.T) {
	cases := map[float64]Category{
		0:     CategoryError,
		19:    CategoryError,
		19.99: CategoryError,
		20:    CategoryWarning,
		39:    CategoryWarning,
		40:    CategoryNormal,
		100:   CategoryNormal,
	}
	for soc, want := range cases {
		assert.Equal(t, want, SoCCategory(soc), "soc %v", soc)
	}
}

func TestTemperatureCategoryClosedUpper(t *testing.T) {
	th := Thresholds{NormalMax: 20, WarmMax: 50, HotMax: 60}
	cases := map[float64]Category{
		-10:  CategoryNormal,
		20:   CategoryNormal,
		49.9: CategoryNormal,
		50:   CategoryWarm,
		59:   CategoryWarm,
		60:   CategoryHot,
		85:   CategoryHot,
	}
	for temp, want := range cases {
		assert.Equal(t, want, TemperatureCategory(temp, th), "temp %v", temp)
	}
	assert.Equal(t, CategoryWarm, TemperatureCategory(80, MotorThresholds))
	assert.Equal(t, CategoryHot, TemperatureCategory(100, InverterThresholds))
}

func TestPowerDirectionDeadBand(t *testing.T) {
	cases := map[float64]PowerFlow{
		0.05:  FlowIdle,
		-0.05: FlowIdle,
		0.1:   FlowIdle,
		-0.1:  FlowIdle,
		0.2:   FlowDischarging,
		-0.2:  FlowRegenerating,
		45:    FlowDischarging,
	}
	for kw, want := range cases {
		assert.Equal(t, want, PowerDirection(kw), "power %v", kw)
	}
}

func TestDirectionLabel(t *testing.T) {
	assert.Equal(t, DirectionNeutral, DirectionLabel(0))
	assert.Equal(t, DirectionForward, DirectionLabel(1))
	assert.Equal(t, DirectionReverse, DirectionLabel(2))
	assert.Equal(t, DirectionUnknown, DirectionLabel(3))
	assert.Equal(t, DirectionUnknown, DirectionLabel(1.5))
	assert.Equal(t, DirectionUnknown, DirectionLabel(-1))
}

func TestChargingStatusOrder(t *testing.T) {
	st := ChargingStatus(true, true, false, true)
	assert.Equal(t, "charging [hw-fault] [input-fault]", st.String())
	assert.Equal(t, CategoryError, st.Category())

	st = ChargingStatus(false, true, true, true)
	assert.Equal(t, "idle [hw-fault] [over-temp] [input-fault]", st.String())

	assert.Equal(t, "charging", ChargingStatus(true, false, false, false).String())
	assert.Equal(t, CategoryNormal, ChargingStatus(true, false, false, false).Category())
	assert.Equal(t, "idle", ChargingStatus(false, false, false, false).String())
}

func TestHistoryWindow(t *testing.T) {
	assert.Equal(t, "1m", HistoryWindow("1h"))
	assert.Equal(t, "5m", HistoryWindow("6h"))
	assert.Equal(t, "10m", HistoryWindow("24h"))
	assert.Equal(t, "1h", HistoryWindow("7d"))
	assert.Equal(t, "5m", HistoryWindow("30d"))
	assert.Equal(t, "5m", HistoryWindow(""))
	assert.True(t, ValidHistoryDuration("7d"))
	assert.False(t, ValidHistoryDuration("2h"))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, BatteryThresholds.Validate())
	assert.Error(t, Thresholds{NormalMax: 50, WarmMax: 50, HotMax: 60}.Validate())

	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	cfg.MotorTemp = Thresholds{NormalMax: 100, WarmMax: 80, HotMax: 40}
	assert.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}
