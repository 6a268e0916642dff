package presentation

import (
	"math"
	"strconv"

	"github.com/kilianp07/leafdash/core/model"
)

// dcBusScale converts the raw DC bus reading, reported in tenths of a volt.
const dcBusScale = 10

// DefaultStages returns the dashboard stages in execution order.
func DefaultStages() []Stage {
	return []Stage{
		NewStage("header", headerStage),
		NewStage("battery", batteryStage),
		NewStage("cells", cellStage),
		NewStage("motor", motorStage),
		NewStage("inverter", inverterStage),
		NewStage("charger", chargerStage),
		NewStage("gps", gpsStage),
		NewStage("body", bodyStage),
		NewStage("indicators", indicatorStage),
	}
}

func headerStage(in Input, out *DisplayMapping) {
	if in.Snapshot.Hostname != "" {
		out.Set(KeyHostname, label(in.Snapshot.Hostname, CategoryNone))
	} else {
		out.Clear(KeyHostname)
	}
	loc := in.Config.location()
	if ts, ok := in.Snapshot.Time(); ok {
		out.Set(KeyLastUpdate, label(ts.In(loc).Format("15:04:05"), CategoryNone))
	} else {
		out.Clear(KeyLastUpdate)
	}
	out.Set(KeyClock, label(in.Now.In(loc).Format("15:04:05"), CategoryNone))
}

// BatteryTemperature picks the first reported of temp_avg, temp_high and
// temperature.
func BatteryTemperature(b *model.Battery) model.OptFloat {
	if b == nil {
		return model.OptFloat{}
	}
	return b.TempAvg.Or(b.TempHigh, b.Temperature)
}

// BatteryPower returns the pack power in kW, derived from voltage and current
// when the pack does not report it.
func BatteryPower(b *model.Battery) model.OptFloat {
	if b == nil {
		return model.OptFloat{}
	}
	if b.PackPowerKW.Valid {
		return b.PackPowerKW
	}
	v, okV := b.PackVoltage.Get()
	i, okI := b.PackCurrent.Get()
	if okV && okI {
		return model.Float(v * i / 1000)
	}
	return model.OptFloat{}
}

func batteryStage(in Input, out *DisplayMapping) {
	power := model.OptFloat{}
	if !in.Rendered(model.GroupBattery) {
		out.Clear(KeySoC, KeyVoltage, KeyCurrent, KeyPower,
			KeyBatteryTemp, KeyBatteryTempMin, KeyBatteryTempMax)
	} else {
		b := in.Snapshot.Battery
		if soc, ok := b.SoCPercent.Get(); ok {
			r := math.Round(soc)
			out.Set(KeySoC, withCategory(number(r, 0, "%"), SoCCategory(r)))
		} else {
			out.Clear(KeySoC)
		}
		out.Set(KeyVoltage, optNumber(b.PackVoltage, 1, "V"))
		out.Set(KeyCurrent, optNumber(b.PackCurrent, 1, "A"))
		power = BatteryPower(b)
		out.Set(KeyPower, optNumber(power, 2, "kW"))

		temp := BatteryTemperature(b)
		if t, ok := temp.Get(); ok {
			out.Set(KeyBatteryTemp, withCategory(number(math.Round(t), 0, "°C"), TemperatureCategory(t, in.Config.BatteryTemp)))
		} else {
			out.Clear(KeyBatteryTemp)
		}
		out.Set(KeyBatteryTempMin, optNumber(b.TempMin, 0, "°C"))
		out.Set(KeyBatteryTempMax, optNumber(b.TempMax, 0, "°C"))
	}

	if !power.Valid && in.Rendered(model.GroupInverter) {
		power = in.Snapshot.Inverter.PowerKW
	}
	if kw, ok := power.Get(); ok {
		out.Set(KeyPowerDirection, label(string(PowerDirection(kw)), CategoryNone))
	} else {
		out.Clear(KeyPowerDirection)
	}
}

func cellStage(in Input, out *DisplayMapping) {
	keys := []string{KeyCellMin, KeyCellMax, KeyCellMean, KeyCellMinIndex, KeyCellMaxIndex, KeyCellCount, KeyCellDelta}
	if !in.Rendered(model.GroupBattery) {
		out.Clear(keys...)
		return
	}
	b := in.Snapshot.Battery
	st := CellStats(b.CellVoltages.Values())
	if st.OK {
		out.Set(KeyCellMin, number(st.Min, 0, "mV"))
		out.Set(KeyCellMax, number(st.Max, 0, "mV"))
		out.Set(KeyCellMean, number(st.Mean, 0, "mV"))
		out.Set(KeyCellMinIndex, label(strconv.Itoa(st.MinIndex), CategoryNone))
		out.Set(KeyCellMaxIndex, label(strconv.Itoa(st.MaxIndex), CategoryNone))
		out.Set(KeyCellCount, label(strconv.Itoa(st.Count), CategoryNone))
	} else {
		out.Clear(keys[:6]...)
	}

	// cell_voltage_min/max are volts; the delta is shown in mV.
	lo, okLo := b.CellVoltageMin.Get()
	hi, okHi := b.CellVoltageMax.Get()
	switch {
	case okLo && okHi:
		out.Set(KeyCellDelta, number((hi-lo)*1000, 0, "mV"))
	case st.OK:
		out.Set(KeyCellDelta, number(st.Spread(), 0, "mV"))
	default:
		out.Clear(KeyCellDelta)
	}
}

func motorStage(in Input, out *DisplayMapping) {
	motorTemp := model.OptFloat{}
	if !in.Rendered(model.GroupMotor) {
		out.Clear(KeyRPM, KeyDirection, KeyTorque, KeyDCBus)
	} else {
		m := in.Snapshot.Motor
		out.Set(KeyRPM, optNumber(m.RPM, 0, "rpm"))
		if code, ok := m.Direction.Get(); ok {
			out.Set(KeyDirection, label(DirectionLabel(code), CategoryNone))
		} else {
			out.Clear(KeyDirection)
		}
		out.Set(KeyTorque, optNumber(m.TorqueActual, 1, "Nm"))
		if v, ok := m.VoltageDCBus.Get(); ok {
			out.Set(KeyDCBus, number(v/dcBusScale, 1, "V"))
		} else {
			out.Clear(KeyDCBus)
		}
		motorTemp = m.TempStator
	}
	if !motorTemp.Valid && in.Rendered(model.GroupInverter) {
		motorTemp = in.Snapshot.Inverter.TempMotor
	}
	if t, ok := motorTemp.Get(); ok {
		out.Set(KeyMotorTemp, withCategory(number(math.Round(t), 0, "°C"), TemperatureCategory(t, in.Config.MotorTemp)))
	} else {
		out.Clear(KeyMotorTemp)
	}
}

func inverterStage(in Input, out *DisplayMapping) {
	if !in.Rendered(model.GroupInverter) {
		out.Clear(KeyInverterTemp, KeyInverterPower)
		return
	}
	inv := in.Snapshot.Inverter
	if t, ok := inv.TempInverter.Get(); ok {
		out.Set(KeyInverterTemp, withCategory(number(math.Round(t), 0, "°C"), TemperatureCategory(t, in.Config.InverterTemp)))
	} else {
		out.Clear(KeyInverterTemp)
	}
	out.Set(KeyInverterPower, optNumber(inv.PowerKW, 2, "kW"))
}

func chargerStage(in Input, out *DisplayMapping) {
	if !in.Rendered(model.GroupCharger) {
		out.Clear(KeyChargerStatus, KeyChargerVoltage, KeyChargerCurrent, KeyChargerPower, KeyChargerTimeRem)
		return
	}
	c := in.Snapshot.Charger
	st := ChargingStatus(c.ChargingFlag.True(), c.HWStatus.True(), c.TempStatus.True(), c.InputVoltageStatus.True())
	out.Set(KeyChargerStatus, label(st.String(), st.Category()))
	out.Set(KeyChargerVoltage, optNumber(c.OutputVoltage, 1, "V"))
	out.Set(KeyChargerCurrent, optNumber(c.OutputCurrent, 1, "A"))
	out.Set(KeyChargerPower, optNumber(c.ChargePowerKW, 2, "kW"))
	out.Set(KeyChargerTimeRem, optNumber(c.TimeRemainingMin, 0, "min"))
}

func gpsStage(in Input, out *DisplayMapping) {
	rendered := in.Rendered(model.GroupGPS)
	g := in.Snapshot.GPS
	state := GPSFix(g, rendered)
	out.GPSFix = state
	out.Set(KeyGPSFix, label(string(state), CategoryNone))

	positional := []string{KeyLatitude, KeyLongitude, KeySpeed, KeyAltitude, KeyHeading}
	switch state {
	case FixOffline:
		out.Clear(append(positional, KeySatellites)...)
	case FixSearching:
		out.Clear(positional...)
		out.Set(KeySatellites, optNumber(g.Satellites, 0, ""))
	case FixAcquired:
		out.Set(KeyLatitude, optNumber(g.Latitude, 6, "°"))
		out.Set(KeyLongitude, optNumber(g.Longitude, 6, "°"))
		out.Set(KeySpeed, optNumber(g.SpeedKmh, 1, "km/h"))
		out.Set(KeyAltitude, optNumber(g.AltitudeM, 0, "m"))
		out.Set(KeyHeading, optNumber(g.Heading, 0, "°"))
		out.Set(KeySatellites, optNumber(g.Satellites, 0, ""))
	}
}

func bodyStage(in Input, out *DisplayMapping) {
	if !in.Rendered(model.GroupBody) {
		out.Clear(KeyVoltage12V)
		return
	}
	out.Set(KeyVoltage12V, optNumber(in.Snapshot.Body.Voltage12V, 2, "V"))
}

func indicatorStage(in Input, out *DisplayMapping) {
	if len(in.Snapshot.StatusIndicators) == 0 {
		return
	}
	out.Indicators = make(map[model.Group]model.Indicator, len(in.Snapshot.StatusIndicators))
	for g, ind := range in.Snapshot.StatusIndicators {
		out.Indicators[g] = ind
		cat := CategoryNone
		switch ind {
		case model.IndicatorOnline:
			cat = CategoryNormal
		case model.IndicatorOffline:
			cat = CategoryError
		}
		out.Set(StatusKey(string(g)), label(string(ind), cat))
	}
}
