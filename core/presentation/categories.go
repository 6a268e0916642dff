package presentation

import "strings"

// Category is the visual class attached to a field.
type Category string

const (
	CategoryNone    Category = ""
	CategoryNormal  Category = "normal"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
	CategoryWarm    Category = "warm"
	CategoryHot     Category = "hot"
)

// SoCCategory classifies a state of charge in percent.
func SoCCategory(soc float64) Category {
	switch {
	case soc < 20:
		return CategoryError
	case soc < 40:
		return CategoryWarning
	default:
		return CategoryNormal
	}
}

// TemperatureCategory classifies t against th. Boundaries belong to the
// higher band.
func TemperatureCategory(t float64, th Thresholds) Category {
	switch {
	case t >= th.HotMax:
		return CategoryHot
	case t >= th.WarmMax:
		return CategoryWarm
	default:
		return CategoryNormal
	}
}

// PowerFlow is the direction of traction power.
type PowerFlow string

const (
	FlowDischarging  PowerFlow = "discharging"
	FlowRegenerating PowerFlow = "regenerating"
	FlowIdle         PowerFlow = "idle"
)

// PowerDeadBandKW absorbs sensor noise around zero power.
const PowerDeadBandKW = 0.1

// PowerDirection classifies a signed power in kW. Positive is discharge.
func PowerDirection(kw float64) PowerFlow {
	switch {
	case kw > PowerDeadBandKW:
		return FlowDischarging
	case kw < -PowerDeadBandKW:
		return FlowRegenerating
	default:
		return FlowIdle
	}
}

// Direction labels of the gear selector.
const (
	DirectionNeutral = "neutral"
	DirectionForward = "forward"
	DirectionReverse = "reverse"
	DirectionUnknown = "unknown"
)

// DirectionLabel maps the motor direction code. Non-integral or out of range
// codes are unknown.
func DirectionLabel(code float64) string {
	switch code {
	case 0:
		return DirectionNeutral
	case 1:
		return DirectionForward
	case 2:
		return DirectionReverse
	default:
		return DirectionUnknown
	}
}

// Charger fault tags, in display order.
const (
	FaultHardware     = "hw-fault"
	FaultOverTemp     = "over-temp"
	FaultInputVoltage = "input-fault"
)

// Charging is the composite charger status.
type Charging struct {
	Charging bool
	Faults   []string
}

// ChargingStatus builds the composite status from the charging flag and the
// fault flags.
func ChargingStatus(charging, hwFault, tempFault, inputFault bool) Charging {
	st := Charging{Charging: charging}
	if hwFault {
		st.Faults = append(st.Faults, FaultHardware)
	}
	if tempFault {
		st.Faults = append(st.Faults, FaultOverTemp)
	}
	if inputFault {
		st.Faults = append(st.Faults, FaultInputVoltage)
	}
	return st
}

// Label is "charging" or "idle".
func (c Charging) Label() string {
	if c.Charging {
		return "charging"
	}
	return "idle"
}

// String renders e.g. "charging [hw-fault] [input-fault]".
func (c Charging) String() string {
	var b strings.Builder
	b.WriteString(c.Label())
	for _, f := range c.Faults {
		b.WriteString(" [")
		b.WriteString(f)
		b.WriteString("]")
	}
	return b.String()
}

// Category is error when any fault is active.
func (c Charging) Category() Category {
	if len(c.Faults) > 0 {
		return CategoryError
	}
	if c.Charging {
		return CategoryNormal
	}
	return CategoryNone
}
