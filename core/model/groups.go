package model

import (
	"bytes"
	"encoding/json"
)

// Group names a sensor group of the snapshot.
type Group string

const (
	GroupBattery  Group = "battery"
	GroupMotor    Group = "motor"
	GroupInverter Group = "inverter"
	GroupCharger  Group = "charger"
	GroupGPS      Group = "gps"
	GroupBody     Group = "body"
)

// Groups lists every sensor group in display order.
var Groups = []Group{GroupBattery, GroupMotor, GroupInverter, GroupCharger, GroupGPS, GroupBody}

// Stamped is implemented by every group. A nil group reports present=false.
type Stamped interface {
	Stamp() (ts Timestamp, present bool)
}

// Readings is a tolerant list of numeric readings. A non-array value decodes
// as an empty list and bad elements decode as absent entries.
type Readings []OptFloat

func (r *Readings) UnmarshalJSON(data []byte) error {
	*r = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(Readings, len(raw))
	for i, item := range raw {
		_ = out[i].UnmarshalJSON(item)
	}
	*r = out
	return nil
}

// Values returns the present readings in order.
func (r Readings) Values() []float64 {
	out := make([]float64, 0, len(r))
	for _, v := range r {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	return out
}

// Battery is the traction battery group.
type Battery struct {
	Time           Timestamp `json:"time"`
	SoCPercent     OptFloat  `json:"soc_percent"`
	PackVoltage    OptFloat  `json:"pack_voltage"`
	PackCurrent    OptFloat  `json:"pack_current"`
	PackPowerKW    OptFloat  `json:"pack_power_kw"`
	TempAvg        OptFloat  `json:"temp_avg"`
	TempMin        OptFloat  `json:"temp_min"`
	TempMax        OptFloat  `json:"temp_max"`
	TempHigh       OptFloat  `json:"temp_high"`
	Temperature    OptFloat  `json:"temperature"`
	CellVoltages   Readings  `json:"cell_voltages,omitempty"`
	CellVoltageMin OptFloat  `json:"cell_voltage_min"`
	CellVoltageMax OptFloat  `json:"cell_voltage_max"`
}

func (b *Battery) Stamp() (Timestamp, bool) {
	if b == nil {
		return Timestamp{}, false
	}
	return b.Time, true
}

func (b *Battery) UnmarshalJSON(data []byte) error {
	type plain Battery
	aux := struct {
		*plain
		Voltage        OptFloat `json:"voltage"`
		Current        OptFloat `json:"current"`
		PowerKW        OptFloat `json:"power_kw"`
		SoC            OptFloat `json:"soc"`
		CellMinVoltage OptFloat `json:"cell_min_voltage"`
		CellMaxVoltage OptFloat `json:"cell_max_voltage"`
	}{plain: (*plain)(b)}
	if !isObject(data) {
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	b.SoCPercent = b.SoCPercent.Or(aux.SoC)
	b.PackVoltage = b.PackVoltage.Or(aux.Voltage)
	b.PackCurrent = b.PackCurrent.Or(aux.Current)
	b.PackPowerKW = b.PackPowerKW.Or(aux.PowerKW)
	b.CellVoltageMin = b.CellVoltageMin.Or(aux.CellMinVoltage)
	b.CellVoltageMax = b.CellVoltageMax.Or(aux.CellMaxVoltage)
	return nil
}

// Motor is the traction motor group.
type Motor struct {
	Time         Timestamp `json:"time"`
	RPM          OptFloat  `json:"rpm"`
	Direction    OptFloat  `json:"direction"`
	TorqueActual OptFloat  `json:"torque_actual"`
	TempStator   OptFloat  `json:"temp_stator"`
	VoltageDCBus OptFloat  `json:"voltage_dc_bus"`
}

func (m *Motor) Stamp() (Timestamp, bool) {
	if m == nil {
		return Timestamp{}, false
	}
	return m.Time, true
}

func (m *Motor) UnmarshalJSON(data []byte) error {
	type plain Motor
	return decodeLenient(data, (*plain)(m))
}

// Inverter is the motor inverter group.
type Inverter struct {
	Time         Timestamp `json:"time"`
	TempInverter OptFloat  `json:"temp_inverter"`
	TempMotor    OptFloat  `json:"temp_motor"`
	PowerKW      OptFloat  `json:"power_kw"`
}

func (i *Inverter) Stamp() (Timestamp, bool) {
	if i == nil {
		return Timestamp{}, false
	}
	return i.Time, true
}

func (i *Inverter) UnmarshalJSON(data []byte) error {
	type plain Inverter
	return decodeLenient(data, (*plain)(i))
}

// Charger is the on-board charger group. Status flags are true when the
// corresponding fault is active.
type Charger struct {
	Time               Timestamp `json:"time"`
	ChargingFlag       OptBool   `json:"charging_flag"`
	OutputVoltage      OptFloat  `json:"output_voltage"`
	OutputCurrent      OptFloat  `json:"output_current"`
	ChargePowerKW      OptFloat  `json:"charge_power_kw"`
	TimeRemainingMin   OptFloat  `json:"time_remaining_min"`
	HWStatus           OptBool   `json:"hw_status"`
	TempStatus         OptBool   `json:"temp_status"`
	InputVoltageStatus OptBool   `json:"input_voltage_status"`
}

func (c *Charger) Stamp() (Timestamp, bool) {
	if c == nil {
		return Timestamp{}, false
	}
	return c.Time, true
}

func (c *Charger) UnmarshalJSON(data []byte) error {
	type plain Charger
	aux := struct {
		*plain
		ChargingState OptBool  `json:"charging_state"`
		PowerKW       OptFloat `json:"power_kw"`
	}{plain: (*plain)(c)}
	if !isObject(data) {
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	if !c.ChargingFlag.Valid {
		c.ChargingFlag = aux.ChargingState
	}
	c.ChargePowerKW = c.ChargePowerKW.Or(aux.PowerKW)
	return nil
}

// GPS is the positioning group.
type GPS struct {
	Time       Timestamp `json:"time"`
	Latitude   OptFloat  `json:"latitude"`
	Longitude  OptFloat  `json:"longitude"`
	AltitudeM  OptFloat  `json:"altitude_m"`
	SpeedKmh   OptFloat  `json:"speed_kmh"`
	Heading    OptFloat  `json:"heading"`
	Satellites OptFloat  `json:"satellites"`
	FixQuality OptFloat  `json:"fix_quality"`
}

func (g *GPS) Stamp() (Timestamp, bool) {
	if g == nil {
		return Timestamp{}, false
	}
	return g.Time, true
}

func (g *GPS) UnmarshalJSON(data []byte) error {
	type plain GPS
	aux := struct {
		*plain
		Altitude OptFloat `json:"altitude"`
		Speed    OptFloat `json:"speed"`
	}{plain: (*plain)(g)}
	if !isObject(data) {
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	g.AltitudeM = g.AltitudeM.Or(aux.Altitude)
	g.SpeedKmh = g.SpeedKmh.Or(aux.Speed)
	return nil
}

// Body is the 12 V body electrical group.
type Body struct {
	Time       Timestamp `json:"time"`
	Voltage12V OptFloat  `json:"voltage_12v"`
}

func (b *Body) Stamp() (Timestamp, bool) {
	if b == nil {
		return Timestamp{}, false
	}
	return b.Time, true
}

func (b *Body) UnmarshalJSON(data []byte) error {
	type plain Body
	return decodeLenient(data, (*plain)(b))
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// decodeLenient decodes an object into v and swallows errors. Field level
// tolerance comes from the optional types.
func decodeLenient(data []byte, v any) error {
	if !isObject(data) {
		return nil
	}
	_ = json.Unmarshal(data, v)
	return nil
}
