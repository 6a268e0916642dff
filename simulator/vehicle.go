package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/trip"
)

// Phase is the activity of the simulated vehicle.
type Phase string

const (
	PhaseParked       Phase = "parked"
	PhaseAccelerating Phase = "accelerating"
	PhaseCruising     Phase = "cruising"
	PhaseDecelerating Phase = "decelerating"
	PhaseCharging     Phase = "charging"
)

type cycleStep struct {
	until time.Duration
	phase Phase
}

// The parked stretch after braking outlasts trip.Timeout so every cycle
// closes one trip.
var driveCycle = []cycleStep{
	{30 * time.Second, PhaseParked},
	{90 * time.Second, PhaseAccelerating},
	{9 * time.Minute, PhaseCruising},
	{10 * time.Minute, PhaseDecelerating},
	{16 * time.Minute, PhaseParked},
	{20 * time.Minute, PhaseCharging},
}

// CycleLength is the period of the drive cycle.
var CycleLength = driveCycle[len(driveCycle)-1].until

func phaseAt(elapsed time.Duration) Phase {
	at := elapsed % CycleLength
	for _, s := range driveCycle {
		if at < s.until {
			return s.phase
		}
	}
	return PhaseParked
}

const (
	cruiseKmh     = 80.0
	accelKmhPerS  = 1.5
	rpmPerKmh     = 150.0
	kmPerDegree   = 111.32
	chargeLimitKW = 6.6
)

// Vehicle is a simulated Leaf following a repeating drive cycle. It is safe
// for concurrent use.
type Vehicle struct {
	mu       sync.Mutex
	hostname string
	rng      *rand.Rand
	battery  *Battery
	trips    *trip.Tracker

	last    time.Time
	elapsed time.Duration
	phase   Phase

	speedKmh  float64
	direction float64
	powerKW   float64
	currentA  float64
	charging  bool
	chargeKW  float64

	tempBattery  float64
	tempInverter float64
	tempMotor    float64
	cellMV       [CellsInSeries]float64

	lat, lon, heading float64
	volt12            float64
}

// NewVehicle returns a parked vehicle.
func NewVehicle(hostname string, socPercent float64, seed int64) *Vehicle {
	v := &Vehicle{
		hostname:     hostname,
		rng:          rand.New(rand.NewSource(seed)),
		battery:      NewBattery(socPercent),
		trips:        trip.NewTracker(nil),
		phase:        PhaseParked,
		tempBattery:  25,
		tempInverter: 30,
		tempMotor:    28,
		lat:          51.5074,
		lon:          -0.1278,
		volt12:       13.8,
	}
	v.updateCells()
	return v
}

// Trips returns the trip tracker fed by Step.
func (v *Vehicle) Trips() *trip.Tracker { return v.trips }

// Phase returns the current drive cycle phase.
func (v *Vehicle) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// SoC returns the state of charge in percent.
func (v *Vehicle) SoC() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.battery.SoCPercent
}

// Step advances the simulation to now. The first call only anchors the clock.
func (v *Vehicle) Step(now time.Time) {
	v.mu.Lock()
	var dt time.Duration
	if !v.last.IsZero() && now.After(v.last) {
		dt = now.Sub(v.last)
	}
	if v.last.IsZero() || now.After(v.last) {
		v.last = now
	}
	v.elapsed += dt
	v.phase = phaseAt(v.elapsed)
	sec := dt.Seconds()

	requested := 0.0
	v.charging = false
	v.chargeKW = 0
	switch v.phase {
	case PhaseParked:
		v.speedKmh = math.Max(0, v.speedKmh-2*sec)
	case PhaseAccelerating:
		v.speedKmh = math.Min(cruiseKmh, v.speedKmh+accelKmhPerS*sec)
		requested = 36 + v.jitter(3.6)
	case PhaseCruising:
		v.speedKmh = cruiseKmh + v.jitter(5)
		requested = 18 + v.jitter(3.6)
	case PhaseDecelerating:
		v.speedKmh = math.Max(0, v.speedKmh-accelKmhPerS*sec)
		if v.speedKmh > 0 {
			requested = -10.8 + v.jitter(1.8)
		}
	case PhaseCharging:
		v.speedKmh = 0
		if v.battery.SoCPercent < 100 {
			v.charging = true
			requested = -chargeLimitKW
		}
	}

	voltage := v.battery.Voltage()
	v.powerKW = v.battery.ApplyPower(requested, dt)
	if dt == 0 {
		v.powerKW = requested
	}
	v.currentA = v.powerKW * 1000 / voltage
	if v.charging {
		v.chargeKW = -v.powerKW
	}
	v.direction = 0
	if v.speedKmh > 0 {
		v.direction = 1
	}

	load := math.Abs(v.currentA) / 100
	v.tempInverter = 30 + load*40 + v.jitter(2)
	v.tempMotor = 28 + load*35 + v.jitter(2)
	v.tempBattery = 25 + load*15 + v.jitter(1)
	v.volt12 = 13.8 + v.jitter(0.2)
	v.move(sec)
	v.updateCells()

	sample := trip.Sample{
		Time:       now,
		SpeedKmh:   v.speedKmh,
		SoCPercent: v.battery.SoCPercent,
		PowerKW:    v.powerKW,
	}
	v.mu.Unlock()
	v.trips.Update(sample)
}

func (v *Vehicle) jitter(amp float64) float64 {
	return (v.rng.Float64()*2 - 1) * amp
}

func (v *Vehicle) move(sec float64) {
	v.heading = math.Mod(v.heading+2*sec, 360)
	km := v.speedKmh * sec / 3600
	rad := v.heading * math.Pi / 180
	v.lat += km * math.Cos(rad) / kmPerDegree
	v.lon += km * math.Sin(rad) / (kmPerDegree * math.Cos(v.lat*math.Pi/180))
}

func (v *Vehicle) updateCells() {
	base := v.battery.CellVoltage() * 1000
	for i := range v.cellMV {
		v.cellMV[i] = math.Round(base + v.jitter(8))
	}
}

// Snapshot returns the telemetry snapshot of the current state stamped now.
func (v *Vehicle) Snapshot(now time.Time) *model.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts := model.At(now)
	voltage := v.battery.Voltage()

	cells := make(model.Readings, len(v.cellMV))
	minMV, maxMV := math.Inf(1), math.Inf(-1)
	for i, mv := range v.cellMV {
		cells[i] = model.Float(mv)
		minMV = math.Min(minMV, mv)
		maxMV = math.Max(maxMV, mv)
	}

	torque := 0.0
	rpm := v.speedKmh * rpmPerKmh
	if rpm > 0 {
		torque = v.powerKW * 9550 / rpm
	}
	remaining := model.OptFloat{}
	if v.charging {
		remaining = model.Float(math.Round(v.battery.TimeToFull(v.chargeKW)))
	}
	online := model.IndicatorOnline

	return &model.Snapshot{
		Timestamp: ts,
		Hostname:  v.hostname,
		Battery: &model.Battery{
			Time:           ts,
			SoCPercent:     model.Float(round(v.battery.SoCPercent, 2)),
			PackVoltage:    model.Float(round(voltage, 1)),
			PackCurrent:    model.Float(round(v.currentA, 1)),
			PackPowerKW:    model.Float(round(v.powerKW, 2)),
			TempAvg:        model.Float(round(v.tempBattery, 1)),
			TempMin:        model.Float(round(v.tempBattery-1.5, 1)),
			TempMax:        model.Float(round(v.tempBattery+1.5, 1)),
			CellVoltages:   cells,
			CellVoltageMin: model.Float(minMV / 1000),
			CellVoltageMax: model.Float(maxMV / 1000),
		},
		Motor: &model.Motor{
			Time:         ts,
			RPM:          model.Float(math.Round(rpm)),
			Direction:    model.Float(v.direction),
			TorqueActual: model.Float(round(torque, 1)),
			TempStator:   model.Float(round(v.tempMotor, 1)),
			VoltageDCBus: model.Float(math.Round(voltage * 10)),
		},
		Inverter: &model.Inverter{
			Time:         ts,
			TempInverter: model.Float(round(v.tempInverter, 1)),
			TempMotor:    model.Float(round(v.tempMotor, 1)),
			PowerKW:      model.Float(round(v.powerKW, 2)),
		},
		Charger: &model.Charger{
			Time:               ts,
			ChargingFlag:       model.Bool(v.charging),
			OutputVoltage:      model.Float(round(voltage, 1)),
			OutputCurrent:      model.Float(round(math.Max(0, -v.currentA), 1)),
			ChargePowerKW:      model.Float(round(v.chargeKW, 2)),
			TimeRemainingMin:   remaining,
			HWStatus:           model.Bool(false),
			TempStatus:         model.Bool(false),
			InputVoltageStatus: model.Bool(false),
		},
		GPS: &model.GPS{
			Time:       ts,
			Latitude:   model.Float(round(v.lat, 6)),
			Longitude:  model.Float(round(v.lon, 6)),
			AltitudeM:  model.Float(35),
			SpeedKmh:   model.Float(round(v.speedKmh, 1)),
			Heading:    model.Float(round(v.heading, 1)),
			Satellites: model.Float(9),
			FixQuality: model.Float(1),
		},
		Body: &model.Body{
			Time:       ts,
			Voltage12V: model.Float(round(v.volt12, 2)),
		},
		StatusIndicators: map[model.Group]model.Indicator{
			model.GroupBattery:  online,
			model.GroupMotor:    online,
			model.GroupInverter: online,
			model.GroupCharger:  online,
			model.GroupGPS:      online,
			model.GroupBody:     online,
		},
	}
}

// Cells returns the per-module cell extremes.
func (v *Vehicle) Cells(now time.Time) model.CellReport {
	v.mu.Lock()
	defer v.mu.Unlock()
	ts := model.At(now)
	report := model.CellReport{Timestamp: ts, Cells: make(map[string]model.CellModule, model.ModuleCount)}
	for m := 0; m < model.ModuleCount; m++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, mv := range v.cellMV[m*CellsPerModule : (m+1)*CellsPerModule] {
			lo = math.Min(lo, mv)
			hi = math.Max(hi, mv)
		}
		tMin := round(v.tempBattery-1.5+0.3*float64(m), 1)
		tMax := round(v.tempBattery+0.5+0.3*float64(m), 1)
		report.Cells[model.ModuleKey(m)] = model.CellModule{
			MaxTempC:       model.Float(tMax),
			MinTempC:       model.Float(tMin),
			MaxVoltageMV:   model.Float(hi),
			MinVoltageMV:   model.Float(lo),
			TempDeltaC:     model.Float(round(tMax-tMin, 1)),
			VoltageDeltaMV: model.Float(hi - lo),
			Time:           ts,
		}
	}
	return report
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
