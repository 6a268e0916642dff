package presentation

// Display keys. Views bind their widgets to these names.
const (
	KeyHostname   = "hostname"
	KeyLastUpdate = "last_update"
	KeyClock      = "clock"

	KeySoC            = "soc"
	KeyVoltage        = "voltage"
	KeyCurrent        = "current"
	KeyPower          = "power"
	KeyPowerDirection = "power_direction"
	KeyBatteryTemp    = "battery_temp"
	KeyBatteryTempMin = "battery_temp_min"
	KeyBatteryTempMax = "battery_temp_max"

	KeyCellMin      = "cell_min"
	KeyCellMax      = "cell_max"
	KeyCellMean     = "cell_mean"
	KeyCellMinIndex = "cell_min_index"
	KeyCellMaxIndex = "cell_max_index"
	KeyCellCount    = "cell_count"
	KeyCellDelta    = "cell_delta"

	KeyRPM       = "rpm"
	KeyDirection = "direction"
	KeyTorque    = "torque"
	KeyMotorTemp = "motor_temp"
	KeyDCBus     = "dc_bus_voltage"

	KeyInverterTemp  = "inverter_temp"
	KeyInverterPower = "inverter_power"

	KeyChargerStatus  = "charger_status"
	KeyChargerVoltage = "charger_voltage"
	KeyChargerCurrent = "charger_current"
	KeyChargerPower   = "charger_power"
	KeyChargerTimeRem = "charger_time_remaining"

	KeyGPSFix     = "gps_fix"
	KeyLatitude   = "latitude"
	KeyLongitude  = "longitude"
	KeySpeed      = "speed"
	KeyAltitude   = "altitude"
	KeyHeading    = "heading"
	KeySatellites = "satellites"

	KeyVoltage12V = "voltage_12v"
)

// StatusKey is the display key of a group's status indicator.
func StatusKey(group string) string { return "status_" + group }
