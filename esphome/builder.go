// Package esphome projects a validated register database into an ESPHome
// device configuration. Infrastructure sections (wifi, api, ota, web server)
// reference secrets through !secret sentinels that must survive serialization
// unquoted.
package esphome

import (
	"strings"

	heatpump "github.com/Warm-Energy/Heat-Pump-Modbus-Database"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/enrich"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/yamlout"
)

const (
	uartID       = "modbus_uart"
	busID        = "modbus_bus"
	controllerID = "heat_pump"

	defaultTxPin = "GPIO17"
	defaultRxPin = "GPIO16"

	defaultBaudrate = int64(9600)
	defaultStopbits = int64(1)

	// pollAddress is the fixed modbus unit id the controller polls.
	pollAddress = int64(2)

	// updateInterval is the controller poll cadence. skip_updates values are
	// derived from its 30 second base.
	updateInterval     = "30s"
	updateIntervalSecs = int64(30)

	// defaultValueType is the register word size assumed when the source does
	// not say otherwise.
	defaultValueType = "U_WORD"
)

// Build renders the document as an ESPHome configuration tree.
func Build(doc *heatpump.Document) *yamlout.Node {
	root := yamlout.Rec()

	device := deviceName(doc)
	root.Set("esphome", yamlout.Rec().
		Set("name", yamlout.Str(device)).
		Set("friendly_name", yamlout.Str(strings.TrimSpace(doc.Make)+" Heat Pump")))

	// Serial logging is disabled because the UART drives the modbus line.
	root.Set("logger", yamlout.Rec().
		Set("baud_rate", yamlout.Int(0)))

	root.Set("api", yamlout.Rec().
		Set("encryption", yamlout.Rec().
			Set("key", yamlout.Str("!secret api_encryption_key"))))

	root.Set("ota", yamlout.Rec().
		Set("platform", yamlout.Str("esphome")).
		Set("password", yamlout.Str("!secret ota_password")))

	root.Set("wifi", yamlout.Rec().
		Set("ssid", yamlout.Str("!secret wifi_ssid")).
		Set("password", yamlout.Str("!secret wifi_password")))

	root.Set("web_server", yamlout.Rec().
		Set("port", yamlout.Int(80)))

	root.Set("uart", uartSection(doc.Connection))

	root.Set("modbus", yamlout.Rec().
		Set("id", yamlout.Str(busID)).
		Set("uart_id", yamlout.Str(uartID)))

	root.Set("modbus_controller", yamlout.Seq(yamlout.Rec().
		Set("id", yamlout.Str(controllerID)).
		Set("address", yamlout.Int(pollAddress)).
		Set("modbus_id", yamlout.Str(busID)).
		Set("update_interval", yamlout.Str(updateInterval))))

	sensors := yamlout.Seq()
	for _, r := range doc.Registers.Sensors {
		sensors.Append(sensorEntry(r, "holding"))
	}
	for _, r := range doc.Registers.InputRegisters {
		sensors.Append(sensorEntry(r, "input"))
	}
	for _, r := range doc.Registers.HoldingRegisters {
		sensors.Append(sensorEntry(r, "holding"))
	}

	binarySensors := yamlout.Seq()
	for _, r := range doc.Registers.Coils {
		binarySensors.Append(binarySensorEntry(r, "coil"))
	}
	for _, r := range doc.Registers.DiscreteInputs {
		binarySensors.Append(binarySensorEntry(r, "discrete_input"))
	}

	switches := yamlout.Seq()
	for _, r := range doc.Registers.Switches {
		switches.Append(switchEntry(r))
	}

	climates := yamlout.Seq()
	for _, r := range doc.Registers.Climates {
		climate, tempSensor, modeSwitch := climateEntry(r)
		climates.Append(climate)
		if tempSensor != nil {
			sensors.Append(tempSensor)
		}
		if modeSwitch != nil {
			switches.Append(modeSwitch)
		}
	}

	if sensors.Len() > 0 {
		root.Set("sensor", sensors)
	}
	if binarySensors.Len() > 0 {
		root.Set("binary_sensor", binarySensors)
	}
	if switches.Len() > 0 {
		root.Set("switch", switches)
	}
	if climates.Len() > 0 {
		root.Set("climate", climates)
	}

	return root
}

func uartSection(conn *heatpump.Connection) *yamlout.Node {
	if conn == nil {
		conn = &heatpump.Connection{}
	}
	baud := defaultBaudrate
	if conn.Baudrate != nil {
		baud = *conn.Baudrate
	}
	stop := defaultStopbits
	if conn.Stopbits != nil {
		stop = *conn.Stopbits
	}
	return yamlout.Rec().
		Set("id", yamlout.Str(uartID)).
		Set("tx_pin", yamlout.Str(defaultTxPin)).
		Set("rx_pin", yamlout.Str(defaultRxPin)).
		Set("baud_rate", yamlout.Int(baud)).
		Set("stop_bits", yamlout.Int(stop)).
		Set("parity", yamlout.Str(parityName(conn.Parity)))
}

// parityName maps the single-letter serial parity convention onto ESPHome's
// spelled-out form.
func parityName(p string) string {
	switch p {
	case "E":
		return "EVEN"
	case "O":
		return "ODD"
	default:
		return "NONE"
	}
}

func sensorEntry(r heatpump.Register, registerType string) *yamlout.Node {
	e := entityHeader(r.Name)
	e.Set("register_type", yamlout.Str(registerType))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	e.Set("value_type", yamlout.Str(defaultValueType))
	if r.Unit != "" {
		e.Set("unit_of_measurement", yamlout.Str(r.Unit))
	}
	if class := enrich.Classify(r.Unit); class != "measurement" {
		e.Set("device_class", yamlout.Str(class))
	}
	e.Set("state_class", yamlout.Str("measurement"))
	e.Set("icon", yamlout.Str("mdi:"+enrich.Icon(r.Name, r.Unit)))
	if r.Precision != nil {
		e.Set("accuracy_decimals", yamlout.Int(*r.Precision))
	}
	if r.ScanInterval != nil {
		e.Set("skip_updates", yamlout.Int(skipUpdates(*r.ScanInterval)))
	}
	if r.Scale != nil {
		e.Set("filters", yamlout.Seq(
			yamlout.Rec().Set("multiply", yamlout.Float(*r.Scale))))
	}
	return e
}

func binarySensorEntry(r heatpump.Register, registerType string) *yamlout.Node {
	e := entityHeader(r.Name)
	e.Set("register_type", yamlout.Str(registerType))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	e.Set("icon", yamlout.Str("mdi:"+enrich.Icon(r.Name, r.Unit)))
	return e
}

func switchEntry(r heatpump.Register) *yamlout.Node {
	e := entityHeader(r.Name)
	e.Set("register_type", yamlout.Str("holding"))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	e.Set("bitmask", yamlout.Int(1)).
		Set("icon", yamlout.Str("mdi:"+enrich.Icon(r.Name, r.Unit)))
	return e
}

// climateEntry renders a climate register as a templated thermostat. The
// thermostat reads its current temperature from a companion modbus sensor; a
// mode register additionally yields a companion switch toggled by the heat
// and idle actions.
func climateEntry(r heatpump.Register) (climate, tempSensor, modeSwitch *yamlout.Node) {
	cid := entityID(r.Name)
	sensorID := cid + "_temperature"

	climate = yamlout.Rec().
		Set("platform", yamlout.Str("thermostat")).
		Set("id", yamlout.Str(cid)).
		Set("name", yamlout.Str(r.Name)).
		Set("sensor", yamlout.Str(sensorID))

	if r.MinTemp != nil || r.MaxTemp != nil {
		visual := yamlout.Rec()
		if r.MinTemp != nil {
			visual.Set("min_temperature", yamlout.Float(*r.MinTemp))
		}
		if r.MaxTemp != nil {
			visual.Set("max_temperature", yamlout.Float(*r.MaxTemp))
		}
		visual.Set("temperature_step", yamlout.Float(0.5))
		climate.Set("visual", visual)
	}

	climate.Set("min_heating_off_time", yamlout.Str("0s")).
		Set("min_heating_run_time", yamlout.Str("0s")).
		Set("min_idle_time", yamlout.Str("0s"))

	if r.HvacModeRegister != nil {
		switchID := cid + "_mode"
		climate.Set("heat_action", yamlout.Seq(
			yamlout.Rec().Set("switch.turn_on", yamlout.Str(switchID))))
		climate.Set("idle_action", yamlout.Seq(
			yamlout.Rec().Set("switch.turn_off", yamlout.Str(switchID))))

		modeSwitch = yamlout.Rec().
			Set("platform", yamlout.Str("modbus_controller")).
			Set("modbus_controller_id", yamlout.Str(controllerID)).
			Set("id", yamlout.Str(switchID)).
			Set("name", yamlout.Str(r.Name+" Mode")).
			Set("register_type", yamlout.Str("holding")).
			Set("address", yamlout.Int(*r.HvacModeRegister)).
			Set("bitmask", yamlout.Int(1)).
			Set("icon", yamlout.Str("mdi:radiator"))
	}

	tempAddress := r.Address
	if tempAddress == nil {
		tempAddress = r.TargetTempRegister
	}
	if tempAddress != nil {
		tempSensor = yamlout.Rec().
			Set("platform", yamlout.Str("modbus_controller")).
			Set("modbus_controller_id", yamlout.Str(controllerID)).
			Set("id", yamlout.Str(sensorID)).
			Set("name", yamlout.Str(r.Name+" Temperature")).
			Set("register_type", yamlout.Str("holding")).
			Set("address", yamlout.Int(*tempAddress)).
			Set("value_type", yamlout.Str(defaultValueType)).
			Set("unit_of_measurement", yamlout.Str("°C")).
			Set("device_class", yamlout.Str("temperature")).
			Set("state_class", yamlout.Str("measurement")).
			Set("icon", yamlout.Str("mdi:thermometer"))
		if r.Scale != nil {
			tempSensor.Set("filters", yamlout.Seq(
				yamlout.Rec().Set("multiply", yamlout.Float(*r.Scale))))
		}
	}

	return climate, tempSensor, modeSwitch
}

func entityHeader(name string) *yamlout.Node {
	return yamlout.Rec().
		Set("platform", yamlout.Str("modbus_controller")).
		Set("modbus_controller_id", yamlout.Str(controllerID)).
		Set("id", yamlout.Str(entityID(name))).
		Set("name", yamlout.Str(name))
}

// skipUpdates converts a per-register scan interval in seconds to a number of
// controller polls to skip, clamped so every register updates at least once
// per cycle window.
func skipUpdates(scanInterval int64) int64 {
	if scanInterval <= 0 {
		return 1
	}
	n := updateIntervalSecs / scanInterval
	if n < 1 {
		n = 1
	}
	return n
}

// entityID lowers a register name into ESPHome's id character set.
func entityID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "register"
	}
	return s
}

// deviceName derives the node name advertised on the network.
func deviceName(doc *heatpump.Document) string {
	s := strings.ToLower(strings.TrimSpace(doc.Make))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	if s == "" {
		return "heat-pump"
	}
	return s + "-heat-pump"
}
