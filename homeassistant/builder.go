// Package homeassistant projects a validated register database into the Home
// Assistant modbus integration dialect.
package homeassistant

import (
	"strings"

	heatpump "github.com/Warm-Energy/Heat-Pump-Modbus-Database"
	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/yamlout"
)

// Built-in hub defaults. Connection fields absent from the source fall back
// to these individually.
const (
	defaultPort        = "/dev/ttyUSB0"
	defaultBaudrate    = int64(9600)
	defaultBytesize    = int64(8)
	defaultMethod      = "rtu"
	defaultParity      = "E"
	defaultStopbits    = int64(1)
	defaultDelay       = int64(0)
	defaultMessageWait = int64(30)
	defaultTimeout     = int64(5)
)

// slaveID is the fixed modbus unit id every known heat pump answers on.
const slaveID = int64(2)

// Build renders the document as a Home Assistant modbus configuration tree.
// It is pure: per-platform defaults are compiled in and no I/O happens here.
func Build(doc *heatpump.Document) *yamlout.Node {
	hub := yamlout.Rec().
		Set("name", yamlout.Str(hubName(doc))).
		Set("type", yamlout.Str("serial")).
		Set("port", yamlout.Str(defaultPort))

	conn := doc.Connection
	if conn == nil {
		conn = &heatpump.Connection{}
	}
	hub.Set("baudrate", yamlout.Int(intOr(conn.Baudrate, defaultBaudrate))).
		Set("bytesize", yamlout.Int(intOr(conn.Bytesize, defaultBytesize))).
		Set("method", yamlout.Str(strOr(conn.Method, defaultMethod))).
		Set("parity", yamlout.Str(strOr(conn.Parity, defaultParity))).
		Set("stopbits", yamlout.Int(intOr(conn.Stopbits, defaultStopbits))).
		Set("delay", yamlout.Int(intOr(conn.Delay, defaultDelay))).
		Set("message_wait_milliseconds", yamlout.Int(intOr(conn.MessageWait, defaultMessageWait))).
		Set("timeout", yamlout.Int(intOr(conn.Timeout, defaultTimeout)))

	sensors := yamlout.Seq()
	for _, r := range doc.Registers.Sensors {
		sensors.Append(sensorEntry(r, ""))
	}
	for _, r := range doc.Registers.InputRegisters {
		sensors.Append(sensorEntry(r, "input"))
	}
	for _, r := range doc.Registers.HoldingRegisters {
		sensors.Append(sensorEntry(r, "holding"))
	}

	switches := yamlout.Seq()
	for _, r := range doc.Registers.Switches {
		switches.Append(switchEntry(r))
	}

	climates := yamlout.Seq()
	for _, r := range doc.Registers.Climates {
		climates.Append(climateEntry(r))
	}

	binarySensors := yamlout.Seq()
	for _, r := range doc.Registers.Coils {
		binarySensors.Append(binarySensorEntry(r, "coil"))
	}
	for _, r := range doc.Registers.DiscreteInputs {
		binarySensors.Append(binarySensorEntry(r, "discrete_input"))
	}

	if sensors.Len() > 0 {
		hub.Set("sensors", sensors)
	}
	if binarySensors.Len() > 0 {
		hub.Set("binary_sensors", binarySensors)
	}
	if switches.Len() > 0 {
		hub.Set("switches", switches)
	}
	if climates.Len() > 0 {
		hub.Set("climates", climates)
	}

	return yamlout.Rec().Set("modbus", yamlout.Seq(hub))
}

func sensorEntry(r heatpump.Register, inputType string) *yamlout.Node {
	e := yamlout.Rec().
		Set("name", yamlout.Str(r.Name)).
		Set("slave", yamlout.Int(slaveID))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	if inputType != "" {
		e.Set("input_type", yamlout.Str(inputType))
	}
	if r.Unit != "" {
		e.Set("unit_of_measurement", yamlout.Str(r.Unit))
	}
	if r.Scale != nil {
		e.Set("scale", yamlout.Float(*r.Scale))
	}
	if r.ScanInterval != nil {
		e.Set("scan_interval", yamlout.Int(*r.ScanInterval))
	}
	if r.Precision != nil {
		e.Set("precision", yamlout.Int(*r.Precision))
	}
	e.Set("unique_id", yamlout.Str(r.Name))
	return e
}

func switchEntry(r heatpump.Register) *yamlout.Node {
	e := yamlout.Rec().
		Set("name", yamlout.Str(r.Name)).
		Set("slave", yamlout.Int(slaveID))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	e.Set("write_type", yamlout.Str(strOr(r.WriteType, "holding"))).
		Set("unique_id", yamlout.Str(r.Name))
	if r.CommandOn != nil {
		e.Set("command_on", yamlout.Int(*r.CommandOn))
	}
	if r.CommandOff != nil {
		e.Set("command_off", yamlout.Int(*r.CommandOff))
	}
	if r.Verify != nil {
		e.Set("verify", yamlout.Bool(*r.Verify))
	}
	return e
}

func climateEntry(r heatpump.Register) *yamlout.Node {
	e := yamlout.Rec().
		Set("name", yamlout.Str(r.Name)).
		Set("slave", yamlout.Int(slaveID))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	if r.Scale != nil {
		e.Set("scale", yamlout.Float(*r.Scale))
	}
	if r.MaxTemp != nil {
		e.Set("max_temp", yamlout.Float(*r.MaxTemp))
	}
	if r.MinTemp != nil {
		e.Set("min_temp", yamlout.Float(*r.MinTemp))
	}
	if r.ScanInterval != nil {
		e.Set("scan_interval", yamlout.Int(*r.ScanInterval))
	}
	if r.Precision != nil {
		e.Set("precision", yamlout.Int(*r.Precision))
	}
	if r.TargetTempRegister != nil {
		e.Set("target_temp_register", yamlout.Int(*r.TargetTempRegister))
	}
	if r.HvacOnOffRegister != nil {
		e.Set("hvac_onoff_register", yamlout.Int(*r.HvacOnOffRegister))
	}
	if r.HvacModeRegister != nil {
		e.Set("hvac_mode_register", yamlout.Int(*r.HvacModeRegister))
	}
	e.Set("unique_id", yamlout.Str(r.Name))
	return e
}

func binarySensorEntry(r heatpump.Register, inputType string) *yamlout.Node {
	e := yamlout.Rec().
		Set("name", yamlout.Str(r.Name)).
		Set("slave", yamlout.Int(slaveID))
	if r.Address != nil {
		e.Set("address", yamlout.Int(*r.Address))
	}
	e.Set("input_type", yamlout.Str(inputType)).
		Set("unique_id", yamlout.Str(r.Name))
	return e
}

// hubName derives the modbus hub identifier from the manufacturer name.
func hubName(doc *heatpump.Document) string {
	s := strings.ToLower(strings.TrimSpace(doc.Make))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "heat_pump"
	}
	return s
}

func intOr(p *int64, def int64) int64 {
	if p != nil {
		return *p
	}
	return def
}

func strOr(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
