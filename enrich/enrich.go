// Package enrich derives display metadata from register naming conventions.
// Both lookups are pure: identical (name, unit) input always yields identical
// output, which keeps generated configs diffable in version control.
package enrich

import "strings"

// Classify maps a unit of measurement to its measurement class. Unknown units
// fall back to the generic "measurement" class.
func Classify(unit string) string {
	switch unit {
	case "°C", "°F":
		return "temperature"
	case "A":
		return "current"
	case "V":
		return "voltage"
	case "W", "kW":
		return "power"
	case "Hz":
		return "frequency"
	case "%":
		return "power_factor"
	case "l/min":
		return "water"
	case "rpm":
		return "speed"
	case "kgfcm2":
		return "pressure"
	default:
		return "measurement"
	}
}

// iconRule matches either a substring of the lowercased register name or an
// exact unit. Rules are ordered; the first match wins.
type iconRule struct {
	substr string
	unit   string
	icon   string
}

var iconRules = []iconRule{
	{substr: "temp", icon: "thermometer"},
	{substr: "pressure", icon: "gauge"},
	{substr: "fan", icon: "fan"},
	{substr: "flow", unit: "l/min", icon: "water-flow"},
	{substr: "pump", icon: "pump"},
	{substr: "valve", icon: "pipe-valve"},
	{substr: "heat", icon: "radiator"},
	{substr: "compressor", icon: "air-conditioner"},
	{substr: "error", icon: "alert-circle"},
	{unit: "A", icon: "current-ac"},
	{unit: "V", icon: "flash"},
	{unit: "Hz", icon: "sine-wave"},
}

// Icon picks a Material Design icon name for a register. The leading "mdi:"
// prefix is the caller's concern.
func Icon(name, unit string) string {
	lower := strings.ToLower(name)
	for _, r := range iconRules {
		if r.substr != "" && strings.Contains(lower, r.substr) {
			return r.icon
		}
		if r.unit != "" && unit == r.unit {
			return r.icon
		}
	}
	return "information"
}
