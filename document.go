package heatpump

// Register categories recognized by the validator and both builders.
const (
	CategorySensors          = "sensors"
	CategorySwitches         = "switches"
	CategoryClimates         = "climates"
	CategoryInputRegisters   = "input_registers"
	CategoryHoldingRegisters = "holding_registers"
	CategoryCoils            = "coils"
	CategoryDiscreteInputs   = "discrete_inputs"
)

// Categories lists the recognized register categories in canonical order.
// Builders iterate in this order so output is stable regardless of source
// key ordering.
var Categories = []string{
	CategorySensors,
	CategorySwitches,
	CategoryClimates,
	CategoryInputRegisters,
	CategoryHoldingRegisters,
	CategoryCoils,
	CategoryDiscreteInputs,
}

// Common-interface tags mark a register as semantically equivalent across
// manufacturers. The validator warns when a document misses one of the
// essential tags, or uses a tag outside the vocabulary.
var (
	EssentialInterfaces = []string{
		"outdoor_temperature",
		"water_outlet_temp",
		"operating_mode",
	}

	KnownInterfaces = []string{
		"outdoor_temperature",
		"water_outlet_temp",
		"water_inlet_temp",
		"operating_mode",
		"dhw_temp",
		"room_temperature",
		"compressor_frequency",
		"flow_rate",
		"defrost_status",
		"error_code",
	}
)

// StandardBaudrates is the allow-list checked by the validator. Rates outside
// it are unusual but not invalid; some heat pumps ship with nonstandard ones.
var StandardBaudrates = []int64{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// Document is the typed form of one manufacturer's register database.
// It is produced once per build invocation and never mutated afterwards.
type Document struct {
	ID         string // source identifier, typically the file name
	Make       string
	Models     []string
	Connection *Connection
	Registers  RegisterSet
	Unlock     *Unlock
}

// Connection holds the serial transport parameters. Optional fields are
// pointers; builders substitute per-target defaults for nil.
type Connection struct {
	Baudrate    *int64
	Method      string
	Bytesize    *int64
	Parity      string
	Stopbits    *int64
	Delay       *int64
	MessageWait *int64 // milliseconds between messages
	Timeout     *int64
}

// RegisterSet groups the document's registers by recognized category.
// Unknown categories are preserved verbatim for forward compatibility but
// excluded from all builds.
type RegisterSet struct {
	Sensors          []Register
	Switches         []Register
	Climates         []Register
	InputRegisters   []Register
	HoldingRegisters []Register
	Coils            []Register
	DiscreteInputs   []Register
	Unknown          map[string]any
}

// Category returns the entries for a recognized category name.
func (rs *RegisterSet) Category(name string) []Register {
	switch name {
	case CategorySensors:
		return rs.Sensors
	case CategorySwitches:
		return rs.Switches
	case CategoryClimates:
		return rs.Climates
	case CategoryInputRegisters:
		return rs.InputRegisters
	case CategoryHoldingRegisters:
		return rs.HoldingRegisters
	case CategoryCoils:
		return rs.Coils
	case CategoryDiscreteInputs:
		return rs.DiscreteInputs
	default:
		return nil
	}
}

// All iterates every recognized entry in canonical category order.
func (rs *RegisterSet) All(fn func(category string, index int, r Register)) {
	for _, cat := range Categories {
		for i, r := range rs.Category(cat) {
			fn(cat, i, r)
		}
	}
}

// Register is one addressable data point.
type Register struct {
	Name            string
	Address         *int64
	Unit            string
	Scale           *float64
	Precision       *int64
	ScanInterval    *int64
	WriteType       string
	CommandOn       *int64
	CommandOff      *int64
	Verify          *bool
	CommonInterface string

	// Climate-only fields.
	TargetTempRegister *int64
	HvacOnOffRegister  *int64
	HvacModeRegister   *int64
	MaxTemp            *float64
	MinTemp            *float64
}

// Unlock describes a manufacturer-specific write sequence required before
// certain registers accept writes.
type Unlock struct {
	Description string
	Sequences   []UnlockSequence
}

// UnlockSequence is one named unlock step: the register to write and the
// ordered values it expects.
type UnlockSequence struct {
	Name    string
	Address int64
	Values  []UnlockValue
}

// UnlockValue is a single unlock write, carried in both hexadecimal and
// decimal form alongside its human description.
type UnlockValue struct {
	Hex         string
	Decimal     int64
	Description string
}
