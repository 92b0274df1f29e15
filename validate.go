package heatpump

import (
	"fmt"
	"sort"

	"github.com/Warm-Energy/Heat-Pump-Modbus-Database/internal/source"
)

// Result is the outcome of decoding and validating one document. Errors and
// warnings are collected per call; there is no process-wide diagnostic state.
type Result struct {
	Doc      *Document
	Errors   Diagnostics
	Warnings Diagnostics
}

// Buildable reports whether the document may proceed to the target builders.
// Warnings never block building.
func (r Result) Buildable() bool {
	return len(r.Errors) == 0 && r.Doc != nil
}

// Validate decodes a raw JSON register database and runs every schema check,
// returning the typed document alongside ordered errors and warnings. The
// input is never mutated. A JSON syntax failure is a single fatal diagnostic;
// all other checks run independently without short-circuiting.
func Validate(raw []byte, docID string) Result {
	root, err := source.DecodeBytes(raw)
	if err != nil {
		return Result{Errors: Diagnostics{
			diagAt("", CodeParseError, "%s: invalid JSON: %v", docID, err),
		}}
	}
	v := &validator{docID: docID, doc: &Document{ID: docID}}
	v.document(root)
	res := Result{Errors: v.errors, Warnings: v.warnings}
	if len(res.Errors) == 0 {
		res.Doc = v.doc
	}
	return res
}

type validator struct {
	docID    string
	doc      *Document
	errors   Diagnostics
	warnings Diagnostics
}

func (v *validator) errf(path, code, format string, args ...any) {
	v.errors = append(v.errors, diagAt(path, code, "%s: %s", v.docID, fmt.Sprintf(format, args...)))
}

func (v *validator) warnf(path, code, format string, args ...any) {
	v.warnings = append(v.warnings, diagAt(path, code, "%s: %s", v.docID, fmt.Sprintf(format, args...)))
}

func (v *validator) document(root map[string]any) {
	// Check 1: top-level required fields with correct coarse types.
	if mk, ok := root["make"]; !ok {
		v.errf("/make", CodeRequired, "required field 'make' is missing")
	} else if s, ok := source.AsString(mk); !ok {
		v.errf("/make", CodeInvalidType, "'make' must be a string, got %T", mk)
	} else {
		v.doc.Make = s
	}

	mb, ok := root["modbus"]
	if !ok {
		v.errf("/modbus", CodeRequired, "required section 'modbus' is missing")
		return
	}
	modbus, ok := source.AsObject(mb)
	if !ok {
		v.errf("/modbus", CodeInvalidType, "'modbus' must be an object, got %T", mb)
		return
	}

	regsRaw, hasRegs := modbus["registers"]
	if !hasRegs {
		v.errf("/modbus/registers", CodeRequired, "required section 'registers' is missing")
	}

	// Check 2: connection requirements.
	if conn, ok := modbus["connection"]; ok {
		v.connection(conn)
	} else {
		v.errf("/modbus/connection", CodeRequired, "required section 'connection' is missing")
	}

	// Check 3: models present and non-empty.
	if models, ok := modbus["models"]; ok {
		v.models(models)
	} else {
		v.errf("/modbus/models", CodeRequired, "required field 'models' is missing")
	}

	// Checks 4-6: register categories and entries.
	if hasRegs {
		if regs, ok := source.AsObject(regsRaw); ok {
			v.registers(regs)
		} else {
			v.errf("/modbus/registers", CodeInvalidType, "'registers' must be an object, got %T", regsRaw)
		}
	}

	if ul, ok := modbus["unlock_registers"]; ok {
		v.unlock(ul)
	}

	// Check 7: essential common-interface tags, document-wide.
	v.interfaces()
}

func (v *validator) connection(raw any) {
	obj, ok := source.AsObject(raw)
	if !ok {
		v.errf("/modbus/connection", CodeInvalidType, "'connection' must be an object, got %T", raw)
		return
	}
	c := &Connection{}
	c.Baudrate = v.optInt(obj, "baudrate", "/modbus/connection")
	if _, present := obj["baudrate"]; !present {
		v.errf("/modbus/connection/baudrate", CodeRequired, "connection requires 'baudrate'")
	} else if c.Baudrate != nil && !standardBaudrate(*c.Baudrate) {
		v.warnf("/modbus/connection/baudrate", CodeUnusualBaudrate,
			"baudrate %d is not a standard serial rate", *c.Baudrate)
	}
	if m, present := obj["method"]; !present {
		v.errf("/modbus/connection/method", CodeRequired, "connection requires 'method'")
	} else if s, ok := source.AsString(m); ok {
		c.Method = s
	} else {
		v.errf("/modbus/connection/method", CodeInvalidType, "'method' must be a string, got %T", m)
	}
	c.Bytesize = v.optInt(obj, "bytesize", "/modbus/connection")
	c.Stopbits = v.optInt(obj, "stopbits", "/modbus/connection")
	c.Delay = v.optInt(obj, "delay", "/modbus/connection")
	c.MessageWait = v.optInt(obj, "message_wait_milliseconds", "/modbus/connection")
	c.Timeout = v.optInt(obj, "timeout", "/modbus/connection")
	if p, ok := obj["parity"]; ok {
		if s, ok := source.AsString(p); ok {
			c.Parity = s
		} else {
			v.errf("/modbus/connection/parity", CodeInvalidType, "'parity' must be a string, got %T", p)
		}
	}
	v.doc.Connection = c
}

func (v *validator) models(raw any) {
	arr, ok := source.AsArray(raw)
	if !ok {
		v.errf("/modbus/models", CodeInvalidType, "'models' must be an array, got %T", raw)
		return
	}
	if len(arr) == 0 {
		v.errf("/modbus/models", CodeEmptyModels, "'models' must list at least one model")
		return
	}
	for i, m := range arr {
		if s, ok := source.AsString(m); ok {
			v.doc.Models = append(v.doc.Models, s)
		} else {
			v.errf(fmt.Sprintf("/modbus/models/%d", i), CodeInvalidType, "model must be a string, got %T", m)
		}
	}
}

func (v *validator) registers(regs map[string]any) {
	// Iterate in canonical order so diagnostics are reproducible, then sweep
	// for unknown categories.
	for _, cat := range Categories {
		raw, ok := regs[cat]
		if !ok {
			continue
		}
		arr, ok := source.AsArray(raw)
		if !ok {
			v.errf("/modbus/registers/"+cat, CodeInvalidType, "category '%s' must be an array, got %T", cat, raw)
			continue
		}
		entries := make([]Register, 0, len(arr))
		for i, e := range arr {
			entries = append(entries, v.entry(cat, i, e))
		}
		switch cat {
		case CategorySensors:
			v.doc.Registers.Sensors = entries
		case CategorySwitches:
			v.doc.Registers.Switches = entries
		case CategoryClimates:
			v.doc.Registers.Climates = entries
		case CategoryInputRegisters:
			v.doc.Registers.InputRegisters = entries
		case CategoryHoldingRegisters:
			v.doc.Registers.HoldingRegisters = entries
		case CategoryCoils:
			v.doc.Registers.Coils = entries
		case CategoryDiscreteInputs:
			v.doc.Registers.DiscreteInputs = entries
		}
	}
	for _, name := range sortedKeys(regs) {
		if recognizedCategory(name) {
			continue
		}
		v.warnf("/modbus/registers/"+name, CodeUnknownCategory,
			"unrecognized register category '%s' is preserved but not built", name)
		if v.doc.Registers.Unknown == nil {
			v.doc.Registers.Unknown = map[string]any{}
		}
		v.doc.Registers.Unknown[name] = regs[name]
	}
}

func (v *validator) entry(cat string, index int, raw any) Register {
	path := fmt.Sprintf("/modbus/registers/%s/%d", cat, index)
	obj, ok := source.AsObject(raw)
	if !ok {
		v.errf(path, CodeInvalidType, "register entry must be an object, got %T", raw)
		return Register{}
	}
	r := Register{}

	// Check 5: name, address, scale.
	if n, present := obj["name"]; !present {
		v.errf(path+"/name", CodeRequired, "register entry requires 'name'")
	} else if s, ok := source.AsString(n); ok {
		r.Name = s
	} else {
		v.errf(path+"/name", CodeInvalidType, "'name' must be a string, got %T", n)
	}

	if a, present := obj["address"]; present {
		if addr, ok := source.AsInt(a); ok {
			if addr < 0 || addr > 65535 {
				v.errf(path+"/address", CodeOutOfRange,
					"register '%s' address %d is outside [0, 65535]", r.Name, addr)
			} else {
				r.Address = &addr
			}
		} else {
			v.errf(path+"/address", CodeInvalidType,
				"register '%s' address must be an integer, got %v", r.Name, a)
		}
	} else if cat != CategoryClimates {
		v.errf(path+"/address", CodeRequired, "register '%s' requires 'address'", r.Name)
	}

	if s, present := obj["scale"]; present {
		if f, ok := source.AsFloat(s); ok {
			r.Scale = &f
			if f <= 0 {
				v.warnf(path+"/scale", CodeSuspectScale,
					"register '%s' scale %s is not positive", r.Name, source.NumberString(s))
			}
		} else {
			v.errf(path+"/scale", CodeInvalidType, "register '%s' scale must be a number, got %v", r.Name, s)
		}
	}

	r.Unit = v.optString(obj, "unit", path)
	r.WriteType = v.optString(obj, "write_type", path)
	r.Precision = v.optInt(obj, "precision", path)
	r.ScanInterval = v.optInt(obj, "scan_interval", path)
	r.CommandOn = v.optInt(obj, "command_on", path)
	r.CommandOff = v.optInt(obj, "command_off", path)
	if b, ok := obj["verify"]; ok {
		if bv, ok := source.AsBool(b); ok {
			r.Verify = &bv
		} else {
			v.errf(path+"/verify", CodeInvalidType, "'verify' must be a boolean, got %T", b)
		}
	}
	r.TargetTempRegister = v.optInt(obj, "target_temp_register", path)
	r.HvacOnOffRegister = v.optInt(obj, "hvac_onoff_register", path)
	r.HvacModeRegister = v.optInt(obj, "hvac_mode_register", path)
	r.MaxTemp = v.optFloat(obj, "max_temp", path)
	r.MinTemp = v.optFloat(obj, "min_temp", path)

	if tag, ok := obj["common_interface"]; ok {
		if s, ok := source.AsString(tag); ok {
			r.CommonInterface = s
			if !knownInterface(s) {
				v.warnf(path+"/common_interface", CodeUnknownInterface,
					"register '%s' uses unrecognized common interface tag '%s'", r.Name, s)
			}
		} else {
			v.errf(path+"/common_interface", CodeInvalidType, "'common_interface' must be a string, got %T", tag)
		}
	}

	// Check 6: climates are usable without these, but degraded.
	if cat == CategoryClimates {
		if r.TargetTempRegister == nil {
			v.warnf(path, CodeDegradedClimate,
				"climate '%s' has no target_temp_register; setpoint control is unavailable", r.Name)
		}
		if r.MaxTemp == nil && r.MinTemp == nil {
			v.warnf(path, CodeDegradedClimate,
				"climate '%s' has no max_temp/min_temp; temperature limits default", r.Name)
		}
	}

	return r
}

func (v *validator) unlock(raw any) {
	obj, ok := source.AsObject(raw)
	if !ok {
		v.errf("/modbus/unlock_registers", CodeInvalidType, "'unlock_registers' must be an object, got %T", raw)
		return
	}
	ul := &Unlock{}
	if d, ok := obj["description"]; ok {
		if s, ok := source.AsString(d); ok {
			ul.Description = s
		} else {
			v.errf("/modbus/unlock_registers/description", CodeInvalidType, "'description' must be a string, got %T", d)
		}
	}
	for _, name := range sortedKeys(obj) {
		if name == "description" {
			continue
		}
		path := "/modbus/unlock_registers/" + name
		seqObj, ok := source.AsObject(obj[name])
		if !ok {
			v.errf(path, CodeInvalidType, "unlock sequence '%s' must be an object, got %T", name, obj[name])
			continue
		}
		seq := UnlockSequence{Name: name}
		if a, ok := source.AsInt(seqObj["address"]); ok {
			seq.Address = a
		} else {
			v.errf(path+"/address", CodeRequired, "unlock sequence '%s' requires an integer 'address'", name)
		}
		values, _ := source.AsArray(seqObj["values"])
		for i, vv := range values {
			vObj, ok := source.AsObject(vv)
			if !ok {
				v.errf(fmt.Sprintf("%s/values/%d", path, i), CodeInvalidType, "unlock value must be an object, got %T", vv)
				continue
			}
			uv := UnlockValue{}
			uv.Hex, _ = source.AsString(vObj["hex"])
			uv.Decimal, _ = source.AsInt(vObj["decimal"])
			uv.Description, _ = source.AsString(vObj["description"])
			seq.Values = append(seq.Values, uv)
		}
		ul.Sequences = append(ul.Sequences, seq)
	}
	v.doc.Unlock = ul
}

func (v *validator) interfaces() {
	seen := map[string]bool{}
	v.doc.Registers.All(func(_ string, _ int, r Register) {
		if r.CommonInterface != "" {
			seen[r.CommonInterface] = true
		}
	})
	for _, tag := range EssentialInterfaces {
		if !seen[tag] {
			v.warnf("/modbus/registers", CodeMissingInterface,
				"no register is tagged with essential common interface '%s'", tag)
		}
	}
}

func (v *validator) optInt(obj map[string]any, key, path string) *int64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	i, ok := source.AsInt(raw)
	if !ok {
		v.errf(path+"/"+key, CodeInvalidType, "'%s' must be an integer, got %v", key, raw)
		return nil
	}
	return &i
}

func (v *validator) optFloat(obj map[string]any, key, path string) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	f, ok := source.AsFloat(raw)
	if !ok {
		v.errf(path+"/"+key, CodeInvalidType, "'%s' must be a number, got %v", key, raw)
		return nil
	}
	return &f
}

func (v *validator) optString(obj map[string]any, key, path string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	s, ok := source.AsString(raw)
	if !ok {
		v.errf(path+"/"+key, CodeInvalidType, "'%s' must be a string, got %T", key, raw)
		return ""
	}
	return s
}

func standardBaudrate(rate int64) bool {
	for _, b := range StandardBaudrates {
		if b == rate {
			return true
		}
	}
	return false
}

func recognizedCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func knownInterface(tag string) bool {
	for _, t := range KnownInterfaces {
		if t == tag {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// map iteration order is randomized; diagnostics and unlock artifacts
	// must be reproducible, so keys sort lexically
	sort.Strings(keys)
	return keys
}
