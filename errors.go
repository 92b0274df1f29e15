package heatpump

import (
	"fmt"
	"strings"
)

// Diagnostic codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError       = "parse_error"
	CodeRequired         = "required"
	CodeInvalidType      = "invalid_type"
	CodeEmptyModels      = "empty_models"
	CodeOutOfRange       = "out_of_range"
	CodeUnknownCategory  = "unknown_category"
	CodeUnknownInterface = "unknown_interface"
	CodeUnusualBaudrate  = "unusual_baudrate"
	CodeSuspectScale     = "suspect_scale"
	CodeDegradedClimate  = "degraded_climate"
	CodeMissingInterface = "missing_interface"
)

// Diagnostic is a single validation finding. Path is a JSON-Pointer-like
// locator into the source document (for example /modbus/registers/sensors/2).
type Diagnostic struct {
	Path    string
	Code    string // One of the codes listed above.
	Message string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s at %s: %s", d.Code, d.Path, d.Message)
}

// Diagnostics is an ordered collection of findings that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(ds)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", ds[i].Code, ds[i].Path)
	}
	if len(ds) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(ds))
	}
	return b.String()
}

// diagAt builds a Diagnostic with a formatted message. Convenience for the
// validator's many call sites.
func diagAt(path, code, format string, args ...any) Diagnostic {
	return Diagnostic{Path: path, Code: code, Message: fmt.Sprintf(format, args...)}
}
