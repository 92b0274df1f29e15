// Package source decodes raw register-database documents into generic
// JSON-shaped values. Numbers are preserved as json.Number so that callers
// decide how to interpret them; decoding never loses precision on large
// register addresses or fractional scales.
package source

import (
	"bytes"
	"fmt"
	"strconv"

	j "github.com/goccy/go-json"
)

// DecodeBytes parses a JSON document into map[string]any with json.Number
// values. A non-object root is an error.
func DecodeBytes(data []byte) (map[string]any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root is %T, expected object", v)
	}
	return m, nil
}

// AsString returns v as a string when it is one.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsObject returns v as a JSON object when it is one.
func AsObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsArray returns v as a JSON array when it is one.
func AsArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// AsInt returns v as an int64 when it is a whole JSON number.
func AsInt(v any) (int64, bool) {
	n, ok := v.(j.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		// Accept whole-valued floats such as 13.0.
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return i, true
}

// AsFloat returns v as a float64 when it is a JSON number.
func AsFloat(v any) (float64, bool) {
	n, ok := v.(j.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsBool returns v as a bool. The truthy integers 0 and 1 are accepted
// because several manufacturer databases encode flags that way.
func AsBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	if i, ok := AsInt(v); ok && (i == 0 || i == 1) {
		return i == 1, true
	}
	return false, false
}

// NumberString renders a JSON number back to its source text.
func NumberString(v any) string {
	switch n := v.(type) {
	case j.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
