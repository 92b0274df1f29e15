package yamlout

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Style parameterizes the emitter. The two target dialects want slightly
// different text: ESPHome configs inline flat lists and defend numeric-looking
// strings against YAML number coercion, Home Assistant configs do neither.
type Style struct {
	// InlineScalarLists renders a sequence of scalars as [a, b, c].
	InlineScalarLists bool
	// QuoteNumericStrings quotes strings that would otherwise parse as
	// numbers.
	QuoteNumericStrings bool
}

var (
	HomeAssistantStyle = Style{}
	ESPHomeStyle       = Style{InlineScalarLists: true, QuoteNumericStrings: true}
)

// secretSentinel marks secret references that must reach the consumer as YAML
// tags, never as quoted strings.
const secretSentinel = "!secret "

const indentUnit = "  "

// Serialize renders the tree deterministically. It never fails on well-formed
// trees; a malformed tree is a programming error, not a runtime condition.
func Serialize(n *Node, style Style) string {
	w := &writer{style: style}
	switch n.kind {
	case KindRecord:
		w.fields(n, 0, "")
	case KindSequence:
		w.sequence(n, 0)
	default:
		w.line(0, w.scalar(n))
	}
	return w.b.String()
}

type writer struct {
	b     strings.Builder
	style Style
}

func (w *writer) line(indent int, text string) {
	for i := 0; i < indent; i++ {
		w.b.WriteString(indentUnit)
	}
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

// fields writes a record's fields at the given indent. When firstPrefix is
// non-empty the first field shares a sequence item's dash line and firstPrefix
// is that already-indented "- " prefix.
func (w *writer) fields(n *Node, indent int, firstPrefix string) {
	for i, key := range w.fieldOrder(n) {
		val := n.fields[key]
		prefix := ""
		if i == 0 && firstPrefix != "" {
			prefix = firstPrefix
		}
		w.field(key, val, indent, prefix)
	}
}

// fieldOrder hoists a "name" field to the front so entity list items read
// naturally; all other fields keep insertion order.
func (w *writer) fieldOrder(n *Node) []string {
	if _, ok := n.fields["name"]; !ok || n.keys[0] == "name" {
		return n.keys
	}
	ordered := make([]string, 0, len(n.keys))
	ordered = append(ordered, "name")
	for _, k := range n.keys {
		if k != "name" {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

func (w *writer) field(key string, val *Node, indent int, prefix string) {
	writeLine := func(text string) {
		if prefix != "" {
			w.b.WriteString(prefix)
			w.b.WriteString(text)
			w.b.WriteByte('\n')
			return
		}
		w.line(indent, text)
	}
	switch val.kind {
	case KindScalar:
		writeLine(key + ": " + w.scalar(val))
	case KindRecord:
		if len(val.keys) == 0 {
			writeLine(key + ": {}")
			return
		}
		writeLine(key + ":")
		w.fields(val, indent+1, "")
	case KindSequence:
		if len(val.items) == 0 {
			writeLine(key + ": []")
			return
		}
		if w.style.InlineScalarLists && allScalars(val) {
			writeLine(key + ": " + w.inlineList(val))
			return
		}
		writeLine(key + ":")
		w.sequence(val, indent+1)
	}
}

func (w *writer) sequence(n *Node, indent int) {
	for _, item := range n.items {
		w.item(item, indent)
	}
}

func (w *writer) item(n *Node, indent int) {
	dash := strings.Repeat(indentUnit, indent) + "- "
	switch n.kind {
	case KindScalar:
		w.b.WriteString(dash)
		w.b.WriteString(w.scalar(n))
		w.b.WriteByte('\n')
	case KindRecord:
		if len(n.keys) == 0 {
			w.b.WriteString(dash + "{}\n")
			return
		}
		w.fields(n, indent+1, dash)
	case KindSequence:
		// A sequence directly inside a sequence has no natural dash line in
		// either target dialect; render it inline when flat, nested otherwise.
		if w.style.InlineScalarLists && allScalars(n) {
			w.b.WriteString(dash)
			w.b.WriteString(w.inlineList(n))
			w.b.WriteByte('\n')
			return
		}
		w.b.WriteString(strings.TrimRight(dash, " "))
		w.b.WriteByte('\n')
		w.sequence(n, indent+1)
	}
}

func (w *writer) inlineList(n *Node) string {
	parts := make([]string, len(n.items))
	for i, item := range n.items {
		parts[i] = w.scalar(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func allScalars(n *Node) bool {
	for _, item := range n.items {
		if item.kind != KindScalar {
			return false
		}
	}
	return true
}

func (w *writer) scalar(n *Node) string {
	switch v := n.scalar.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case json.Number:
		return v.String()
	case string:
		return w.str(v)
	default:
		// Builders only construct the types above.
		panic("yamlout: unsupported scalar type")
	}
}

// structural is the set of characters that force quoting: any of these can
// change meaning under a strict YAML reader.
const structural = ":{}[],&*#?|-<>=!%@\\"

func (w *writer) str(s string) string {
	if strings.HasPrefix(s, secretSentinel) {
		return s
	}
	if !w.needsQuote(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (w *writer) needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, structural) {
		return true
	}
	// Interior whitespace is quoted too: strict readers in both target
	// ecosystems treat bare multi-word scalars inconsistently.
	if strings.ContainsAny(s, " \t") {
		return true
	}
	if w.style.QuoteNumericStrings && looksNumeric(s) {
		return true
	}
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
