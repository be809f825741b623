package core

// convert.go holds the cell value type and the text conversions used by
// validation, import coercion, search and export.
//
// Number coercion follows what a browser's Number() accepts for user text:
//   - decimal and exponent forms, optionally signed ("12", "-1.5", ".5", "1e3")
//   - unsigned 0x / 0o / 0b integer literals
//   - "Infinity" with an optional sign
//
// Everything else, including "NaN" and thousands separators, is not a number.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// decimalRegex matches integers, decimals, and scientific notation.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// prefixedIntRegex matches unsigned hex, octal and binary integer literals.
var prefixedIntRegex = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
)

// Value is a single cell: empty, a string, or a number.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps f.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v holds nothing at all (as opposed to an empty string).
func (v Value) IsNull() bool { return v.kind == KindEmpty }

// IsBlank reports whether v is null or a whitespace-only string.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	}
	return false
}

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders v as display text. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	}
	return ""
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	}
	return true
}

// MarshalJSON encodes null, a JSON string, or a JSON number.
// Non-finite numbers have no JSON form and encode as their display string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return json.Marshal(FormatNumber(v.num))
		}
		return json.Marshal(v.num)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts null, strings and numbers.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("cell value must be a string, number or null: %s", data)
		}
		*v = NumberValue(f)
	}
	return nil
}

// ParseNumber coerces user text to a number. Surrounding whitespace is
// ignored; blank text is not a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if prefixedIntRegex.MatchString(s) {
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}

	if !decimalRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Overflow still reports ±Inf, which is what the browser yields too.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// FormatNumber renders f in its shortest round-tripping form.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CoerceValue converts raw user text into the value stored for col:
// number columns hold numbers when the text is numeric, every other value
// is kept as trimmed text.
func CoerceValue(raw string, col Column) Value {
	trimmed := strings.TrimSpace(raw)
	if col.Type == ColumnNumber && trimmed != "" {
		if f, ok := ParseNumber(trimmed); ok {
			return NumberValue(f)
		}
	}
	return StringValue(trimmed)
}
