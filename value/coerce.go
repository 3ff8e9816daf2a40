package value

import (
	"strconv"
	"strings"
)

// AsFloat64 coerces v following spec.md §3: Int32 and Float64 convert
// directly; String parses a leading numeric prefix or yields 0; Void
// yields 0; anything else yields 0 with ok=false so callers can raise
// E_TYPE if they care to.
func AsFloat64(v Value) (float64, bool) {
	switch t := v.(type) {
	case Float64:
		return float64(t), true
	case Int32:
		return float64(t), true
	case String:
		return parseLeadingFloat(string(t)), true
	case Void:
		return 0, true
	default:
		return 0, false
	}
}

// AsInt32 coerces v to an integer. Float64 truncates toward zero; String
// parses a leading numeric prefix (itself parsed as a float, then
// truncated) or yields 0; Void yields 0.
func AsInt32(v Value) (int32, bool) {
	switch t := v.(type) {
	case Int32:
		return int32(t), true
	case Float64:
		return int32(t), true
	case String:
		return int32(parseLeadingFloat(string(t))), true
	case Void:
		return 0, true
	default:
		return 0, false
	}
}

// AsString renders v as a Lingo-surface string. Void coerces to "".
func AsString(v Value) string {
	if _, ok := v.(Void); ok {
		return ""
	}
	return v.String()
}

// AsList coerces v to a List. Void coerces to an empty list; any other
// non-list value is wrapped in a singleton list, matching Lingo's
// permissive "treat a scalar as a one-item list" behavior in list
// built-ins.
func AsList(v Value) List {
	switch t := v.(type) {
	case List:
		return t
	case Void:
		return NewList(nil)
	default:
		return NewList([]Value{v})
	}
}

// parseLeadingFloat scans a leading optional-sign numeric prefix off s and
// parses it; an unparsable or absent prefix yields 0, matching "string-to-
// number parses a leading numeric prefix or yields 0."
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	sawDigit := false
	sawDot := false
	for i, r := range s {
		switch {
		case r == '+' || r == '-':
			if i != 0 {
				goto scanned
			}
			end = i + 1
		case r >= '0' && r <= '9':
			sawDigit = true
			end = i + 1
		case r == '.' && !sawDot:
			sawDot = true
			end = i + 1
		default:
			goto scanned
		}
	}
scanned:
	if !sawDigit {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// NumericPromote implements "any arithmetic between int and float promotes
// to float": if either operand is Float64, both are coerced to float64 and
// isFloat is true; otherwise both are treated as Int32.
func NumericPromote(a, b Value) (af, bf float64, isFloat bool) {
	_, aFloat := a.(Float64)
	_, bFloat := b.(Float64)
	isFloat = aFloat || bFloat
	af, _ = AsFloat64(a)
	bf, _ = AsFloat64(b)
	return af, bf, isFloat
}
