// Package coerce converts loosely typed JSON values into strict Go values.
//
// Every function here is total: it never panics and never returns an error.
// Inputs are whatever encoding/json produces when decoding into any
// (nil, bool, float64, json.Number, string, []any, map[string]any), plus the
// native Go scalars callers occasionally pass directly.
package coerce

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ToBoolean converts value to a bool.
//
// Native booleans pass through, 1/"1" are true and 0/"0" are false. Strings
// are trimmed and lowercased: "true", "yes", "on" are true and "false", "no",
// "off", "" are false. Any other string is false and logs a warning tagged
// with label. nil is false. Everything else follows truthiness: non-zero
// numbers, maps and slices are true.
func ToBoolean(value any, label string) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return stringToBoolean(v, label)
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	}

	if f, ok := asFloat(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func stringToBoolean(s, label string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off", "":
		return false
	}
	slog.Warn("unrecognized boolean string, treating as false",
		slog.String("field", label),
		slog.String("value", s),
	)
	return false
}

// ToSafeString returns value as a string, or fallback when value is nil.
// Numbers are rendered without exponent notation, composites as JSON.
func ToSafeString(value any, fallback string) string {
	switch v := value.(type) {
	case nil:
		return fallback
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fallback
	}
	return string(b)
}

// ToSafeNumber parses value as a float64. Booleans map to 1 and 0, numeric
// strings are parsed after trimming, and the empty string is 0. Any non-finite
// or unparsable result yields fallback.
func ToSafeNumber(value any, fallback float64) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return fallback
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		n, ok := asFloat(value)
		if !ok {
			return fallback
		}
		f = n
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// ToInt is ToSafeNumber truncated toward zero.
func ToInt(value any, fallback int) int {
	f := ToSafeNumber(value, math.NaN())
	if math.IsNaN(f) || f >= float64(math.MaxInt) || f <= float64(math.MinInt) {
		return fallback
	}
	return int(f)
}

// ToInt64 is ToSafeNumber truncated toward zero. Integer json.Number and
// string values are parsed exactly, so ids beyond 2^53 survive.
func ToInt64(value any, fallback int64) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}

	f := ToSafeNumber(value, math.NaN())
	if math.IsNaN(f) || f >= float64(math.MaxInt64) || f <= float64(math.MinInt64) {
		return fallback
	}
	return int64(f)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	}
	return 0, false
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
