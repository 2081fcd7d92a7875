package coerce

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// ToBoolean
// ============================================================================

func TestToBoolean_TruthTable(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"native true", true, true},
		{"native false", false, false},
		{"int one", 1, true},
		{"float one", float64(1), true},
		{"string one", "1", true},
		{"int zero", 0, false},
		{"float zero", float64(0), false},
		{"string zero", "0", false},
		{"yes", "yes", true},
		{"YES padded", "  YES ", true},
		{"on", "on", true},
		{"true string", "True", true},
		{"no", "no", false},
		{"off", "off", false},
		{"false string", "FALSE", false},
		{"empty string", "", false},
		{"unknown string", "maybe", false},
		{"nil", nil, false},
		{"negative number", -3.5, true},
		{"NaN", math.NaN(), false},
		{"json number", json.Number("2"), true},
		{"json number zero", json.Number("0"), false},
		{"empty map", map[string]any{}, true},
		{"empty slice", []any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToBoolean(tt.value, "test"))
		})
	}
}

func TestToBoolean_UnknownStringLogsLabel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	assert.False(t, ToBoolean("maybe", "product.in_stock"))

	var out map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "product.in_stock", out["field"])
	assert.Equal(t, "maybe", out["value"])
}

func TestToBoolean_KnownStringDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ToBoolean("off", "x")
	assert.Zero(t, buf.Len())
}

// ============================================================================
// ToSafeString
// ============================================================================

func TestToSafeString(t *testing.T) {
	assert.Equal(t, "fb", ToSafeString(nil, "fb"))
	assert.Equal(t, "", ToSafeString(nil, ""))
	assert.Equal(t, "hello", ToSafeString("hello", "fb"))
	assert.Equal(t, "", ToSafeString("", "fb"))
	assert.Equal(t, "5", ToSafeString(float64(5), ""))
	assert.Equal(t, "49.99", ToSafeString(49.99, ""))
	assert.Equal(t, "12", ToSafeString(12, ""))
	assert.Equal(t, "true", ToSafeString(true, ""))
	assert.Equal(t, "7", ToSafeString(json.Number("7"), ""))
	assert.Equal(t, `{"a":1}`, ToSafeString(map[string]any{"a": 1}, ""))
	assert.Equal(t, `[1,2]`, ToSafeString([]any{1, 2}, ""))
}

func TestToSafeString_LargeIntegerHasNoExponent(t *testing.T) {
	assert.Equal(t, "1234567890123", ToSafeString(float64(1234567890123), ""))
}

// ============================================================================
// ToSafeNumber
// ============================================================================

func TestToSafeNumber(t *testing.T) {
	assert.Equal(t, 3.0, ToSafeNumber(nil, 3))
	assert.Equal(t, 5.0, ToSafeNumber(float64(5), 0))
	assert.Equal(t, 5.0, ToSafeNumber(5, 0))
	assert.Equal(t, 49.99, ToSafeNumber("49.99", 0))
	assert.Equal(t, 12.0, ToSafeNumber(" 12 ", 0))
	assert.Equal(t, 0.0, ToSafeNumber("", 9))
	assert.Equal(t, 9.0, ToSafeNumber("abc", 9))
	assert.Equal(t, 9.0, ToSafeNumber("NaN", 9))
	assert.Equal(t, 9.0, ToSafeNumber("Infinity", 9))
	assert.Equal(t, 9.0, ToSafeNumber(math.Inf(1), 9))
	assert.Equal(t, 1.0, ToSafeNumber(true, 9))
	assert.Equal(t, 0.0, ToSafeNumber(false, 9))
	assert.Equal(t, 9.0, ToSafeNumber(map[string]any{}, 9))
	assert.Equal(t, 2.5, ToSafeNumber(json.Number("2.5"), 0))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 3, ToInt("3", 0))
	assert.Equal(t, 3, ToInt(3.9, 0))
	assert.Equal(t, -2, ToInt(-2.7, 0))
	assert.Equal(t, 7, ToInt("x", 7))
	assert.Equal(t, 7, ToInt(nil, 7))
	assert.Equal(t, 7, ToInt(math.Inf(-1), 7))
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(5), ToInt64(float64(5), 0))
	assert.Equal(t, int64(5), ToInt64("5", 0))
	assert.Equal(t, int64(0), ToInt64("uuid-like", 0))
	assert.Equal(t, int64(-1), ToInt64(1e300, -1))
	assert.Equal(t, int64(12), ToInt64(json.Number("12.9"), 0))
}

func TestToInt64_LargeIDsExact(t *testing.T) {
	assert.Equal(t, int64(9007199254740993), ToInt64(json.Number("9007199254740993"), 0))
	assert.Equal(t, int64(9007199254740993), ToInt64("9007199254740993", 0))
	assert.Equal(t, int64(math.MaxInt64), ToInt64(int64(math.MaxInt64), 0))
}
