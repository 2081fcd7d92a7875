package coerce

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMoney(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"49.99", "49.99"},
		{"49.9", "49.90"},
		{"10", "10.00"},
		{float64(10), "10.00"},
		{12.345, "12.35"},
		{"1,299.5", "1299.50"},
		{json.Number("3.1"), "3.10"},
		{"", ZeroMoney},
		{nil, ZeroMoney},
		{"free", ZeroMoney},
		{true, ZeroMoney},
		{map[string]any{}, ZeroMoney},
		{math.Inf(1), ZeroMoney},
		{"-2.005", "-2.01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMoney(tt.value), "ToMoney(%#v)", tt.value)
	}
}

func TestToMoney_Idempotent(t *testing.T) {
	for _, v := range []any{"49.9", 12.345, "1,299.5", nil} {
		once := ToMoney(v)
		assert.Equal(t, once, ToMoney(once))
	}
}

func TestToOptionalMoney(t *testing.T) {
	assert.Equal(t, "", ToOptionalMoney(nil))
	assert.Equal(t, "", ToOptionalMoney(""))
	assert.Equal(t, "59.00", ToOptionalMoney(59))
}

func TestMulMoney(t *testing.T) {
	assert.Equal(t, "30.00", MulMoney("10.00", 3))
	assert.Equal(t, "0.30", MulMoney("0.10", 3))
	assert.Equal(t, "0.00", MulMoney("10.00", 0))
	assert.Equal(t, ZeroMoney, MulMoney("garbage", 2))
}

func TestSumMoney(t *testing.T) {
	assert.Equal(t, "0.30", SumMoney("0.10", "0.20"))
	assert.Equal(t, "15.50", SumMoney("10.00", "5.50", "oops"))
	assert.Equal(t, ZeroMoney, SumMoney())
}

func TestSumMoney_NoFloatDrift(t *testing.T) {
	amounts := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		amounts = append(amounts, "0.10")
	}
	assert.Equal(t, "10.00", SumMoney(amounts...))
}
