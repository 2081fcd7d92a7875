package coerce

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ZeroMoney is the canonical rendering of an absent or unparsable amount.
const ZeroMoney = "0.00"

// ToDecimal parses value as an exact decimal. Strings may carry thousands
// separators ("1,299.00") and surrounding whitespace.
func ToDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case bool:
		return decimal.Zero, false
	}

	f, ok := asFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// ToMoney renders value as a decimal string with exactly two places, rounding
// half away from zero. Anything unparsable becomes ZeroMoney.
func ToMoney(value any) string {
	d, ok := ToDecimal(value)
	if !ok {
		return ZeroMoney
	}
	return d.StringFixed(2)
}

// ToOptionalMoney is ToMoney except that absent or unparsable values render as
// the empty string, for amounts whose absence carries meaning (a compare-at
// price that does not exist).
func ToOptionalMoney(value any) string {
	d, ok := ToDecimal(value)
	if !ok {
		return ""
	}
	return d.StringFixed(2)
}

// MulMoney returns round2(price x quantity) as a money string.
func MulMoney(price string, quantity int) string {
	d, ok := ToDecimal(price)
	if !ok {
		return ZeroMoney
	}
	return d.Mul(decimal.NewFromInt(int64(quantity))).StringFixed(2)
}

// SumMoney adds money strings, skipping unparsable entries.
func SumMoney(amounts ...string) string {
	total := decimal.Zero
	for _, a := range amounts {
		if d, ok := ToDecimal(a); ok {
			total = total.Add(d)
		}
	}
	return total.StringFixed(2)
}
