// internal/common/numeric/numeric.go
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Parse converts a loosely typed JSON value into a finite float64.
// Strings may carry thousands separators. The second return is false when
// the value is absent, non-numeric, NaN or infinite.
func Parse(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatOr returns the parsed value, or def when it cannot be parsed.
func FloatOr(raw interface{}, def float64) float64 {
	if f, ok := Parse(raw); ok {
		return f
	}
	return def
}

// IntOr returns the parsed value truncated toward zero, or def.
func IntOr(raw interface{}, def int) int {
	if f, ok := Parse(raw); ok {
		return int(f)
	}
	return def
}

// OrDefault treats zero and non-finite values as missing.
func OrDefault(v, def float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Truthy reports whether a loosely typed flag is set.
func Truthy(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		return s != "" && s != "false" && s != "0" && s != "no" && s != "off"
	default:
		f, ok := Parse(raw)
		return ok && f != 0
	}
}

// Round rounds half away from zero using the shortest decimal form of v,
// so Round(Round(v, p), p) == Round(v, p).
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundInt rounds to the nearest integer.
func RoundInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// Grouped formats n with English thousands separators.
func Grouped(n int64) string {
	return printer.Sprintf("%d", n)
}

// Clamp bounds value to [min, max].
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
