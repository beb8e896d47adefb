// Package numconv holds the permissive number coercions used wherever loosely
// typed input (CSV cells, remote JSON) is turned into numbers. Anything that
// does not start with a number coerces to 0.
package numconv

import (
	"math"
	"strconv"
	"strings"
)

// LeadingInt parses the leading integer of s, ignoring leading whitespace and
// anything after the digits. "10.5" => 10, "12pcs" => 12, "abc" => 0.
func LeadingInt(s string) int {
	prefix := leadingNumber(s, false)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// LeadingFloat parses the leading decimal number of s. The second return value
// is false when s does not start with a number.
func LeadingFloat(s string) (float64, bool) {
	prefix := leadingNumber(s, true)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Float is LeadingFloat with the miss case folded to 0.
func Float(s string) float64 {
	v, _ := LeadingFloat(s)
	return v
}

// IsNumeric reports whether the whole trimmed string is a number. An empty
// string counts as numeric zero.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// RoundHalfUp rounds to the nearest integer with halves going towards +Inf.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// FormatFloat renders v with the shortest representation, no exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FromAny coerces a decoded JSON value to a float. Strings go through
// LeadingFloat, bools and nil become 0.
func FromAny(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		return Float(t)
	default:
		return 0
	}
}

// IntFromAny coerces a decoded JSON value to an int, truncating fractions.
func IntFromAny(v any) int {
	switch t := v.(type) {
	case string:
		return LeadingInt(t)
	default:
		f := FromAny(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(f)
	}
}

func leadingNumber(s string, allowFraction bool) string {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - digitsStart

	if !allowFraction {
		if intDigits == 0 {
			return ""
		}
		return s[:i]
	}

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = j - i - 1
		if intDigits > 0 || fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}

	return s[:i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
