package hooks

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// CoercePriority converts a loosely typed priority into an int.
//
// Integers pass through, floats are truncated toward zero, and strings are
// read like a leading-integer parse: optional whitespace and sign followed by
// decimal digits, ignoring anything after them ("15px" -> 15).
// Returns false when no integer can be read.
func CoercePriority(v any) (int, bool) {
	switch p := v.(type) {
	case int:
		return p, true
	case int8:
		return int(p), true
	case int16:
		return int(p), true
	case int32:
		return int(p), true
	case int64:
		return clampInt64(p), true
	case uint:
		return clampUint64(uint64(p)), true
	case uint8:
		return int(p), true
	case uint16:
		return int(p), true
	case uint32:
		return clampUint64(uint64(p)), true
	case uint64:
		return clampUint64(p), true
	case float32:
		return coerceFloat(float64(p))
	case float64:
		return coerceFloat(p)
	case string:
		return parseLeadingInt(p)
	default:
		return 0, false
	}
}

func coerceFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt {
		return math.MaxInt, true
	}
	if f < math.MinInt {
		return math.MinInt, true
	}
	return int(f), true
}

func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// only range errors remain after the scan above
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return clampInt64(n), true
}

func clampInt64(n int64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	if n < math.MinInt {
		return math.MinInt
	}
	return int(n)
}

func clampUint64(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
