package state

import (
	"math"
	"strconv"
)

// Stat bounds. Every bounded scalar lives in [0, 100]; cash and AUM are
// unbounded.
const (
	StatMin = 0.0
	StatMax = 100.0

	LoanRateMin = 0.05
	LoanRateMax = 0.50
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampStat bounds a scalar stat to [0, 100]. NaN collapses to the lower
// bound so malformed arithmetic can never poison a save.
func ClampStat(v float64) float64 {
	if math.IsNaN(v) {
		return StatMin
	}
	return Clamp(v, StatMin, StatMax)
}

// ClampLoanRate bounds a loan rate to [0.05, 0.50]. Exactly zero is passed
// through: it means the loan was fully paid off.
func ClampLoanRate(r float64) float64 {
	if r == 0 {
		return 0
	}
	if math.IsNaN(r) {
		return LoanRateMin
	}
	return Clamp(r, LoanRateMin, LoanRateMax)
}

// AsFloat canonicalizes a loosely-typed persisted value into a float64.
// Old saves carry numbers as float64, int, or string interchangeably.
func AsFloat(v any, fallback float64) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fallback
		}
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return fallback
	default:
		return fallback
	}
}

// AsInt canonicalizes a loosely-typed persisted value into an int.
func AsInt(v any, fallback int) int {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fallback
		}
		return int(x)
	case int:
		return x
	case int64:
		return int(x)
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n
		}
		return fallback
	default:
		return fallback
	}
}

// AsBool canonicalizes a loosely-typed persisted value into a bool.
func AsBool(v any, fallback bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "true" || x == "1"
	default:
		return fallback
	}
}
