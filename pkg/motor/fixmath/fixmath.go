// Package fixmath provides the integer helpers used by the control math.
//
// Every quantity in the control loop is an integer in a fixed unit
// (millidegrees, ticks, millivolts, ...). Products of two such quantities
// routinely exceed 63 bits before they are divided back down, so MulDiv
// computes them with a 128-bit intermediate.
package fixmath

import (
	"math"
	"math/bits"
)

// MulDiv returns a*b/c computed with a 128-bit intermediate product,
// truncated toward zero. A result that does not fit in int64 saturates.
// c must not be zero.
func MulDiv(a, b, c int64) int64 {
	q, _, neg, ok := mulDiv(a, b, c)
	if !ok {
		return saturate(neg)
	}
	return apply(q, neg)
}

// MulDivRound is MulDiv rounded half away from zero.
func MulDivRound(a, b, c int64) int64 {
	q, r, neg, ok := mulDiv(a, b, c)
	if !ok {
		return saturate(neg)
	}
	if r >= abs64(c)-r {
		if q >= math.MaxInt64 {
			return saturate(neg)
		}
		q++
	}
	return apply(q, neg)
}

func mulDiv(a, b, c int64) (quo, rem uint64, neg, ok bool) {
	if c == 0 {
		panic("fixmath: division by zero")
	}
	neg = (a < 0) != (b < 0) != (c < 0)
	hi, lo := bits.Mul64(abs64(a), abs64(b))
	uc := abs64(c)
	if hi >= uc {
		return 0, 0, neg, false
	}
	quo, rem = bits.Div64(hi, lo, uc)
	if quo > math.MaxInt64 && !(neg && quo == math.MaxInt64+1) {
		return 0, 0, neg, false
	}
	return quo, rem, neg, true
}

func apply(q uint64, neg bool) int64 {
	if neg {
		return -int64(q)
	}
	return int64(q)
}

// DivRound divides rounding half away from zero.
func DivRound(a, b int64) int64 {
	if b == 0 {
		panic("fixmath: division by zero")
	}
	q, r := a/b, a%b
	if 2*Abs(r) >= Abs(b) {
		if (a < 0) != (b < 0) {
			return q - 1
		}
		return q + 1
	}
	return q
}

// Sqrt returns floor(sqrt(x)). Negative input yields 0.
func Sqrt(x int64) int64 {
	if x <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(x)))
	// float64 loses precision above 2^53, correct by at most a few steps.
	for r > 0 && r > x/r {
		r--
	}
	for (r+1) <= x/(r+1) {
		r++
	}
	return r
}

// Abs returns |x|.
func Abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// Sign returns -1, 0 or 1.
func Sign(x int64) int64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Clamp limits x to [-limit, limit]. limit must not be negative.
func Clamp(x, limit int64) int64 {
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}

// Bound limits x to [lo, hi].
func Bound(x, lo, hi int64) int64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Min returns the smaller value.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger value.
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func abs64(x int64) uint64 {
	if x < 0 {
		return uint64(-(x + 1)) + 1
	}
	return uint64(x)
}

func saturate(neg bool) int64 {
	if neg {
		return math.MinInt64
	}
	return math.MaxInt64
}
