// Package overflow provides overflow-checked integer arithmetic for the
// fixed-width System.Integer (int32) and System.Long (int64) value types.
package overflow

import "math"

type signed interface {
	~int32 | ~int64
}

func bounds[T signed]() (T, T) {
	var z T
	switch any(z).(type) {
	case int32:
		return T(math.MinInt32), T(math.MaxInt32)
	default:
		lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
		return T(lo), T(hi)
	}
}

// Add returns a+b and false if the result overflows T.
func Add[T signed](a, b T) (T, bool) {
	min, max := bounds[T]()
	if b > 0 && a > max-b {
		return 0, false
	}
	if b < 0 && a < min-b {
		return 0, false
	}
	return a + b, true
}

// Sub returns a-b and false if the result overflows T.
func Sub[T signed](a, b T) (T, bool) {
	min, max := bounds[T]()
	if b < 0 && a > max+b {
		return 0, false
	}
	if b > 0 && a < min+b {
		return 0, false
	}
	return a - b, true
}

// Mul returns a*b and false if the result overflows T.
func Mul[T signed](a, b T) (T, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	min, _ := bounds[T]()
	if (a == min && b == -1) || (b == min && a == -1) {
		return 0, false
	}
	result := a * b
	if result/b != a {
		return 0, false
	}
	return result, true
}

// Div returns a/b truncated toward zero, and false if b is zero or the
// result overflows T (MinInt / -1).
func Div[T signed](a, b T) (T, bool) {
	if b == 0 {
		return 0, false
	}
	min, _ := bounds[T]()
	if a == min && b == -1 {
		return 0, false
	}
	return a / b, true
}

// Mod returns a%b with the sign of a (Go's native truncated-division
// remainder), and false if b is zero.
func Mod[T signed](a, b T) (T, bool) {
	if b == 0 {
		return 0, false
	}
	return a % b, true
}
