package math

import "github.com/chewxy/math32"

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Saturate clamps v to [0,1].
func Saturate(v float32) float32 {
	return Clamp(v, 0, 1)
}

func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func Smoothstep(edge0, edge1, v float32) float32 {
	if edge0 == edge1 {
		if v < edge0 {
			return 0
		}
		return 1
	}
	t := Saturate((v - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func IsFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// Finite returns v, or fallback when v is NaN or Inf.
func Finite(v, fallback float32) float32 {
	if IsFinite(v) {
		return v
	}
	return fallback
}
