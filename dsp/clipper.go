package dsp

import "math"

// belowOne is the largest float64 smaller than 1.
var belowOne = math.Nextafter(1, 0)

// Saturate soft-clips x with tanh. The result is always strictly inside
// (-1, 1); tanh itself rounds to ±1 for large inputs, so those are pinned.
func Saturate(x float64) float64 {
	y := math.Tanh(x)
	switch {
	case y >= 1:
		return belowOne
	case y <= -1:
		return -belowOne
	}
	return y
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
