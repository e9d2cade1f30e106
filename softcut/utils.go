package softcut

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const defaultSampleRate = 48000.0

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finiteOr returns x, or fallback when x is NaN or infinite.
func finiteOr(x, fallback float64) float64 {
	if isFinite(x) {
		return x
	}
	return fallback
}
