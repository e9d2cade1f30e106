package softcut

import (
	"errors"
	"math"
	"testing"
)

const testSampleRate = 48000

func newTestEngine(t testing.TB, voices int, sampleRate float64) *Engine {
	t.Helper()
	e := New(voices, WithSampleRate(sampleRate))
	t.Cleanup(e.Close)
	return e
}

func mustOK(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustErr(t testing.TB, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

// render runs voice v over in using fixed-size blocks and returns the output.
func render(e *Engine, v int, in []float32, block int) []float32 {
	out := make([]float32, len(in))
	for start := 0; start < len(in); start += block {
		end := min(start+block, len(in))
		e.ProcessBlock(v, in[start:end], out[start:end])
	}
	return out
}

func constant(n int, x float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = x
	}
	return s
}

func sine(n int, hz, sampleRate float64) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * hz * float64(i) / sampleRate))
	}
	return s
}

func directConvolve(a, b []float32) []float32 {
	out := make([]float32, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

func maxAbsDiff(a, b []float32) float64 {
	n := min(len(a), len(b))
	var m float64
	for i := 0; i < n; i++ {
		d := math.Abs(float64(a[i] - b[i]))
		if d > m {
			m = d
		}
	}
	return m
}

func allFinite(s []float32) bool {
	for _, x := range s {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}
