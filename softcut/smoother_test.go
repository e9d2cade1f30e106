package softcut

import (
	"math"
	"testing"
)

func TestSmootherZeroTimeIsImmediate(t *testing.T) {
	s := NewSmoother(testSampleRate, 0)
	s.SetTarget(0.75)
	if got := s.Next(); got != 0.75 {
		t.Fatalf("expected immediate target, got %f", got)
	}
}

func TestSmootherSettlesWithinTime(t *testing.T) {
	for _, seconds := range []float64{0.001, 0.01, 0.25} {
		s := NewSmoother(testSampleRate, seconds)
		s.Reset(0)
		s.SetTarget(1)
		n := int(math.Ceil(seconds*testSampleRate)) + 1
		var v float64
		for i := 0; i < n; i++ {
			v = s.Next()
		}
		if math.Abs(1-v) > 1e-3 {
			t.Fatalf("t=%g: residual %g after %d samples", seconds, 1-v, n)
		}
	}
}

func TestSmootherIsMonotonicAndReachesTarget(t *testing.T) {
	s := NewSmoother(testSampleRate, 0.005)
	s.Reset(2)
	s.SetTarget(-1)
	prev := s.Value()
	for i := 0; i < testSampleRate; i++ {
		v := s.Next()
		if v > prev || v < -1 {
			t.Fatalf("sample %d: non-monotonic or overshooting value %f (prev %f)", i, v, prev)
		}
		prev = v
	}
	if prev != -1 {
		t.Fatalf("expected exact target after settling, got %.12f", prev)
	}
}

func TestSmootherIgnoresNonFiniteTarget(t *testing.T) {
	s := NewSmoother(testSampleRate, 0)
	s.SetTarget(0.5)
	s.SetTarget(math.NaN())
	s.SetTarget(math.Inf(1))
	if got := s.Next(); got != 0.5 {
		t.Fatalf("expected 0.5, got %f", got)
	}
}

func TestSmootherSampleRateChangeKeepsSeconds(t *testing.T) {
	s := NewSmoother(48000, 0.01)
	c48 := s.coef
	s.SetSampleRate(96000)
	if s.Time() != 0.01 {
		t.Fatalf("time changed with sample rate: %g", s.Time())
	}
	if s.coef <= c48 {
		t.Fatalf("expected slower per-sample coefficient at 96k: %g <= %g", s.coef, c48)
	}
}
