package softcut

import (
	"math"
	"testing"
)

func TestPhaseClockQuantize(t *testing.T) {
	tests := []struct {
		quant, offset, phase, want float64
	}{
		{0.25, 0, 0.37, 0.25},
		{0.25, 0, 0.5, 0.5},
		{0.25, 0.2, 0.37, 0.5},
		{0.1, 0, 0.05, 0},
		{0, 0, 0.37, 0.37},
		{0, 0.03, 0.37, 0.4},
	}
	for _, tc := range tests {
		var c PhaseClock
		c.SetQuant(tc.quant)
		c.SetOffset(tc.offset)
		if got := c.Quantize(tc.phase); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("q=%g off=%g phase=%g: got %g want %g", tc.quant, tc.offset, tc.phase, got, tc.want)
		}
	}
}

func TestPhaseClockChanged(t *testing.T) {
	var c PhaseClock
	c.SetQuant(0.25)
	c.Update(0.1)
	if c.Changed() {
		t.Fatalf("phase 0 should not count as a change from the initial state")
	}
	c.Update(0.3)
	if !c.Changed() || c.Phase() != 0.25 {
		t.Fatalf("expected change to 0.25, got %v %g", c.Changed(), c.Phase())
	}
	c.Update(0.4)
	if c.Changed() {
		t.Fatalf("same quantum must not report a change")
	}
	c.Reset()
	if c.Phase() != 0 || c.Changed() {
		t.Fatalf("reset did not clear history")
	}
}
