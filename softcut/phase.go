package softcut

import "math"

// PhaseClock converts a voice's continuous position into the phase reported
// to schedulers: offset by a fixed latency correction and snapped down to the
// quantization unit. It never feeds back into the position itself.
type PhaseClock struct {
	quant   float64
	offset  float64
	last    float64
	changed bool
}

// SetQuant sets the quantization unit in seconds; 0 reports raw phase.
func (c *PhaseClock) SetQuant(q float64) {
	if !isFinite(q) || q < 0 {
		q = 0
	}
	c.quant = q
}

// SetOffset shifts the reported phase by seconds.
func (c *PhaseClock) SetOffset(seconds float64) {
	c.offset = finiteOr(seconds, 0)
}

// Quantize maps a raw phase in seconds to the reported phase.
func (c *PhaseClock) Quantize(phase float64) float64 {
	p := phase + c.offset
	if c.quant <= 0 {
		return p
	}
	return math.Floor(p/c.quant) * c.quant
}

// Update records the reported phase for a raw phase and tracks whether it
// differs from the previous update.
func (c *PhaseClock) Update(phase float64) float64 {
	q := c.Quantize(phase)
	c.changed = q != c.last
	c.last = q
	return q
}

// Phase returns the last reported phase.
func (c *PhaseClock) Phase() float64 {
	return c.last
}

// Changed reports whether the last Update moved the reported phase.
func (c *PhaseClock) Changed() bool {
	return c.changed
}

// Reset clears quantization, offset and history.
func (c *PhaseClock) Reset() {
	*c = PhaseClock{}
}
