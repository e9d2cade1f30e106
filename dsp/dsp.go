package dsp

import "math"

// The helpers in this file operate on borrowed sample buffers. They never
// allocate, and every tap index is wrapped into [0, len(buf)) before access,
// so callers may pass any finite position.

// Lagrange3 evaluates the cubic through y0..y3 at frac in [0, 1) past y1.
func Lagrange3(y0, y1, y2, y3, frac float32) float32 {
	d := frac
	c0 := y1
	c1 := y2 - y0/3.0 - y1/2.0 - y3/6.0
	c2 := y0/2.0 - y1 + y2/2.0
	c3 := y1/2.0 - y2/2.0 + (y3-y0)/6.0

	return c0 + d*(c1+d*(c2+d*c3))
}

// WrapIndex maps any integer index onto [0, n). n must be > 0.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// span maps integer frames onto [lo, hi) of a buffer with n frames.
type span struct {
	lo, n int
}

func newSpan(bufLen, lo, hi int) (span, bool) {
	lo = max(lo, 0)
	hi = min(hi, bufLen)
	if hi <= lo {
		return span{}, false
	}
	return span{lo: lo, n: hi - lo}, true
}

func (s span) at(i int) int {
	return s.lo + WrapIndex(i-s.lo, s.n)
}

func (s span) split(pos float64) (int, float32) {
	fl := math.Floor(pos)
	return s.at(int(fl)), float32(pos - fl)
}

func validPos(pos float64) bool {
	return !math.IsNaN(pos) && !math.IsInf(pos, 0)
}

// ReadLinear reads buf at pos with linear interpolation, wrapping taps
// around the buffer ends. An empty buffer reads as silence.
func ReadLinear(buf []float32, pos float64) float32 {
	s, ok := newSpan(len(buf), 0, len(buf))
	if !ok || !validPos(pos) {
		return 0
	}
	i, frac := s.split(pos)
	a := buf[i]
	b := buf[s.at(i+1)]
	return a + frac*(b-a)
}

// ReadCubic reads buf at pos with cubic Lagrange interpolation, wrapping
// taps around the buffer ends. At integer positions it returns the stored
// sample exactly.
func ReadCubic(buf []float32, pos float64) float32 {
	return ReadCubicIn(buf, pos, 0, len(buf))
}

// ReadCubicIn is ReadCubic with every tap wrapped into frames [lo, hi).
// An empty span reads as silence.
func ReadCubicIn(buf []float32, pos float64, lo, hi int) float32 {
	s, ok := newSpan(len(buf), lo, hi)
	if !ok || !validPos(pos) {
		return 0
	}
	i, frac := s.split(pos)
	if frac == 0 {
		return buf[i]
	}
	y0 := buf[s.at(i-1)]
	y1 := buf[i]
	y2 := buf[s.at(i+1)]
	y3 := buf[s.at(i+2)]
	return Lagrange3(y0, y1, y2, y3, frac)
}

// WriteLinear blends x into buf at a fractional position. The two
// neighbouring frames receive rec*x + pre*old, each mixed in proportion to
// its distance from pos, so an integer position overwrites exactly one frame
// and fractional positions do not stairstep.
func WriteLinear(buf []float32, pos float64, x, rec, pre float32) {
	WriteLinearIn(buf, pos, x, rec, pre, 0, len(buf))
}

// WriteLinearIn is WriteLinear with both taps wrapped into frames [lo, hi),
// so frames outside the span are never touched.
func WriteLinearIn(buf []float32, pos float64, x, rec, pre float32, lo, hi int) {
	s, ok := newSpan(len(buf), lo, hi)
	if !ok || !validPos(pos) {
		return
	}
	i, frac := s.split(pos)
	blendTap(buf, i, 1-frac, x, rec, pre)
	if frac > 0 {
		blendTap(buf, s.at(i+1), frac, x, rec, pre)
	}
}

func blendTap(buf []float32, i int, w, x, rec, pre float32) {
	old := buf[i]
	mixed := rec*x + pre*old
	buf[i] = FlushDenormals(old + w*(mixed-old))
}

// FlushDenormals zeroes magnitudes below 1e-30. Decaying overdub feedback
// would otherwise settle into subnormal floats.
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
