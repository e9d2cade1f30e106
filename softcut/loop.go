package softcut

import "math"

// LoopRegion is the audio-thread view of a voice's loop bounds, in frames.
// Call Normalize after changing any field.
type LoopRegion struct {
	Start     float64
	End       float64
	Fade      float64
	Loop      bool
	BufFrames int
}

// Normalize clamps the bounds into the buffer, keeps Start <= End and limits
// the fade so the entry and exit windows cover at most half the loop each.
func (r *LoopRegion) Normalize() {
	n := float64(r.BufFrames)
	if n < 0 {
		n = 0
	}
	r.Start = clamp(finiteOr(r.Start, 0), 0, n)
	r.End = clamp(finiteOr(r.End, n), 0, n)
	if r.End < r.Start {
		r.End = r.Start
	}
	r.Fade = finiteOr(r.Fade, 0)
	if r.Fade < 0 {
		r.Fade = 0
	}
	lo, hi := r.bounds()
	if half := (hi - lo) / 2; r.Fade > half {
		r.Fade = half
	}
}

// Length returns the traversal length in frames: the loop length when
// looping, otherwise the whole buffer.
func (r *LoopRegion) Length() float64 {
	lo, hi := r.bounds()
	return hi - lo
}

// Degenerate reports a region that cannot advance a head: no buffer, or
// looping over less than one frame.
func (r *LoopRegion) Degenerate() bool {
	if r.BufFrames <= 0 {
		return true
	}
	return r.Loop && r.End-r.Start < 1
}

func (r *LoopRegion) bounds() (float64, float64) {
	if r.Loop {
		return r.Start, r.End
	}
	return 0, float64(r.BufFrames)
}

// Taps returns the integer frames [lo, hi) that interpolation may touch:
// the frames inside [Start, End) when looping, otherwise the whole buffer.
func (r *LoopRegion) Taps() (lo, hi int) {
	if !r.Loop {
		return 0, r.BufFrames
	}
	lo = int(math.Ceil(r.Start))
	hi = min(int(math.Ceil(r.End)), r.BufFrames)
	return lo, hi
}

// Wrap maps pos into [Start, End) with modular arithmetic when looping and
// reports whether it had to wrap. Without looping pos is clamped to the last
// addressable frame and wrapped is false.
func (r *LoopRegion) Wrap(pos float64) (float64, bool) {
	if !r.Loop {
		return r.Clamp(pos), false
	}
	length := r.End - r.Start
	if length <= 0 {
		return r.Start, false
	}
	if pos >= r.Start && pos < r.End {
		return pos, false
	}
	m := math.Mod(pos-r.Start, length)
	if m < 0 {
		m += length
	}
	if m >= length {
		m = 0
	}
	return r.Start + m, true
}

// Clamp limits pos to [0, BufFrames-1].
func (r *LoopRegion) Clamp(pos float64) float64 {
	last := float64(r.BufFrames - 1)
	if last < 0 {
		return 0
	}
	return clamp(finiteOr(pos, 0), 0, last)
}

// CrossfadeGain returns an equal-power taper that is 0 at both region
// boundaries and 1 farther than Fade frames from either of them.
func (r *LoopRegion) CrossfadeGain(pos float64) float32 {
	if r.Fade <= 0 {
		return 1
	}
	lo, hi := r.bounds()
	d := math.Min(pos-lo, hi-pos)
	if d <= 0 {
		return 0
	}
	if d >= r.Fade {
		return 1
	}
	return float32(math.Sin(0.5 * math.Pi * d / r.Fade))
}
