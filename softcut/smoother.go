package softcut

import "math"

// settleLog is ln(1000): a smoother reaches -60 dB of the remaining distance
// after its configured time.
const settleLog = 6.907755278982137

// Smoother slews a scalar toward a target with a one-pole exponential
// approach. It is not safe for concurrent use; the audio thread owns it and
// feeds it targets published through the voice control block.
type Smoother struct {
	sampleRate float64
	time       float64
	coef       float64
	value      float64
	target     float64
}

// NewSmoother creates a smoother at rest on 0 with the given settling time in
// seconds.
func NewSmoother(sampleRate float64, seconds float64) *Smoother {
	s := &Smoother{}
	s.init(sampleRate, seconds)
	return s
}

func (s *Smoother) init(sampleRate float64, seconds float64) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s.sampleRate = sampleRate
	s.time = seconds
	s.updateCoef()
}

// SetSampleRate updates the rate used to convert the settling time.
func (s *Smoother) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || sampleRate == s.sampleRate {
		return
	}
	s.sampleRate = sampleRate
	s.updateCoef()
}

// SetTime sets the settling time in seconds. Zero applies targets immediately.
func (s *Smoother) SetTime(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if seconds == s.time {
		return
	}
	s.time = seconds
	s.updateCoef()
}

func (s *Smoother) updateCoef() {
	if s.time <= 0 {
		s.coef = 0
		return
	}
	s.coef = math.Exp(-settleLog / (s.time * s.sampleRate))
}

// Time returns the settling time in seconds.
func (s *Smoother) Time() float64 {
	return s.time
}

// SetTarget stores a new target; the value moves toward it on Next.
func (s *Smoother) SetTarget(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.target = v
}

// Target returns the current target.
func (s *Smoother) Target() float64 {
	return s.target
}

// Value returns the last smoothed value without advancing.
func (s *Smoother) Value() float64 {
	return s.value
}

// Reset jumps value and target to v.
func (s *Smoother) Reset(v float64) {
	s.value = v
	s.target = v
}

// Next advances one sample and returns the smoothed value. The approach is
// monotonic and never crosses the target.
func (s *Smoother) Next() float64 {
	if s.value == s.target {
		return s.value
	}
	if s.coef == 0 {
		s.value = s.target
		return s.value
	}
	s.value = s.target + s.coef*(s.value-s.target)
	if math.Abs(s.value-s.target) <= 1e-9*(1+math.Abs(s.target)) {
		s.value = s.target
	}
	return s.value
}
