package softcut

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	minCutoffHz      = 10.0
	maxCutoffRatio   = 0.49
	minRQ            = 0.01
	maxRQ            = 20.0
	defaultCutoffHz  = 12000.0
	defaultRQ        = 2.0
	defaultFcSlewSec = 0.01
	minModRatio      = 1.0 / 1024.0
)

// SVF is a topology-preserving-transform state-variable filter whose output
// is an independent weighted sum of its lowpass, highpass, bandpass and
// bandreject responses plus the dry input. Weights need not sum to one.
type SVF struct {
	sampleRate float64
	fc         Smoother
	rq         float64
	fcMod      float64

	lp  float32
	hp  float32
	bp  float32
	br  float32
	dry float32

	// coefficients for curFc/rq
	curFc float64
	dirty bool
	k     float64
	a1    float64
	a2    float64
	a3    float64

	ic1 float64
	ic2 float64

	faults int
}

// NewSVF creates a transparent filter (dry = 1, all modes 0).
func NewSVF(sampleRate float64) *SVF {
	f := &SVF{}
	f.init(sampleRate)
	return f
}

func (f *SVF) init(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	f.sampleRate = sampleRate
	f.fc.init(sampleRate, defaultFcSlewSec)
	f.fc.Reset(defaultCutoffHz)
	f.rq = defaultRQ
	f.fcMod = 0
	f.lp, f.hp, f.bp, f.br, f.dry = 0, 0, 0, 0, 1
	f.dirty = true
	f.Reset()
}

// SetSampleRate changes the rate used by the coefficient mapping.
func (f *SVF) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || sampleRate == f.sampleRate {
		return
	}
	f.sampleRate = sampleRate
	f.fc.SetSampleRate(sampleRate)
	f.dirty = true
}

// SetCutoff sets the target cutoff in Hz. The cutoff is slewed and clamped to
// [10 Hz, 0.49*sampleRate] when applied.
func (f *SVF) SetCutoff(hz float64) {
	if !isFinite(hz) {
		return
	}
	f.fc.SetTarget(clamp(hz, minCutoffHz, maxCutoffRatio*f.sampleRate))
}

// Cutoff returns the target cutoff in Hz.
func (f *SVF) Cutoff() float64 {
	return f.fc.Target()
}

// SetCutoffSlew sets the cutoff smoothing time in seconds.
func (f *SVF) SetCutoffSlew(seconds float64) {
	f.fc.SetTime(seconds)
}

// SetRQ sets the reciprocal of Q (bandwidth); lower is more resonant.
func (f *SVF) SetRQ(rq float64) {
	if !isFinite(rq) {
		return
	}
	rq = clamp(rq, minRQ, maxRQ)
	if rq != f.rq {
		f.rq = rq
		f.dirty = true
	}
}

// RQ returns the reciprocal Q in use.
func (f *SVF) RQ() float64 {
	return f.rq
}

// SetCutoffMod sets how far the modulation signal passed to
// ProcessModulated pulls the cutoff down, in [0, 1].
func (f *SVF) SetCutoffMod(depth float64) {
	if !isFinite(depth) {
		return
	}
	f.fcMod = clamp(depth, 0, 1)
}

func (f *SVF) SetLP(w float32)  { f.lp = finiteWeight(w, f.lp) }
func (f *SVF) SetHP(w float32)  { f.hp = finiteWeight(w, f.hp) }
func (f *SVF) SetBP(w float32)  { f.bp = finiteWeight(w, f.bp) }
func (f *SVF) SetBR(w float32)  { f.br = finiteWeight(w, f.br) }
func (f *SVF) SetDry(w float32) { f.dry = finiteWeight(w, f.dry) }

func finiteWeight(w, prev float32) float32 {
	if !isFinite(float64(w)) {
		return prev
	}
	return w
}

// Reset clears the integrator state. Parameters are kept.
func (f *SVF) Reset() {
	f.ic1 = 0
	f.ic2 = 0
}

// Process runs one sample at the smoothed cutoff.
func (f *SVF) Process(x float32) float32 {
	return f.tick(x, f.fc.Next())
}

// ProcessModulated runs one sample with the cutoff scaled by mod^depth,
// where mod in (0, 1] is the modulation signal (1 leaves the cutoff alone).
func (f *SVF) ProcessModulated(x float32, mod float64) float32 {
	fc := f.fc.Next()
	if f.fcMod > 0 && mod < 1 {
		m := clamp(mod, minModRatio, 1)
		fc *= float64(pow2Approx(float32(f.fcMod * math.Log2(m))))
	}
	return f.tick(x, fc)
}

func (f *SVF) tick(x float32, fc float64) float32 {
	fc = clamp(fc, minCutoffHz, maxCutoffRatio*f.sampleRate)
	if f.dirty || fc != f.curFc {
		f.updateCoefficients(fc)
	}

	in := float64(x)
	v3 := in - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3
	f.ic1 = dspcore.FlushDenormals(2*v1 - f.ic1)
	f.ic2 = dspcore.FlushDenormals(2*v2 - f.ic2)

	lp := v2
	bp := v1
	hp := in - f.k*v1 - v2
	br := lp + hp

	y := float64(f.lp)*lp + float64(f.hp)*hp + float64(f.bp)*bp + float64(f.br)*br + float64(f.dry)*in
	if !isFinite(y) || !isFinite(f.ic1) || !isFinite(f.ic2) {
		f.Reset()
		f.faults++
		return 0
	}
	return float32(y)
}

func (f *SVF) updateCoefficients(fc float64) {
	g := math.Tan(math.Pi * fc / f.sampleRate)
	f.k = f.rq
	f.a1 = 1.0 / (1.0 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
	f.curFc = fc
	f.dirty = false
}

// takeFaults returns and clears the count of non-finite recoveries.
func (f *SVF) takeFaults() int {
	n := f.faults
	f.faults = 0
	return n
}
