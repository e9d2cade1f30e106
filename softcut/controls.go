package softcut

import "sync/atomic"

const (
	maxRate              = 64.0
	defaultLoopEndSec    = 1.0
	defaultFadeSec       = 0.001
	defaultRecPreSlewSec = 0.001
)

// FilterParam selects one control of a voice's pre- or post-filter.
type FilterParam int

const (
	FilterFc FilterParam = iota
	FilterRQ
	FilterLP
	FilterHP
	FilterBP
	FilterBR
	FilterDry
	// FilterFcMod is honoured by the pre-filter only.
	FilterFcMod
)

func (p FilterParam) String() string {
	switch p {
	case FilterFc:
		return "fc"
	case FilterRQ:
		return "rq"
	case FilterLP:
		return "lp"
	case FilterHP:
		return "hp"
	case FilterBP:
		return "bp"
	case FilterBR:
		return "br"
	case FilterDry:
		return "dry"
	case FilterFcMod:
		return "fc_mod"
	default:
		return "unknown"
	}
}

type filterControls struct {
	fc    atomicFloat
	rq    atomicFloat
	lp    atomicFloat
	hp    atomicFloat
	bp    atomicFloat
	br    atomicFloat
	dry   atomicFloat
	fcMod atomicFloat
}

func (c *filterControls) reset() {
	c.fc.Store(defaultCutoffHz)
	c.rq.Store(defaultRQ)
	c.lp.Store(0)
	c.hp.Store(0)
	c.bp.Store(0)
	c.br.Store(0)
	c.dry.Store(1)
	c.fcMod.Store(0)
}

func (c *filterControls) slot(p FilterParam) *atomicFloat {
	switch p {
	case FilterFc:
		return &c.fc
	case FilterRQ:
		return &c.rq
	case FilterLP:
		return &c.lp
	case FilterHP:
		return &c.hp
	case FilterBP:
		return &c.bp
	case FilterBR:
		return &c.br
	case FilterDry:
		return &c.dry
	case FilterFcMod:
		return &c.fcMod
	}
	return nil
}

func (c *filterControls) applyTo(f *SVF) {
	f.SetCutoff(c.fc.Load())
	f.SetRQ(c.rq.Load())
	f.SetLP(float32(c.lp.Load()))
	f.SetHP(float32(c.hp.Load()))
	f.SetBP(float32(c.bp.Load()))
	f.SetBR(float32(c.br.Load()))
	f.SetDry(float32(c.dry.Load()))
	f.SetCutoffMod(c.fcMod.Load())
}

// controls is the per-voice parameter block. The control thread is the only
// writer of every slot except rec, which the audio thread clears when a
// record-once pass completes. The audio thread loads the block once per
// processed block.
type controls struct {
	rate        atomicFloat
	loopStart   atomicFloat
	loopEnd     atomicFloat
	fadeTime    atomicFloat
	recLevel    atomicFloat
	preLevel    atomicFloat
	recOffset   atomicFloat
	rateSlew    atomicFloat
	recPreSlew  atomicFloat
	phaseQuant  atomicFloat
	phaseOffset atomicFloat

	loopFlag   atomic.Bool
	play       atomic.Bool
	rec        atomic.Bool
	recOnceArm atomic.Bool

	pre  filterControls
	post filterControls

	cutPos   atomicFloat
	cutSeq   atomic.Uint32
	resetSeq atomic.Uint32
}

func (c *controls) reset() {
	c.rate.Store(1)
	c.loopStart.Store(0)
	c.loopEnd.Store(defaultLoopEndSec)
	c.fadeTime.Store(defaultFadeSec)
	c.recLevel.Store(0)
	c.preLevel.Store(0)
	c.recOffset.Store(0)
	c.rateSlew.Store(0)
	c.recPreSlew.Store(defaultRecPreSlewSec)
	c.phaseQuant.Store(0)
	c.phaseOffset.Store(0)
	c.loopFlag.Store(true)
	c.play.Store(false)
	c.rec.Store(false)
	c.recOnceArm.Store(false)
	c.pre.reset()
	c.post.reset()
	c.cutPos.Store(0)
}

// Control-thread API. None of these block; values are clamped rather than
// rejected.

// SetRate sets the signed playback/record rate (1 = normal speed).
func (v *Voice) SetRate(rate float64) {
	v.ctl.rate.Store(clamp(finiteOr(rate, 1), -maxRate, maxRate))
}

// SetLoopStart sets the loop start in seconds. It returns ErrDegenerateLoop
// when looping is on and the region is now shorter than one frame; the value
// is kept either way.
func (v *Voice) SetLoopStart(seconds float64) error {
	v.ctl.loopStart.Store(nonNegative(seconds))
	return v.checkLoop()
}

// SetLoopEnd sets the loop end in seconds. See SetLoopStart for the error.
func (v *Voice) SetLoopEnd(seconds float64) error {
	v.ctl.loopEnd.Store(nonNegative(seconds))
	return v.checkLoop()
}

// SetLoopFlag turns looping on or off. See SetLoopStart for the error.
func (v *Voice) SetLoopFlag(on bool) error {
	v.ctl.loopFlag.Store(on)
	return v.checkLoop()
}

func (v *Voice) checkLoop() error {
	if !v.ctl.loopFlag.Load() {
		return nil
	}
	sr := v.engineRate.Load()
	start := v.ctl.loopStart.Load() * sr
	end := v.ctl.loopEnd.Load() * sr
	if buf := v.Buffer(); len(buf) > 0 {
		n := float64(len(buf))
		start = clamp(start, 0, n)
		end = clamp(end, 0, n)
	}
	if end-start < 1 {
		return ErrDegenerateLoop
	}
	return nil
}

// SetFadeTime sets the crossfade window at each loop boundary, in seconds.
func (v *Voice) SetFadeTime(seconds float64) {
	v.ctl.fadeTime.Store(nonNegative(seconds))
}

// SetRecLevel sets the weight of the incoming signal when recording.
func (v *Voice) SetRecLevel(amp float64) {
	v.ctl.recLevel.Store(clamp(finiteOr(amp, 0), 0, 1))
}

// SetPreLevel sets how much existing buffer content survives a write.
func (v *Voice) SetPreLevel(amp float64) {
	v.ctl.preLevel.Store(clamp(finiteOr(amp, 0), 0, 1))
}

// SetRecFlag starts or stops recording. Clearing it also ends a pending
// record-once pass.
func (v *Voice) SetRecFlag(on bool) {
	v.ctl.rec.Store(on)
	if !on {
		v.ctl.recOnceArm.Store(false)
	}
}

// SetRecOnceFlag arms a single recording pass over the loop. The rec flag is
// cleared by the audio thread after one full traversal.
func (v *Voice) SetRecOnceFlag(on bool) {
	if on {
		v.ctl.rec.Store(true)
		v.ctl.recOnceArm.Store(true)
		return
	}
	v.ctl.recOnceArm.Store(false)
	if v.recOnceActive.Load() {
		v.ctl.rec.Store(false)
	}
}

// SetPlayFlag starts or stops playback.
func (v *Voice) SetPlayFlag(on bool) {
	v.ctl.play.Store(on)
}

// CutToPos moves the head to seconds at the start of the next block without
// touching the play or record flags.
func (v *Voice) CutToPos(seconds float64) {
	v.ctl.cutPos.Store(finiteOr(seconds, 0))
	v.ctl.cutSeq.Add(1)
}

// Stop clears play, record and any armed record-once pass.
func (v *Voice) Stop() {
	v.ctl.play.Store(false)
	v.ctl.rec.Store(false)
	v.ctl.recOnceArm.Store(false)
}

// SetPreFilter sets one control of the input filter.
func (v *Voice) SetPreFilter(p FilterParam, x float64) {
	if s := v.ctl.pre.slot(p); s != nil && isFinite(x) {
		s.Store(x)
	}
}

// SetPostFilter sets one control of the output filter. FilterFcMod is
// ignored.
func (v *Voice) SetPostFilter(p FilterParam, x float64) {
	if p == FilterFcMod {
		return
	}
	if s := v.ctl.post.slot(p); s != nil && isFinite(x) {
		s.Store(x)
	}
}

// SetRecOffset displaces the write head from the read head, in seconds.
func (v *Voice) SetRecOffset(seconds float64) {
	v.ctl.recOffset.Store(finiteOr(seconds, 0))
}

// SetRecPreSlewTime sets the smoothing time of rec and pre levels.
func (v *Voice) SetRecPreSlewTime(seconds float64) {
	v.ctl.recPreSlew.Store(nonNegative(seconds))
}

// SetRateSlewTime sets the smoothing time of rate and record offset.
func (v *Voice) SetRateSlewTime(seconds float64) {
	v.ctl.rateSlew.Store(nonNegative(seconds))
}

// SetPhaseQuant sets the reported phase quantum in seconds (0 = raw).
func (v *Voice) SetPhaseQuant(q float64) {
	v.ctl.phaseQuant.Store(nonNegative(q))
}

// SetPhaseOffset shifts the reported phase in seconds.
func (v *Voice) SetPhaseOffset(seconds float64) {
	v.ctl.phaseOffset.Store(finiteOr(seconds, 0))
}

// Reset restores default parameters and asks the audio thread to clear the
// head position and filter state on its next block.
func (v *Voice) Reset() {
	v.ctl.reset()
	v.ctl.resetSeq.Add(1)
}

func nonNegative(x float64) float64 {
	x = finiteOr(x, 0)
	if x < 0 {
		return 0
	}
	return x
}
