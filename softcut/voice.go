package softcut

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-softcut/dsp"
)

// State is a voice's transport state as derived from its flags.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateRecording
	StateRecordingOnce
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateRecording:
		return "recording"
	case StateRecordingOnce:
		return "recording-once"
	default:
		return "unknown"
	}
}

type bufferView struct {
	samples []float32
}

// Voice is one read/write head over a borrowed sample buffer. Control
// methods may be called from any goroutine; processing happens through the
// owning Engine on the audio goroutine.
type Voice struct {
	index      int
	engineRate *atomicFloat
	ctl        controls
	buf        atomic.Pointer[bufferView]

	// published by the audio thread
	savedPos      atomicFloat
	quantPhase    atomicFloat
	phaseChanged  atomic.Bool
	recOnceActive atomic.Bool
	warnings      atomic.Uint32

	// audio thread only
	sampleRate  float64
	samples     []float32
	pos         float64
	rate        Smoother
	recLevel    Smoother
	preLevel    Smoother
	recOffset   Smoother
	pre         SVF
	post        SVF
	region      LoopRegion
	tapLo       int
	tapHi       int
	clock       PhaseClock
	playing     bool
	recording   bool
	recOnce     bool
	recOnceDist float64
	silent      bool
	parked      bool
	cutSeen     uint32
	resetSeen   uint32
	reported    Warning
}

func newVoice(index int, engineRate *atomicFloat) *Voice {
	v := &Voice{
		index:      index,
		engineRate: engineRate,
	}
	v.ctl.reset()
	v.resetAudio()
	return v
}

// Index returns the voice's position in its engine.
func (v *Voice) Index() int {
	return v.index
}

// SetBuffer assigns the borrowed sample memory the voice reads and writes.
// A nil or empty slice detaches the voice, which then outputs silence. The
// engine never resizes or frees buf; other voices may alias it.
func (v *Voice) SetBuffer(buf []float32) {
	if len(buf) == 0 {
		v.buf.Store(nil)
		return
	}
	v.buf.Store(&bufferView{samples: buf})
}

// Buffer returns the currently assigned buffer, or nil.
func (v *Voice) Buffer() []float32 {
	if bv := v.buf.Load(); bv != nil {
		return bv.samples
	}
	return nil
}

// RecFlag reports whether the voice is recording (or armed to record once).
func (v *Voice) RecFlag() bool {
	return v.ctl.rec.Load()
}

// PlayFlag reports whether playback is on.
func (v *Voice) PlayFlag() bool {
	return v.ctl.play.Load()
}

// SavedPosition returns the head position in seconds as of the end of the
// last processed block. Safe from any goroutine.
func (v *Voice) SavedPosition() float64 {
	return v.savedPos.Load()
}

// QuantPhase returns the quantized, offset phase published by the last block.
func (v *Voice) QuantPhase() float64 {
	return v.quantPhase.Load()
}

// PhaseChanged reports whether the quantized phase changed since the
// previous call.
func (v *Voice) PhaseChanged() bool {
	return v.phaseChanged.Swap(false)
}

// State derives the transport state from the flags.
func (v *Voice) State() State {
	switch {
	case v.recOnceActive.Load() || v.ctl.recOnceArm.Load():
		return StateRecordingOnce
	case v.ctl.rec.Load():
		return StateRecording
	case v.ctl.play.Load():
		return StatePlaying
	default:
		return StateIdle
	}
}

// Warnings returns and clears the warnings raised since the previous call.
func (v *Voice) Warnings() Warning {
	return Warning(v.warnings.Swap(0))
}

func (v *Voice) resetAudio() {
	sr := v.engineRate.Load()
	if sr <= 0 {
		sr = defaultSampleRate
	}
	v.sampleRate = sr
	v.pos = 0
	v.rate.init(sr, 0)
	v.rate.Reset(v.ctl.rate.Load())
	v.recLevel.init(sr, defaultRecPreSlewSec)
	v.recLevel.Reset(v.ctl.recLevel.Load())
	v.preLevel.init(sr, defaultRecPreSlewSec)
	v.preLevel.Reset(v.ctl.preLevel.Load())
	v.recOffset.init(sr, 0)
	v.recOffset.Reset(v.ctl.recOffset.Load())
	v.pre.init(sr)
	v.post.init(sr)
	v.region = LoopRegion{}
	v.clock.Reset()
	v.playing = false
	v.recording = false
	v.recOnce = false
	v.recOnceDist = 0
	v.recOnceActive.Store(false)
	v.silent = false
	v.parked = false
	v.reported = 0
	v.savedPos.Store(0)
	v.quantPhase.Store(0)
	v.phaseChanged.Store(false)
}

func (v *Voice) setSampleRate(sr float64) {
	if sr <= 0 || sr == v.sampleRate {
		return
	}
	v.pos *= sr / v.sampleRate
	v.sampleRate = sr
	v.rate.SetSampleRate(sr)
	v.recLevel.SetSampleRate(sr)
	v.preLevel.SetSampleRate(sr)
	v.recOffset.SetSampleRate(sr)
	v.pre.SetSampleRate(sr)
	v.post.SetSampleRate(sr)
}

// beginBlock loads the control block once and prepares per-block state.
func (v *Voice) beginBlock() {
	ctl := &v.ctl
	v.setSampleRate(v.engineRate.Load())
	if seq := ctl.resetSeq.Load(); seq != v.resetSeen {
		v.resetSeen = seq
		v.resetAudio()
	}
	sr := v.sampleRate

	v.samples = v.Buffer()
	v.region = LoopRegion{
		Start:     ctl.loopStart.Load() * sr,
		End:       ctl.loopEnd.Load() * sr,
		Fade:      ctl.fadeTime.Load() * sr,
		Loop:      ctl.loopFlag.Load(),
		BufFrames: len(v.samples),
	}
	v.region.Normalize()
	v.tapLo, v.tapHi = v.region.Taps()

	if seq := ctl.cutSeq.Load(); seq != v.cutSeen {
		v.cutSeen = seq
		v.pos = ctl.cutPos.Load() * sr
		v.parked = false
	}

	rateSlew := ctl.rateSlew.Load()
	v.rate.SetTime(rateSlew)
	v.rate.SetTarget(ctl.rate.Load())
	v.recOffset.SetTime(rateSlew)
	v.recOffset.SetTarget(ctl.recOffset.Load())
	recPreSlew := ctl.recPreSlew.Load()
	v.recLevel.SetTime(recPreSlew)
	v.recLevel.SetTarget(ctl.recLevel.Load())
	v.preLevel.SetTime(recPreSlew)
	v.preLevel.SetTarget(ctl.preLevel.Load())

	ctl.pre.applyTo(&v.pre)
	ctl.post.applyTo(&v.post)

	v.clock.SetQuant(ctl.phaseQuant.Load())
	v.clock.SetOffset(ctl.phaseOffset.Load())

	v.playing = ctl.play.Load()
	if ctl.recOnceArm.Swap(false) {
		v.recOnce = true
		v.recOnceDist = 0
		v.recOnceActive.Store(true)
	}
	v.recording = ctl.rec.Load()
	if !v.recording && v.recOnce {
		v.recOnce = false
		v.recOnceActive.Store(false)
	}

	var w Warning
	switch {
	case len(v.samples) == 0:
		w = WarnNoBuffer
	case v.region.Degenerate():
		w = WarnDegenerateLoop
	}
	v.silent = w != 0
	v.raise(w, WarnNoBuffer|WarnDegenerateLoop)
	if !v.silent {
		v.pos, _ = v.region.Wrap(v.pos)
	}
}

// tick processes one frame: record at the write head, play from the read
// head, then advance. It reports whether the head wrapped around the loop.
func (v *Voice) tick(in float32) (float32, bool) {
	if v.silent {
		return 0, false
	}
	rate := v.rate.Next()
	rec := float32(v.recLevel.Next())
	pre := float32(v.preLevel.Next())
	offset := v.recOffset.Next() * v.sampleRate

	if v.recording && !v.parked {
		x := v.pre.ProcessModulated(in, math.Abs(rate))
		wpos, _ := v.region.Wrap(v.pos + offset)
		dsp.WriteLinearIn(v.samples, wpos, x, rec, pre, v.tapLo, v.tapHi)
	}

	var y float32
	if v.playing && !v.parked {
		y = dsp.ReadCubicIn(v.samples, v.pos, v.tapLo, v.tapHi) * v.region.CrossfadeGain(v.pos)
		y = v.post.Process(y)
	}

	next := v.pos + rate
	wrapped := false
	if v.region.Loop {
		v.pos, wrapped = v.region.Wrap(next)
	} else {
		v.pos = v.region.Clamp(next)
		v.parked = v.pos != next
	}

	if v.recOnce {
		v.recOnceDist += math.Abs(rate)
		if v.recOnceDist >= v.region.Length() {
			v.finishRecOnce()
		}
	}
	return y, wrapped
}

func (v *Voice) finishRecOnce() {
	v.recOnce = false
	v.recording = false
	v.ctl.rec.Store(false)
	v.recOnceActive.Store(false)
}

// syncTo moves the head to offsetSec past the start of its own region,
// wrapped into the region length.
func (v *Voice) syncTo(offsetSec float64) {
	if v.silent || v.region.Degenerate() {
		return
	}
	length := v.region.Length()
	if length <= 0 {
		return
	}
	lo, _ := v.region.bounds()
	m := math.Mod(offsetSec*v.sampleRate, length)
	if m < 0 {
		m += length
	}
	if m >= length {
		m = 0
	}
	v.pos = lo + m
	v.parked = false
}

// endBlock publishes position, phase and warnings for the control thread.
func (v *Voice) endBlock() {
	if v.pre.takeFaults()+v.post.takeFaults() > 0 {
		v.raise(WarnNonFinite, WarnNonFinite)
	} else {
		v.raise(0, WarnNonFinite)
	}
	sec := v.pos / v.sampleRate
	v.savedPos.Store(sec)
	v.quantPhase.Store(v.clock.Update(sec))
	if v.clock.Changed() {
		v.phaseChanged.Store(true)
	}
}

// raise publishes the bits of cur (within mask) that were not already
// reported, and forgets bits of mask that have cleared.
func (v *Voice) raise(cur, mask Warning) {
	cur &= mask
	fresh := cur &^ v.reported
	v.reported = (v.reported &^ mask) | cur
	if fresh != 0 {
		v.warnings.Or(uint32(fresh))
	}
}
