package softcut

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// DefaultVoices is the voice count used when New is given a non-positive count.
const DefaultVoices = 6

// Engine owns a fixed array of voices and drives them block by block.
//
// Processing (ProcessBlock, Process) must run on a single audio goroutine.
// Every other method may be called concurrently from control goroutines and
// never blocks the audio goroutine. SetVoiceBuffer and SetSampleRate are
// structural: callers should not change them while the affected voice is
// being processed.
type Engine struct {
	cfg        dspcore.ProcessorConfig
	sampleRate atomicFloat
	voices     []*Voice
	sync       atomic.Pointer[syncGraph]
	syncMu     sync.Mutex // serializes graph writers; never taken by the audio path
	logger     *slog.Logger
	closed     atomic.Bool
	wrapped    []bool // audio thread only
}

type engineConfig struct {
	proc   []dspcore.ProcessorOption
	logger *slog.Logger
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

// WithSampleRate sets the initial sample rate in Hz.
func WithSampleRate(hz float64) Option {
	return func(c *engineConfig) {
		c.proc = append(c.proc, dspcore.WithSampleRate(hz))
	}
}

// WithBlockSize sets the preferred block size reported by BlockSize.
func WithBlockSize(frames int) Option {
	return func(c *engineConfig) {
		c.proc = append(c.proc, dspcore.WithBlockSize(frames))
	}
}

// WithProcessorOptions applies shared algo-dsp processor options.
func WithProcessorOptions(opts ...dspcore.ProcessorOption) Option {
	return func(c *engineConfig) {
		c.proc = append(c.proc, opts...)
	}
}

// WithLogger sets the logger used by control-thread operations. The audio
// path never logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = l
	}
}

// New creates an engine with numVoices voices in their default, idle state.
func New(numVoices int, opts ...Option) *Engine {
	if numVoices <= 0 {
		numVoices = DefaultVoices
	}
	var c engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		cfg:     dspcore.ApplyProcessorOptions(c.proc...),
		voices:  make([]*Voice, numVoices),
		logger:  c.logger,
		wrapped: make([]bool, numVoices),
	}
	e.sampleRate.Store(e.cfg.SampleRate)
	for i := range e.voices {
		e.voices[i] = newVoice(i, &e.sampleRate)
	}
	e.sync.Store(newSyncGraph(numVoices))
	return e
}

// NumVoices returns the fixed voice count.
func (e *Engine) NumVoices() int {
	return len(e.voices)
}

// SampleRate returns the current sample rate in Hz.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate.Load()
}

// BlockSize returns the preferred processing block size in frames.
func (e *Engine) BlockSize() int {
	return e.cfg.BlockSize
}

// Voice returns voice i, or nil when i is out of range.
func (e *Engine) Voice(i int) *Voice {
	if i < 0 || i >= len(e.voices) {
		return nil
	}
	return e.voices[i]
}

func (e *Engine) voice(i int) (*Voice, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if i < 0 || i >= len(e.voices) {
		return nil, ErrInvalidVoice
	}
	return e.voices[i], nil
}

func (e *Engine) apply(i int, fn func(*Voice)) error {
	v, err := e.voice(i)
	if err != nil {
		return err
	}
	fn(v)
	return nil
}

// SetSampleRate changes the sample rate for all voices. Second-valued
// parameters keep their meaning; voices pick the new rate up on their next
// block.
func (e *Engine) SetSampleRate(hz float64) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if !(hz > 0) || !isFinite(hz) {
		return ErrInvalidSampleRate
	}
	e.sampleRate.Store(hz)
	return nil
}

// Reset returns every voice to its defaults and removes all sync relations.
func (e *Engine) Reset() {
	if e.closed.Load() {
		return
	}
	for _, v := range e.voices {
		v.Reset()
	}
	e.syncMu.Lock()
	e.sync.Store(newSyncGraph(len(e.voices)))
	e.syncMu.Unlock()
}

// Close detaches every buffer. Afterwards processing outputs silence and
// control calls return ErrClosed.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	for _, v := range e.voices {
		v.SetBuffer(nil)
	}
}

// ProcessBlock advances voice v by len(out) frames. Missing input frames
// read as silence. An invalid index or closed engine yields silence.
func (e *Engine) ProcessBlock(v int, in, out []float32) {
	if v < 0 || v >= len(e.voices) || e.closed.Load() {
		clear(out)
		return
	}
	vc := e.voices[v]
	vc.beginBlock()
	g := e.sync.Load()
	follow := g.hasFollowers(v)
	for i := range out {
		var x float32
		if i < len(in) {
			x = in[i]
		}
		y, wrapped := vc.tick(x)
		out[i] = y
		if wrapped && follow {
			e.syncFollowers(g, v)
		}
	}
	vc.endBlock()
}

// Process advances all voices frame by frame for the length of the longest
// output slice. Leader wraps are applied to followers once every voice has
// ticked the frame, so the result does not depend on voice order. in[v] and
// out[v] belong to voice v; short or missing slices read as silence and drop
// output respectively.
func (e *Engine) Process(in, out [][]float32) {
	if e.closed.Load() {
		for _, o := range out {
			clear(o)
		}
		return
	}
	n := 0
	for _, o := range out {
		n = max(n, len(o))
	}
	for _, v := range e.voices {
		v.beginBlock()
	}
	g := e.sync.Load()
	for i := 0; i < n; i++ {
		syncNeeded := false
		for vi, v := range e.voices {
			var x float32
			if vi < len(in) && i < len(in[vi]) {
				x = in[vi][i]
			}
			y, wrapped := v.tick(x)
			if vi < len(out) && i < len(out[vi]) {
				out[vi][i] = y
			}
			e.wrapped[vi] = wrapped
			syncNeeded = syncNeeded || wrapped
		}
		if !syncNeeded {
			continue
		}
		for vi, w := range e.wrapped {
			if w {
				e.syncFollowers(g, vi)
			}
		}
	}
	for _, v := range e.voices {
		v.endBlock()
	}
}

func (e *Engine) syncFollowers(g *syncGraph, leader int) {
	for f, l := range g.leader {
		if l == leader {
			e.voices[f].syncTo(g.offset[f])
		}
	}
}

// SyncVoice makes follower jump to offset seconds into its own loop every
// time leader wraps. It replaces any previous leader of follower.
func (e *Engine) SyncVoice(follower, leader int, offset float64) error {
	if _, err := e.voice(follower); err != nil {
		return err
	}
	if _, err := e.voice(leader); err != nil {
		return err
	}
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	g := e.sync.Load()
	if follower == leader || g.reaches(leader, follower) {
		return ErrSyncCycle
	}
	next := g.clone()
	next.leader[follower] = leader
	next.offset[follower] = finiteOr(offset, 0)
	e.sync.Store(next)
	return nil
}

// Unsync removes follower's leader, if any.
func (e *Engine) Unsync(follower int) error {
	if _, err := e.voice(follower); err != nil {
		return err
	}
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	g := e.sync.Load()
	if g.leader[follower] < 0 {
		return nil
	}
	next := g.clone()
	next.leader[follower] = -1
	next.offset[follower] = 0
	e.sync.Store(next)
	return nil
}

// Leader returns follower's leader and offset; ok is false when it has none.
func (e *Engine) Leader(follower int) (leader int, offset float64, ok bool) {
	if follower < 0 || follower >= len(e.voices) {
		return -1, 0, false
	}
	g := e.sync.Load()
	if g.leader[follower] < 0 {
		return -1, 0, false
	}
	return g.leader[follower], g.offset[follower], true
}

// SetVoiceBuffer lends buf to voice v. An empty buffer detaches the voice
// and returns ErrNoBuffer; the voice then outputs silence.
func (e *Engine) SetVoiceBuffer(v int, buf []float32) error {
	vc, err := e.voice(v)
	if err != nil {
		return err
	}
	vc.SetBuffer(buf)
	if len(buf) == 0 {
		e.logger.Warn("voice buffer detached", "voice", v)
		return ErrNoBuffer
	}
	e.logger.Debug("voice buffer assigned", "voice", v, "frames", len(buf))
	return nil
}

// VoiceWarning pairs a voice index with the warnings it raised.
type VoiceWarning struct {
	Voice   int
	Warning Warning
}

// DrainWarnings collects and clears the warnings of every voice.
func (e *Engine) DrainWarnings() []VoiceWarning {
	var out []VoiceWarning
	for i, v := range e.voices {
		if w := v.Warnings(); w != 0 {
			out = append(out, VoiceWarning{Voice: i, Warning: w})
		}
	}
	return out
}

// LogWarnings drains all voice warnings to the engine logger and returns
// how many voices reported any.
func (e *Engine) LogWarnings() int {
	ws := e.DrainWarnings()
	for _, w := range ws {
		e.logger.Warn("voice configuration warning", "voice", w.Voice, "warning", w.Warning.String())
	}
	return len(ws)
}
