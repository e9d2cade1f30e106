package render

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-softcut/softcut"
)

// Stream adapts an engine to a pull-based audio device: Read renders
// interleaved stereo float32 little-endian frames on the device goroutine.
type Stream struct {
	engine atomic.Pointer[softcut.Engine]
	left   []float32
	right  []float32
	source []float32
	srcPos int
	block  int

	in   [][]float32
	out  [][]float32
	mixL []float32
	mixR []float32
}

// NewStream prepares scratch buffers for e. source, if non-empty, is looped
// into every voice input.
func NewStream(e *softcut.Engine, left, right []float32, source []float32) *Stream {
	block := e.BlockSize()
	if block <= 0 {
		block = 256
	}
	n := e.NumVoices()
	s := &Stream{
		left:   left,
		right:  right,
		source: source,
		block:  block,
		in:     make([][]float32, n),
		out:    make([][]float32, n),
		mixL:   make([]float32, block),
		mixR:   make([]float32, block),
	}
	shared := make([]float32, block)
	for v := 0; v < n; v++ {
		s.in[v] = shared
		s.out[v] = make([]float32, block)
	}
	s.engine.Store(e)
	return s
}

// Detach stops rendering; Read then returns silence.
func (s *Stream) Detach() {
	s.engine.Store(nil)
}

// Read fills p with whole stereo frames. It never blocks.
func (s *Stream) Read(p []byte) (int, error) {
	const frameBytes = 8
	e := s.engine.Load()
	frames := len(p) / frameBytes
	if e == nil {
		clear(p[:frames*frameBytes])
		return frames * frameBytes, nil
	}
	for done := 0; done < frames; {
		n := min(s.block, frames-done)
		s.fillInput(n)
		for v := range s.out {
			s.out[v] = s.out[v][:n]
		}
		e.Process(s.in, s.out)
		clear(s.mixL[:n])
		clear(s.mixR[:n])
		Mix(s.mixL[:n], s.mixR[:n], s.out, s.left, s.right)
		for i := 0; i < n; i++ {
			off := (done + i) * frameBytes
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s.mixL[i]))
			binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(s.mixR[i]))
		}
		done += n
	}
	return frames * frameBytes, nil
}

func (s *Stream) fillInput(n int) {
	shared := s.in[0][:cap(s.in[0])][:n]
	if len(s.source) == 0 {
		clear(shared)
	} else {
		for i := range shared {
			shared[i] = s.source[s.srcPos]
			s.srcPos++
			if s.srcPos == len(s.source) {
				s.srcPos = 0
			}
		}
	}
	for v := range s.in {
		s.in[v] = shared
	}
}
