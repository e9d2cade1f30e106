package render

import "github.com/cwbudde/algo-softcut/softcut"

// Renderer drives an engine offline and mixes its voices to stereo.
type Renderer struct {
	Engine *softcut.Engine
	// Input routes a mono source to each voice; nil entries read silence.
	Input [][]float32
	// Left and Right hold per-voice mix gains.
	Left  []float32
	Right []float32
	// BlockSize is the processing block in frames; 0 uses the engine's.
	BlockSize int

	in  [][]float32
	out [][]float32
}

// Render advances the engine by frames and returns the stereo mix.
// Input slices shorter than frames read as silence once exhausted.
func (r *Renderer) Render(frames int) (left, right []float32) {
	e := r.Engine
	n := e.NumVoices()
	block := r.BlockSize
	if block <= 0 {
		block = e.BlockSize()
	}
	r.in = make([][]float32, n)
	r.out = make([][]float32, n)
	for v := range r.out {
		r.out[v] = make([]float32, block)
	}

	left = make([]float32, frames)
	right = make([]float32, frames)
	for start := 0; start < frames; start += block {
		end := min(start+block, frames)
		for v := 0; v < n; v++ {
			r.in[v] = nil
			if v < len(r.Input) && start < len(r.Input[v]) {
				r.in[v] = r.Input[v][start:min(end, len(r.Input[v]))]
			}
			r.out[v] = r.out[v][:end-start]
		}
		e.Process(r.in, r.out)
		Mix(left[start:end], right[start:end], r.out, r.Left, r.Right)
	}
	return left, right
}

// Mix accumulates voices into left/right weighted by per-voice gains.
func Mix(left, right []float32, voices [][]float32, gl, gr []float32) {
	for v, out := range voices {
		var l, r float32
		if v < len(gl) {
			l = gl[v]
		}
		if v < len(gr) {
			r = gr[v]
		}
		if l == 0 && r == 0 {
			continue
		}
		for i := 0; i < len(out) && i < len(left); i++ {
			left[i] += out[i] * l
			right[i] += out[i] * r
		}
	}
}

// Peak returns the largest absolute sample across both channels.
func Peak(left, right []float32) float32 {
	var p float32
	for _, ch := range [][]float32{left, right} {
		for _, s := range ch {
			if s < 0 {
				s = -s
			}
			if s > p {
				p = s
			}
		}
	}
	return p
}

// Normalize scales both channels so the peak equals target, if non-silent.
func Normalize(left, right []float32, target float32) {
	p := Peak(left, right)
	if p == 0 {
		return
	}
	g := target / p
	for i := range left {
		left[i] *= g
	}
	for i := range right {
		right[i] *= g
	}
}
