package render

import (
	"fmt"
	"math"
	"math/rand"
)

// Room describes a synthetic stereo room response used when no IR file is
// supplied to the mix convolver.
type Room struct {
	SampleRate int
	Length     float64 // seconds
	Seed       int64
	Reflect    int     // early reflections in the first 50 ms
	Tail       float64 // diffuse tail level
	Width      float64
	Decay      float64 // low band decay, seconds
	AirDecay   float64 // high band decay, seconds
	Wet        float64 // IR peak after normalization
}

// DefaultRoom returns a small room at sampleRate with the given decay.
func DefaultRoom(sampleRate int, decay float64) Room {
	return Room{
		SampleRate: sampleRate,
		Length:     math.Max(0.3, 1.5*decay),
		Seed:       1,
		Reflect:    24,
		Tail:       0.06,
		Width:      0.6,
		Decay:      decay,
		AirDecay:   decay / 6,
		Wet:        0.9,
	}
}

func (r Room) validate() error {
	switch {
	case r.SampleRate < 8000:
		return fmt.Errorf("room: sample rate too low: %d", r.SampleRate)
	case !(r.Length > 0):
		return fmt.Errorf("room: length must be > 0")
	case r.Reflect < 0, r.Tail < 0, r.Width < 0:
		return fmt.Errorf("room: reflections, tail and width must be >= 0")
	case !(r.Decay > 0) || !(r.AirDecay > 0):
		return fmt.Errorf("room: decay must be > 0")
	case !(r.Wet > 0):
		return fmt.Errorf("room: wet level must be > 0")
	}
	return nil
}

// Generate builds the left and right impulse responses. The same seed
// always yields the same response.
func (r Room) Generate() (left, right []float32, err error) {
	if err := r.validate(); err != nil {
		return nil, nil, err
	}
	sr := float64(r.SampleRate)
	n := max(1, int(math.Round(r.Length*sr)))
	l := make([]float64, n)
	rt := make([]float64, n)
	rng := rand.New(rand.NewSource(r.Seed))

	for i := 0; i < r.Reflect; i++ {
		t := 0.001 + 0.049*rng.Float64()
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.1 + 0.35*rng.Float64()) * math.Exp(-20*t)
		pan := (2*rng.Float64() - 1) * r.Width
		l[idx] += amp * (1 - 0.5*pan)
		rt[idx] += amp * (1 + 0.5*pan)
	}

	if r.Tail > 0 {
		var lowL, lowR, airL, airR float64
		lowK := math.Exp(-1 / (0.75 * r.Decay * sr))
		airK := math.Exp(-1 / (0.75 * r.AirDecay * sr))
		lowEnv, airEnv := 1.0, 1.0
		for i := range n {
			nl, nr := rng.NormFloat64(), rng.NormFloat64()
			lowL += 0.015 * (nl - lowL)
			lowR += 0.015 * (nr - lowR)
			airL = 0.15*nl - 0.15*airL
			airR = 0.15*nr - 0.15*airR
			l[i] += r.Tail * (lowEnv*lowL + 0.15*airEnv*airL)
			rt[i] += r.Tail * (lowEnv*lowR + 0.15*airEnv*airR)
			lowEnv *= lowK
			airEnv *= airK
		}
	}

	blockDC(l)
	blockDC(rt)
	fade := min(n, int(0.01*sr))
	for i := range fade {
		g := 0.5 * (1 + math.Cos(math.Pi*float64(i)/float64(fade)))
		l[n-fade+i] *= g
		rt[n-fade+i] *= g
	}

	peak := 1e-12
	for i := range n {
		peak = math.Max(peak, math.Max(math.Abs(l[i]), math.Abs(rt[i])))
	}
	s := r.Wet / peak
	left = make([]float32, n)
	right = make([]float32, n)
	for i := range n {
		left[i] = float32(l[i] * s)
		right[i] = float32(rt[i] * s)
	}
	return left, right, nil
}

func blockDC(x []float64) {
	var prevIn, prevOut float64
	for i, v := range x {
		y := v - prevIn + 0.995*prevOut
		prevIn, prevOut = v, y
		x[i] = y
	}
}
