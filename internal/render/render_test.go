package render

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-softcut/softcut"
)

func directConvolve(a, b []float32) []float32 {
	out := make([]float32, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

func maxAbsDiff(a, b []float32) float64 {
	var m float64
	for i := 0; i < len(a) && i < len(b); i++ {
		if d := math.Abs(float64(a[i] - b[i])); d > m {
			m = d
		}
	}
	return m
}

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	c := NewConvolver(48000)
	leftIR := []float32{1.0, 0.3, -0.2, 0.1, 0.05}
	rightIR := []float32{0.8, -0.1, 0.05}
	if err := c.SetIR(leftIR, rightIR); err != nil {
		t.Fatalf("SetIR: %v", err)
	}

	input := make([]float32, 1000)
	for i := range input {
		input[i] = float32(math.Sin(float64(i)*0.07)) * 0.8
	}
	left := append([]float32(nil), input...)
	right := append([]float32(nil), input...)
	if err := c.Process(left, right); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if d := maxAbsDiff(left, directConvolve(input, leftIR)); d > 1e-4 {
		t.Fatalf("left channel mismatch too high: max diff=%g", d)
	}
	if d := maxAbsDiff(right, directConvolve(input, rightIR)); d > 1e-4 {
		t.Fatalf("right channel mismatch too high: max diff=%g", d)
	}
}

func TestConvolverDefaultIsIdentity(t *testing.T) {
	c := NewConvolver(48000)
	left := []float32{1, -0.5, 0.25, 0}
	right := []float32{0, 0.5, 0, -1}
	wantL := append([]float32(nil), left...)
	wantR := append([]float32(nil), right...)
	if err := c.Process(left, right); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if maxAbsDiff(left, wantL) > 1e-6 || maxAbsDiff(right, wantR) > 1e-6 {
		t.Fatalf("identity IR changed the signal: %v %v", left, right)
	}
}

func TestWAVRoundTripAndResample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	const sr = 24000
	tone := make([]float32, sr/10)
	for i := range tone {
		tone[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/sr))
	}
	if err := WriteMonoWAV(path, tone, sr); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}

	got, gotRate, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if gotRate != sr || len(got) != len(tone) {
		t.Fatalf("unexpected decode: rate=%d frames=%d", gotRate, len(got))
	}
	if d := maxAbsDiff(got, tone); d > 1e-3 {
		t.Fatalf("16-bit round trip error too high: %g", d)
	}

	up, err := LoadMono(path, 2*sr)
	if err != nil {
		t.Fatalf("LoadMono: %v", err)
	}
	if ratio := float64(len(up)) / float64(len(tone)); math.Abs(ratio-2) > 0.05 {
		t.Fatalf("expected doubled length, got ratio %f", ratio)
	}
}

func TestStereoWAVKeepsChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mix.wav")
	left := []float32{0.5, 0.25, 0, -0.25}
	right := []float32{-0.5, 0, 0.5, 0.75}
	if err := WriteStereoWAV(path, left, right, 48000); err != nil {
		t.Fatalf("WriteStereoWAV: %v", err)
	}
	chans, sr, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if sr != 48000 || len(chans) != 2 {
		t.Fatalf("unexpected format: sr=%d ch=%d", sr, len(chans))
	}
	if maxAbsDiff(chans[0], left) > 1e-3 || maxAbsDiff(chans[1], right) > 1e-3 {
		t.Fatalf("channels swapped or corrupted: %v %v", chans[0], chans[1])
	}
}

func TestRendererMixesVoices(t *testing.T) {
	e := softcut.New(2, softcut.WithSampleRate(48000), softcut.WithBlockSize(64))
	defer e.Close()
	bufA := make([]float32, 4800)
	bufB := make([]float32, 4800)
	for i := range bufA {
		bufA[i] = 0.5
		bufB[i] = -0.25
	}
	if err := e.SetVoiceBuffer(0, bufA); err != nil {
		t.Fatal(err)
	}
	if err := e.SetVoiceBuffer(1, bufB); err != nil {
		t.Fatal(err)
	}
	for v := 0; v < 2; v++ {
		if err := e.SetLoopEnd(v, 0.1); err != nil {
			t.Fatal(err)
		}
		if err := e.SetPlayFlag(v, true); err != nil {
			t.Fatal(err)
		}
	}

	r := &Renderer{Engine: e, Left: []float32{1, 0}, Right: []float32{0, 1}}
	left, right := r.Render(1000)
	if len(left) != 1000 || len(right) != 1000 {
		t.Fatalf("unexpected render length: %d %d", len(left), len(right))
	}
	// Past the loop-start fade both voices read their constant buffers.
	for i := 100; i < 1000; i++ {
		if math.Abs(float64(left[i])-0.5) > 1e-6 || math.Abs(float64(right[i])+0.25) > 1e-6 {
			t.Fatalf("frame %d: got L=%f R=%f", i, left[i], right[i])
		}
	}
	if p := Peak(left, right); math.Abs(float64(p)-0.5) > 1e-6 {
		t.Fatalf("unexpected peak %f", p)
	}
	Normalize(left, right, 1)
	if p := Peak(left, right); math.Abs(float64(p)-1) > 1e-6 {
		t.Fatalf("normalize did not reach target: %f", p)
	}
}
