package render

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAV decodes a WAV file into per-channel float32 slices.
func ReadWAV(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid wav sample-rate %d: %s", buf.Format.SampleRate, path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([][]float32, ch)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < ch; c++ {
			out[c][i] = buf.Data[i*ch+c]
		}
	}
	return out, buf.Format.SampleRate, nil
}

// ReadWAVMono decodes a WAV file and averages its channels.
func ReadWAVMono(path string) ([]float32, int, error) {
	chans, sr, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	return Downmix(chans), sr, nil
}

// Downmix averages channels into one.
func Downmix(chans [][]float32) []float32 {
	if len(chans) == 0 {
		return nil
	}
	if len(chans) == 1 {
		return chans[0]
	}
	out := make([]float32, len(chans[0]))
	scale := 1 / float32(len(chans))
	for _, c := range chans {
		for i := range out {
			out[i] += c[i] * scale
		}
	}
	return out
}

// LoadMono reads a WAV file as mono at sampleRate, resampling if needed.
func LoadMono(path string, sampleRate int) ([]float32, error) {
	in, sr, err := ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	out, err := ResampleIfNeeded(in, sr, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("resample %s: %w", path, err)
	}
	return out, nil
}

// ResampleIfNeeded converts in from fromRate to toRate.
func ResampleIfNeeded(in []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteStereoWAV writes left/right as a 16-bit stereo file.
func WriteStereoWAV(path string, left, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return writeWAV(path, data, 2, sampleRate)
}

// WriteMonoWAV writes data as a 16-bit mono file.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	return writeWAV(path, data, 1, sampleRate)
}

func writeWAV(path string, data []float32, channels, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
