package preset

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-softcut/softcut"
)

// Allocate creates a zeroed buffer for every declared buffer at sampleRate.
func Allocate(f *File, sampleRate float64) (map[string][]float32, error) {
	if f == nil {
		return nil, fmt.Errorf("nil preset")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	out := make(map[string][]float32, len(f.Buffers))
	for _, b := range f.Buffers {
		frames := int(math.Ceil(b.Seconds * sampleRate))
		if frames <= 0 {
			return nil, fmt.Errorf("buffer %q has no frames at %g Hz", b.Name, sampleRate)
		}
		out[b.Name] = make([]float32, frames)
	}
	return out, nil
}

// Apply configures e from f. Buffers are looked up by name in buffers.
// Voices are configured in file order; sync relations are applied last so a
// follower may be declared before its leader.
func Apply(e *softcut.Engine, f *File, buffers map[string][]float32) error {
	if e == nil {
		return fmt.Errorf("nil engine")
	}
	if f == nil {
		return nil
	}
	if f.SampleRate != nil {
		if err := e.SetSampleRate(*f.SampleRate); err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
	}
	for i := range f.Voices {
		if err := applyVoice(e, &f.Voices[i], buffers); err != nil {
			return fmt.Errorf("voices[%d]: %w", i, err)
		}
	}
	for i, v := range f.Voices {
		if v.Sync == nil {
			continue
		}
		if err := e.SyncVoice(v.Index, v.Sync.Leader, v.Sync.Offset); err != nil {
			return fmt.Errorf("voices[%d].sync: %w", i, err)
		}
	}
	return nil
}

func applyVoice(e *softcut.Engine, v *VoiceSetting, buffers map[string][]float32) error {
	i := v.Index
	if i >= e.NumVoices() {
		return fmt.Errorf("index %d: %w", i, softcut.ErrInvalidVoice)
	}
	if v.Buffer != "" {
		buf, ok := buffers[v.Buffer]
		if !ok {
			return fmt.Errorf("buffer %q was not allocated", v.Buffer)
		}
		if err := e.SetVoiceBuffer(i, buf); err != nil {
			return fmt.Errorf("buffer %q: %w", v.Buffer, err)
		}
	}

	// Only the last loop setter sees the complete region.
	var loopErr error
	if v.LoopStart != nil {
		loopErr = e.SetLoopStart(i, *v.LoopStart)
	}
	if v.LoopEnd != nil {
		loopErr = e.SetLoopEnd(i, *v.LoopEnd)
	}
	if v.Loop != nil {
		loopErr = e.SetLoopFlag(i, *v.Loop)
	}
	if loopErr != nil {
		return fmt.Errorf("loop: %w", loopErr)
	}

	set := func(p *float64, fn func(int, float64) error) error {
		if p == nil {
			return nil
		}
		return fn(i, *p)
	}
	for _, step := range []struct {
		p  *float64
		fn func(int, float64) error
	}{
		{v.FadeTime, e.SetFadeTime},
		{v.RateSlew, e.SetRateSlewTime},
		{v.RecPreSlew, e.SetRecPreSlewTime},
		{v.Rate, e.SetRate},
		{v.RecLevel, e.SetRecLevel},
		{v.PreLevel, e.SetPreLevel},
		{v.RecOffset, e.SetRecOffset},
		{v.PhaseQuant, e.SetPhaseQuant},
		{v.PhaseOffset, e.SetPhaseOffset},
		{v.Position, e.CutToPos},
	} {
		if err := set(step.p, step.fn); err != nil {
			return err
		}
	}

	if err := applyFilter(e, i, v.PreFilter, e.SetPreFilter); err != nil {
		return fmt.Errorf("pre_filter: %w", err)
	}
	if err := applyFilter(e, i, v.PostFilter, e.SetPostFilter); err != nil {
		return fmt.Errorf("post_filter: %w", err)
	}

	if v.Play != nil {
		if err := e.SetPlayFlag(i, *v.Play); err != nil {
			return err
		}
	}
	if v.Rec != nil {
		if err := e.SetRecFlag(i, *v.Rec); err != nil {
			return err
		}
	}
	if v.RecOnce != nil && *v.RecOnce {
		if err := e.SetRecOnceFlag(i, true); err != nil {
			return err
		}
	}
	return nil
}

func applyFilter(e *softcut.Engine, i int, fs *FilterSetting, fn func(int, softcut.FilterParam, float64) error) error {
	if fs == nil {
		return nil
	}
	for _, c := range []struct {
		p     *float64
		param softcut.FilterParam
	}{
		{fs.Fc, softcut.FilterFc},
		{fs.RQ, softcut.FilterRQ},
		{fs.LP, softcut.FilterLP},
		{fs.HP, softcut.FilterHP},
		{fs.BP, softcut.FilterBP},
		{fs.BR, softcut.FilterBR},
		{fs.Dry, softcut.FilterDry},
		{fs.FcMod, softcut.FilterFcMod},
	} {
		if c.p == nil {
			continue
		}
		if err := fn(i, c.param, *c.p); err != nil {
			return fmt.Errorf("%s: %w", c.param, err)
		}
	}
	return nil
}

// Gains returns the equal-power stereo gains for the voice's level and pan.
// Level defaults to 1 and pan to center.
func (v VoiceSetting) Gains() (left, right float32) {
	level, pan := 1.0, 0.0
	if v.Level != nil {
		level = *v.Level
	}
	if v.Pan != nil {
		pan = math.Max(-1, math.Min(1, *v.Pan))
	}
	theta := (pan + 1) * math.Pi / 4
	return float32(level * math.Cos(theta)), float32(level * math.Sin(theta))
}

// MixGains returns per-voice stereo gains for an engine with numVoices
// voices. Voices not mentioned in f are muted.
func MixGains(f *File, numVoices int) (left, right []float32) {
	left = make([]float32, numVoices)
	right = make([]float32, numVoices)
	if f == nil {
		return left, right
	}
	for _, v := range f.Voices {
		if v.Index < 0 || v.Index >= numVoices {
			continue
		}
		left[v.Index], right[v.Index] = v.Gains()
	}
	return left, right
}
