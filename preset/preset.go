package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a preset document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// File is the schema for engine presets. Pointer fields are optional
// overrides; unset fields keep the engine defaults.
type File struct {
	SampleRate *float64        `json:"sample_rate" yaml:"sample_rate"`
	Buffers    []BufferSetting `json:"buffers" yaml:"buffers"`
	Voices     []VoiceSetting  `json:"voices" yaml:"voices"`
}

// BufferSetting declares a named buffer shared by any voices that refer to it.
type BufferSetting struct {
	Name    string  `json:"name" yaml:"name"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
	// Source optionally names a WAV file to preload; relative paths are
	// resolved against the preset file.
	Source string `json:"source" yaml:"source"`
}

// VoiceSetting configures one voice.
type VoiceSetting struct {
	Index  int    `json:"index" yaml:"index"`
	Buffer string `json:"buffer" yaml:"buffer"`

	Rate      *float64 `json:"rate" yaml:"rate"`
	LoopStart *float64 `json:"loop_start" yaml:"loop_start"`
	LoopEnd   *float64 `json:"loop_end" yaml:"loop_end"`
	Loop      *bool    `json:"loop" yaml:"loop"`
	FadeTime  *float64 `json:"fade_time" yaml:"fade_time"`
	RecLevel  *float64 `json:"rec_level" yaml:"rec_level"`
	PreLevel  *float64 `json:"pre_level" yaml:"pre_level"`
	Rec       *bool    `json:"rec" yaml:"rec"`
	RecOnce   *bool    `json:"rec_once" yaml:"rec_once"`
	Play      *bool    `json:"play" yaml:"play"`
	RecOffset *float64 `json:"rec_offset" yaml:"rec_offset"`

	RateSlew    *float64 `json:"rate_slew" yaml:"rate_slew"`
	RecPreSlew  *float64 `json:"rec_pre_slew" yaml:"rec_pre_slew"`
	PhaseQuant  *float64 `json:"phase_quant" yaml:"phase_quant"`
	PhaseOffset *float64 `json:"phase_offset" yaml:"phase_offset"`
	Position    *float64 `json:"position" yaml:"position"`

	PreFilter  *FilterSetting `json:"pre_filter" yaml:"pre_filter"`
	PostFilter *FilterSetting `json:"post_filter" yaml:"post_filter"`
	Sync       *SyncSetting   `json:"sync" yaml:"sync"`

	// Level and Pan place the voice in a stereo mix; the engine ignores them.
	Level *float64 `json:"level" yaml:"level"`
	Pan   *float64 `json:"pan" yaml:"pan"`
}

// FilterSetting overrides pre- or post-filter controls.
type FilterSetting struct {
	Fc    *float64 `json:"fc" yaml:"fc"`
	RQ    *float64 `json:"rq" yaml:"rq"`
	LP    *float64 `json:"lp" yaml:"lp"`
	HP    *float64 `json:"hp" yaml:"hp"`
	BP    *float64 `json:"bp" yaml:"bp"`
	BR    *float64 `json:"br" yaml:"br"`
	Dry   *float64 `json:"dry" yaml:"dry"`
	FcMod *float64 `json:"fc_mod" yaml:"fc_mod"`
}

// SyncSetting makes the voice follow another voice's loop wraps.
type SyncSetting struct {
	Leader int     `json:"leader" yaml:"leader"`
	Offset float64 `json:"offset" yaml:"offset"`
}

// Load reads and validates a preset file. The format follows the extension.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %q: %w", path, err)
	}
	f, err := Parse(b, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("preset: %q: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range f.Buffers {
		src := f.Buffers[i].Source
		if src != "" && !filepath.IsAbs(src) {
			f.Buffers[i].Source = filepath.Clean(filepath.Join(base, src))
		}
	}
	return f, nil
}

// Parse decodes and validates a preset document. Unknown keys are rejected.
func Parse(data []byte, format Format) (*File, error) {
	f := &File{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	for i := range f.Buffers {
		f.Buffers[i].Name = strings.TrimSpace(f.Buffers[i].Name)
		f.Buffers[i].Source = strings.TrimSpace(f.Buffers[i].Source)
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks ranges and references. It reports every problem found.
func Validate(f *File) error {
	if f == nil {
		return fmt.Errorf("nil preset")
	}
	var errs []error

	if f.SampleRate != nil && !(*f.SampleRate > 0 && finite(*f.SampleRate)) {
		errs = append(errs, fmt.Errorf("sample_rate must be > 0"))
	}

	names := make(map[string]bool, len(f.Buffers))
	for i, b := range f.Buffers {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("buffers[%d].name must not be empty", i))
			continue
		}
		if names[b.Name] {
			errs = append(errs, fmt.Errorf("buffers[%d]: duplicate name %q", i, b.Name))
		}
		names[b.Name] = true
		if !(b.Seconds > 0 && finite(b.Seconds)) {
			errs = append(errs, fmt.Errorf("buffers[%d].seconds must be > 0", i))
		}
	}

	seen := make(map[int]bool, len(f.Voices))
	for i, v := range f.Voices {
		at := fmt.Sprintf("voices[%d]", i)
		if v.Index < 0 {
			errs = append(errs, fmt.Errorf("%s.index must be >= 0", at))
		} else if seen[v.Index] {
			errs = append(errs, fmt.Errorf("%s: duplicate index %d", at, v.Index))
		}
		seen[v.Index] = true
		if v.Buffer != "" && !names[v.Buffer] {
			errs = append(errs, fmt.Errorf("%s.buffer %q is not declared", at, v.Buffer))
		}

		errs = appendRange(errs, at+".rate", v.Rate, -64, 64)
		errs = appendRange(errs, at+".rec_level", v.RecLevel, 0, 1)
		errs = appendRange(errs, at+".pre_level", v.PreLevel, 0, 1)
		errs = appendRange(errs, at+".level", v.Level, 0, math.Inf(1))
		errs = appendRange(errs, at+".pan", v.Pan, -1, 1)
		for _, nf := range []namedField{
			{".loop_start", v.LoopStart},
			{".loop_end", v.LoopEnd},
			{".fade_time", v.FadeTime},
			{".rate_slew", v.RateSlew},
			{".rec_pre_slew", v.RecPreSlew},
			{".phase_quant", v.PhaseQuant},
			{".position", v.Position},
		} {
			errs = appendRange(errs, at+nf.name, nf.p, 0, math.Inf(1))
		}
		errs = appendRange(errs, at+".rec_offset", v.RecOffset, math.Inf(-1), math.Inf(1))
		errs = appendRange(errs, at+".phase_offset", v.PhaseOffset, math.Inf(-1), math.Inf(1))
		if v.LoopStart != nil && v.LoopEnd != nil && *v.LoopEnd <= *v.LoopStart {
			errs = append(errs, fmt.Errorf("%s.loop_end must be > loop_start", at))
		}

		errs = validateFilter(errs, at+".pre_filter", v.PreFilter)
		errs = validateFilter(errs, at+".post_filter", v.PostFilter)
		if v.PostFilter != nil && v.PostFilter.FcMod != nil {
			errs = append(errs, fmt.Errorf("%s.post_filter.fc_mod is not supported", at))
		}

		if v.Sync != nil {
			if v.Sync.Leader == v.Index {
				errs = append(errs, fmt.Errorf("%s.sync.leader must differ from index", at))
			}
			if v.Sync.Leader < 0 {
				errs = append(errs, fmt.Errorf("%s.sync.leader must be >= 0", at))
			}
			if !finite(v.Sync.Offset) {
				errs = append(errs, fmt.Errorf("%s.sync.offset must be finite", at))
			}
		}
	}
	return errors.Join(errs...)
}

func validateFilter(errs []error, at string, fs *FilterSetting) []error {
	if fs == nil {
		return errs
	}
	if fs.Fc != nil && !(*fs.Fc > 0 && finite(*fs.Fc)) {
		errs = append(errs, fmt.Errorf("%s.fc must be > 0", at))
	}
	if fs.RQ != nil && !(*fs.RQ > 0 && finite(*fs.RQ)) {
		errs = append(errs, fmt.Errorf("%s.rq must be > 0", at))
	}
	errs = appendRange(errs, at+".fc_mod", fs.FcMod, 0, 1)
	for _, nf := range []namedField{
		{".lp", fs.LP}, {".hp", fs.HP}, {".bp", fs.BP}, {".br", fs.BR}, {".dry", fs.Dry},
	} {
		errs = appendRange(errs, at+nf.name, nf.p, math.Inf(-1), math.Inf(1))
	}
	return errs
}

type namedField struct {
	name string
	p    *float64
}

func appendRange(errs []error, name string, p *float64, lo, hi float64) []error {
	if p == nil {
		return errs
	}
	x := *p
	if !finite(x) {
		return append(errs, fmt.Errorf("%s must be finite", name))
	}
	if x < lo || x > hi {
		switch {
		case math.IsInf(hi, 1):
			return append(errs, fmt.Errorf("%s must be >= %g", name, lo))
		default:
			return append(errs, fmt.Errorf("%s must be in [%g,%g]", name, lo, hi))
		}
	}
	return errs
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
