package preset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-softcut/softcut"
)

const jsonPreset = `{
  "sample_rate": 48000,
  "buffers": [
    {"name": "tape", "seconds": 2, "source": "loop.wav"}
  ],
  "voices": [
    {
      "index": 0,
      "buffer": "tape",
      "rate": -0.5,
      "loop_start": 0.25,
      "loop_end": 1.5,
      "fade_time": 0.01,
      "rec_level": 1,
      "pre_level": 0.5,
      "rec": true,
      "play": true,
      "phase_quant": 0.125,
      "pre_filter": {"fc": 4000, "lp": 1, "dry": 0, "fc_mod": 0.5},
      "post_filter": {"rq": 0.7},
      "level": 0.8,
      "pan": -1
    },
    {
      "index": 1,
      "buffer": "tape",
      "play": true,
      "sync": {"leader": 0, "offset": 0.5}
    }
  ]
}`

const yamlPreset = `
sample_rate: 48000
buffers:
  - name: tape
    seconds: 2
    source: loop.wav
voices:
  - index: 0
    buffer: tape
    rate: -0.5
    loop_start: 0.25
    loop_end: 1.5
    fade_time: 0.01
    rec_level: 1
    pre_level: 0.5
    rec: true
    play: true
    phase_quant: 0.125
    pre_filter: {fc: 4000, lp: 1, dry: 0, fc_mod: 0.5}
    post_filter: {rq: 0.7}
    level: 0.8
    pan: -1
  - index: 1
    buffer: tape
    play: true
    sync: {leader: 0, offset: 0.5}
`

func writePreset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAndYAMLAgree(t *testing.T) {
	for _, tc := range []struct {
		name, file, content string
	}{
		{"json", "preset.json", jsonPreset},
		{"yaml", "preset.yaml", yamlPreset},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writePreset(t, tc.file, tc.content)
			f, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if f.SampleRate == nil || *f.SampleRate != 48000 {
				t.Fatalf("sample_rate mismatch: %+v", f.SampleRate)
			}
			if len(f.Buffers) != 1 || f.Buffers[0].Seconds != 2 {
				t.Fatalf("buffers mismatch: %+v", f.Buffers)
			}
			if want := filepath.Join(filepath.Dir(path), "loop.wav"); f.Buffers[0].Source != want {
				t.Fatalf("source not resolved: got=%q want=%q", f.Buffers[0].Source, want)
			}
			if len(f.Voices) != 2 {
				t.Fatalf("expected 2 voices, got %d", len(f.Voices))
			}
			v := f.Voices[0]
			if *v.Rate != -0.5 || *v.LoopStart != 0.25 || *v.LoopEnd != 1.5 || !*v.Rec || !*v.Play {
				t.Fatalf("voice 0 mismatch: %+v", v)
			}
			if v.PreFilter == nil || *v.PreFilter.Fc != 4000 || *v.PreFilter.FcMod != 0.5 {
				t.Fatalf("pre_filter mismatch: %+v", v.PreFilter)
			}
			if v.PostFilter == nil || *v.PostFilter.RQ != 0.7 || v.PostFilter.Fc != nil {
				t.Fatalf("post_filter mismatch: %+v", v.PostFilter)
			}
			if s := f.Voices[1].Sync; s == nil || s.Leader != 0 || s.Offset != 0.5 {
				t.Fatalf("sync mismatch: %+v", s)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte(`{"voices": [{"index": 0, "speed": 2}]}`), FormatJSON); err == nil {
		t.Fatalf("expected unknown json field to be rejected")
	}
	if _, err := Parse([]byte("voices:\n  - index: 0\n    speed: 2\n"), FormatYAML); err == nil {
		t.Fatalf("expected unknown yaml field to be rejected")
	}
}

func TestParseRejectsInvalidRanges(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"sample rate", `{"sample_rate": 0}`, "sample_rate"},
		{"buffer seconds", `{"buffers": [{"name": "a", "seconds": 0}]}`, "buffers[0].seconds"},
		{"duplicate buffer", `{"buffers": [{"name": "a", "seconds": 1}, {"name": "a", "seconds": 1}]}`, "duplicate name"},
		{"undeclared buffer", `{"voices": [{"index": 0, "buffer": "nope"}]}`, "not declared"},
		{"duplicate voice", `{"voices": [{"index": 1}, {"index": 1}]}`, "duplicate index"},
		{"rec level", `{"voices": [{"index": 0, "rec_level": 1.5}]}`, "rec_level"},
		{"rate", `{"voices": [{"index": 0, "rate": 100}]}`, "rate"},
		{"negative fade", `{"voices": [{"index": 0, "fade_time": -1}]}`, "fade_time"},
		{"empty loop", `{"voices": [{"index": 0, "loop_start": 1, "loop_end": 1}]}`, "loop_end"},
		{"filter cutoff", `{"voices": [{"index": 0, "pre_filter": {"fc": 0}}]}`, "pre_filter.fc"},
		{"post fc mod", `{"voices": [{"index": 0, "post_filter": {"fc_mod": 0.5}}]}`, "post_filter.fc_mod"},
		{"self sync", `{"voices": [{"index": 2, "sync": {"leader": 2}}]}`, "sync.leader"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content), FormatJSON)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestApplyConfiguresEngine(t *testing.T) {
	f, err := Parse([]byte(jsonPreset), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bufs, err := Allocate(f, 48000)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(bufs["tape"]) != 96000 {
		t.Fatalf("expected 96000 frames, got %d", len(bufs["tape"]))
	}

	e := softcut.New(2)
	defer e.Close()
	if err := Apply(e, f, bufs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !e.PlayFlag(0) || !e.RecFlag(0) || !e.PlayFlag(1) || e.RecFlag(1) {
		t.Fatalf("flags not applied")
	}
	if e.State(0) != softcut.StateRecording {
		t.Fatalf("expected voice 0 recording, got %s", e.State(0))
	}
	if l, off, ok := e.Leader(1); !ok || l != 0 || off != 0.5 {
		t.Fatalf("sync not applied: %d %g %v", l, off, ok)
	}
	if got := e.Voice(0).Buffer(); len(got) != 96000 || &got[0] != &bufs["tape"][0] {
		t.Fatalf("voice 0 does not use the shared buffer")
	}

	out := make([]float32, 480)
	e.ProcessBlock(0, make([]float32, 480), out)
	if p := e.SavedPosition(0); p < 0.25 || p >= 1.5 {
		t.Fatalf("voice 0 left its loop: %g", p)
	}
}

func TestApplyRejectsVoiceOutOfRange(t *testing.T) {
	f, err := Parse([]byte(`{"voices": [{"index": 4, "play": true}]}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := softcut.New(2)
	defer e.Close()
	if err := Apply(e, f, nil); !errors.Is(err, softcut.ErrInvalidVoice) {
		t.Fatalf("expected ErrInvalidVoice, got %v", err)
	}
}

func TestApplyReportsDegenerateLoop(t *testing.T) {
	f, err := Parse([]byte(`{
  "buffers": [{"name": "b", "seconds": 1}],
  "voices": [{"index": 0, "buffer": "b", "loop_start": 2, "loop_end": 3}]
}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bufs, err := Allocate(f, 48000)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	e := softcut.New(1)
	defer e.Close()
	if err := Apply(e, f, bufs); !errors.Is(err, softcut.ErrDegenerateLoop) {
		t.Fatalf("expected ErrDegenerateLoop for a loop past the buffer end, got %v", err)
	}
}

func TestMixGains(t *testing.T) {
	f, err := Parse([]byte(jsonPreset), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	left, right := MixGains(f, 3)
	if math.Abs(float64(left[0])-0.8) > 1e-6 || math.Abs(float64(right[0])) > 1e-6 {
		t.Fatalf("hard-left voice gains wrong: %f %f", left[0], right[0])
	}
	c := float32(math.Sqrt(0.5))
	if math.Abs(float64(left[1]-c)) > 1e-6 || math.Abs(float64(right[1]-c)) > 1e-6 {
		t.Fatalf("centered voice gains wrong: %f %f", left[1], right[1])
	}
	if left[2] != 0 || right[2] != 0 {
		t.Fatalf("unconfigured voice must be muted")
	}
}
