package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cwbudde/algo-softcut/internal/render"
	"github.com/cwbudde/algo-softcut/preset"
	"github.com/cwbudde/algo-softcut/softcut"
)

type options struct {
	presetPath string
	inputPath  string
	irPath     string
	room       float64
	output     string
	sampleRate int
	voices     int
	blockSize  int
	duration   float64
	normalize  float64
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("softcut-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.presetPath, "preset", "", "Preset file (.json, .yaml or .yml)")
	fs.StringVar(&o.inputPath, "input", "", "Input WAV routed to every voice (optional)")
	fs.StringVar(&o.irPath, "ir", "", "Stereo IR WAV applied to the mix (optional)")
	fs.Float64Var(&o.room, "room", 0, "Synthetic room decay in seconds when -ir is not given (0 disables)")
	fs.StringVar(&o.output, "output", "output.wav", "Output WAV file path")
	fs.IntVar(&o.sampleRate, "sample-rate", 0, "Render sample rate in Hz (default: preset or 48000)")
	fs.IntVar(&o.voices, "voices", softcut.DefaultVoices, "Number of engine voices")
	fs.IntVar(&o.blockSize, "block", 128, "Processing block size in frames")
	fs.Float64Var(&o.duration, "duration", 0, "Duration in seconds (default: input length or 4s)")
	fs.Float64Var(&o.normalize, "normalize", 0, "Normalize the mix peak to this level (0 disables)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.presetPath == "" {
		fmt.Fprintln(stderr, "Error: -preset is required")
		return 2
	}

	logger := newLogger(stderr, o.logLevel)
	if err := renderFile(o, logger, stdout); err != nil {
		logger.Error("render failed", "err", err)
		return 1
	}
	return 0
}

func renderFile(o options, logger *slog.Logger, stdout io.Writer) error {
	f, err := preset.Load(o.presetPath)
	if err != nil {
		return err
	}
	sampleRate := 48000
	if f.SampleRate != nil {
		sampleRate = int(*f.SampleRate)
	}
	if o.sampleRate > 0 {
		sampleRate = o.sampleRate
		sr := float64(sampleRate)
		f.SampleRate = &sr
	}

	e := softcut.New(o.voices,
		softcut.WithSampleRate(float64(sampleRate)),
		softcut.WithBlockSize(o.blockSize),
		softcut.WithLogger(logger),
	)
	defer e.Close()

	buffers, err := preset.Allocate(f, float64(sampleRate))
	if err != nil {
		return err
	}
	for _, b := range f.Buffers {
		if b.Source == "" {
			continue
		}
		src, err := render.LoadMono(b.Source, sampleRate)
		if err != nil {
			return fmt.Errorf("buffer %q: %w", b.Name, err)
		}
		n := copy(buffers[b.Name], src)
		logger.Debug("buffer preloaded", "buffer", b.Name, "source", b.Source, "frames", n)
	}
	if err := preset.Apply(e, f, buffers); err != nil {
		return err
	}

	var input []float32
	if o.inputPath != "" {
		if input, err = render.LoadMono(o.inputPath, sampleRate); err != nil {
			return err
		}
	}

	frames := int(o.duration * float64(sampleRate))
	if frames <= 0 {
		frames = len(input)
	}
	if frames <= 0 {
		frames = 4 * sampleRate
	}

	fmt.Fprintf(stdout, "Rendering %d voices for %.2f seconds at %d Hz (preset: %s)...\n",
		e.NumVoices(), float64(frames)/float64(sampleRate), sampleRate, o.presetPath)

	routed := make([][]float32, e.NumVoices())
	for v := range routed {
		routed[v] = input
	}
	gl, gr := preset.MixGains(f, e.NumVoices())
	r := &render.Renderer{Engine: e, Input: routed, Left: gl, Right: gr, BlockSize: o.blockSize}
	left, right := r.Render(frames)
	e.LogWarnings()

	if o.irPath != "" || o.room > 0 {
		c := render.NewConvolver(sampleRate)
		if o.irPath != "" {
			err = c.SetIRFromWAV(o.irPath)
		} else {
			var irL, irR []float32
			if irL, irR, err = render.DefaultRoom(sampleRate, o.room).Generate(); err == nil {
				err = c.SetIR(irL, irR)
			}
			logger.Debug("room ir synthesized", "decay", o.room, "frames", len(irL))
		}
		if err != nil {
			return fmt.Errorf("ir: %w", err)
		}
		if err := c.Process(left, right); err != nil {
			return fmt.Errorf("ir: %w", err)
		}
	}
	if o.normalize > 0 {
		render.Normalize(left, right, float32(o.normalize))
	}
	if peak := render.Peak(left, right); peak > 1 {
		logger.Warn("mix clips", "peak", peak)
	}

	if err := render.WriteStereoWAV(o.output, left, right, sampleRate); err != nil {
		return fmt.Errorf("write %s: %w", o.output, err)
	}
	fmt.Fprintf(stdout, "Successfully wrote %s (%d frames)\n", o.output, frames)
	for v := 0; v < e.NumVoices(); v++ {
		if e.State(v) != softcut.StateIdle {
			logger.Info("voice", "index", v, "state", e.State(v).String(), "position", e.SavedPosition(v))
		}
	}
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
