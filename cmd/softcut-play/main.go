package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-softcut/internal/render"
	"github.com/cwbudde/algo-softcut/preset"
	"github.com/cwbudde/algo-softcut/softcut"
)

func main() {
	presetPath := flag.String("preset", "", "Preset file (.json, .yaml or .yml)")
	inputPath := flag.String("input", "", "WAV looped into every voice input (optional)")
	sampleRate := flag.Int("sample-rate", 48000, "Device sample rate in Hz")
	voices := flag.Int("voices", softcut.DefaultVoices, "Number of engine voices")
	blockSize := flag.Int("block", 256, "Processing block size in frames")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	scrubVoice := flag.Int("scrub-voice", -1, "Voice whose rate is swept by the control loop (-1 disables)")
	scrubDepth := flag.Float64("scrub-depth", 0.5, "Rate sweep depth around the preset rate")
	scrubHz := flag.Float64("scrub-hz", 0.2, "Rate sweep frequency in Hz")
	poll := flag.Duration("poll", 50*time.Millisecond, "Control loop interval")
	watch := flag.Bool("watch", false, "Re-apply the preset whenever the file changes")
	verbose := flag.Bool("v", false, "Log phase events")
	flag.Parse()

	lvl := slog.LevelInfo
	if *verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	if *presetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -preset is required")
		os.Exit(2)
	}
	cfg := config{
		presetPath: *presetPath,
		inputPath:  *inputPath,
		sampleRate: *sampleRate,
		voices:     *voices,
		blockSize:  *blockSize,
		duration:   *duration,
		scrubVoice: *scrubVoice,
		scrubDepth: *scrubDepth,
		scrubHz:    *scrubHz,
		poll:       *poll,
		watch:      *watch,
	}
	if err := play(cfg, logger); err != nil {
		logger.Error("playback failed", "err", err)
		os.Exit(1)
	}
}

type config struct {
	presetPath string
	inputPath  string
	sampleRate int
	voices     int
	blockSize  int
	duration   time.Duration
	scrubVoice int
	scrubDepth float64
	scrubHz    float64
	poll       time.Duration
	watch      bool
}

func play(cfg config, logger *slog.Logger) error {
	f, err := preset.Load(cfg.presetPath)
	if err != nil {
		return err
	}
	sr := float64(cfg.sampleRate)
	f.SampleRate = &sr

	e := softcut.New(cfg.voices,
		softcut.WithSampleRate(sr),
		softcut.WithBlockSize(cfg.blockSize),
		softcut.WithLogger(logger),
	)
	defer e.Close()

	buffers, err := preset.Allocate(f, sr)
	if err != nil {
		return err
	}
	for _, b := range f.Buffers {
		if b.Source == "" {
			continue
		}
		src, err := render.LoadMono(b.Source, cfg.sampleRate)
		if err != nil {
			return fmt.Errorf("buffer %q: %w", b.Name, err)
		}
		copy(buffers[b.Name], src)
	}
	if err := preset.Apply(e, f, buffers); err != nil {
		return err
	}

	var source []float32
	if cfg.inputPath != "" {
		if source, err = render.LoadMono(cfg.inputPath, cfg.sampleRate); err != nil {
			return err
		}
	}

	gl, gr := preset.MixGains(f, e.NumVoices())
	stream := render.NewStream(e, gl, gr, source)

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(cfg.blockSize) * time.Second / time.Duration(cfg.sampleRate) * 4,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready
	player := otoCtx.NewPlayer(stream)
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	logger.Info("softcut playing",
		"preset", cfg.presetPath,
		"voices", e.NumVoices(),
		"sample_rate", cfg.sampleRate,
		"block", cfg.blockSize,
	)
	player.Play()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return control(gctx, e, f, cfg, logger)
	})
	if cfg.watch {
		g.Go(func() error {
			return preset.Watch(gctx, cfg.presetPath, func(nf *preset.File) {
				reload(e, nf, buffers, sr, logger)
			}, func(err error) {
				logger.Warn("preset reload failed", "err", err)
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stream.Detach()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Info("softcut stopped")
	return nil
}

// reload re-applies a changed preset to the running engine. Buffers keep
// their allocation and the mix keeps its gains; both need a restart.
func reload(e *softcut.Engine, f *preset.File, buffers map[string][]float32, sr float64, logger *slog.Logger) {
	f.SampleRate = &sr
	for _, v := range f.Voices {
		if v.Index < e.NumVoices() {
			_ = e.Unsync(v.Index)
		}
	}
	if err := preset.Apply(e, f, buffers); err != nil {
		logger.Warn("preset reload failed", "err", err)
		return
	}
	logger.Info("preset reloaded", "voices", len(f.Voices))
}

// control runs on its own goroutine: it sweeps one voice's rate, reports
// quantized phase changes and drains warnings. None of it blocks the device.
func control(ctx context.Context, e *softcut.Engine, f *preset.File, cfg config, logger *slog.Logger) error {
	base := 1.0
	for _, v := range f.Voices {
		if v.Index == cfg.scrubVoice && v.Rate != nil {
			base = *v.Rate
		}
	}
	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if cfg.scrubVoice >= 0 {
				t := now.Sub(start).Seconds()
				rate := base + cfg.scrubDepth*math.Sin(2*math.Pi*cfg.scrubHz*t)
				if err := e.SetRate(cfg.scrubVoice, rate); err != nil {
					return fmt.Errorf("scrub: %w", err)
				}
			}
			for v := 0; v < e.NumVoices(); v++ {
				if e.PhaseChanged(v) {
					logger.Debug("phase", "voice", v, "phase", e.QuantPhase(v), "state", e.State(v).String())
				}
			}
			e.LogWarnings()
		}
	}
}
