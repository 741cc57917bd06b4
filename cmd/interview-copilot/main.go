// Command interview-copilot runs the live interview assistant: it captures
// interview audio, streams it to a live model session, plays the model's
// spoken answers, and generates text suggestions per interviewer question.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/config"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/meeting"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/observe"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/capture"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/playback"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live"
	livegemini "github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live/gemini"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/llm/anyllm"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/transcribe"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/transcribe/deepgram"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/tts"
	ttsgemini "github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/tts/gemini"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "interview-copilot: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "interview-copilot: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		fmt.Fprintln(os.Stderr, "interview-copilot: GEMINI_API_KEY is not set")
		return 1
	}

	if cfg.Candidate.Background == "" {
		fmt.Fprintln(os.Stderr, "interview-copilot: candidate.background is empty — fill in your background in the config file")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Transcription-only mode ───────────────────────────────────────────────
	if cfg.Transcribe.Enabled {
		return runTranscribeOnly(ctx, cfg)
	}

	// ── Audio devices ─────────────────────────────────────────────────────────
	pa, err := capture.NewPortAudio()
	if err != nil {
		slog.Error("audio subsystem unavailable", "err", err)
		return 1
	}
	defer func() {
		if err := pa.Close(); err != nil {
			slog.Warn("audio subsystem close error", "err", err)
		}
	}()

	openPlayer := func() (playback.Player, error) {
		return playback.OpenPortAudio(cfg.Session.PlaybackRate)
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	liveProvider := newLiveProvider(geminiKey, cfg)

	// Non-Gemini backends pick their credentials up from their own
	// environment variables (OPENAI_API_KEY and friends).
	var llmOpts []anyllmlib.Option
	if cfg.Answer.LLMProvider == "gemini" {
		llmOpts = append(llmOpts, anyllmlib.WithAPIKey(geminiKey))
	}
	llmProvider, err := anyllm.New(cfg.Answer.LLMProvider, cfg.Answer.LLMModel, llmOpts...)
	if err != nil {
		slog.Error("failed to create LLM provider", "provider", cfg.Answer.LLMProvider, "err", err)
		return 1
	}

	var synth tts.Synthesizer
	if cfg.Answer.Speak {
		var ttsOpts []ttsgemini.Option
		if cfg.Answer.TTSModel != "" {
			ttsOpts = append(ttsOpts, ttsgemini.WithModel(cfg.Answer.TTSModel))
		}
		synth = ttsgemini.New(geminiKey, ttsOpts...)
	}

	// ── Meeting orchestrator ──────────────────────────────────────────────────
	orch := meeting.New(meeting.Config{
		Candidate:  cfg.Candidate.Name,
		Background: cfg.Candidate.Background,
		Capture: capture.Config{
			PreferDisplayAudio: cfg.Capture.PreferDisplayAudio,
			SampleRate:         cfg.Capture.SampleRate,
			FrameSize:          cfg.Capture.FrameSize,
		},
		Model:          cfg.Session.Model,
		Voice:          cfg.Session.Voice,
		ConnectTimeout: cfg.Session.ConnectTimeout.Std(),
		PlaybackRate:   cfg.Session.PlaybackRate,
	}, meeting.Deps{
		Capture:    pa,
		Live:       liveProvider,
		OpenPlayer: openPlayer,
		Suggester:  meeting.NewSuggester(llmProvider, synth, cfg.Session.Voice, metrics),
		Metrics:    metrics,
	})

	// ── Metrics / health endpoint ─────────────────────────────────────────────
	var metricsSrv *observe.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = observe.NewServer(cfg.MetricsAddr, metrics, observe.Checker{
			Name: "meeting",
			Check: func(context.Context) error {
				if orch.State() == meeting.StateInactive {
					return errors.New("no active meeting")
				}
				return nil
			},
		})
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil {
				slog.Error("metrics server error", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		slog.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	if err := orch.Start(ctx); err != nil {
		slog.Error("failed to start meeting", "err", err)
		return 1
	}
	slog.Info("meeting live — press Ctrl+C to end")

	go printSuggestions(ctx, orch)

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var failed bool
	if err := orch.Stop(shutdownCtx); err != nil {
		slog.Error("meeting teardown error", "err", err)
		failed = true
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}
	if failed {
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// newLiveProvider wires the Gemini live provider from config.
func newLiveProvider(apiKey string, cfg *config.Config) live.Provider {
	var opts []livegemini.Option
	if cfg.Session.Model != "" {
		opts = append(opts, livegemini.WithModel(cfg.Session.Model))
	}
	return livegemini.New(apiKey, opts...)
}

// printSuggestions writes generated answer suggestions to stdout as they
// arrive.
func printSuggestions(ctx context.Context, orch *meeting.Orchestrator) {
	for {
		select {
		case <-ctx.Done():
			return
		case sug := <-orch.Suggestions():
			fmt.Printf("\n─── interviewer ───\n%s\n─── suggested answer ───\n%s\n\n", sug.Question, sug.Answer)
		}
	}
}

// runTranscribeOnly streams captured audio to Deepgram and prints the
// transcript instead of holding a live model session.
func runTranscribeOnly(ctx context.Context, cfg *config.Config) int {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "interview-copilot: DEEPGRAM_API_KEY is not set (required for transcription mode)")
		return 1
	}

	transcriber, err := deepgram.New(apiKey,
		deepgram.WithModel(cfg.Transcribe.Model),
		deepgram.WithLanguage(cfg.Transcribe.Language),
	)
	if err != nil {
		slog.Error("failed to create transcriber", "err", err)
		return 1
	}

	pa, err := capture.NewPortAudio()
	if err != nil {
		slog.Error("audio subsystem unavailable", "err", err)
		return 1
	}
	defer func() {
		if err := pa.Close(); err != nil {
			slog.Warn("audio subsystem close error", "err", err)
		}
	}()

	handle, err := pa.Acquire(ctx, capture.Config{
		PreferDisplayAudio: cfg.Capture.PreferDisplayAudio,
		SampleRate:         cfg.Capture.SampleRate,
		FrameSize:          cfg.Capture.FrameSize,
	})
	if err != nil {
		slog.Error("failed to acquire capture device", "err", err)
		return 1
	}
	defer func() {
		if err := handle.Release(); err != nil {
			slog.Warn("capture release error", "err", err)
		}
	}()

	stream, err := transcriber.Start(ctx, transcribe.StreamConfig{
		SampleRate: cfg.Capture.SampleRate,
		Language:   cfg.Transcribe.Language,
	})
	if err != nil {
		slog.Error("failed to open transcription stream", "err", err)
		return 1
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("transcription stream close error", "err", err)
		}
	}()

	slog.Info("transcribing — press Ctrl+C to stop")

	go func() {
		for seg := range stream.Segments() {
			if seg.Final {
				fmt.Println(seg.Text)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return 0
		case frame, ok := <-handle.Frames():
			if !ok {
				return 0
			}
			chunk := audio.EncodeFrame(frame.Samples, frame.SampleRate, frame.Channels)
			if err := stream.SendAudio(chunk); err != nil {
				slog.Error("transcription send error", "err", err)
				return 1
			}
		}
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
