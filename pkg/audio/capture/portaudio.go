package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Compile-time assertion that PortAudio satisfies the Source interface.
var _ Source = (*PortAudio)(nil)

// frameChanBuf is the buffer depth of a handle's Frames channel. When the
// consumer lags behind by more than this many frames, new frames are dropped
// rather than delivered late and out of cadence.
const frameChanBuf = 8

// loopbackHints identify capture devices that deliver system/display audio.
// Monitor sources (PulseAudio/PipeWire), "Stereo Mix" (Windows drivers) and
// BlackHole (macOS) are the common cases.
var loopbackHints = []string{"monitor", "loopback", "stereo mix", "blackhole"}

// PortAudio is a [Source] backed by the PortAudio library. One instance
// initialises the library for the life of the process; call
// [PortAudio.Close] on shutdown.
type PortAudio struct {
	closeOnce sync.Once
}

// NewPortAudio initialises the PortAudio library and returns a Source.
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize portaudio: %w", err)
	}
	return &PortAudio{}, nil
}

// Close terminates the PortAudio library. Safe to call more than once.
func (s *PortAudio) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = portaudio.Terminate()
	})
	return err
}

// Acquire implements [Source]. When cfg.PreferDisplayAudio is set it first
// looks for a system-audio loopback device (which carries the platform's
// echo cancellation and gain processing); on any failure it falls back to
// the default microphone. Both failing yields [ErrUnavailable].
func (s *PortAudio) Acquire(ctx context.Context, cfg Config) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	var errs []error
	if cfg.PreferDisplayAudio {
		h, err := s.openLoopback(cfg)
		if err == nil {
			return h, nil
		}
		slog.Debug("display-audio capture unavailable, falling back to microphone", "err", err)
		errs = append(errs, err)
	}

	h, err := s.openDefaultInput(cfg)
	if err == nil {
		return h, nil
	}
	errs = append(errs, err)

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// openLoopback opens the first input device whose name suggests a
// system-audio loopback source.
func (s *PortAudio) openLoopback(cfg Config) (Handle, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}
	for _, dev := range devices {
		if dev.MaxInputChannels < 1 {
			continue
		}
		name := strings.ToLower(dev.Name)
		for _, hint := range loopbackHints {
			if strings.Contains(name, hint) {
				return s.openDevice(dev, cfg)
			}
		}
	}
	return nil, errors.New("capture: no loopback device found")
}

// openDefaultInput opens the platform's default microphone.
func (s *PortAudio) openDefaultInput(cfg Config) (Handle, error) {
	buf := make([]float32, cfg.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.FrameSize, buf)
	if err != nil {
		return nil, fmt.Errorf("capture: open default input: %w", err)
	}
	return s.startHandle(stream, buf, cfg)
}

// openDevice opens a specific input device in mono at the configured rate.
func (s *PortAudio) openDevice(dev *portaudio.DeviceInfo, cfg Config) (Handle, error) {
	buf := make([]float32, cfg.FrameSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FrameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("capture: open device %q: %w", dev.Name, err)
	}
	return s.startHandle(stream, buf, cfg)
}

// startHandle starts the stream and spawns the frame pump.
func (s *PortAudio) startHandle(stream *portaudio.Stream, buf []float32, cfg Config) (Handle, error) {
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}
	h := &paHandle{
		stream: stream,
		buf:    buf,
		cfg:    cfg,
		frames: make(chan audio.Frame, frameChanBuf),
		done:   make(chan struct{}),
	}
	go h.pump()
	return h, nil
}

// paHandle is the portaudio-backed [Handle]. The pump goroutine owns the
// frames channel and closes it on exit.
type paHandle struct {
	stream *portaudio.Stream
	buf    []float32
	cfg    Config
	frames chan audio.Frame
	done   chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

// Frames implements [Handle].
func (h *paHandle) Frames() <-chan audio.Frame { return h.frames }

// pump reads fixed-size blocks from the device and delivers them as frames.
// Frames are dropped (not queued) when the consumer lags, so a resumed
// consumer sees live audio rather than a stale backlog.
func (h *paHandle) pump() {
	defer close(h.frames)

	// Timestamps advance in nominal stream time — each frame's play
	// duration — so they stay on the device cadence even when wall-clock
	// delivery jitters.
	var elapsed time.Duration
	for {
		select {
		case <-h.done:
			return
		default:
		}

		if err := h.stream.Read(); err != nil {
			// Stop() during Release aborts a blocking Read; anything else is
			// a genuine device failure and ends the (non-restartable) stream.
			select {
			case <-h.done:
			default:
				slog.Warn("capture stream read failed, ending stream", "err", err)
			}
			return
		}

		samples := make([]float32, len(h.buf))
		copy(samples, h.buf)
		frame := audio.Frame{
			Samples:    samples,
			SampleRate: h.cfg.SampleRate,
			Channels:   1,
			Timestamp:  elapsed,
		}
		elapsed += frame.Duration()

		select {
		case h.frames <- frame:
		case <-h.done:
			return
		default:
			// Consumer lagging: drop this frame.
		}
	}
}

// Release implements [Handle]. Idempotent.
func (h *paHandle) Release() error {
	h.releaseOnce.Do(func() {
		close(h.done)
		var errs []error
		if err := h.stream.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := h.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		h.releaseErr = errors.Join(errs...)
	})
	return h.releaseErr
}
