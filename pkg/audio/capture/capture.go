// Package capture defines the capability interface for live audio
// acquisition and the errors it can report.
//
// The two abstractions are:
//
//   - [Source] — acquires a live audio stream from a platform device and
//     returns a [Handle].
//   - [Handle] — an active acquisition delivering successive fixed-size
//     [audio.Frame] values until released.
//
// Implementations wrap platform capture devices (the portaudio adapter in
// this package, the in-memory source in pkg/audio/mock). The orchestrator
// never references a concrete platform API.
package capture

import (
	"context"
	"errors"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// ErrUnavailable reports that no capture path could be opened: the
// display/system-audio attempt and the microphone fallback both failed
// (permission denial, missing device, unsupported platform). There is no
// retry loop — the user must grant access and start again.
var ErrUnavailable = errors.New("capture: no audio input available")

// Config controls how a [Source] acquires audio.
type Config struct {
	// PreferDisplayAudio asks the source to try system/display audio first
	// (with echo cancellation, noise suppression, and automatic gain control
	// where the platform supports them) before falling back to a plain
	// microphone stream.
	PreferDisplayAudio bool

	// SampleRate in Hz. Zero means [audio.DefaultSampleRate].
	SampleRate int

	// FrameSize is the number of samples per delivered frame. Zero means
	// [audio.DefaultFrameSize].
	FrameSize int
}

// withDefaults fills zero fields with the pipeline defaults.
func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.FrameSize <= 0 {
		c.FrameSize = audio.DefaultFrameSize
	}
	return c
}

// Handle is an active audio acquisition.
//
// The frame stream is lazy, infinite, and non-restartable: frames keep
// arriving while the underlying device runs, and once [Handle.Release] is
// called the stream ends for good — acquire a new handle to capture again.
type Handle interface {
	// Frames returns the channel on which captured frames arrive, in capture
	// order. The channel is closed when the handle is released or the device
	// fails. Slow consumers cause frames to be dropped, never reordered.
	Frames() <-chan audio.Frame

	// Release stops all underlying capture tracks and closes the Frames
	// channel. It is safe to call more than once; subsequent calls are
	// no-ops and return nil. Callers must guarantee Release on every exit
	// path so the platform's "microphone in use" indicator is cleared.
	Release() error
}

// Source acquires live audio from a platform device.
type Source interface {
	// Acquire opens a capture stream per cfg. When cfg.PreferDisplayAudio is
	// set the source first attempts system/display audio and falls back to
	// microphone-only capture on failure. Returns [ErrUnavailable] if both
	// attempts fail. The ctx governs only the acquisition attempt; the
	// returned Handle lives until Release.
	Acquire(ctx context.Context, cfg Config) (Handle, error)
}
