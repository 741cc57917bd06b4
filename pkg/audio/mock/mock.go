// Package mock provides in-memory mock implementations of the
// [capture.Source], [capture.Handle], and [playback.Player] interfaces for
// use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	handle := mock.NewHandle(16)
//	source := &mock.Source{AcquireResult: handle}
//	got, err := source.Acquire(ctx, capture.Config{})
//	handle.Emit(audio.Frame{Samples: samples, SampleRate: 16000, Channels: 1})
package mock

import (
	"context"
	"sync"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/capture"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/playback"
)

// Compile-time interface assertions.
var (
	_ capture.Source  = (*Source)(nil)
	_ capture.Handle  = (*Handle)(nil)
	_ playback.Player = (*Player)(nil)
)

// ─── Source ───────────────────────────────────────────────────────────────────

// AcquireCall records the arguments of a single [Source.Acquire] invocation.
type AcquireCall struct {
	// Config is the configuration passed to Acquire.
	Config capture.Config
}

// Source is a mock implementation of [capture.Source].
// Set the exported Result fields before use; inspect AcquireCalls after.
type Source struct {
	mu sync.Mutex

	// AcquireResult is the [capture.Handle] returned by Acquire.
	AcquireResult capture.Handle

	// AcquireError is the error returned by Acquire.
	AcquireError error

	// AcquireCalls records all Acquire invocations.
	AcquireCalls []AcquireCall
}

// Acquire implements [capture.Source]. Records the call and returns
// AcquireResult / AcquireError.
func (s *Source) Acquire(_ context.Context, cfg capture.Config) (capture.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AcquireCalls = append(s.AcquireCalls, AcquireCall{Config: cfg})
	return s.AcquireResult, s.AcquireError
}

// ─── Handle ───────────────────────────────────────────────────────────────────

// Handle is a mock implementation of [capture.Handle]. Frames are injected
// via [Handle.Emit] and delivered on the Frames channel; [Handle.Release]
// closes the channel.
type Handle struct {
	mu sync.Mutex

	// ReleaseError is returned by the first call to Release.
	ReleaseError error

	// CallCountRelease records how many times Release was called.
	CallCountRelease int

	frames   chan audio.Frame
	released bool
}

// NewHandle creates a Handle whose frame channel has the given buffer depth.
func NewHandle(buf int) *Handle {
	return &Handle{frames: make(chan audio.Frame, buf)}
}

// Frames implements [capture.Handle].
func (h *Handle) Frames() <-chan audio.Frame { return h.frames }

// Release implements [capture.Handle]. The first call closes the frame
// channel and returns ReleaseError; later calls are no-ops returning nil.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CallCountRelease++
	if h.released {
		return nil
	}
	h.released = true
	close(h.frames)
	return h.ReleaseError
}

// Emit delivers frame to the consumer. It blocks if the channel buffer is
// full and reports false once the handle has been released.
func (h *Handle) Emit(frame audio.Frame) bool {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()
	h.frames <- frame
	return true
}

// ─── Player ───────────────────────────────────────────────────────────────────

// Player is a mock implementation of [playback.Player].
type Player struct {
	mu sync.Mutex

	// WriteError is returned by every Write call.
	WriteError error

	// CloseError is returned by Close.
	CloseError error

	// WriteCalls records every chunk passed to Write, in order.
	WriteCalls []audio.Chunk

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// Write implements [playback.Player]. Records the chunk and returns WriteError.
func (p *Player) Write(chunk audio.Chunk) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.WriteCalls = append(p.WriteCalls, chunk)
	return p.WriteError
}

// Close implements [playback.Player]. Returns CloseError.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountClose++
	return p.CloseError
}

// Written returns a copy of all chunks written so far.
func (p *Player) Written() []audio.Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audio.Chunk, len(p.WriteCalls))
	copy(out, p.WriteCalls)
	return out
}
