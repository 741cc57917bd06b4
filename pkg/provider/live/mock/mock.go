// Package mock provides in-memory mock implementations of the
// [live.Provider] and [live.SessionHandle] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments; events are injected
// into a session with [Session.Emit] and the stream is ended with
// [Session.End].
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live"
)

// Compile-time interface assertions.
var (
	_ live.Provider      = (*Provider)(nil)
	_ live.SessionHandle = (*Session)(nil)
)

// ─── Provider ─────────────────────────────────────────────────────────────────

// Provider is a mock implementation of [live.Provider].
// Set the exported Result fields before use; inspect ConnectCalls after.
type Provider struct {
	mu sync.Mutex

	// ConnectResult is the [live.SessionHandle] returned by Connect.
	ConnectResult live.SessionHandle

	// ConnectError is the error returned by Connect.
	ConnectError error

	// CapabilitiesResult is returned by Capabilities.
	CapabilitiesResult live.Capabilities

	// ConnectCalls records the configuration of every Connect invocation.
	ConnectCalls []live.SessionConfig
}

// Connect implements [live.Provider]. Records the call and returns
// ConnectResult / ConnectError.
func (p *Provider) Connect(_ context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, cfg)
	return p.ConnectResult, p.ConnectError
}

// Capabilities implements [live.Provider].
func (p *Provider) Capabilities() live.Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CapabilitiesResult
}

// Calls returns a copy of all recorded Connect configurations.
func (p *Provider) Calls() []live.SessionConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]live.SessionConfig, len(p.ConnectCalls))
	copy(out, p.ConnectCalls)
	return out
}

// ─── Session ──────────────────────────────────────────────────────────────────

// Session is a scriptable mock implementation of [live.SessionHandle].
// Tests drive the event stream with [Session.Emit] and [Session.End].
type Session struct {
	mu sync.Mutex

	// SendAudioError is returned by every SendAudio call while the session
	// is open.
	SendAudioError error

	// SentChunks records every chunk passed to SendAudio, in order.
	SentChunks []audio.Chunk

	// CallCountClose records how many times Close was called.
	CallCountClose int

	events chan live.Event
	state  live.State
	errVal error
	ended  bool
}

// NewSession creates an open Session whose event channel has the given
// buffer depth.
func NewSession(buf int) *Session {
	return &Session{
		events: make(chan live.Event, buf),
		state:  live.StateOpen,
	}
}

// SendAudio implements [live.SessionHandle]. Records the chunk and returns
// SendAudioError, or an error wrapping [live.ErrSessionClosed] after End.
func (s *Session) SendAudio(chunk audio.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("mock: send audio: %w", live.ErrSessionClosed)
	}
	s.SentChunks = append(s.SentChunks, chunk)
	return s.SendAudioError
}

// Events implements [live.SessionHandle].
func (s *Session) Events() <-chan live.Event { return s.events }

// State implements [live.SessionHandle].
func (s *Session) State() live.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err implements [live.SessionHandle].
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close implements [live.SessionHandle]. The first call ends the event
// stream cleanly; later calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	s.CallCountClose++
	s.mu.Unlock()
	s.End(nil)
	return nil
}

// Emit delivers one event to the consumer. Blocks if the channel buffer is
// full; reports false if the session has already ended.
func (s *Session) Emit(ev live.Event) bool {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.events <- ev
	return true
}

// End terminates the event stream. A non-nil err is recorded as the session
// error and emitted as an EventError before the terminal EventClosed. End is
// idempotent.
func (s *Session) End(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.state = live.StateClosed
	if err != nil && s.errVal == nil {
		s.errVal = err
	}
	s.mu.Unlock()

	if err != nil {
		s.events <- live.Event{Type: live.EventError, Err: err}
	}
	s.events <- live.Event{Type: live.EventClosed}
	close(s.events)
}

// Sent returns a copy of all chunks sent so far.
func (s *Session) Sent() []audio.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audio.Chunk, len(s.SentChunks))
	copy(out, s.SentChunks)
	return out
}
