// Package live defines the Provider interface for real-time speech backends.
//
// A live provider wraps a duplex streaming model service that accepts raw
// audio input and returns synthesised audio output plus transcriptions in a
// single stateful session. The central abstraction is [SessionHandle]: audio
// goes in via SendAudio, and everything the model produces comes back on one
// ordered event channel, so consumers see chunks, interruptions, transcript
// deltas, and turn boundaries exactly in arrival order.
//
// All implementations must be safe for concurrent use.
package live

import (
	"context"
	"errors"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Sentinel errors returned by providers and sessions. Wrap them with
// fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrAuth indicates the backend rejected the configured credentials.
	ErrAuth = errors.New("live: authentication rejected")

	// ErrConnection indicates the session could not be established or the
	// transport failed mid-session.
	ErrConnection = errors.New("live: connection failed")

	// ErrSessionClosed is returned by operations on a session that has ended.
	ErrSessionClosed = errors.New("live: session closed")
)

// State identifies where a session is in its lifecycle. Transitions are
// one-way: Idle → Opening → Open → Closing → Closed. A closed session is
// never reused; reconnection means a fresh Connect.
type State int32

const (
	StateIdle State = iota
	StateOpening
	StateOpen
	StateClosing
	StateClosed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType discriminates the variants of [Event].
type EventType int

const (
	// EventAudioChunk carries a PCM chunk of synthesised model speech.
	EventAudioChunk EventType = iota

	// EventInterrupted signals the model abandoned its in-flight response,
	// typically because new speech arrived. Audio already delivered for the
	// abandoned response should be discarded by the consumer.
	EventInterrupted

	// EventInputTranscriptionDelta carries an incremental transcription of
	// what the session heard (the far side's speech).
	EventInputTranscriptionDelta

	// EventOutputTranscriptionDelta carries an incremental transcription of
	// the model's own spoken output.
	EventOutputTranscriptionDelta

	// EventTurnComplete marks the end of a model turn: all audio and
	// transcription deltas for the turn have been delivered.
	EventTurnComplete

	// EventError reports a mid-session error. Fatal errors are followed by
	// EventClosed; non-fatal ones are informational.
	EventError

	// EventClosed is the terminal event. After it the event channel closes
	// and no further events arrive.
	EventClosed
)

// String returns a short name for the event type, used in logs.
func (t EventType) String() string {
	switch t {
	case EventAudioChunk:
		return "audio_chunk"
	case EventInterrupted:
		return "interrupted"
	case EventInputTranscriptionDelta:
		return "input_transcription"
	case EventOutputTranscriptionDelta:
		return "output_transcription"
	case EventTurnComplete:
		return "turn_complete"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one item on a session's ordered event stream. Only the fields
// relevant to Type are set: Audio for EventAudioChunk, Text for the
// transcription deltas, Err for EventError.
type Event struct {
	Type  EventType
	Audio audio.Chunk
	Text  string
	Err   error
}

// SessionConfig is the initial configuration for a new live session.
type SessionConfig struct {
	// Instructions is the system-level prompt establishing the model's role
	// and the background it should ground its responses in. Must be non-empty.
	Instructions string

	// Voice selects the synthesised output voice. Empty uses the provider
	// default.
	Voice string

	// Model overrides the provider's default model. Empty uses the default.
	Model string
}

// Capabilities describes static properties of a live provider. The values
// are assumed constant for the lifetime of the Provider instance.
type Capabilities struct {
	// MaxSessionDuration is the provider's hard upper bound on session
	// lifetime in milliseconds. Zero means no documented limit.
	MaxSessionDurationMs int

	// Voices lists the voice names accepted in [SessionConfig.Voice].
	Voices []string
}

// SessionHandle represents an open live session.
//
// The session is the hot path of the audio pipeline: SendAudio must return
// quickly and never block on the network. Consumers must drain Events
// promptly to prevent backpressure from stalling the provider's receive
// loop. All methods are safe for concurrent use.
//
// Callers must call Close when the session is no longer needed.
type SessionHandle interface {
	// SendAudio delivers a PCM chunk to the model. It buffers the chunk for
	// asynchronous transmission and returns without waiting for the network.
	// Returns an error wrapping [ErrSessionClosed] once the session has
	// ended, or [ErrConnection] if the outbound buffer is full.
	SendAudio(chunk audio.Chunk) error

	// Events returns the session's ordered event stream. Events arrive
	// one at a time, in the order the backend produced them. The channel
	// closes after [EventClosed] is delivered.
	Events() <-chan Event

	// State reports the session's current lifecycle state.
	State() State

	// Err returns the error that ended the session, or nil if it ended
	// cleanly. Meaningful once the event channel has closed.
	Err() error

	// Close terminates the session and releases all resources. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any live speech backend.
type Provider interface {
	// Connect establishes a new session with the given configuration. The
	// returned SessionHandle is ready to accept audio immediately. Errors
	// wrap [ErrAuth] for credential failures and [ErrConnection] for
	// transport failures; ctx bounds the connection attempt.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)

	// Capabilities returns static metadata about the backing model.
	Capabilities() Capabilities
}
