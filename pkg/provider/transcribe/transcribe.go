// Package transcribe defines the Transcriber interface for streaming
// speech-to-text backends.
//
// A transcriber is the text-only alternative to a full live session: it
// turns captured interviewer audio into transcript segments without any
// model audio coming back. It is used when the candidate wants suggestions
// on screen but no spoken responses, or as a fallback when the live backend
// is unavailable.
//
// Implementations must be safe for concurrent use.
package transcribe

import (
	"context"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Segment is one piece of recognised speech. Interim segments (Final false)
// may be revised by later segments covering the same audio; final segments
// are stable.
type Segment struct {
	// Text is the recognised text.
	Text string

	// Final reports whether this segment is stable.
	Final bool

	// Confidence is the backend's confidence in [0, 1], when reported.
	Confidence float64
}

// StreamConfig configures a transcription stream.
type StreamConfig struct {
	// SampleRate is the PCM sample rate of the audio that will be sent.
	// Zero uses the backend default.
	SampleRate int

	// Language is the BCP-47 language code (e.g., "en", "de-DE"). Empty uses
	// the backend default.
	Language string
}

// Stream is an open transcription session. Callers must call Close when the
// stream is no longer needed and must drain Segments to avoid stalling the
// backend's receive loop.
type Stream interface {
	// SendAudio queues a PCM chunk for recognition.
	SendAudio(chunk audio.Chunk) error

	// Segments returns the channel of recognised segments, in arrival order.
	// The channel is closed when the stream ends.
	Segments() <-chan Segment

	// Close flushes pending audio and terminates the stream. Idempotent.
	Close() error
}

// Transcriber is the abstraction over any streaming STT backend.
type Transcriber interface {
	// Start opens a new transcription stream.
	Start(ctx context.Context, cfg StreamConfig) (Stream, error)
}
