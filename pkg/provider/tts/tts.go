// Package tts defines the Synthesizer interface for Text-to-Speech backends.
//
// A TTS synthesizer turns a suggested answer into spoken PCM audio so it can
// be read back through the playback scheduler. Synthesis here is one-shot
// request/response rather than streaming: suggested answers are short and
// are only spoken when the candidate explicitly asks for it.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// ErrNoAudioData indicates the backend accepted the request but returned a
// response with no audio payload.
var ErrNoAudioData = errors.New("tts: response contained no audio data")

// Synthesizer is the abstraction over any TTS backend.
type Synthesizer interface {
	// Synthesize converts text into a PCM chunk using the given voice. An
	// empty voice uses the backend default. Returns an error wrapping
	// [ErrNoAudioData] when the backend responds without audio.
	Synthesize(ctx context.Context, text, voice string) (audio.Chunk, error)
}
