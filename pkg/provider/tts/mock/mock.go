// Package mock provides an in-memory mock implementation of the
// [tts.Synthesizer] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// SynthesizeCall records the arguments of a single Synthesize invocation.
type SynthesizeCall struct {
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the voice passed to Synthesize.
	Voice string
}

// Synthesizer is a mock implementation of [tts.Synthesizer].
// Set the exported Result fields before use; inspect SynthesizeCalls after.
type Synthesizer struct {
	mu sync.Mutex

	// SynthesizeResult is the chunk returned by Synthesize.
	SynthesizeResult audio.Chunk

	// SynthesizeError is the error returned by Synthesize.
	SynthesizeError error

	// SynthesizeCalls records all Synthesize invocations.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize implements [tts.Synthesizer]. Records the call and returns
// SynthesizeResult / SynthesizeError.
func (s *Synthesizer) Synthesize(_ context.Context, text, voice string) (audio.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	return s.SynthesizeResult, s.SynthesizeError
}

// Calls returns a copy of all recorded invocations.
func (s *Synthesizer) Calls() []SynthesizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SynthesizeCall, len(s.SynthesizeCalls))
	copy(out, s.SynthesizeCalls)
	return out
}
