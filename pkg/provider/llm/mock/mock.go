// Package mock provides an in-memory mock implementation of the
// [llm.Provider] interface for use in unit tests.
//
// The mock is safe for concurrent use. It records every request so that
// tests can assert on call counts and prompts, and exposes exported fields
// to control return values.
package mock

import (
	"context"
	"sync"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/llm"
)

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider is a mock implementation of [llm.Provider].
// Set the exported fields before use; inspect the recorded calls after.
type Provider struct {
	mu sync.Mutex

	// StreamChunks are emitted, in order, by the channel StreamCompletion
	// returns. The channel closes once they are exhausted.
	StreamChunks []llm.Chunk

	// StreamError is the error returned by StreamCompletion itself.
	StreamError error

	// StreamCalls records all StreamCompletion invocations.
	StreamCalls []llm.CompletionRequest
}

// StreamCompletion implements [llm.Provider]. Records the call and returns a
// channel fed with StreamChunks.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	p.mu.Lock()
	p.StreamCalls = append(p.StreamCalls, req)
	chunks := make([]llm.Chunk, len(p.StreamChunks))
	copy(chunks, p.StreamChunks)
	err := p.StreamError
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}

	ch := make(chan llm.Chunk, len(chunks))
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Calls returns a copy of all recorded StreamCompletion requests.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.StreamCalls))
	copy(out, p.StreamCalls)
	return out
}
