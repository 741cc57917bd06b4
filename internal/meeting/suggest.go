package meeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/observe"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/playback"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/llm"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/tts"
)

// Suggestion is one generated answer suggestion tied to the interviewer
// question that prompted it.
type Suggestion struct {
	Question string
	Answer   string
}

// Suggester turns a captured interviewer question into a suggested answer
// using a text LLM, optionally speaking the result through the playback
// scheduler.
type Suggester struct {
	llm     llm.Provider
	tts     tts.Synthesizer
	voice   string
	metrics *observe.Metrics
}

// NewSuggester builds a Suggester. tts may be nil to disable speech;
// metrics may be nil to disable instrumentation.
func NewSuggester(p llm.Provider, synth tts.Synthesizer, voice string, m *observe.Metrics) *Suggester {
	return &Suggester{llm: p, tts: synth, voice: voice, metrics: m}
}

// Suggest generates a suggested answer for question, grounded in the
// candidate's background. The model's reply is consumed as a stream and
// accumulated into the final answer; a mid-stream failure discards the
// partial text. When a synthesizer is configured and sched is non-nil, the
// suggestion is also synthesised and enqueued for playback.
func (s *Suggester) Suggest(ctx context.Context, candidate, background, question string, sched *playback.Scheduler) (Suggestion, error) {
	ctx, span := observe.StartSpan(ctx, "meeting.Suggest")
	defer span.End()
	log := observe.Logger(ctx)

	req := llm.CompletionRequest{
		SystemPrompt: buildSuggestPrompt(candidate, background),
		Messages: []llm.Message{
			{Role: "user", Content: question},
		},
	}

	start := time.Now()
	answer, err := s.streamAnswer(ctx, req)
	if s.metrics != nil {
		s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSuggestion(ctx, "error")
		}
		return Suggestion{}, fmt.Errorf("meeting: suggest: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSuggestion(ctx, "ok")
	}

	sug := Suggestion{Question: question, Answer: answer}

	if s.tts != nil && sched != nil && sug.Answer != "" {
		start = time.Now()
		chunk, err := s.tts.Synthesize(ctx, sug.Answer, s.voice)
		if s.metrics != nil {
			s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
		}
		if err != nil {
			// The text suggestion is still useful without speech.
			log.Warn("suggestion speech synthesis failed", "err", err)
			if s.metrics != nil {
				s.metrics.RecordProviderError(ctx, "tts", "synthesize")
			}
			return sug, nil
		}
		sched.Enqueue(chunk)
	}

	return sug, nil
}

// streamAnswer drains a streaming completion into the full answer text. A
// chunk with FinishReason "error" carries the failure description in its
// Text field.
func (s *Suggester) streamAnswer(ctx context.Context, req llm.CompletionRequest) (string, error) {
	chunks, err := s.llm.StreamCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var streamErr error
	for chunk := range chunks {
		if streamErr != nil {
			continue // drain the remainder so the producer can exit
		}
		if chunk.FinishReason == "error" {
			streamErr = fmt.Errorf("stream failed: %s", chunk.Text)
			continue
		}
		b.WriteString(chunk.Text)
	}
	if streamErr != nil {
		return "", streamErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// buildSuggestPrompt assembles the system instruction grounding suggested
// answers in the candidate's background material.
func buildSuggestPrompt(candidate, background string) string {
	var b strings.Builder
	b.WriteString("You are an interview assistant. The user is a job candidate")
	if candidate != "" {
		b.WriteString(" named ")
		b.WriteString(candidate)
	}
	b.WriteString(" in a live interview. Given an interviewer question, reply with a concise, ")
	b.WriteString("first-person answer the candidate could say out loud. ")
	b.WriteString("Ground every claim in the candidate background below; do not invent experience.\n\n")
	b.WriteString("Candidate background:\n")
	b.WriteString(background)
	return b.String()
}
