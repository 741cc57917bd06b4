package meeting

import (
	"strings"
	"sync"
)

// InterruptionMarker is appended to the answer transcript when the model's
// turn is cut off mid-stream, so the reader can see where audio stopped.
const InterruptionMarker = " [interrupted]"

// Transcript accumulates the two text streams of a live meeting: what the
// interviewer was heard saying and what the model answered. Both buffers are
// fed exclusively by session event handlers; UI or logging code reads
// snapshots. Safe for concurrent use.
type Transcript struct {
	mu          sync.Mutex
	interviewer strings.Builder
	answer      strings.Builder
}

// AppendInterviewer appends an input transcription delta to the
// interviewer-heard buffer.
func (t *Transcript) AppendInterviewer(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interviewer.WriteString(text)
}

// AppendAnswer appends an output transcription delta to the answer buffer.
func (t *Transcript) AppendAnswer(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.answer.WriteString(text)
}

// MarkInterrupted appends a visible interruption marker to the answer
// buffer.
func (t *Transcript) MarkInterrupted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.answer.WriteString(InterruptionMarker)
}

// ClearInterviewer empties the interviewer-heard buffer, making room for
// the next question.
func (t *Transcript) ClearInterviewer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interviewer.Reset()
}

// Reset empties both buffers. Called at meeting start so a reused
// orchestrator never carries text across sessions.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interviewer.Reset()
	t.answer.Reset()
}

// Interviewer returns a snapshot of the interviewer-heard buffer.
func (t *Transcript) Interviewer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interviewer.String()
}

// Answer returns a snapshot of the answer buffer.
func (t *Transcript) Answer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.answer.String()
}
