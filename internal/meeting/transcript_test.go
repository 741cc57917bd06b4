package meeting_test

import (
	"testing"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/meeting"
)

func TestTranscript_Accumulates(t *testing.T) {
	t.Parallel()
	var tr meeting.Transcript

	tr.AppendInterviewer("Tell me about")
	tr.AppendInterviewer(" your team")
	tr.AppendAnswer("I led")
	tr.AppendAnswer(" a team")

	if got := tr.Interviewer(); got != "Tell me about your team" {
		t.Errorf("Interviewer() = %q", got)
	}
	if got := tr.Answer(); got != "I led a team" {
		t.Errorf("Answer() = %q", got)
	}
}

func TestTranscript_ClearInterviewerKeepsAnswer(t *testing.T) {
	t.Parallel()
	var tr meeting.Transcript

	tr.AppendInterviewer("question")
	tr.AppendAnswer("answer")
	tr.ClearInterviewer()

	if tr.Interviewer() != "" {
		t.Error("interviewer buffer not cleared")
	}
	if tr.Answer() != "answer" {
		t.Error("answer buffer must survive ClearInterviewer")
	}
}

func TestTranscript_MarkInterrupted(t *testing.T) {
	t.Parallel()
	var tr meeting.Transcript

	tr.AppendAnswer("I was saying")
	tr.MarkInterrupted()

	if got := tr.Answer(); got != "I was saying"+meeting.InterruptionMarker {
		t.Errorf("Answer() = %q", got)
	}
}

func TestTranscript_Reset(t *testing.T) {
	t.Parallel()
	var tr meeting.Transcript

	tr.AppendInterviewer("q")
	tr.AppendAnswer("a")
	tr.Reset()

	if tr.Interviewer() != "" || tr.Answer() != "" {
		t.Error("Reset must empty both buffers")
	}
}
