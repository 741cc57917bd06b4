// Package meeting owns the lifecycle of one live interview session: it
// acquires the capture device, opens the streaming model session, pumps
// captured frames upstream and model events into playback and transcript
// state, and tears everything down again.
//
// A meeting moves through the states Inactive → Connecting → Active ⇄
// Paused → Ending → Inactive. At most one meeting is live per Orchestrator;
// Start fails while one is running. Stop is idempotent and callable from
// any state, including while Connecting — it hard-cancels the in-flight
// connection attempt.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/internal/observe"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/capture"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio/playback"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live"
)

// ErrMissingContext is returned by Start when no candidate background text
// is configured. The meeting refuses to start before acquiring any resource
// so there is nothing to unwind.
var ErrMissingContext = errors.New("meeting: candidate background is empty")

// ErrAlreadyActive is returned by Start while a meeting is live.
var ErrAlreadyActive = errors.New("meeting: a meeting is already active")

// State is the orchestrator lifecycle state.
type State int32

const (
	StateInactive State = iota
	StateConnecting
	StateActive
	StatePaused
	StateEnding
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateEnding:
		return "ending"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config carries the per-meeting settings the orchestrator needs.
type Config struct {
	// Candidate is the candidate's display name, used in prompts.
	Candidate string

	// Background is the candidate background text grounding the model.
	// Must be non-empty.
	Background string

	// Capture configures the audio capture source.
	Capture capture.Config

	// Model and Voice are passed through to the live provider.
	Model string
	Voice string

	// ConnectTimeout bounds session establishment. Zero waits until the
	// Start context is cancelled.
	ConnectTimeout time.Duration

	// PlaybackRate is the output device sample rate in Hz.
	PlaybackRate int
}

// Deps are the collaborators a meeting is wired from. Capture, Live, and
// OpenPlayer are required; Suggester and Metrics are optional.
type Deps struct {
	Capture    capture.Source
	Live       live.Provider
	OpenPlayer playback.OpenFunc
	Suggester  *Suggester
	Metrics    *observe.Metrics
}

// Orchestrator runs one live meeting at a time. All exported methods are
// safe for concurrent use.
type Orchestrator struct {
	deps Deps
	cfg  Config

	state  atomic.Int32
	paused atomic.Bool

	// mu serialises Start, Stop, Pause, and Resume and guards the
	// per-meeting fields below.
	mu      sync.Mutex
	id      string
	handle  capture.Handle
	session live.SessionHandle
	sched   *playback.Scheduler
	group   *errgroup.Group

	// cancel aborts the meeting context. It has its own lock so Stop can
	// fire it while Start still holds mu inside a stalled Connect.
	cancelMu sync.Mutex
	cancel   context.CancelFunc

	suggestWG sync.WaitGroup

	errMu   sync.Mutex
	lastErr error

	transcript  Transcript
	suggestions chan Suggestion
}

// New creates an inactive Orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		deps:        deps,
		suggestions: make(chan Suggestion, 8),
	}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Transcript returns the meeting's transcript state. The same instance is
// reused across meetings; it is reset on every Start.
func (o *Orchestrator) Transcript() *Transcript {
	return &o.transcript
}

// Suggestions returns the stream of generated answer suggestions. The
// channel is never closed; suggestions produced while the consumer lags
// are dropped.
func (o *Orchestrator) Suggestions() <-chan Suggestion {
	return o.suggestions
}

// Err returns the error that ended the last meeting, or nil if it ended by
// request.
func (o *Orchestrator) Err() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.lastErr
}

// Start brings up a meeting: acquire capture, connect the live session,
// start the playback scheduler, and launch the pump goroutines. On any
// failure every resource acquired so far is released before the error is
// returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.cfg.Background == "" {
		return ErrMissingContext
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if State(o.state.Load()) != StateInactive {
		return fmt.Errorf("%w (state %s)", ErrAlreadyActive, o.State())
	}
	o.state.Store(int32(StateConnecting))

	// The meeting outlives the Start call; Stop cancels it.
	mctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.setCancel(cancel)
	o.id = uuid.NewString()

	o.setErr(nil)
	o.transcript.Reset()
	o.paused.Store(false)

	handle, err := o.deps.Capture.Acquire(mctx, o.cfg.Capture)
	if err != nil {
		o.unwindLocked(nil, nil, nil)
		return fmt.Errorf("meeting: acquire capture: %w", err)
	}

	connectCtx := mctx
	if o.cfg.ConnectTimeout > 0 {
		var connectCancel context.CancelFunc
		connectCtx, connectCancel = context.WithTimeout(mctx, o.cfg.ConnectTimeout)
		defer connectCancel()
	}
	start := time.Now()
	session, err := o.deps.Live.Connect(connectCtx, live.SessionConfig{
		Instructions: buildLiveInstructions(o.cfg.Candidate, o.cfg.Background),
		Voice:        o.cfg.Voice,
		Model:        o.cfg.Model,
	})
	if err != nil {
		o.unwindLocked(handle, nil, nil)
		return fmt.Errorf("meeting: connect session: %w", err)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.SessionConnectDuration.Record(mctx, time.Since(start).Seconds())
	}

	sched := playback.New(o.deps.OpenPlayer, playback.WithSampleRate(o.cfg.PlaybackRate))

	o.handle = handle
	o.session = session
	o.sched = sched

	g, gctx := errgroup.WithContext(mctx)
	o.group = g
	// The event pump ending, for any reason, means the meeting is over;
	// pctx takes the capture pump down with it.
	pctx, pcancel := context.WithCancel(gctx)
	g.Go(func() error {
		defer pcancel()
		return o.pumpEvents(pctx, session, sched)
	})
	g.Go(func() error { return o.pumpCapture(pctx, handle, session) })
	go o.supervise(mctx, g)

	o.state.Store(int32(StateActive))
	if o.deps.Metrics != nil {
		o.deps.Metrics.ActiveSessions.Add(mctx, 1)
	}
	slog.Info("meeting started", "meeting_id", o.id, "candidate", o.cfg.Candidate)
	return nil
}

// Pause suppresses both directions of the audio pipeline without touching
// the session: captured frames are dropped before encoding and inbound
// chunks are dropped by the scheduler. Transcript mutation freezes.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if State(o.state.Load()) != StateActive {
		return fmt.Errorf("meeting: pause: not active (state %s)", o.State())
	}
	o.state.Store(int32(StatePaused))
	o.paused.Store(true)
	o.sched.Suppress(true)
	slog.Info("meeting paused", "meeting_id", o.id)
	return nil
}

// Resume lifts the suppression set by Pause. Frames dropped while paused
// are gone; capture resumes from the next live frame.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if State(o.state.Load()) != StatePaused {
		return fmt.Errorf("meeting: resume: not paused (state %s)", o.State())
	}
	o.state.Store(int32(StateActive))
	o.paused.Store(false)
	o.sched.Suppress(false)
	slog.Info("meeting resumed", "meeting_id", o.id)
	return nil
}

// Stop tears the meeting down in reverse acquisition order: close the
// session, release the capture device, then drain and stop playback. It is
// idempotent and safe from any state; called while Connecting it cancels
// the in-flight connection attempt and returns once Start has unwound.
func (o *Orchestrator) Stop(ctx context.Context) error {
	// Cancel first, without taking mu, so a Start blocked inside Connect
	// unwinds and releases mu to us.
	o.cancelMu.Lock()
	cancel := o.cancel
	o.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if State(o.state.Load()) == StateInactive {
		return nil
	}
	o.state.Store(int32(StateEnding))
	slog.Info("meeting stopping", "meeting_id", o.id)

	err := o.unwindLocked(o.handle, o.session, o.sched)

	if o.deps.Metrics != nil {
		o.deps.Metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}
	slog.Info("meeting stopped", "meeting_id", o.id)
	return err
}

// unwindLocked releases whatever subset of meeting resources has been
// acquired, in reverse order, and resets the orchestrator to Inactive.
// Callers must hold mu. Only non-nil resources are touched, so it serves
// both Start's partial-failure paths and the full Stop teardown.
func (o *Orchestrator) unwindLocked(handle capture.Handle, session live.SessionHandle, sched *playback.Scheduler) error {
	o.cancelMu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.cancelMu.Unlock()

	var errs []error
	if session != nil {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}
	if handle != nil {
		if err := handle.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release capture: %w", err))
		}
		// The pumps are already cancelled; drain whatever the device
		// emits until Release closes the stream.
		go audio.Drain(handle.Frames())
	}
	if o.group != nil {
		_ = o.group.Wait()
	}
	o.suggestWG.Wait()
	if sched != nil {
		sched.Interrupt()
		drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Second)
		if err := sched.DrainAndStop(drainCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop playback: %w", err))
		}
		drainCancel()
	}

	o.handle = nil
	o.session = nil
	o.sched = nil
	o.group = nil
	o.setCancel(nil)
	o.paused.Store(false)
	o.state.Store(int32(StateInactive))

	if len(errs) > 0 {
		return fmt.Errorf("meeting: teardown: %w", errors.Join(errs...))
	}
	return nil
}

// supervise tears the meeting down when the pumps stop on their own, e.g.
// because the remote side closed the session or the capture stream ended.
// A Stop-initiated shutdown cancels mctx first, in which case there is
// nothing left to do.
func (o *Orchestrator) supervise(mctx context.Context, g *errgroup.Group) {
	err := g.Wait()
	if mctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Warn("meeting ended unexpectedly", "meeting_id", o.id, "err", err)
		o.setErr(err)
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordProviderError(mctx, "live", "session")
		}
	}
	if err := o.Stop(context.Background()); err != nil {
		slog.Warn("teardown after session loss", "meeting_id", o.id, "err", err)
	}
}

// pumpCapture forwards captured frames to the session, encoding each frame
// to 16-bit PCM. Frames arriving while paused are dropped, not buffered.
func (o *Orchestrator) pumpCapture(ctx context.Context, handle capture.Handle, session live.SessionHandle) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-handle.Frames():
			if !ok {
				return errors.New("meeting: capture stream ended")
			}
			if o.paused.Load() {
				continue
			}
			chunk := audio.EncodeFrame(frame.Samples, frame.SampleRate, frame.Channels)
			if err := session.SendAudio(chunk); err != nil {
				if errors.Is(err, live.ErrSessionClosed) {
					return nil
				}
				// Transmission is best-effort; a full outbound buffer
				// drops the frame rather than stalling capture.
				slog.Debug("dropping captured frame", "err", err)
				continue
			}
			if o.deps.Metrics != nil {
				o.deps.Metrics.FramesSent.Add(ctx, 1)
			}
		}
	}
}

// pumpEvents applies the session's ordered event stream to playback and
// transcript state. While paused, everything except the session's own
// terminal events is dropped.
func (o *Orchestrator) pumpEvents(ctx context.Context, session live.SessionHandle, sched *playback.Scheduler) error {
	for {
		var ev live.Event
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case ev, ok = <-session.Events():
			if !ok {
				return session.Err()
			}
		}

		switch ev.Type {
		case live.EventAudioChunk:
			sched.Enqueue(ev.Audio)
			if o.deps.Metrics != nil && !o.paused.Load() {
				o.deps.Metrics.ChunksPlayed.Add(ctx, 1)
			}
		case live.EventInterrupted:
			if o.paused.Load() {
				continue
			}
			o.transcript.MarkInterrupted()
			sched.Interrupt()
			if o.deps.Metrics != nil {
				o.deps.Metrics.Interruptions.Add(ctx, 1)
			}
		case live.EventInputTranscriptionDelta:
			if o.paused.Load() {
				continue
			}
			o.transcript.AppendInterviewer(ev.Text)
		case live.EventOutputTranscriptionDelta:
			if o.paused.Load() {
				continue
			}
			o.transcript.AppendAnswer(ev.Text)
		case live.EventTurnComplete:
			if o.paused.Load() {
				continue
			}
			question := o.transcript.Interviewer()
			o.transcript.ClearInterviewer()
			if o.deps.Metrics != nil {
				o.deps.Metrics.Turns.Add(ctx, 1)
			}
			if o.deps.Suggester != nil && question != "" {
				o.suggestWG.Add(1)
				go o.runSuggestion(ctx, question, sched)
			}
		case live.EventError:
			slog.Warn("session error", "meeting_id", o.id, "err", ev.Err)
			if o.deps.Metrics != nil {
				o.deps.Metrics.RecordProviderError(ctx, "live", "event")
			}
		case live.EventClosed:
			// The channel closes right after; loop back to pick up
			// session.Err via the closed-channel branch.
		}
	}
}

// runSuggestion generates a suggested answer for one completed interviewer
// turn and publishes it. Runs off the event loop so a slow LLM call never
// delays event processing.
func (o *Orchestrator) runSuggestion(ctx context.Context, question string, sched *playback.Scheduler) {
	defer o.suggestWG.Done()

	sug, err := o.deps.Suggester.Suggest(ctx, o.cfg.Candidate, o.cfg.Background, question, sched)
	if err != nil {
		slog.Warn("suggestion failed", "meeting_id", o.id, "err", err)
		return
	}
	select {
	case o.suggestions <- sug:
	default:
		slog.Debug("suggestion dropped, consumer lagging", "meeting_id", o.id)
	}
}

func (o *Orchestrator) setCancel(cancel context.CancelFunc) {
	o.cancelMu.Lock()
	o.cancel = cancel
	o.cancelMu.Unlock()
}

// setErr records the terminal meeting error.
func (o *Orchestrator) setErr(err error) {
	o.errMu.Lock()
	o.lastErr = err
	o.errMu.Unlock()
}

// buildLiveInstructions assembles the live session's system instruction
// from the candidate material.
func buildLiveInstructions(candidate, background string) string {
	prompt := "You are a live interview assistant answering on behalf of a job candidate"
	if candidate != "" {
		prompt += " named " + candidate
	}
	prompt += ". Listen to the interviewer and answer each question out loud, in the first person, " +
		"concisely and professionally. Ground every answer in the candidate background below; " +
		"do not invent experience.\n\nCandidate background:\n" + background
	return prompt
}
