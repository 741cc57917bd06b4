// Package gemini implements the live.Provider interface for Google's Gemini
// Live API.
//
// It establishes a bidirectional WebSocket connection to the Gemini Live
// endpoint and exchanges JSON messages according to the BidiGenerateContent
// protocol. Audio travels as base64-encoded PCM chunks; everything the
// server produces is translated into live.Event values in arrival order.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live"
)

// Compile-time assertions that Provider and session satisfy the live interfaces.
var _ live.Provider = (*Provider)(nil)
var _ live.SessionHandle = (*session)(nil)

const (
	defaultModel   = "gemini-2.0-flash-live-001"
	defaultBaseURL = "wss://generativelanguage.googleapis.com/ws"

	keepaliveInterval = 20 * time.Second
	keepaliveTimeout  = 5 * time.Second

	eventChanBuf    = 64
	outboundChanBuf = 64
)

// ── Options ────────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the default Gemini model used for sessions.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL overrides the base WebSocket URL. Primarily used in tests to
// point at a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// ── Provider ───────────────────────────────────────────────────────────────────

// Provider implements live.Provider for Google's Gemini Live API.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
}

// New creates a new Gemini Live Provider with the given API key and options.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Capabilities returns static metadata about the Gemini Live provider.
func (p *Provider) Capabilities() live.Capabilities {
	return live.Capabilities{
		MaxSessionDurationMs: 15 * 60 * 1000,
		Voices:               []string{"Aoede", "Charon", "Fenrir", "Kore", "Puck"},
	}
}

// Connect establishes a new Gemini Live session. The returned handle accepts
// audio immediately after the setup message is sent; events start arriving
// once the server acknowledges setup.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	wsURL := fmt.Sprintf(
		"%s/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent?key=%s",
		p.baseURL, p.apiKey,
	)

	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Content-Type": []string{"application/json"},
		},
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("gemini: dial: status %d: %w", resp.StatusCode, live.ErrAuth)
		}
		return nil, fmt.Errorf("gemini: dial: %w: %w", live.ErrConnection, err)
	}

	sessCtx, sessCancel := context.WithCancel(context.Background())
	sess := &session{
		conn:     conn,
		events:   make(chan live.Event, eventChanBuf),
		outbound: make(chan []byte, outboundChanBuf),
		done:     make(chan struct{}),
		ctx:      sessCtx,
		cancel:   sessCancel,
	}
	sess.state.Store(int32(live.StateOpening))

	model := p.model
	if cfg.Model != "" {
		model = cfg.Model
	}
	if err := sess.sendSetup(ctx, model, cfg); err != nil {
		sessCancel()
		conn.Close(websocket.StatusInternalError, "setup failed")
		return nil, fmt.Errorf("gemini: setup: %w: %w", live.ErrConnection, err)
	}

	go sess.receiveLoop()
	go sess.writeLoop()
	go sess.keepaliveLoop()

	return sess, nil
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type setupMessage struct {
	Setup setupConfig `json:"setup"`
}

type setupConfig struct {
	Model               string             `json:"model"`
	GenerationConfig    generationConfig   `json:"generationConfig"`
	SystemInstruction   *systemInstruction `json:"systemInstruction,omitempty"`
	InputTranscription  *struct{}          `json:"inputAudioTranscription,omitempty"`
	OutputTranscription *struct{}          `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type systemInstruction struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type serverMessage struct {
	SetupComplete *json.RawMessage `json:"setupComplete,omitempty"`
	ServerContent *serverContent   `json:"serverContent,omitempty"`
	Error         *geminiError     `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type modelTurn struct {
	Parts []part `json:"parts"`
}

type transcription struct {
	Text string `json:"text"`
}

// ── session ────────────────────────────────────────────────────────────────────

type session struct {
	conn     *websocket.Conn
	events   chan live.Event
	outbound chan []byte
	state    atomic.Int32

	mu     sync.Mutex
	errVal error

	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// sendSetup sends the initial BidiGenerateContent setup message. Input and
// output transcription are always requested so the interview transcript can
// be assembled from session events alone.
func (s *session) sendSetup(ctx context.Context, model string, cfg live.SessionConfig) error {
	msg := setupMessage{
		Setup: setupConfig{
			Model: fmt.Sprintf("models/%s", model),
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"audio"},
			},
			InputTranscription:  &struct{}{},
			OutputTranscription: &struct{}{},
		},
	}

	if cfg.Instructions != "" {
		msg.Setup.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: cfg.Instructions}},
		}
	}

	if cfg.Voice != "" {
		msg.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// receiveLoop reads messages from the WebSocket and translates them into
// events. It owns the event channel: it emits the terminal EventClosed and
// closes the channel when it exits.
func (s *session) receiveLoop() {
	defer func() {
		s.state.Store(int32(live.StateClosed))
		if err := s.Err(); err != nil {
			s.emitTerminal(live.Event{Type: live.EventError, Err: err})
		}
		s.emitTerminal(live.Event{Type: live.EventClosed})
		close(s.events)
	}()

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			// Close() cancels the context; that is a clean shutdown, as is
			// a normal closure initiated by the server.
			if s.ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				s.cancel()
				return
			}
			s.setErr(fmt.Errorf("gemini: read: %w: %w", live.ErrConnection, err))
			s.cancel()
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("dropping malformed server message", "err", err)
			continue
		}

		s.handleServerMessage(&msg)
	}
}

func (s *session) handleServerMessage(msg *serverMessage) {
	if msg.SetupComplete != nil {
		s.state.CompareAndSwap(int32(live.StateOpening), int32(live.StateOpen))
	}
	if msg.Error != nil {
		text := msg.Error.Message
		if text == "" {
			text = "unknown error"
		}
		s.emit(live.Event{Type: live.EventError, Err: fmt.Errorf("gemini: %s", text)})
	}
	if msg.ServerContent != nil {
		s.handleServerContent(msg.ServerContent)
	}
}

// handleServerContent emits the events carried by one serverContent message.
// An interruption is emitted before any content so consumers discard stale
// audio first; turnComplete is emitted last.
func (s *session) handleServerContent(sc *serverContent) {
	if sc.Interrupted {
		s.emit(live.Event{Type: live.EventInterrupted})
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		s.emit(live.Event{Type: live.EventInputTranscriptionDelta, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		s.emit(live.Event{Type: live.EventOutputTranscriptionDelta, Text: sc.OutputTranscription.Text})
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil {
				continue
			}
			pcm, err := audio.FromTransportText(p.InlineData.Data)
			if err != nil || len(pcm) == 0 {
				if err != nil {
					slog.Debug("dropping malformed audio part", "err", err)
				}
				continue
			}
			s.emit(live.Event{Type: live.EventAudioChunk, Audio: audio.Chunk{
				Data:       pcm,
				SampleRate: audio.PlaybackSampleRate,
				Channels:   1,
			}})
		}
	}

	if sc.TurnComplete {
		s.emit(live.Event{Type: live.EventTurnComplete})
	}
}

// writeLoop transmits buffered outbound messages. A write failure ends the
// session; the error surfaces through receiveLoop's terminal events.
func (s *session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.outbound:
			if err := s.conn.Write(s.ctx, websocket.MessageText, data); err != nil {
				if s.ctx.Err() == nil {
					s.setErr(fmt.Errorf("gemini: write: %w: %w", live.ErrConnection, err))
					s.cancel()
				}
				return
			}
		}
	}
}

// keepaliveLoop sends WebSocket pings to keep the Gemini Live connection alive.
func (s *session) keepaliveLoop() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(s.ctx, keepaliveTimeout)
			_ = s.conn.Ping(pingCtx)
			cancel()
		}
	}
}

// emit delivers a mid-session event, giving up if the session ends first.
func (s *session) emit(ev live.Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

// emitTerminal best-effort delivers a shutdown event. The channel buffer
// normally has room; if a stalled consumer filled it, the channel close that
// follows still signals the end of the stream.
func (s *session) emitTerminal(ev live.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errVal == nil {
		s.errVal = err
	}
}

// ── SessionHandle methods ──────────────────────────────────────────────────────

// SendAudio buffers a PCM chunk (s16le mono) for transmission to the model.
// It never blocks on the network.
func (s *session) SendAudio(chunk audio.Chunk) error {
	if live.State(s.state.Load()) >= live.StateClosing {
		return fmt.Errorf("gemini: send audio: %w", live.ErrSessionClosed)
	}

	rate := chunk.SampleRate
	if rate == 0 {
		rate = audio.DefaultSampleRate
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{
				{
					MIMEType: fmt.Sprintf("audio/pcm;rate=%d", rate),
					Data:     audio.ToTransportText(chunk.Data),
				},
			},
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("gemini: marshal: %w", err)
	}

	select {
	case s.outbound <- data:
		return nil
	case <-s.done:
		return fmt.Errorf("gemini: send audio: %w", live.ErrSessionClosed)
	default:
		return fmt.Errorf("gemini: outbound buffer full: %w", live.ErrConnection)
	}
}

// Events returns the ordered event stream for this session.
func (s *session) Events() <-chan live.Event { return s.events }

// State reports the session's current lifecycle state.
func (s *session) State() live.State { return live.State(s.state.Load()) }

// Err returns the error that ended the session, or nil for a clean close.
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close terminates the session and releases all resources. Idempotent.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.state.CompareAndSwap(int32(live.StateOpening), int32(live.StateClosing))
		s.state.CompareAndSwap(int32(live.StateOpen), int32(live.StateClosing))
		close(s.done)
		s.cancel() // unblocks receiveLoop and writeLoop
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return nil
}
