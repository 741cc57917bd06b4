package gemini_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/live/gemini"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// startLiveServer launches a test WebSocket server. The handler function
// receives the accepted *websocket.Conn. The server is automatically closed
// when the test finishes.
func startLiveServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// readJSON reads one WebSocket text frame and decodes it into v.
func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("readJSON: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("readJSON unmarshal: %v", err)
	}
}

// writeJSON marshals v and sends it as a text frame.
func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, _ := json.Marshal(v)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Logf("writeJSON: %v (may be expected on close)", err)
	}
}

// sendSetupComplete sends the server-side setupComplete ack.
func sendSetupComplete(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	writeJSON(t, conn, map[string]any{"setupComplete": map[string]any{}})
}

// newProvider creates a Provider pointing at the given test server.
func newProvider(srv *httptest.Server) *gemini.Provider {
	return gemini.New("test-api-key", gemini.WithBaseURL(wsURL(srv)))
}

// nextEvent waits for the next event of the given type, skipping others.
func nextEvent(t *testing.T, events <-chan live.Event, want live.EventType) live.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %v", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %v event", want)
		}
	}
}

// ── Connect ───────────────────────────────────────────────────────────────────

func TestNew_DefaultValues(t *testing.T) {
	t.Parallel()
	p := gemini.New("my-key")
	if p == nil {
		t.Fatal("New returned nil")
	}
}

func TestCapabilities_NonEmpty(t *testing.T) {
	t.Parallel()
	caps := gemini.New("key").Capabilities()
	if len(caps.Voices) == 0 {
		t.Error("Voices should be non-empty")
	}
	if caps.MaxSessionDurationMs == 0 {
		t.Error("MaxSessionDurationMs should be non-zero")
	}
}

func TestConnect_SendsSetup(t *testing.T) {
	t.Parallel()

	type setupMsg struct {
		Setup struct {
			Model             string `json:"model"`
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			GenerationConfig struct {
				ResponseModalities []string `json:"responseModalities"`
				SpeechConfig       *struct {
					VoiceConfig struct {
						PrebuiltVoiceConfig struct {
							VoiceName string `json:"voiceName"`
						} `json:"prebuiltVoiceConfig"`
					} `json:"voiceConfig"`
				} `json:"speechConfig"`
			} `json:"generationConfig"`
			InputTranscription  *map[string]any `json:"inputAudioTranscription"`
			OutputTranscription *map[string]any `json:"outputAudioTranscription"`
		} `json:"setup"`
	}

	received := make(chan setupMsg, 1)

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var msg setupMsg
		readJSON(t, conn, &msg)
		received <- msg
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{
		Instructions: "You are the candidate's interview copilot.",
		Voice:        "Aoede",
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	select {
	case msg := <-received:
		if !strings.HasPrefix(msg.Setup.Model, "models/") {
			t.Errorf("model %q should start with 'models/'", msg.Setup.Model)
		}
		if msg.Setup.SystemInstruction == nil {
			t.Fatal("systemInstruction is nil")
		}
		if got := msg.Setup.SystemInstruction.Parts[0].Text; !strings.Contains(got, "copilot") {
			t.Errorf("unexpected system instruction: %q", got)
		}
		if len(msg.Setup.GenerationConfig.ResponseModalities) != 1 || msg.Setup.GenerationConfig.ResponseModalities[0] != "audio" {
			t.Errorf("responseModalities = %v; want [audio]", msg.Setup.GenerationConfig.ResponseModalities)
		}
		if msg.Setup.GenerationConfig.SpeechConfig == nil {
			t.Fatal("speechConfig is nil")
		}
		if got := msg.Setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Aoede" {
			t.Errorf("voiceName = %q; want Aoede", got)
		}
		if msg.Setup.InputTranscription == nil || msg.Setup.OutputTranscription == nil {
			t.Error("setup should always request input and output transcription")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for setup message")
	}
}

func TestConnect_ModelOverride(t *testing.T) {
	t.Parallel()

	modelCh := make(chan string, 1)

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var msg struct {
			Setup struct {
				Model string `json:"model"`
			} `json:"setup"`
		}
		readJSON(t, conn, &msg)
		modelCh <- msg.Setup.Model
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := gemini.New("key", gemini.WithModel("default-model"), gemini.WithBaseURL(wsURL(srv)))
	handle, err := p.Connect(context.Background(), live.SessionConfig{Model: "override-model"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	select {
	case model := <-modelCh:
		if want := "models/override-model"; model != want {
			t.Errorf("model = %q; want %q", model, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for model in setup message")
	}
}

func TestConnect_IncludesAPIKeyInURL(t *testing.T) {
	t.Parallel()

	urlQuery := make(chan string, 1)

	srv := startLiveServer(t, func(conn *websocket.Conn, r *http.Request) {
		urlQuery <- r.URL.RawQuery
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := gemini.New("secret-key", gemini.WithBaseURL(wsURL(srv)))
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	select {
	case q := <-urlQuery:
		if !strings.Contains(q, "key=secret-key") {
			t.Errorf("URL query %q should contain key=secret-key", q)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout")
	}
}

func TestConnect_AuthRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "API key not valid", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	p := gemini.New("bad-key", gemini.WithBaseURL(wsURL(srv)))
	_, err := p.Connect(context.Background(), live.SessionConfig{})
	if !errors.Is(err, live.ErrAuth) {
		t.Fatalf("Connect with rejected key = %v; want live.ErrAuth", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	p := gemini.New("key", gemini.WithBaseURL(wsURL(srv)))
	_, err := p.Connect(context.Background(), live.SessionConfig{})
	if !errors.Is(err, live.ErrConnection) {
		t.Fatalf("Connect to closed server = %v; want live.ErrConnection", err)
	}
}

func TestConnect_CancelledContext_ReturnsError(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled

	if _, err := p.Connect(ctx, live.SessionConfig{}); err == nil {
		t.Fatal("Connect with cancelled context should return an error")
	}
}

// ── SendAudio ─────────────────────────────────────────────────────────────────

func TestSendAudio_EncodesAndSends(t *testing.T) {
	t.Parallel()

	type realtimeInput struct {
		RealtimeInput struct {
			MediaChunks []struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"mediaChunks"`
		} `json:"realtimeInput"`
	}

	audioMsg := make(chan realtimeInput, 1)

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		var msg realtimeInput
		readJSON(t, conn, &msg)
		audioMsg <- msg

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	wantPCM := []byte{0x01, 0x02, 0x03, 0x04}
	if err := handle.SendAudio(audio.Chunk{Data: wantPCM, SampleRate: 16000, Channels: 1}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	select {
	case msg := <-audioMsg:
		chunks := msg.RealtimeInput.MediaChunks
		if len(chunks) == 0 {
			t.Fatal("no media chunks in realtimeInput")
		}
		if chunks[0].MIMEType != "audio/pcm;rate=16000" {
			t.Errorf("mimeType = %q; want audio/pcm;rate=16000", chunks[0].MIMEType)
		}
		got, err := base64.StdEncoding.DecodeString(chunks[0].Data)
		if err != nil {
			t.Fatalf("base64 decode: %v", err)
		}
		if string(got) != string(wantPCM) {
			t.Errorf("decoded audio = %v; want %v", got, wantPCM)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for audio message")
	}
}

func TestSendAudio_AfterClose_ReturnsSessionClosed(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err = handle.SendAudio(audio.Chunk{Data: []byte{1, 2}, SampleRate: 16000, Channels: 1})
	if !errors.Is(err, live.ErrSessionClosed) {
		t.Fatalf("SendAudio after Close = %v; want live.ErrSessionClosed", err)
	}
}

func TestConcurrentSendAudio_DoesNotRace(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	const goroutines = 8
	const chunksPerGoroutine = 16

	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range chunksPerGoroutine {
				_ = handle.SendAudio(audio.Chunk{Data: []byte{1, 2, 3, 4}, SampleRate: 16000, Channels: 1})
			}
		})
	}
	wg.Wait()
}

// ── Events ────────────────────────────────────────────────────────────────────

func TestEvents_DeliversAudioChunk(t *testing.T) {
	t.Parallel()

	wantPCM := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	encoded := base64.StdEncoding.EncodeToString(wantPCM)

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": encoded}},
					},
				},
			},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	ev := nextEvent(t, handle.Events(), live.EventAudioChunk)
	if string(ev.Audio.Data) != string(wantPCM) {
		t.Errorf("audio chunk = %v; want %v", ev.Audio.Data, wantPCM)
	}
	if ev.Audio.SampleRate != audio.PlaybackSampleRate {
		t.Errorf("sample rate = %d; want %d", ev.Audio.SampleRate, audio.PlaybackSampleRate)
	}
}

func TestEvents_TranscriptionDeltas(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"inputTranscription": map[string]any{"text": "Tell me about"},
			},
		})
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"outputTranscription": map[string]any{"text": "I led a team"},
			},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	in := nextEvent(t, handle.Events(), live.EventInputTranscriptionDelta)
	if in.Text != "Tell me about" {
		t.Errorf("input delta = %q; want %q", in.Text, "Tell me about")
	}
	out := nextEvent(t, handle.Events(), live.EventOutputTranscriptionDelta)
	if out.Text != "I led a team" {
		t.Errorf("output delta = %q; want %q", out.Text, "I led a team")
	}
}

func TestEvents_InterruptedPrecedesTurnContent(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"interrupted":  true,
				"turnComplete": true,
			},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	first := nextEvent(t, handle.Events(), live.EventInterrupted)
	if first.Type != live.EventInterrupted {
		t.Fatalf("unexpected event %v", first.Type)
	}
	nextEvent(t, handle.Events(), live.EventTurnComplete)
}

func TestEvents_OrderWithinMessage(t *testing.T) {
	t.Parallel()

	encoded := base64.StdEncoding.EncodeToString([]byte{1, 2})

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"outputTranscription": map[string]any{"text": "hello"},
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": encoded}},
					},
				},
				"turnComplete": true,
			},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	var got []live.EventType
	deadline := time.After(3 * time.Second)
	for len(got) < 3 {
		select {
		case ev, ok := <-handle.Events():
			if !ok {
				t.Fatal("event channel closed early")
			}
			got = append(got, ev.Type)
		case <-deadline:
			t.Fatalf("timeout; got %v", got)
		}
	}

	want := []live.EventType{live.EventOutputTranscriptionDelta, live.EventAudioChunk, live.EventTurnComplete}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event order = %v; want %v", got, want)
		}
	}
}

func TestEvents_MalformedAudioDropped(t *testing.T) {
	t.Parallel()

	goodPCM := []byte{0x10, 0x20}
	encoded := base64.StdEncoding.EncodeToString(goodPCM)

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "%%%not-base64%%%"}},
						{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": encoded}},
					},
				},
			},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	ev := nextEvent(t, handle.Events(), live.EventAudioChunk)
	if string(ev.Audio.Data) != string(goodPCM) {
		t.Errorf("audio chunk = %v; want the well-formed part %v", ev.Audio.Data, goodPCM)
	}
}

func TestEvents_ServerErrorIsNonFatal(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)

		writeJSON(t, conn, map[string]any{
			"error": map[string]any{"code": 8, "message": "quota exceeded"},
		})
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{"turnComplete": true},
		})

		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	ev := nextEvent(t, handle.Events(), live.EventError)
	if ev.Err == nil || !strings.Contains(ev.Err.Error(), "quota exceeded") {
		t.Errorf("error event = %v; want quota message", ev.Err)
	}
	// The session keeps running after a server error message.
	nextEvent(t, handle.Events(), live.EventTurnComplete)
}

func TestEvents_ServerDisconnectEmitsErrorThenClosed(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		conn.Close(websocket.StatusInternalError, "boom")
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	var sawError, sawClosed bool
	for ev := range handle.Events() {
		switch ev.Type {
		case live.EventError:
			sawError = true
			if !errors.Is(ev.Err, live.ErrConnection) {
				t.Errorf("error event = %v; want wrapped live.ErrConnection", ev.Err)
			}
		case live.EventClosed:
			sawClosed = true
		}
	}
	if !sawError {
		t.Error("expected an EventError before the channel closed")
	}
	if !sawClosed {
		t.Error("expected a terminal EventClosed")
	}
	if !errors.Is(handle.Err(), live.ErrConnection) {
		t.Errorf("Err() = %v; want wrapped live.ErrConnection", handle.Err())
	}
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func TestState_OpensAfterSetupComplete(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if handle.State() == live.StateOpen {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v; want open after setupComplete", handle.State())
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("first Close() returned error: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("second Close() returned error: %v", err)
	}
}

func TestClose_ClosesEventChannel(t *testing.T) {
	t.Parallel()

	srv := startLiveServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var raw map[string]any
		readJSON(t, conn, &raw)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_ = handle.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, open := <-handle.Events():
			if !open {
				if handle.Err() != nil {
					t.Errorf("Err() = %v; want nil after clean Close", handle.Err())
				}
				if handle.State() != live.StateClosed {
					t.Errorf("state = %v; want closed", handle.State())
				}
				return
			}
			_ = ev // drain buffered events, including the terminal EventClosed
		case <-deadline:
			t.Fatal("timeout waiting for event channel to close")
		}
	}
}
