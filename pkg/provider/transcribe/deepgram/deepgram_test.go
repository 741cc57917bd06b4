package deepgram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/transcribe"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/transcribe/deepgram"
)

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// startServer launches a test WebSocket server standing in for Deepgram.
func startServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
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

// resultsMessage builds a Deepgram Results payload.
func resultsMessage(text string, isFinal bool, confidence float64) map[string]any {
	return map[string]any{
		"type":     "Results",
		"is_final": isFinal,
		"channel": map[string]any{
			"alternatives": []map[string]any{
				{"transcript": text, "confidence": confidence},
			},
		},
	}
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, _ := json.Marshal(v)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Logf("writeJSON: %v (may be expected on close)", err)
	}
}

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	t.Parallel()
	if _, err := deepgram.New(""); err == nil {
		t.Fatal("New with empty API key should return an error")
	}
}

func TestStart_SetsAuthAndQuery(t *testing.T) {
	t.Parallel()

	reqInfo := make(chan *http.Request, 1)

	srv := startServer(t, func(conn *websocket.Conn, r *http.Request) {
		reqInfo <- r
		<-conn.CloseRead(context.Background()).Done()
	})

	tr, err := deepgram.New("dg-key", deepgram.WithEndpoint(wsURL(srv)), deepgram.WithModel("nova-3"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{SampleRate: 16000, Language: "en"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stream.Close()

	select {
	case r := <-reqInfo:
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("Authorization = %q; want 'Token dg-key'", got)
		}
		q := r.URL.Query()
		if q.Get("model") != "nova-3" {
			t.Errorf("model = %q; want nova-3", q.Get("model"))
		}
		if q.Get("sample_rate") != "16000" {
			t.Errorf("sample_rate = %q; want 16000", q.Get("sample_rate"))
		}
		if q.Get("encoding") != "linear16" {
			t.Errorf("encoding = %q; want linear16", q.Get("encoding"))
		}
		if q.Get("interim_results") != "true" {
			t.Errorf("interim_results = %q; want true", q.Get("interim_results"))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for connection")
	}
}

func TestSegments_InterimAndFinal(t *testing.T) {
	t.Parallel()

	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		writeJSON(t, conn, resultsMessage("tell me", false, 0.81))
		writeJSON(t, conn, resultsMessage("tell me about yourself", true, 0.97))
		<-conn.CloseRead(context.Background()).Done()
	})

	tr, err := deepgram.New("key", deepgram.WithEndpoint(wsURL(srv)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stream.Close()

	var got []transcribe.Segment
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case seg, ok := <-stream.Segments():
			if !ok {
				t.Fatalf("segment channel closed early; got %v", got)
			}
			got = append(got, seg)
		case <-deadline:
			t.Fatalf("timeout; got %v", got)
		}
	}

	if got[0].Final || got[0].Text != "tell me" {
		t.Errorf("first segment = %+v; want interim 'tell me'", got[0])
	}
	if !got[1].Final || got[1].Text != "tell me about yourself" {
		t.Errorf("second segment = %+v; want final 'tell me about yourself'", got[1])
	}
	if got[1].Confidence != 0.97 {
		t.Errorf("confidence = %v; want 0.97", got[1].Confidence)
	}
}

func TestSegments_IgnoresNonResultsAndEmpty(t *testing.T) {
	t.Parallel()

	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		writeJSON(t, conn, map[string]any{"type": "Metadata"})
		writeJSON(t, conn, resultsMessage("", true, 0))
		writeJSON(t, conn, resultsMessage("real text", true, 0.9))
		<-conn.CloseRead(context.Background()).Done()
	})

	tr, err := deepgram.New("key", deepgram.WithEndpoint(wsURL(srv)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stream.Close()

	select {
	case seg := <-stream.Segments():
		if seg.Text != "real text" {
			t.Errorf("first delivered segment = %+v; metadata and empty results should be skipped", seg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for segment")
	}
}

func TestSendAudio_DeliversBinaryFrames(t *testing.T) {
	t.Parallel()

	frames := make(chan []byte, 1)

	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ == websocket.MessageBinary {
			frames <- data
		}
		<-conn.CloseRead(context.Background()).Done()
	})

	tr, err := deepgram.New("key", deepgram.WithEndpoint(wsURL(srv)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stream.Close()

	wantPCM := []byte{0x10, 0x20, 0x30, 0x40}
	if err := stream.SendAudio(audio.Chunk{Data: wantPCM, SampleRate: 16000, Channels: 1}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	select {
	case got := <-frames:
		if string(got) != string(wantPCM) {
			t.Errorf("binary frame = %v; want %v", got, wantPCM)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for binary frame")
	}
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		ctx := context.Background()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			// Closing the handler closes the connection, which lets the
			// stream's read loop finish.
			if typ == websocket.MessageText && strings.Contains(string(data), "CloseStream") {
				return
			}
		}
	})

	tr, err := deepgram.New("key", deepgram.WithEndpoint(wsURL(srv)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestClose_UnresponsiveServer_ReturnsWithinTimeout(t *testing.T) {
	t.Parallel()

	// The server reads CloseStream but never performs the closing
	// handshake; Close must force the socket shut instead of waiting.
	hold := make(chan struct{})
	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				break
			}
		}
		<-hold
	})
	defer close(hold)

	tr, err := deepgram.New("key",
		deepgram.WithEndpoint(wsURL(srv)),
		deepgram.WithCloseTimeout(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	closed := make(chan struct{})
	go func() {
		_ = stream.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close never returned against an unresponsive server")
	}
}

func TestSendAudio_AfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	srv := startServer(t, func(conn *websocket.Conn, _ *http.Request) {
		ctx := context.Background()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ == websocket.MessageText && strings.Contains(string(data), "CloseStream") {
				return
			}
		}
	})

	tr, err := deepgram.New("key", deepgram.WithEndpoint(wsURL(srv)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stream, err := tr.Start(context.Background(), transcribe.StreamConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = stream.Close()

	if err := stream.SendAudio(audio.Chunk{Data: []byte{1, 2}}); err == nil {
		t.Fatal("SendAudio after Close should return an error")
	}
}
