// Package deepgram provides a Deepgram-backed transcriber using the Deepgram
// streaming WebSocket API. It implements the transcribe.Transcriber interface.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/transcribe"
)

// Compile-time assertions that Transcriber and stream satisfy the
// transcribe interfaces.
var _ transcribe.Transcriber = (*Transcriber)(nil)
var _ transcribe.Stream = (*stream)(nil)

const (
	defaultEndpoint   = "wss://api.deepgram.com/v1/listen"
	defaultModel      = "nova-3"
	defaultLanguage   = "en"
	defaultSampleRate = 16000

	// defaultCloseTimeout bounds how long Close waits for Deepgram to
	// acknowledge CloseStream before forcing the socket shut.
	defaultCloseTimeout = 5 * time.Second
)

// Option is a functional option for configuring the Deepgram Transcriber.
type Option func(*Transcriber)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(t *Transcriber) { t.model = model }
}

// WithLanguage sets the default BCP-47 language code for recognition.
func WithLanguage(language string) Option {
	return func(t *Transcriber) { t.language = language }
}

// WithEndpoint overrides the WebSocket endpoint. Primarily used in tests.
func WithEndpoint(endpoint string) Option {
	return func(t *Transcriber) { t.endpoint = endpoint }
}

// WithCloseTimeout overrides how long [transcribe.Stream.Close] waits for
// the server's closing handshake.
func WithCloseTimeout(d time.Duration) Option {
	return func(t *Transcriber) {
		if d > 0 {
			t.closeTimeout = d
		}
	}
}

// Transcriber implements transcribe.Transcriber backed by the Deepgram
// streaming API.
type Transcriber struct {
	apiKey       string
	model        string
	language     string
	endpoint     string
	closeTimeout time.Duration
}

// New creates a new Deepgram Transcriber. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	t := &Transcriber{
		apiKey:       apiKey,
		model:        defaultModel,
		language:     defaultLanguage,
		endpoint:     defaultEndpoint,
		closeTimeout: defaultCloseTimeout,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Start opens a streaming transcription session with Deepgram.
func (t *Transcriber) Start(ctx context.Context, cfg transcribe.StreamConfig) (transcribe.Stream, error) {
	wsURL, err := t.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+t.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}

	s := &stream{
		conn:         conn,
		closeTimeout: t.closeTimeout,
		segments:     make(chan transcribe.Segment, 64),
		audio:        make(chan []byte, 256),
		done:         make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop(ctx)
	go s.writeLoop(ctx)

	return s, nil
}

// buildURL constructs the Deepgram streaming endpoint URL for the given config.
func (t *Transcriber) buildURL(cfg transcribe.StreamConfig) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = t.language
	}
	sr := cfg.SampleRate
	if sr == 0 {
		sr = defaultSampleRate
	}

	q := u.Query()
	q.Set("model", t.model)
	q.Set("language", lang)
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sr))
	q.Set("channels", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- stream ----

// deepgramResponse is the JSON structure returned by Deepgram for a Results event.
type deepgramResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// stream is a live Deepgram streaming session.
type stream struct {
	conn         *websocket.Conn
	closeTimeout time.Duration
	segments     chan transcribe.Segment
	audio        chan []byte

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a PCM chunk for delivery to Deepgram.
func (s *stream) SendAudio(chunk audio.Chunk) error {
	select {
	case <-s.done:
		return errors.New("deepgram: stream is closed")
	default:
	}
	select {
	case s.audio <- chunk.Data:
		return nil
	case <-s.done:
		return errors.New("deepgram: stream is closed")
	}
}

// Segments returns the channel of recognised segments.
func (s *stream) Segments() <-chan transcribe.Segment { return s.segments }

// Close terminates the stream. It asks Deepgram to flush pending audio and
// waits up to the configured close timeout for the server's closing
// handshake; a server that never answers gets the socket forced shut so the
// read and write loops always terminate.
func (s *stream) Close() error {
	s.once.Do(func() {
		close(s.done)
		// Ask Deepgram to flush pending audio before closing.
		_ = s.conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"CloseStream"}`))

		loopsDone := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(loopsDone)
		}()
		select {
		case <-loopsDone:
		case <-time.After(s.closeTimeout):
		}
		s.conn.Close(websocket.StatusNormalClosure, "stream closed")
		// Closing the connection errors any blocked Read/Write, so the
		// loops exit even when the server hung.
		<-loopsDone
	})
	return nil
}

// writeLoop reads from the audio channel and sends binary messages to Deepgram.
func (s *stream) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			// Drain queued audio before exiting.
			for {
				select {
				case chunk := <-s.audio:
					_ = s.conn.Write(ctx, websocket.MessageBinary, chunk)
				default:
					return
				}
			}
		}
	}
}

// readLoop receives JSON messages from Deepgram and dispatches them to the
// segments channel.
func (s *stream) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.segments)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation.
			return
		}

		seg, ok := parseResponse(msg)
		if !ok {
			continue
		}

		select {
		case s.segments <- seg:
		case <-s.done:
		}
	}
}

// parseResponse parses a raw Deepgram WebSocket message into a Segment.
// Returns (Segment, true) on success, or (zero, false) if the message
// should be ignored.
func parseResponse(data []byte) (transcribe.Segment, bool) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return transcribe.Segment{}, false
	}
	if resp.Type != "Results" {
		return transcribe.Segment{}, false
	}
	if len(resp.Channel.Alternatives) == 0 {
		return transcribe.Segment{}, false
	}

	alt := resp.Channel.Alternatives[0]
	if alt.Transcript == "" {
		return transcribe.Segment{}, false
	}

	return transcribe.Segment{
		Text:       alt.Transcript,
		Final:      resp.IsFinal,
		Confidence: alt.Confidence,
	}, true
}
