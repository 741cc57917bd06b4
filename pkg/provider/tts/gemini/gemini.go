// Package gemini implements the tts.Synthesizer interface using the Gemini
// generateContent REST API with audio response modality. The API returns
// base64-encoded 24 kHz s16le mono PCM inline in the response body.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/provider/tts"
)

// Compile-time assertion that Synthesizer satisfies the tts interface.
var _ tts.Synthesizer = (*Synthesizer)(nil)

const (
	defaultModel   = "gemini-2.5-flash-preview-tts"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultVoice   = "Kore"

	requestTimeout = 30 * time.Second
)

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithModel sets the Gemini TTS model.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.model = model }
}

// WithBaseURL overrides the API base URL. Primarily used in tests.
func WithBaseURL(url string) Option {
	return func(s *Synthesizer) { s.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) { s.httpClient = c }
}

// Synthesizer implements tts.Synthesizer backed by the Gemini REST API.
type Synthesizer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Gemini TTS Synthesizer with the given API key and options.
func New(apiKey string, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ── Request/response types ────────────────────────────────────────────────────

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
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

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
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

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ── Synthesizer methods ───────────────────────────────────────────────────────

// Synthesize implements tts.Synthesizer. The returned chunk carries 24 kHz
// s16le mono PCM.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (audio.Chunk, error) {
	if text == "" {
		return audio.Chunk{}, fmt.Errorf("gemini: synthesize: text must not be empty")
	}
	if voice == "" {
		voice = defaultVoice
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return audio.Chunk{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return audio.Chunk{}, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return audio.Chunk{}, fmt.Errorf("gemini: synthesize: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Chunk{}, fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp generateResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return audio.Chunk{}, fmt.Errorf("gemini: synthesize: status %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return audio.Chunk{}, fmt.Errorf("gemini: synthesize: status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return audio.Chunk{}, fmt.Errorf("gemini: decode response: %w", err)
	}

	var pcm []byte
	for _, cand := range genResp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := audio.FromTransportText(p.InlineData.Data)
			if err != nil {
				return audio.Chunk{}, fmt.Errorf("gemini: decode audio part: %w", err)
			}
			pcm = append(pcm, data...)
		}
	}
	if len(pcm) == 0 {
		return audio.Chunk{}, fmt.Errorf("gemini: synthesize: %w", tts.ErrNoAudioData)
	}

	return audio.Chunk{
		Data:       pcm,
		SampleRate: audio.PlaybackSampleRate,
		Channels:   1,
	}, nil
}
