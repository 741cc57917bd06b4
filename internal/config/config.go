// Package config provides the configuration schema and loader for the
// interview copilot.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Duration is a [time.Duration] that unmarshals from YAML strings such as
// "15s" or "2m30s", as well as from integer nanoseconds.
type Duration time.Duration

// Std returns the value as a [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Defaults to "info".
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address serving /metrics and /healthz.
	// Empty disables the HTTP listener.
	MetricsAddr string `yaml:"metrics_addr"`

	Candidate  CandidateConfig  `yaml:"candidate"`
	Capture    CaptureConfig    `yaml:"capture"`
	Session    SessionConfig    `yaml:"session"`
	Answer     AnswerConfig     `yaml:"answer"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
}

// CandidateConfig carries the candidate's background material. The live
// session grounds its suggestions in this text, so it must be present
// before a meeting can start.
type CandidateConfig struct {
	// Name is the candidate's display name, used in prompts.
	Name string `yaml:"name"`

	// Background is free text describing the candidate: resume highlights,
	// target role, and anything the model should draw on when suggesting
	// answers.
	Background string `yaml:"background"`
}

// CaptureConfig configures the audio capture source.
type CaptureConfig struct {
	// PreferDisplayAudio selects system/display audio when a loopback
	// device exists, falling back to the microphone.
	PreferDisplayAudio bool `yaml:"prefer_display_audio"`

	// SampleRate is the capture rate in Hz. Defaults to 16000.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples per captured frame. Defaults
	// to 4096.
	FrameSize int `yaml:"frame_size"`
}

// SessionConfig configures the live model session.
type SessionConfig struct {
	// Model overrides the default live model. Empty uses the provider
	// default.
	Model string `yaml:"model"`

	// Voice selects the synthesised output voice.
	Voice string `yaml:"voice"`

	// ConnectTimeout bounds how long session establishment may take.
	// Zero waits indefinitely.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// PlaybackRate is the output device rate in Hz. Defaults to 24000.
	PlaybackRate int `yaml:"playback_rate"`
}

// AnswerConfig configures the suggested-answer flow.
type AnswerConfig struct {
	// LLMProvider selects the backend generating suggested answers:
	// "openai", "anthropic", "gemini", "ollama", and friends. Defaults
	// to "gemini".
	LLMProvider string `yaml:"llm_provider"`

	// LLMModel is the model used for suggested answers.
	LLMModel string `yaml:"llm_model"`

	// TTSModel overrides the speech synthesis model used when reading a
	// suggestion aloud. Empty uses the default.
	TTSModel string `yaml:"tts_model"`

	// Speak enables reading suggested answers through the playback device.
	Speak bool `yaml:"speak"`
}

// TranscribeConfig configures the text-only transcription path.
type TranscribeConfig struct {
	// Enabled switches the meeting to transcription-only mode: interviewer
	// audio goes to the transcriber instead of the live session.
	Enabled bool `yaml:"enabled"`

	// Model is the Deepgram model. Defaults to "nova-3".
	Model string `yaml:"model"`

	// Language is the BCP-47 recognition language. Defaults to "en".
	Language string `yaml:"language"`
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = LogInfo
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = audio.DefaultSampleRate
	}
	if c.Capture.FrameSize == 0 {
		c.Capture.FrameSize = audio.DefaultFrameSize
	}
	if c.Session.PlaybackRate == 0 {
		c.Session.PlaybackRate = audio.PlaybackSampleRate
	}
	if c.Answer.LLMProvider == "" {
		c.Answer.LLMProvider = "gemini"
	}
	if c.Answer.LLMModel == "" {
		c.Answer.LLMModel = "gemini-2.0-flash"
	}
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = "nova-3"
	}
	if c.Transcribe.Language == "" {
		c.Transcribe.Language = "en"
	}
}
