package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Capture.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate must be positive, got %d", cfg.Capture.SampleRate))
	}
	if cfg.Capture.FrameSize <= 0 {
		errs = append(errs, fmt.Errorf("capture.frame_size must be positive, got %d", cfg.Capture.FrameSize))
	}

	if cfg.Session.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.connect_timeout must not be negative, got %s", cfg.Session.ConnectTimeout))
	}
	if cfg.Session.PlaybackRate <= 0 {
		errs = append(errs, fmt.Errorf("session.playback_rate must be positive, got %d", cfg.Session.PlaybackRate))
	}

	if cfg.Answer.LLMProvider == "" {
		errs = append(errs, errors.New("answer.llm_provider must not be empty"))
	}
	if cfg.Answer.LLMModel == "" {
		errs = append(errs, errors.New("answer.llm_model must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validate: %w", errors.Join(errs...))
	}
	return nil
}
