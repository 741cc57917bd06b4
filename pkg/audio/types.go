// Package audio defines the frame and chunk types shared by the interview
// copilot's audio pipeline, plus the PCM codec that converts between them.
//
// A [Frame] is the capture-side unit: a fixed-size block of normalized
// float32 samples produced by a capture device. A [Chunk] is the wire-side
// unit: signed 16-bit little-endian PCM bytes tagged with their declared
// sample rate and channel count. The codec functions in pcm.go convert
// between the two and to/from the text-safe transport encoding used by the
// streaming session.
package audio

import "time"

// DefaultSampleRate is the capture sample rate the pipeline runs at.
const DefaultSampleRate = 16000

// DefaultFrameSize is the number of samples per capture frame.
const DefaultFrameSize = 4096

// PlaybackSampleRate is the sample rate of audio returned by the model.
const PlaybackSampleRate = 24000

// Frame is a fixed-size block of normalized audio samples in [-1, 1],
// produced continuously by a capture source while it is active. Frames are
// ephemeral: they are encoded and handed to the session immediately.
type Frame struct {
	// Samples holds the normalized sample values. Mono capture yields one
	// sample per slot; multi-channel capture interleaves by channel.
	Samples []float32

	// SampleRate in Hz (16000 for capture in this system).
	SampleRate int

	// Channels is 1 for mono capture.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the nominal play time of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samplesPerChannel := len(f.Samples) / f.Channels
	return time.Duration(samplesPerChannel) * time.Second / time.Duration(f.SampleRate)
}

// Chunk is an encoded block of signed 16-bit little-endian PCM, paired with
// its declared format. It has no identity beyond its position in the stream.
type Chunk struct {
	// Data holds interleaved s16le samples.
	Data []byte

	// SampleRate in Hz.
	SampleRate int

	// Channels is the interleaved channel count.
	Channels int
}

// Duration returns the nominal play time of the chunk.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samplesPerChannel := len(c.Data) / 2 / c.Channels
	return time.Duration(samplesPerChannel) * time.Second / time.Duration(c.SampleRate)
}
