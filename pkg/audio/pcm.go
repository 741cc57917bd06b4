package audio

import (
	"encoding/base64"
	"fmt"
	"math"
)

// ErrMalformedAudio reports PCM data that cannot be decoded, such as an
// odd-length byte buffer for 16-bit samples. Callers on the live inbound
// path should log, drop the chunk, and continue — one bad chunk must not
// kill the session.
var ErrMalformedAudio = fmt.Errorf("audio: malformed pcm data")

// EncodeFrame converts a block of normalized float32 samples into an s16le
// [Chunk] at the given format. Each sample s maps to round(s*32768), clamped
// to the int16 range so out-of-range input cannot overflow. An empty sample
// slice yields an empty chunk.
func EncodeFrame(samples []float32, sampleRate, channels int) Chunk {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(math.Round(float64(s) * 32768))
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	return Chunk{Data: data, SampleRate: sampleRate, Channels: channels}
}

// DecodeChunk converts s16le bytes back into normalized float32 samples,
// de-interleaved per channel: the result has one slice per channel, each
// holding that channel's samples in order. Each 16-bit value is divided by
// 32768. Empty input yields empty (non-nil) channel slices. An odd-length
// buffer returns [ErrMalformedAudio].
func DecodeChunk(data []byte, channels int) ([][]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("audio: decode: invalid channel count %d", channels)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("audio: decode %d bytes: %w", len(data), ErrMalformedAudio)
	}

	total := len(data) / 2
	perChannel := total / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, 0, perChannel)
	}
	for i := 0; i < total; i++ {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		ch := i % channels
		out[ch] = append(out[ch], float32(v)/32768)
	}
	return out, nil
}

// DecodeChunkMono is a convenience wrapper for the common mono case.
func DecodeChunkMono(data []byte) ([]float32, error) {
	chans, err := DecodeChunk(data, 1)
	if err != nil {
		return nil, err
	}
	return chans[0], nil
}

// ToTransportText encodes raw bytes into the text-safe transport form used
// on the streaming session wire (standard base64).
func ToTransportText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromTransportText reverses [ToTransportText]. The pair is a bijection over
// byte sequences: FromTransportText(ToTransportText(b)) == b for all b.
func FromTransportText(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("audio: transport decode: %w", ErrMalformedAudio)
	}
	return data, nil
}

// ResampleMono resamples normalized mono samples from srcRate to dstRate
// using linear interpolation. If the rates match (or either is invalid) the
// input is returned unchanged. Used on the playback path to adapt model
// audio (24 kHz) to whatever rate the output device opened at.
func ResampleMono(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) < 2 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float32, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		s0 := samples[srcIdx]
		s1 := s0
		if srcIdx+1 < len(samples) {
			s1 = samples[srcIdx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}
