package playback

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Compile-time assertion that PortAudioPlayer satisfies the Player interface.
var _ Player = (*PortAudioPlayer)(nil)

// playbackFrames is the device buffer size in samples per write.
const playbackFrames = 1024

// PortAudioPlayer is a [Player] backed by the default PortAudio output
// device. Open one with [OpenPortAudio], typically as the [OpenFunc] of a
// [Scheduler].
type PortAudioPlayer struct {
	stream *portaudio.Stream
	buf    []float32
	rate   int
}

// OpenPortAudio opens the default output device in mono at sampleRate.
func OpenPortAudio(sampleRate int) (*PortAudioPlayer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("playback: initialize portaudio: %w", err)
	}
	buf := make([]float32, playbackFrames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), playbackFrames, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("playback: open default output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("playback: start output stream: %w", err)
	}
	return &PortAudioPlayer{stream: stream, buf: buf, rate: sampleRate}, nil
}

// Write implements [Player]. It blocks until the whole chunk has been
// handed to the device, padding the final device buffer with silence.
func (p *PortAudioPlayer) Write(chunk audio.Chunk) error {
	samples, err := audio.DecodeChunkMono(chunk.Data)
	if err != nil {
		return err
	}
	for off := 0; off < len(samples); off += len(p.buf) {
		n := copy(p.buf, samples[off:])
		for i := n; i < len(p.buf); i++ {
			p.buf[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("playback: device write: %w", err)
		}
	}
	return nil
}

// Close stops and closes the device stream.
func (p *PortAudioPlayer) Close() error {
	stopErr := p.stream.Stop()
	closeErr := p.stream.Close()
	termErr := portaudio.Terminate()
	if stopErr != nil {
		return fmt.Errorf("playback: stop output stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("playback: close output stream: %w", closeErr)
	}
	return termErr
}
