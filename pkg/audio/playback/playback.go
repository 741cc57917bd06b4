// Package playback schedules model audio for gapless sequential output.
//
// A [Scheduler] owns a FIFO queue of PCM chunks and a background dispatch
// goroutine that streams them to a [Player] device one at a time, in arrival
// order, with no inserted silence. The output device is opened lazily on the
// first chunk so that a session that never produces audio never touches the
// speaker.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kayla538/AI-Interview-Prep-Assistant/pkg/audio"
)

// Player is an audio output device. Write blocks until the device has
// consumed the chunk; back-to-back Write calls therefore produce gapless
// output. The scheduler feeds the device in short slices (see
// [sliceDuration]), so a single Write never covers more than a few tens of
// milliseconds of audio. Implementations need not be safe for concurrent
// use — the scheduler calls Write from a single goroutine.
type Player interface {
	Write(chunk audio.Chunk) error
	Close() error
}

// OpenFunc opens the output device. The scheduler calls it at most once,
// lazily, when the first chunk reaches the front of the queue.
type OpenFunc func() (Player, error)

// defaultQueueCap is the initial capacity hint for the chunk queue.
const defaultQueueCap = 32

// sliceDuration bounds how much audio a single device write covers. The
// dispatch goroutine checks for interruption between slices, so this is the
// worst-case latency between Interrupt and silence.
const sliceDuration = 20 * time.Millisecond

// Option configures a [Scheduler] during construction.
type Option func(*Scheduler)

// WithSampleRate sets the device output rate. Chunks enqueued at a different
// rate are resampled before playback. Defaults to [audio.PlaybackSampleRate].
func WithSampleRate(rate int) Option {
	return func(s *Scheduler) {
		if rate > 0 {
			s.rate = rate
		}
	}
}

// Scheduler plays queued audio chunks sequentially and without gaps.
//
// All exported methods are safe for concurrent use.
type Scheduler struct {
	open OpenFunc
	rate int

	mu         sync.Mutex
	queue      []audio.Chunk
	gen        uint64        // bumped by Interrupt; aborts the in-flight chunk
	suppressed bool          // Suppress(true): new chunks are dropped
	writing    bool          // a chunk is currently at the device
	closed     bool          // DrainAndStop called; no new chunks accepted
	drainWait  chan struct{} // closed by dispatch when queue empties after close
	player     Player
	playerErr  error // sticky open failure; subsequent chunks are dropped

	notify   chan struct{} // signalled when a chunk is enqueued
	done     chan struct{} // closed to stop the dispatch goroutine
	finished chan struct{} // closed when the dispatch goroutine exits
}

// New creates a [Scheduler] delivering audio to the device returned by open.
// The dispatch goroutine starts immediately; call [Scheduler.DrainAndStop]
// to stop it and close the device.
func New(open OpenFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		open:     open,
		rate:     audio.PlaybackSampleRate,
		queue:    make([]audio.Chunk, 0, defaultQueueCap),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.dispatch()
	return s
}

// Enqueue appends chunk to the playback queue. While suppression is active
// (see [Scheduler.Suppress]) the chunk is dropped instead of queued. Enqueue
// never blocks.
func (s *Scheduler) Enqueue(chunk audio.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.suppressed {
		return
	}

	s.queue = append(s.queue, chunk)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Interrupt stops playback immediately: the chunk currently at the device
// (if any) is cut off at the next slice boundary — within [sliceDuration] —
// and every queued chunk is discarded. Chunks enqueued after Interrupt
// returns play normally.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.queue = s.queue[:0]
	s.signalDrainedLocked()
}

// Suppress toggles drop mode. While on, enqueued chunks are discarded rather
// than queued — they are never replayed when suppression is lifted. Chunks
// already queued before Suppress(true) remain queued.
func (s *Scheduler) Suppress(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppressed = on
}

// DrainAndStop waits for all queued chunks to finish playing, then stops the
// dispatch goroutine and closes the device. New chunks are rejected from the
// moment of the call. If ctx expires first, the in-flight chunk is cut off,
// remaining chunks are discarded and the device is closed anyway; ctx.Err()
// is returned.
//
// DrainAndStop is idempotent; concurrent calls wait for the first to finish.
func (s *Scheduler) DrainAndStop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		select {
		case <-s.finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.closed = true

	wait := make(chan struct{})
	if len(s.queue) == 0 && !s.writing {
		close(wait)
	} else {
		s.drainWait = wait
	}
	s.mu.Unlock()

	var ctxErr error
	select {
	case <-wait:
	case <-ctx.Done():
		ctxErr = ctx.Err()
		s.Interrupt()
	}

	close(s.done)
	<-s.finished

	if err := s.closePlayer(); err != nil && ctxErr == nil {
		return err
	}
	return ctxErr
}

// dispatch pulls chunks from the queue and writes them to the device
// back-to-back. It runs until [Scheduler.DrainAndStop] stops it.
func (s *Scheduler) dispatch() {
	defer close(s.finished)

	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		for {
			chunk, gen, ok := s.dequeue()
			if !ok {
				break
			}
			if err := s.write(chunk, gen); err != nil {
				slog.Warn("playback write failed, chunk dropped", "err", err)
			}
			s.mu.Lock()
			s.writing = false
			if len(s.queue) == 0 {
				s.signalDrainedLocked()
			}
			s.mu.Unlock()
		}
	}
}

// dequeue pops the oldest queued chunk and marks the device busy. The
// returned generation is captured under the same lock, so an Interrupt
// racing with the pop is always observed by write.
func (s *Scheduler) dequeue() (audio.Chunk, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return audio.Chunk{}, 0, false
	}
	chunk := s.queue[0]
	s.queue = s.queue[1:]
	s.writing = true
	return chunk, s.gen, true
}

// write delivers one chunk to the lazily-opened device, resampling to the
// device rate when needed. The chunk goes out in [sliceDuration]-sized
// slices; when Interrupt bumps the generation past gen, the remaining
// slices are abandoned. An open failure is sticky: once the device fails
// to open, all further chunks are dropped.
func (s *Scheduler) write(chunk audio.Chunk, gen uint64) error {
	s.mu.Lock()
	player, err := s.player, s.playerErr
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if player == nil {
		player, err = s.open()
		s.mu.Lock()
		s.player, s.playerErr = player, err
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("playback: open device: %w", err)
		}
	}

	if chunk.SampleRate > 0 && chunk.SampleRate != s.rate {
		samples, err := audio.DecodeChunkMono(chunk.Data)
		if err != nil {
			return err
		}
		chunk = audio.EncodeFrame(audio.ResampleMono(samples, chunk.SampleRate, s.rate), s.rate, 1)
	}

	step := sliceBytes(chunk, s.rate)
	data := chunk.Data
	for len(data) > 0 {
		if s.generation() != gen {
			// Interrupted mid-chunk; drop what is left.
			return nil
		}
		n := step
		if n > len(data) {
			n = len(data)
		}
		part := audio.Chunk{Data: data[:n], SampleRate: chunk.SampleRate, Channels: chunk.Channels}
		if err := player.Write(part); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// sliceBytes returns the byte length of one write slice for chunk, aligned
// to whole sample frames.
func sliceBytes(chunk audio.Chunk, fallbackRate int) int {
	rate := chunk.SampleRate
	if rate <= 0 {
		rate = fallbackRate
	}
	ch := chunk.Channels
	if ch <= 0 {
		ch = 1
	}
	frameSize := 2 * ch
	n := frameSize * rate * int(sliceDuration.Milliseconds()) / 1000
	n -= n % frameSize
	if n < frameSize {
		n = frameSize
	}
	return n
}

// generation reads the interrupt generation counter.
func (s *Scheduler) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// signalDrainedLocked wakes a pending DrainAndStop once the queue is empty
// and nothing is at the device. Must be called with s.mu held.
func (s *Scheduler) signalDrainedLocked() {
	if s.closed && s.drainWait != nil && len(s.queue) == 0 && !s.writing {
		close(s.drainWait)
		s.drainWait = nil
	}
}

func (s *Scheduler) closePlayer() error {
	s.mu.Lock()
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player == nil {
		return nil
	}
	return player.Close()
}
