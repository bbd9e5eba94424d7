// Package output turns decoded beep streamers into sound. A Sink is a
// pausable, seekable queue with volume, balance and playback-rate controls;
// sinks are mixed into an Output, which a SpeakerHost connects to the
// system audio device.
package output

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"go.uber.org/multierr"
)

var (
	ErrNoStream    = errors.New("output: sink has nothing queued")
	ErrNotSeekable = errors.New("output: queued stream is not seekable")
	ErrSinkClosed  = errors.New("output: sink is closed")
)

// resampleQuality is the beep resampler quality used for rate conversion.
const resampleQuality = 4

const (
	minSpeed = 0.5
	maxSpeed = 2.0
)

// entry is one queued streamer and its rate conversion.
type entry struct {
	src    beep.Streamer
	rate   beep.SampleRate
	res    *beep.Resampler
	stream beep.Streamer
}

func (e *entry) setRatio(outRate beep.SampleRate, speed float64) {
	ratio := float64(e.rate) / float64(outRate) * speed
	switch {
	case e.res != nil:
		e.res.SetRatio(ratio)
	case ratio != 1:
		e.res = beep.ResampleRatio(resampleQuality, ratio, e.src)
		e.stream = e.res
	default:
		e.stream = e.src
	}
}

// restart rebuilds the resampler after the source moved, dropping the
// samples it had buffered from the old position.
func (e *entry) restart() {
	if e.res == nil {
		return
	}
	e.res = beep.ResampleRatio(resampleQuality, e.res.Ratio(), e.src)
	e.stream = e.res
}

// balance attenuates the channel opposite to Pan. Unlike effects.Pan it
// never boosts, so a full pan cannot push a channel past unity.
type balance struct {
	Streamer beep.Streamer
	Pan      float64
}

func (b *balance) Stream(samples [][2]float64) (int, bool) {
	n, ok := b.Streamer.Stream(samples)
	if b.Pan == 0 {
		return n, ok
	}
	l := min(1, 1-b.Pan)
	r := min(1, 1+b.Pan)
	for i := range samples[:n] {
		samples[i][0] *= l
		samples[i][1] *= r
	}
	return n, ok
}

func (b *balance) Err() error { return b.Streamer.Err() }

func (e *entry) close() error {
	if c, ok := e.src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Sink plays queued streamers back to back:
//
//	[queue] -> [Resample to output rate x speed] -> [Ctrl] -> [Volume] -> [Balance] -> mixer
//
// Drained streamers are dropped and closed. An empty or paused sink
// produces silence until it is closed.
type Sink struct {
	mu      sync.Mutex
	outRate beep.SampleRate
	queue   []*entry
	speed   float64
	volume  float64
	closed  bool
	err     error

	// next continues this sink once its queue drains.
	next         *Sink
	handedOff    bool
	sinceHandoff int

	ctrl beep.Ctrl
	vol  effects.Volume
	pan  balance
}

// NewSink creates an unattached sink rendering at outRate. Most callers
// use Output.NewSink instead.
func NewSink(outRate beep.SampleRate) *Sink {
	s := &Sink{outRate: outRate, speed: 1, volume: 1}
	s.ctrl.Streamer = beep.StreamerFunc(s.streamQueue)
	s.vol = effects.Volume{Streamer: &s.ctrl, Base: 2}
	s.pan = balance{Streamer: &s.vol}
	return s
}

// Stream implements beep.Streamer. It reports false only once the sink is
// closed, which makes the mixer drop it.
func (s *Sink) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	return s.pan.Stream(samples)
}

func (s *Sink) streamQueue(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		if len(s.queue) == 0 && !s.takeNext() {
			break
		}
		n, ok := s.queue[0].stream.Stream(samples[filled:])
		filled += n
		if s.handedOff {
			s.sinceHandoff += n
		}
		if !ok || n == 0 {
			s.pop()
		}
	}
	clear(samples[filled:])
	return len(samples), true
}

// takeNext moves the follower's queue into s. It runs on the render path
// with s.mu held; the follower's lock is only ever taken inside it.
func (s *Sink) takeNext() bool {
	next := s.next
	if next == nil {
		return false
	}
	s.next = nil
	next.mu.Lock()
	entries := next.queue
	next.queue = nil
	next.mu.Unlock()
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		e.setRatio(s.outRate, s.speed)
	}
	s.queue = entries
	s.handedOff = true
	s.sinceHandoff = 0
	return true
}

// Follow makes s continue with next's queue, without a gap, once its own
// queue drains while playing. next is left empty by the handoff and should
// stay paused until then. A nil next cancels; Stop, Clear and Close cancel
// too. next must not follow s.
func (s *Sink) Follow(next *Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == s {
		next = nil
	}
	s.next = next
}

// HandedOff reports whether s has taken over a follower's queue since the
// last TakeHandoff.
func (s *Sink) HandedOff() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handedOff
}

// TakeHandoff reports how much output s has rendered from the follower's
// queue and clears the handoff.
func (s *Sink) TakeHandoff() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.handedOff {
		return 0, false
	}
	played := s.outRate.D(s.sinceHandoff)
	s.handedOff = false
	s.sinceHandoff = 0
	return played, true
}

func (s *Sink) pop() {
	head := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.err = multierr.Append(s.err, head.close())
}

func (s *Sink) drop() {
	for len(s.queue) > 0 {
		s.pop()
	}
	s.next = nil
	s.handedOff = false
	s.sinceHandoff = 0
}

// Err returns the accumulated errors from closing drained streamers.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Append queues st, decoded at format's sample rate.
func (s *Sink) Append(st beep.Streamer, format beep.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{src: st, rate: format.SampleRate}
	e.setRatio(s.outRate, s.speed)
	s.queue = append(s.queue, e)
}

func (s *Sink) Play() {
	s.mu.Lock()
	s.ctrl.Paused = false
	s.mu.Unlock()
}

func (s *Sink) Pause() {
	s.mu.Lock()
	s.ctrl.Paused = true
	s.mu.Unlock()
}

func (s *Sink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Paused
}

// Stop drops everything queued. The sink stays attached and keeps its
// pause state.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop()
}

// Clear drops everything queued and pauses the sink.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop()
	s.ctrl.Paused = true
}

// Close drops the queue and detaches the sink from its mixer. Closing
// twice is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.drop()
	s.closed = true
	return s.err
}

// Closed reports whether Close has been called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Empty reports whether the queue has drained.
func (s *Sink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0
}

// Len returns the number of queued streamers.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Volume returns the linear volume.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume sets a linear gain; values at or below zero mute.
func (s *Sink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = max(v, 0)
	s.vol.Silent = s.volume == 0
	if !s.vol.Silent {
		s.vol.Volume = math.Log2(s.volume)
	}
}

// SetBalance pans between left (-1) and right (1).
func (s *Sink) SetBalance(b float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pan.Pan = max(-1, min(1, b))
}

// Balance returns the current pan.
func (s *Sink) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pan.Pan
}

// SetSpeed sets the playback-rate multiplier, clamped to [0.5, 2].
// Pitch follows speed.
func (s *Sink) SetSpeed(speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = max(minSpeed, min(maxSpeed, speed))
	for _, e := range s.queue {
		e.setRatio(s.outRate, s.speed)
	}
}

// Speed returns the playback-rate multiplier.
func (s *Sink) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Seek moves the head of the queue to d, clamped to its length.
func (s *Sink) Seek(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if len(s.queue) == 0 {
		return ErrNoStream
	}
	head := s.queue[0]
	seeker, ok := head.src.(beep.StreamSeeker)
	if !ok {
		return ErrNotSeekable
	}
	n := max(0, min(head.rate.N(d), seeker.Len()))
	if err := seeker.Seek(n); err != nil {
		return err
	}
	head.restart()
	return nil
}
