package player

import "time"

// PlaybackState tracks the position of the current track from wall-clock
// anchors. It is plain data; the Player guards it with its own mutex.
//
// The state is implied by the fields:
//
//	Empty           path == ""
//	Loaded-Stopped  path set, startTime zero
//	Playing         startTime set, pauseStart zero
//	Paused          startTime set, pauseStart set
type PlaybackState struct {
	path           string
	startTime      time.Time
	seekOffset     time.Duration
	pauseStart     time.Time
	pausedDuration time.Duration
	totalDuration  time.Duration
	speed          float64

	now func() time.Time
}

// NewPlaybackState returns an empty state reading time from now, or from
// time.Now when now is nil.
func NewPlaybackState(now func() time.Time) *PlaybackState {
	if now == nil {
		now = time.Now
	}
	return &PlaybackState{now: now, speed: 1}
}

// ResetForLoad moves to Loaded-Stopped for path.
func (s *PlaybackState) ResetForLoad(path string, total time.Duration) {
	s.path = path
	s.totalDuration = total
	s.startTime = time.Time{}
	s.seekOffset = 0
	s.pausedDuration = 0
	s.pauseStart = time.Time{}
}

// MarkPlaying starts or resumes the clock. When resuming from Paused it
// folds the pause into the accumulated pause time and returns its length
// with resumed set. An Empty state stays Empty.
func (s *PlaybackState) MarkPlaying() (paused time.Duration, resumed bool) {
	if s.path == "" {
		return 0, false
	}
	if !s.pauseStart.IsZero() {
		paused = s.now().Sub(s.pauseStart)
		s.pausedDuration += paused
		s.pauseStart = time.Time{}
		return paused, true
	}
	if s.startTime.IsZero() {
		s.startTime = s.now()
	}
	return 0, false
}

// MarkPaused records the start of a pause. It only acts while Playing, so
// a repeated pause does not restart the pause interval.
func (s *PlaybackState) MarkPaused() {
	if s.startTime.IsZero() || !s.pauseStart.IsZero() {
		return
	}
	s.pauseStart = s.now()
}

// MarkSeeked re-anchors the clock at pos, keeping the play/pause state
// given by paused.
func (s *PlaybackState) MarkSeeked(pos time.Duration, paused bool) {
	now := s.now()
	s.startTime = now
	s.seekOffset = max(pos, 0)
	s.pausedDuration = 0
	s.pauseStart = time.Time{}
	if paused {
		s.pauseStart = now
	}
}

// StartFresh installs path as Playing from zero, as a gapless swap does.
func (s *PlaybackState) StartFresh(path string, total time.Duration) {
	s.path = path
	s.totalDuration = total
	s.startTime = s.now()
	s.seekOffset = 0
	s.pausedDuration = 0
	s.pauseStart = time.Time{}
}

// SetSpeed sets how fast the track advances against the wall clock, as
// the sink's tempo control does. The position reached so far is kept by
// re-anchoring the clock there: at now while playing, at the pause start
// while paused.
func (s *PlaybackState) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = 1
	}
	if speed == s.speed {
		return
	}
	if !s.startTime.IsZero() {
		paused := !s.pauseStart.IsZero()
		pos := s.Position(false, paused)
		anchor := s.now()
		if paused {
			anchor = s.pauseStart
		}
		s.startTime = anchor
		s.seekOffset = pos
		s.pausedDuration = 0
	}
	s.speed = speed
}

// Speed returns the current playback speed.
func (s *PlaybackState) Speed() float64 { return s.speed }

// Clear returns to Empty, forgetting the track length too.
func (s *PlaybackState) Clear() {
	s.path = ""
	s.totalDuration = 0
	s.startTime = time.Time{}
	s.seekOffset = 0
	s.pausedDuration = 0
	s.pauseStart = time.Time{}
}

// Position computes the playback position in track time: wall-clock
// playing time scaled by the speed. sinkEmpty and sinkPaused
// describe the output sink; the caller reads them first so the two locks
// are never held together here.
func (s *PlaybackState) Position(sinkEmpty, sinkPaused bool) time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	// A drained sink means the track finished; stop the wall clock there.
	if sinkEmpty {
		return s.totalDuration
	}

	now := s.now()
	elapsed := now.Sub(s.startTime)
	subtract := s.pausedDuration
	if sinkPaused && !s.pauseStart.IsZero() {
		subtract += now.Sub(s.pauseStart)
	}
	playing := max(elapsed-subtract, 0)

	pos := s.seekOffset + time.Duration(float64(playing)*s.speed)
	if s.totalDuration > 0 {
		pos = min(pos, s.totalDuration)
	}
	return pos
}

// PauseElapsed returns how long the current pause has lasted, or zero.
func (s *PlaybackState) PauseElapsed() time.Duration {
	if s.pauseStart.IsZero() {
		return 0
	}
	return s.now().Sub(s.pauseStart)
}

// Path returns the loaded path, or "" when Empty.
func (s *PlaybackState) Path() string { return s.path }

// Loaded reports whether a track path is set.
func (s *PlaybackState) Loaded() bool { return s.path != "" }

// Started reports whether the clock has been started since the last load.
func (s *PlaybackState) Started() bool { return !s.startTime.IsZero() }

// Paused reports whether the state is Paused.
func (s *PlaybackState) Paused() bool { return !s.startTime.IsZero() && !s.pauseStart.IsZero() }

func (s *PlaybackState) TotalDuration() time.Duration { return s.totalDuration }

func (s *PlaybackState) SetTotalDuration(d time.Duration) { s.totalDuration = d }
