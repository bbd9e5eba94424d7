package player

import "time"

// preloaded is a decoded track waiting on a paused sink.
type preloaded struct {
	sink     Sink
	path     string
	duration time.Duration
}

// PreloadManager holds at most one preloaded track for gapless playback.
type PreloadManager struct {
	next *preloaded
}

// Set stores a preloaded track and returns the sink it displaced, if any,
// for the caller to close.
func (m *PreloadManager) Set(sink Sink, path string, duration time.Duration) Sink {
	old := m.Clear()
	m.next = &preloaded{sink: sink, path: path, duration: duration}
	return old
}

// Take removes and returns the preloaded track.
func (m *PreloadManager) Take() (sink Sink, path string, duration time.Duration, ok bool) {
	if m.next == nil {
		return nil, "", 0, false
	}
	p := m.next
	m.next = nil
	return p.sink, p.path, p.duration, true
}

// Clear drops the preloaded track and returns its sink, or nil.
func (m *PreloadManager) Clear() Sink {
	if m.next == nil {
		return nil
	}
	s := m.next.sink
	m.next = nil
	return s
}

func (m *PreloadManager) Has() bool { return m.next != nil }

// Path returns the preloaded path, or "".
func (m *PreloadManager) Path() string {
	if m.next == nil {
		return ""
	}
	return m.next.path
}
