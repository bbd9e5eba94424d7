// Package player is the playback engine. It decodes tracks, runs them
// through the dsp effect chain, and drives output sinks while keeping a
// wall-clock model of the playback position that survives pause, seek,
// device changes and gapless transitions.
package player

import "sync"

// DefaultVisualizerCapacity is the number of samples the visualizer keeps.
const DefaultVisualizerCapacity = 4096

// VisualizerBuffer is a ring of the most recent processed samples (mono
// mix) for spectrum display. The render path writes with TryPush and never
// waits; the UI reads full snapshots.
type VisualizerBuffer struct {
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewVisualizerBuffer creates a ring holding capacity samples.
func NewVisualizerBuffer(capacity int) *VisualizerBuffer {
	if capacity <= 0 {
		capacity = DefaultVisualizerCapacity
	}
	return &VisualizerBuffer{buf: make([]float64, capacity)}
}

// Push appends x, evicting the oldest sample once full.
func (v *VisualizerBuffer) Push(x float64) {
	v.mu.Lock()
	v.push(x)
	v.mu.Unlock()
}

// TryPush appends x unless another goroutine holds the buffer, in which
// case x is dropped and false is returned.
func (v *VisualizerBuffer) TryPush(x float64) bool {
	if !v.mu.TryLock() {
		return false
	}
	v.push(x)
	v.mu.Unlock()
	return true
}

func (v *VisualizerBuffer) push(x float64) {
	v.buf[v.pos] = x
	v.pos = (v.pos + 1) % len(v.buf)
	if v.size < len(v.buf) {
		v.size++
	}
}

// Samples returns a copy of the buffered samples, oldest first.
func (v *VisualizerBuffer) Samples() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]float64, v.size)
	start := (v.pos - v.size + len(v.buf)) % len(v.buf)
	for i := range v.size {
		out[i] = v.buf[(start+i)%len(v.buf)]
	}
	return out
}

// Clear empties the buffer.
func (v *VisualizerBuffer) Clear() {
	v.mu.Lock()
	v.pos, v.size = 0, 0
	v.mu.Unlock()
}

// Len returns the number of buffered samples.
func (v *VisualizerBuffer) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// Cap returns the buffer capacity.
func (v *VisualizerBuffer) Cap() int { return len(v.buf) }
