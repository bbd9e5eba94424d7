package output

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Mixer sums sinks for one output. It never drains: a permanent silent
// streamer keeps the device fed while no sink is attached.
type Mixer struct {
	mu sync.Mutex
	m  beep.Mixer
}

// NewMixer returns an empty mixer.
func NewMixer() *Mixer {
	mx := &Mixer{}
	mx.m.Add(beep.Silence(-1))
	return mx
}

// Add attaches s. It stays attached until it reports that it has drained.
func (mx *Mixer) Add(s beep.Streamer) {
	mx.mu.Lock()
	mx.m.Add(s)
	mx.mu.Unlock()
}

// Len returns the number of attached streamers, not counting the silence.
func (mx *Mixer) Len() int {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	return mx.m.Len() - 1
}

// Clear detaches every streamer.
func (mx *Mixer) Clear() {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	mx.m.Clear()
	mx.m.Add(beep.Silence(-1))
}

func (mx *Mixer) Stream(samples [][2]float64) (int, bool) {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	return mx.m.Stream(samples)
}

func (mx *Mixer) Err() error { return nil }
