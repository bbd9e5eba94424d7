package player

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Veno89/Vplayer/dsp"
)

// Effects is the effect processor shared by the control path, which
// updates its configuration, and the render path, which runs it.
type Effects struct {
	mu      sync.Mutex
	proc    *dsp.EffectsProcessor
	enabled atomic.Bool
}

// NewEffects creates an enabled processor at a provisional sample rate.
// The rate is corrected by the first EffectsSource that plays.
func NewEffects(sampleRate float64, cfg dsp.EffectsConfig) *Effects {
	e := &Effects{proc: dsp.NewEffectsProcessor(sampleRate, cfg)}
	e.enabled.Store(true)
	return e
}

// Update applies cfg without resetting filter history.
func (e *Effects) Update(cfg dsp.EffectsConfig) {
	e.mu.Lock()
	e.proc.UpdateConfig(cfg)
	e.mu.Unlock()
}

// Config returns the current (clamped) configuration.
func (e *Effects) Config() dsp.EffectsConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proc.Config()
}

// SampleRate returns the rate the processor is designed for.
func (e *Effects) SampleRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proc.SampleRate()
}

// SetEnabled switches the whole chain on or off. Disabled audio passes
// through untouched.
func (e *Effects) SetEnabled(on bool) { e.enabled.Store(on) }

func (e *Effects) Enabled() bool { return e.enabled.Load() }

// EffectsSource wraps a decoded stream and runs every frame through the
// shared Effects, then copies the mono mix to the visualizer.
//
// It never waits on a lock. While the processor is busy (a config update
// in progress) frames pass through unprocessed; while the visualizer is
// busy its copy is dropped.
type EffectsSource struct {
	s      beep.StreamSeekCloser
	format beep.Format
	fx     *Effects
	vis    *VisualizerBuffer

	rateSet bool
}

// NewEffectsSource wraps s, decoded with format.
func NewEffectsSource(s beep.StreamSeekCloser, format beep.Format, fx *Effects, vis *VisualizerBuffer) *EffectsSource {
	return &EffectsSource{s: s, format: format, fx: fx, vis: vis}
}

func (e *EffectsSource) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	if n == 0 {
		return n, ok
	}

	if !e.rateSet {
		e.adoptRate()
	}
	enabled := e.fx.Enabled()
	for i := range samples[:n] {
		l, r := samples[i][0], samples[i][1]
		if enabled && e.rateSet && e.fx.mu.TryLock() {
			l, r = e.fx.proc.ProcessFrame(l, r)
			e.fx.mu.Unlock()
			samples[i] = [2]float64{l, r}
		}
		e.vis.TryPush((l + r) / 2)
	}
	return n, ok
}

// adoptRate tells the processor the stream's native rate. Decoders only
// know it once decoding starts, so this happens on the first frames; if
// the processor is busy it is retried on the next call.
func (e *EffectsSource) adoptRate() {
	if !e.fx.mu.TryLock() {
		return
	}
	e.fx.proc.SetSampleRate(float64(e.format.SampleRate))
	e.fx.mu.Unlock()
	e.rateSet = true
}

func (e *EffectsSource) Err() error       { return e.s.Err() }
func (e *EffectsSource) Len() int         { return e.s.Len() }
func (e *EffectsSource) Position() int    { return e.s.Position() }
func (e *EffectsSource) Seek(p int) error { return e.s.Seek(p) }
func (e *EffectsSource) Close() error     { return e.s.Close() }

// Format returns the wrapped stream's format.
func (e *EffectsSource) Format() beep.Format { return e.format }

// Duration returns the stream length, or zero when it is unknown.
func (e *EffectsSource) Duration() time.Duration {
	n := e.s.Len()
	if n <= 0 {
		return 0
	}
	return e.format.SampleRate.D(n)
}
