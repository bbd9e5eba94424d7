package player

import (
	"time"

	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/logger"
)

// DefaultLongPauseThreshold is how long a pause or idle period may last
// before Play reconnects to the output device.
const DefaultLongPauseThreshold = 5 * time.Minute

// restoreThreshold is the smallest position worth seeking back to after a
// reload; anything earlier restarts from the top.
const restoreThreshold = 500 * time.Millisecond

// provisionalRate is the processor rate used until a stream reports its own.
const provisionalRate = 44100

type options struct {
	log           *logger.Logger
	now           func() time.Time
	longPause     time.Duration
	visCapacity   int
	effects       dsp.EffectsConfig
	effectsOff    bool
	volume        float64
	processorRate float64
}

func defaultOptions() options {
	return options{
		log:           logger.Nop(),
		now:           time.Now,
		longPause:     DefaultLongPauseThreshold,
		visCapacity:   DefaultVisualizerCapacity,
		effects:       dsp.DefaultEffectsConfig(),
		volume:        1,
		processorRate: provisionalRate,
	}
}

// Option configures a Player.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock replaces time.Now for all timing decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLongPauseThreshold sets the pause/idle length that triggers a device
// reconnect on Play.
func WithLongPauseThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.longPause = d
		}
	}
}

// WithVisualizerCapacity sets the visualizer ring size.
func WithVisualizerCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.visCapacity = n
		}
	}
}

// WithEffects sets the initial effects configuration.
func WithEffects(cfg dsp.EffectsConfig) Option {
	return func(o *options) { o.effects = cfg }
}

// WithEffectsEnabled sets whether the effect chain starts enabled.
func WithEffectsEnabled(on bool) Option {
	return func(o *options) { o.effectsOff = !on }
}

// WithVolume sets the initial user volume.
func WithVolume(v float64) Option {
	return func(o *options) { o.volume = v }
}

// WithProcessorRate sets the provisional processor sample rate.
func WithProcessorRate(rate float64) Option {
	return func(o *options) {
		if rate > 0 {
			o.processorRate = rate
		}
	}
}
