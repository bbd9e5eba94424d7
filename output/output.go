package output

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"go.uber.org/multierr"
)

// Device describes an audio output device.
type Device struct {
	Name      string
	IsDefault bool
}

// Output is a live connection to one device. Sinks created from it are
// mixed together at the output sample rate.
type Output struct {
	name  string
	rate  beep.SampleRate
	mixer *Mixer

	mu      sync.Mutex
	sinks   []*Sink
	closed  bool
	onClose func() error
}

// New returns an output that is not attached to any device. Pull from
// Mixer to render it, e.g. for offline processing.
func New(name string, rate beep.SampleRate) *Output {
	return &Output{name: name, rate: rate, mixer: NewMixer()}
}

// Name returns the device name.
func (o *Output) Name() string { return o.name }

// SampleRate returns the rate the device runs at.
func (o *Output) SampleRate() beep.SampleRate { return o.rate }

// Mixer returns the streamer that feeds the device.
func (o *Output) Mixer() *Mixer { return o.mixer }

// NewSink creates a playing, empty sink attached to this output.
func (o *Output) NewSink() (*Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, ErrOutputClosed
	}

	live := o.sinks[:0]
	for _, s := range o.sinks {
		if !s.Closed() {
			live = append(live, s)
		}
	}
	o.sinks = live

	s := NewSink(o.rate)
	o.sinks = append(o.sinks, s)
	o.mixer.Add(s)
	return s, nil
}

// Close closes every sink and releases the device. Closing twice is a no-op.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	var err error
	for _, s := range o.sinks {
		err = multierr.Append(err, s.Close())
	}
	o.sinks = nil
	o.mixer.Clear()
	if o.onClose != nil {
		err = multierr.Append(err, o.onClose())
	}
	return err
}
