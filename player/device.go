package player

import (
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Veno89/Vplayer/output"
)

// Sink is a playback queue attached to an Output. *output.Sink implements it.
type Sink interface {
	Append(s beep.Streamer, format beep.Format)
	Play()
	Pause()
	Stop()
	Clear()
	Close() error
	IsPaused() bool
	Empty() bool
	Volume() float64
	SetVolume(v float64)
	SetBalance(b float64)
	SetSpeed(speed float64)
	Seek(d time.Duration) error
}

// Output is a live device connection that can create sinks.
type Output interface {
	Name() string
	NewSink() (Sink, error)
	Close() error
}

// Host enumerates devices and opens connections to them.
type Host interface {
	DefaultDevice() (output.Device, bool)
	Devices() ([]output.Device, error)
	Open(name string) (Output, error)
}

// Opener decodes a track file.
type Opener interface {
	Open(path string) (beep.StreamSeekCloser, beep.Format, error)
}

// DeviceState owns the live output connection. The connection never
// leaves this type; sinks are created through NewSink.
type DeviceState struct {
	out        Output
	name       string
	pinned     bool
	lastActive time.Time
	now        func() time.Time
}

// NewDeviceState takes ownership of out, which must not be nil. The
// connection is assumed to follow the system default device.
func NewDeviceState(out Output, now func() time.Time) *DeviceState {
	if now == nil {
		now = time.Now
	}
	return &DeviceState{out: out, name: out.Name(), lastActive: now(), now: now}
}

// NewSink attaches a new sink to the live output's mixer.
func (d *DeviceState) NewSink() (Sink, error) {
	return d.out.NewSink()
}

// Replace installs a new connection, resets the activity clock and returns
// the old connection for the caller to close. A pinned connection was
// chosen by name and is not expected to follow the system default.
func (d *DeviceState) Replace(out Output, pinned bool) Output {
	old := d.out
	d.out = out
	d.name = out.Name()
	d.pinned = pinned
	d.lastActive = d.now()
	return old
}

// UpdateActive marks the device as used now.
func (d *DeviceState) UpdateActive() { d.lastActive = d.now() }

// SinceActive returns the time since the device was last used.
func (d *DeviceState) SinceActive() time.Duration { return d.now().Sub(d.lastActive) }

// DeviceName returns the name of the connected device.
func (d *DeviceState) DeviceName() string { return d.name }

// HasDeviceChanged reports whether the connection is stale: for a default
// connection, the host's default device differs from the connected one;
// for a pinned one, the device is no longer listed. A vanished default
// counts as a change; an unknown connected name never does.
func (d *DeviceState) HasDeviceChanged(h Host) bool {
	if d.name == "" {
		return false
	}
	if d.pinned {
		devices, err := h.Devices()
		if err != nil {
			return false
		}
		for _, dev := range devices {
			if dev.Name == d.name {
				return false
			}
		}
		return true
	}
	def, ok := h.DefaultDevice()
	if !ok {
		return true
	}
	return def.Name != d.name
}

// Close releases the connection.
func (d *DeviceState) Close() error { return d.out.Close() }
