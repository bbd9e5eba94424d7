package output

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/Veno89/Vplayer/logger"
)

// DefaultDeviceName is the name reported for the system default device.
const DefaultDeviceName = "default"

var (
	ErrDeviceNotFound = errors.New("output: device not found")
	ErrOutputClosed   = errors.New("output: output is closed")
)

// SpeakerHost connects outputs to the system audio device through the
// beep speaker. The speaker is a process-wide singleton, so only the
// system default device is offered and opening a new output releases the
// previous one.
type SpeakerHost struct {
	rate   beep.SampleRate
	buffer time.Duration
	log    *logger.Logger

	mu   sync.Mutex
	gen  uint64
	open bool
}

// NewSpeakerHost creates a host that opens the speaker at rate with the
// given buffer length.
func NewSpeakerHost(rate beep.SampleRate, buffer time.Duration, log *logger.Logger) *SpeakerHost {
	if log == nil {
		log = logger.Nop()
	}
	return &SpeakerHost{rate: rate, buffer: buffer, log: log.Named("speaker")}
}

// DefaultDevice returns the system default device.
func (h *SpeakerHost) DefaultDevice() (Device, bool) {
	return Device{Name: DefaultDeviceName, IsDefault: true}, true
}

// Devices lists the devices that can be opened.
func (h *SpeakerHost) Devices() ([]Device, error) {
	d, _ := h.DefaultDevice()
	return []Device{d}, nil
}

// Open initializes the speaker and starts feeding it from a new output's
// mixer. Any output opened earlier stops producing sound.
func (h *SpeakerHost) Open(name string) (*Output, error) {
	if name != DefaultDeviceName {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open {
		speaker.Close()
		h.open = false
	}
	if err := speaker.Init(h.rate, h.rate.N(h.buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	h.open = true
	h.gen++
	gen := h.gen

	out := New(name, h.rate)
	out.onClose = func() error { return h.release(gen) }
	speaker.Play(out.Mixer())

	h.log.Info("speaker opened",
		zap.String("device", name),
		zap.Int("rate", int(h.rate)),
		zap.Duration("buffer", h.buffer))
	return out, nil
}

// release closes the speaker unless a newer output took it over.
func (h *SpeakerHost) release(gen uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || !h.open {
		return nil
	}
	speaker.Close()
	h.open = false
	h.log.Info("speaker closed")
	return nil
}
