package player

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Veno89/Vplayer/output"
)

const testRate = beep.SampleRate(1000)

var testFormat = beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}

var errBackward = errors.New("backward seek")

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeHost opens offline outputs at testRate. Nothing pulls their mixers
// unless a test does.
type fakeHost struct {
	mu        sync.Mutex
	def       string
	names     []string
	available bool
	openErr   error
	opened    []*output.Output
}

func newFakeHost(names ...string) *fakeHost {
	if len(names) == 0 {
		names = []string{"speakers"}
	}
	return &fakeHost{def: names[0], names: names, available: true}
}

func (h *fakeHost) DefaultDevice() (output.Device, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.available {
		return output.Device{}, false
	}
	return output.Device{Name: h.def, IsDefault: true}, true
}

func (h *fakeHost) Devices() ([]output.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.available {
		return nil, nil
	}
	devices := make([]output.Device, 0, len(h.names))
	for _, n := range h.names {
		devices = append(devices, output.Device{Name: n, IsDefault: n == h.def})
	}
	return devices, nil
}

func (h *fakeHost) Open(name string) (Output, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.available {
		return nil, output.ErrDeviceNotFound
	}
	if h.openErr != nil {
		return nil, h.openErr
	}
	o := output.New(name, testRate)
	h.opened = append(h.opened, o)
	return WrapOutput(o), nil
}

func (h *fakeHost) setAvailable(on bool) {
	h.mu.Lock()
	h.available = on
	h.mu.Unlock()
}

func (h *fakeHost) setDefault(name string) {
	h.mu.Lock()
	h.def = name
	h.mu.Unlock()
}

func (h *fakeHost) opens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.opened)
}

// pull renders n frames from the most recently opened output.
func (h *fakeHost) pull(n int) [][2]float64 {
	h.mu.Lock()
	o := h.opened[len(h.opened)-1]
	h.mu.Unlock()
	buf := make([][2]float64, n)
	o.Mixer().Stream(buf)
	return buf
}

// fakeSource yields frame i as (i/n, -i/n). With forwardOnly set it
// refuses to seek backwards, like a streaming decoder.
type fakeSource struct {
	mu          sync.Mutex
	n           int
	pos         int
	forwardOnly bool
	closed      bool
}

func (s *fakeSource) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= s.n {
		return 0, false
	}
	n := min(len(samples), s.n-s.pos)
	for i := range n {
		v := float64(s.pos+i) / float64(s.n)
		samples[i] = [2]float64{v, -v}
	}
	s.pos += n
	return n, true
}

func (s *fakeSource) Err() error { return nil }
func (s *fakeSource) Len() int   { return s.n }

func (s *fakeSource) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *fakeSource) Seek(p int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forwardOnly && p < s.pos {
		return errBackward
	}
	s.pos = p
	return nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeOpener serves tracks by path. Unknown paths are not found.
type fakeOpener struct {
	mu          sync.Mutex
	frames      map[string]int
	errs        map[string]error
	forwardOnly bool
	opened      map[string][]*fakeSource
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		frames: map[string]int{},
		errs:   map[string]error{},
		opened: map[string][]*fakeSource{},
	}
}

func (o *fakeOpener) add(path string, d time.Duration) {
	o.mu.Lock()
	o.frames[path] = testRate.N(d)
	o.mu.Unlock()
}

func (o *fakeOpener) fail(path string, err error) {
	o.mu.Lock()
	o.errs[path] = err
	o.mu.Unlock()
}

func (o *fakeOpener) Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.errs[path]; err != nil {
		return nil, beep.Format{}, err
	}
	n, ok := o.frames[path]
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	s := &fakeSource{n: n, forwardOnly: o.forwardOnly}
	o.opened[path] = append(o.opened[path], s)
	return s, testFormat, nil
}

// last returns the most recent source opened for path.
func (o *fakeOpener) last(path string) *fakeSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.opened[path]
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

func (o *fakeOpener) opens(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened[path])
}
