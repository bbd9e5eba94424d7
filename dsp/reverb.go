package dsp

// Freeverb-style reverb: eight parallel damped combs into four series
// allpasses. Tunings are sample counts at 44.1 kHz.
var (
	combTunings    = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTunings = [4]int{556, 441, 341, 225}
)

const (
	reverbInputGain  = 0.015
	allpassFeedback  = 0.5
	referenceRate    = 44100.0
	defaultRoomSize  = 0.5
	roomFeedbackBase = 0.7
	roomFeedbackSpan = 0.28
	roomDampScale    = 0.2
)

type comb struct {
	buf      []float64
	idx      int
	feedback float64
	damp     float64
	hist     float64
}

func newComb(size int) *comb {
	return &comb{buf: make([]float64, max(size, 1))}
}

func (c *comb) process(x float64) float64 {
	out := c.buf[c.idx]
	c.hist = out*(1-c.damp) + c.hist*c.damp
	c.buf[c.idx] = x + c.hist*c.feedback
	c.idx++
	if c.idx == len(c.buf) {
		c.idx = 0
	}
	return out
}

type allpass struct {
	buf []float64
	idx int
}

func newAllpass(size int) *allpass {
	return &allpass{buf: make([]float64, max(size, 1))}
}

func (a *allpass) process(x float64) float64 {
	stored := a.buf[a.idx]
	out := -x + stored
	a.buf[a.idx] = x + stored*allpassFeedback
	a.idx++
	if a.idx == len(a.buf) {
		a.idx = 0
	}
	return out
}

// Reverb produces a wet-only reverberation signal.
type Reverb struct {
	sampleRate float64
	roomSize   float64
	combs      [8]*comb
	allpasses  [4]*allpass
}

// NewReverb creates a reverb sized for sampleRate with a medium room.
func NewReverb(sampleRate float64) *Reverb {
	r := &Reverb{roomSize: defaultRoomSize}
	r.build(sampleRate)
	return r
}

func (r *Reverb) build(sampleRate float64) {
	r.sampleRate = sampleRate
	scale := sampleRate / referenceRate
	for i, n := range combTunings {
		r.combs[i] = newComb(int(float64(n) * scale))
	}
	for i, n := range allpassTunings {
		r.allpasses[i] = newAllpass(int(float64(n) * scale))
	}
	r.SetRoomSize(r.roomSize)
}

// SetRoomSize sets the room size in [0, 1]. Larger rooms ring longer and
// are brighter. Delay lines are left intact.
func (r *Reverb) SetRoomSize(size float64) {
	r.roomSize = clamp(size, 0, 1)
	feedback := roomFeedbackBase + roomFeedbackSpan*r.roomSize
	damp := roomDampScale * (1 - r.roomSize)
	for _, c := range r.combs {
		c.feedback = feedback
		c.damp = damp
	}
}

// RoomSize returns the current room size.
func (r *Reverb) RoomSize() float64 { return r.roomSize }

// Resize rebuilds every delay line for a new sample rate, discarding the
// tail. Calling it with the current rate does nothing.
func (r *Reverb) Resize(sampleRate float64) {
	if sampleRate == r.sampleRate {
		return
	}
	r.build(sampleRate)
}

// Process returns the wet signal for x.
func (r *Reverb) Process(x float64) float64 {
	in := x * reverbInputGain
	var out float64
	for _, c := range r.combs {
		out += c.process(in)
	}
	for _, a := range r.allpasses {
		out = a.process(out)
	}
	return out
}
