package dsp

// MaxEchoFeedback keeps the echo loop stable.
const MaxEchoFeedback = 0.95

// Echo is a single-tap feedback delay line.
type Echo struct {
	buf      []float64
	pos      int
	delay    int
	feedback float64
}

// NewEcho creates an echo with the given delay in seconds.
func NewEcho(sampleRate, delaySeconds, feedback float64) *Echo {
	e := &Echo{}
	e.alloc(delaySamples(sampleRate, delaySeconds))
	e.SetFeedback(feedback)
	return e
}

func delaySamples(sampleRate, seconds float64) int {
	return max(int(sampleRate*seconds), 1)
}

func (e *Echo) alloc(n int) {
	e.buf = make([]float64, n)
	e.delay = n
	e.pos = 0
}

// SetDelay changes the delay time. A different length reallocates the line,
// dropping whatever was still echoing.
func (e *Echo) SetDelay(sampleRate, seconds float64) {
	n := delaySamples(sampleRate, seconds)
	if n == e.delay {
		return
	}
	e.alloc(n)
}

// SetFeedback sets the feedback amount, clamped to [0, MaxEchoFeedback].
func (e *Echo) SetFeedback(feedback float64) {
	e.feedback = clamp(feedback, 0, MaxEchoFeedback)
}

// Delay returns the delay length in samples.
func (e *Echo) Delay() int { return e.delay }

// Feedback returns the clamped feedback amount.
func (e *Echo) Feedback() float64 { return e.feedback }

// Process writes x into the line and returns the sample from delay samples ago.
func (e *Echo) Process(x float64) float64 {
	read := (e.pos - e.delay + len(e.buf)) % len(e.buf)
	delayed := e.buf[read]
	e.buf[e.pos] = x + delayed*e.feedback
	e.pos++
	if e.pos == len(e.buf) {
		e.pos = 0
	}
	return delayed
}
