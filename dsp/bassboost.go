package dsp

const (
	bassFreq = 200.0
	bassQ    = 0.707
)

// BassBoost is a low shelf at 200 Hz.
type BassBoost struct {
	filter *BiquadFilter
	gainDB float64
}

// NewBassBoost creates a bass boost with the given gain in dB.
func NewBassBoost(sampleRate, gainDB float64) *BassBoost {
	b := &BassBoost{filter: NewBiquad()}
	b.SetBoost(sampleRate, gainDB)
	return b
}

// SetBoost recomputes the shelf. Filter history is kept.
func (b *BassBoost) SetBoost(sampleRate, gainDB float64) {
	b.gainDB = gainDB
	b.filter.SetLowShelf(sampleRate, bassFreq, bassQ, gainDB)
}

// Boost returns the configured gain in dB.
func (b *BassBoost) Boost() float64 { return b.gainDB }

func (b *BassBoost) Process(x float64) float64 {
	return b.filter.Process(x)
}
