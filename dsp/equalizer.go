package dsp

// NumBands is the number of equalizer bands.
const NumBands = 10

// BandFreqs are the equalizer center frequencies in Hz, lowest first.
var BandFreqs = [NumBands]float64{60, 170, 310, 600, 1000, 3000, 6000, 12000, 14000, 16000}

const (
	shelfQ = 0.707
	peakQ  = 1.41
)

// Equalizer is a 10-band graphic equalizer. The outer bands are shelves and
// the inner eight are peaking filters.
type Equalizer struct {
	sampleRate float64
	gains      [NumBands]float64
	bands      [NumBands]*BiquadFilter
}

// NewEqualizer builds a flat equalizer for sampleRate.
func NewEqualizer(sampleRate float64) *Equalizer {
	e := &Equalizer{sampleRate: sampleRate}
	for i := range e.bands {
		e.bands[i] = NewBiquad()
	}
	e.SetGains(e.gains)
	return e
}

// SetGains recomputes every band for the given dB gains without clearing
// filter history, so changes during playback do not click.
func (e *Equalizer) SetGains(gains [NumBands]float64) {
	e.gains = gains
	for i, f := range e.bands {
		switch i {
		case 0:
			f.SetLowShelf(e.sampleRate, BandFreqs[i], shelfQ, gains[i])
		case NumBands - 1:
			f.SetHighShelf(e.sampleRate, BandFreqs[i], shelfQ, gains[i])
		default:
			f.SetPeaking(e.sampleRate, BandFreqs[i], peakQ, gains[i])
		}
	}
}

// Gains returns the current band gains.
func (e *Equalizer) Gains() [NumBands]float64 { return e.gains }

// Process runs x through every band in ascending frequency order.
func (e *Equalizer) Process(x float64) float64 {
	for _, f := range e.bands {
		x = f.Process(x)
	}
	return x
}

// Reset clears the history of every band.
func (e *Equalizer) Reset() {
	for _, f := range e.bands {
		f.Reset()
	}
}
