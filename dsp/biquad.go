// Package dsp implements the per-sample effect chain applied to decoded audio:
// a 10-band equalizer, bass boost, echo, reverb and a soft clipper.
//
// Everything in this package is single-threaded; callers that share a
// processor between a control thread and the render thread guard it
// themselves.
package dsp

import "math"

// BiquadFilter is a second-order IIR section designed with the Audio EQ
// Cookbook formulas and run in direct form II transposed.
// The zero value is not usable; use NewBiquad.
type BiquadFilter struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// NewBiquad returns a filter that passes its input unchanged.
func NewBiquad() *BiquadFilter {
	return &BiquadFilter{b0: 1}
}

// SetPeaking configures a peaking (bell) filter. History is kept.
func (f *BiquadFilter) SetPeaking(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	f.setCoeffs(
		1+alpha*a,
		-2*cosW0,
		1-alpha*a,
		1+alpha/a,
		-2*cosW0,
		1-alpha/a,
	)
}

// SetLowShelf configures a low-shelving filter. History is kept.
func (f *BiquadFilter) SetLowShelf(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	k := 2 * math.Sqrt(a) * alpha

	f.setCoeffs(
		a*((a+1)-(a-1)*cosW0+k),
		2*a*((a-1)-(a+1)*cosW0),
		a*((a+1)-(a-1)*cosW0-k),
		(a+1)+(a-1)*cosW0+k,
		-2*((a-1)+(a+1)*cosW0),
		(a+1)+(a-1)*cosW0-k,
	)
}

// SetHighShelf configures a high-shelving filter. History is kept.
func (f *BiquadFilter) SetHighShelf(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	k := 2 * math.Sqrt(a) * alpha

	f.setCoeffs(
		a*((a+1)+(a-1)*cosW0+k),
		-2*a*((a-1)+(a+1)*cosW0),
		a*((a+1)+(a-1)*cosW0-k),
		(a+1)-(a-1)*cosW0+k,
		2*((a-1)-(a+1)*cosW0),
		(a+1)-(a-1)*cosW0-k,
	)
}

func (f *BiquadFilter) setCoeffs(b0, b1, b2, a0, a1, a2 float64) {
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

// Process filters one sample.
func (f *BiquadFilter) Process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// Reset clears the filter history.
func (f *BiquadFilter) Reset() {
	f.z1, f.z2 = 0, 0
}
