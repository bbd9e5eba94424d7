package ui

import (
	"math"
	"math/cmplx"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/madelynnblue/go-dsp/fft"
)

const (
	numBands = 10
	fftSize  = 2048
	barWidth = 5 // character width of each spectrum bar in the full layout
)

// Unicode block elements for bar height (9 levels including space)
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Frequency edges for 10 spectrum bands (Hz)
var bandEdges = [numBands + 1]float64{20, 100, 200, 400, 800, 1600, 3200, 6400, 12800, 16000, 20000}

var (
	specLowStyle  = lipgloss.NewStyle().Foreground(spectrumLow)
	specMidStyle  = lipgloss.NewStyle().Foreground(spectrumMid)
	specHighStyle = lipgloss.NewStyle().Foreground(spectrumHigh)
	waveStyle     = lipgloss.NewStyle().Foreground(colorWave)
)

// vizMode selects what the visualizer row shows.
type vizMode int

const (
	vizSpectrum vizMode = iota
	vizWaveform
	numViz
)

// hann is the analysis window, computed once.
var hann = func() []float64 {
	w := make([]float64, fftSize)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return w
}()

// Visualizer turns the player's recent output into smoothed spectrum bands.
type Visualizer struct {
	prev [numBands]float64 // previous frame for temporal smoothing
	buf  []float64
}

func NewVisualizer() *Visualizer {
	return &Visualizer{buf: make([]float64, fftSize)}
}

// Analyze runs an FFT over the newest fftSize samples, recorded at
// sampleRate, and returns 10 band levels in [0, 1].
func (v *Visualizer) Analyze(samples []float64, sampleRate float64) [numBands]float64 {
	var bands [numBands]float64
	if len(samples) == 0 || sampleRate <= 0 {
		for b := range numBands {
			bands[b] = v.prev[b] * 0.8
			v.prev[b] = bands[b]
		}
		return bands
	}

	clear(v.buf)
	if len(samples) > fftSize {
		samples = samples[len(samples)-fftSize:]
	}
	copy(v.buf, samples)
	for i := range v.buf {
		v.buf[i] *= hann[i]
	}

	spectrum := fft.FFTReal(v.buf)
	binHz := sampleRate / float64(fftSize)
	halfLen := len(spectrum) / 2

	for b := range numBands {
		lo := max(1, int(bandEdges[b]/binHz))
		hi := min(halfLen-1, int(bandEdges[b+1]/binHz))

		var sum float64
		count := 0
		for i := lo; i <= hi; i++ {
			sum += cmplx.Abs(spectrum[i])
			count++
		}
		if count > 0 {
			sum /= float64(count)
		}

		if sum > 0 {
			bands[b] = (20*math.Log10(sum) + 10) / 50
		}
		bands[b] = max(0, min(1, bands[b]))

		// Fast attack, slow decay.
		if bands[b] > v.prev[b] {
			bands[b] = bands[b]*0.6 + v.prev[b]*0.4
		} else {
			bands[b] = bands[b]*0.25 + v.prev[b]*0.75
		}
		v.prev[b] = bands[b]
	}
	return bands
}

// Render draws the bands as colored bars. A width of zero uses the fixed
// bar width; otherwise bars stretch to fill width.
func (v *Visualizer) Render(bands [numBands]float64, width int) string {
	bw := barWidth
	if width > 0 {
		if width < numBands {
			return ""
		}
		bw = max(1, (width-(numBands-1))/numBands)
	}

	var sb strings.Builder
	for i, level := range bands {
		idx := int(level * float64(len(barBlocks)-1))
		idx = max(0, min(idx, len(barBlocks)-1))

		style := specLowStyle
		switch {
		case level > 0.75:
			style = specHighStyle
		case level > 0.45:
			style = specMidStyle
		}

		sb.WriteString(style.Render(strings.Repeat(barBlocks[idx], bw)))
		if i < numBands-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// RenderWaveform draws the newest samples as one row of levels, width
// columns wide, with silence at mid height.
func RenderWaveform(samples []float64, width int) string {
	if width <= 0 {
		return ""
	}
	var sb strings.Builder
	for _, v := range downsample(samples, width) {
		idx := int(math.Round((max(-1, min(1, v)) + 1) / 2 * float64(len(barBlocks)-1)))
		sb.WriteString(barBlocks[idx])
	}
	return waveStyle.Render(sb.String())
}

// downsample picks n evenly spaced samples, oldest first. Short input is
// padded with silence.
func downsample(samples []float64, n int) []float64 {
	out := make([]float64, n)
	if len(samples) <= n {
		copy(out, samples)
		return out
	}
	step := float64(len(samples)) / float64(n)
	for i := range out {
		out[i] = samples[int(float64(i)*step)]
	}
	return out
}

const (
	beatBands     = 3  // 20-400 Hz
	beatHistory   = 10 // about a second of ticks
	beatThreshold = 1.5
	minBeatGap    = 300 * time.Millisecond
)

// beatDetector flags bass onsets: the energy of the lowest bands against
// its rolling average, at most one beat per minBeatGap.
type beatDetector struct {
	history  [beatHistory]float64
	n, next  int
	lastBeat time.Time
}

// Detect feeds one analysis frame taken at now and reports a beat.
func (d *beatDetector) Detect(bands [numBands]float64, now time.Time) bool {
	var energy float64
	for _, b := range bands[:beatBands] {
		energy += b * b
	}
	d.history[d.next] = energy
	d.next = (d.next + 1) % beatHistory
	d.n = min(d.n+1, beatHistory)
	if d.n < beatHistory {
		return false
	}

	var avg float64
	for _, e := range d.history {
		avg += e
	}
	avg /= beatHistory
	if energy <= avg*beatThreshold {
		return false
	}
	if !d.lastBeat.IsZero() && now.Sub(d.lastBeat) < minBeatGap {
		return false
	}
	d.lastBeat = now
	return true
}
