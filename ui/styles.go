package ui

import "github.com/charmbracelet/lipgloss"

// Colors are ANSI indexes so the terminal theme decides the exact shades.
var (
	colorFrame  = lipgloss.ANSIColor(8)  // dark gray
	colorBrand  = lipgloss.ANSIColor(14) // bright cyan
	colorText   = lipgloss.ANSIColor(7)
	colorDim    = lipgloss.ANSIColor(8)
	colorHot    = lipgloss.ANSIColor(13) // bright magenta: selection, active toggles
	colorLive   = lipgloss.ANSIColor(14)
	colorSeek   = lipgloss.ANSIColor(6)
	colorVolume = lipgloss.ANSIColor(4)
	colorWave   = lipgloss.ANSIColor(6)
	colorBeat   = lipgloss.ANSIColor(13)
	colorError  = lipgloss.ANSIColor(9)

	// Spectrum runs cool to hot.
	spectrumLow  = lipgloss.ANSIColor(12) // bright blue
	spectrumMid  = lipgloss.ANSIColor(14)
	spectrumHigh = lipgloss.ANSIColor(13)
)

// Frames.
var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Padding(1, 2).
			Width(66)

	miniFrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Padding(0, 1)
)

// Now-playing area.
var (
	titleStyle  = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	trackStyle  = lipgloss.NewStyle().Foreground(colorHot)
	timeStyle   = lipgloss.NewStyle().Foreground(colorText)
	statusStyle = lipgloss.NewStyle().Foreground(colorLive).Bold(true)
	beatStyle   = lipgloss.NewStyle().Foreground(colorBeat).Bold(true)

	seekFillStyle = lipgloss.NewStyle().Foreground(colorSeek)
	seekDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	volBarStyle   = lipgloss.NewStyle().Foreground(colorVolume)
)

// Controls, playlist and chrome.
var (
	labelStyle      = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(colorDim)
	helpStyle       = dimStyle
	eqActiveStyle   = lipgloss.NewStyle().Foreground(colorHot).Bold(true)
	eqInactiveStyle = dimStyle
	activeToggle    = eqActiveStyle

	playlistActiveStyle   = lipgloss.NewStyle().Foreground(colorLive).Bold(true)
	playlistItemStyle     = lipgloss.NewStyle().Foreground(colorText)
	playlistSelectedStyle = lipgloss.NewStyle().Foreground(colorHot).Bold(true).Underline(true)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)
)
