package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veno89/Vplayer/dsp"
)

// fxParam is one adjustable effect parameter in the FX row.
type fxParam struct {
	label  string
	step   float64
	get    func(*dsp.EffectsConfig) *float64
	format string
}

var fxParams = []fxParam{
	{"Tempo", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.Tempo }, "%.2fx"},
	{"Bass", 1, func(c *dsp.EffectsConfig) *float64 { return &c.BassBoost }, "%+.0fdB"},
	{"Reverb", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.ReverbMix }, "%.0f%%"},
	{"Room", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.ReverbRoomSize }, "%.0f%%"},
	{"Echo", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.EchoMix }, "%.0f%%"},
	{"Delay", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.EchoDelay }, "%.2fs"},
	{"Fdbk", 0.05, func(c *dsp.EffectsConfig) *float64 { return &c.EchoFeedback }, "%.0f%%"},
}

// value formats the parameter for display; fractions show as percentages.
func (p fxParam) value(c dsp.EffectsConfig) string {
	v := *p.get(&c)
	if p.format == "%.0f%%" {
		v *= 100
	}
	return fmt.Sprintf(p.format, v)
}

// handleKey processes a key press and returns a command, if any.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.player.ClearPreload()
		m.player.Stop()
		m.quitting = true
		return nil

	case " ":
		m.togglePause()
	case "x":
		m.stop()
	case ">", ".", "n":
		m.nextTrack()
	case "<", ",", "p":
		m.prevTrack()

	case "+", "=":
		m.player.SetVolume(m.player.Volume() + volumeStep)
	case "-", "_":
		m.player.SetVolume(m.player.Volume() - volumeStep)
	case "[":
		m.player.SetBalance(m.player.Balance() - balanceStep)
	case "]":
		m.player.SetBalance(m.player.Balance() + balanceStep)

	case "tab":
		m.focus = (m.focus + 1) % numFocus
	case "shift+tab":
		m.focus = (m.focus + numFocus - 1) % numFocus

	case "left", "h":
		m.horizontal(-1)
	case "right", "l":
		m.horizontal(1)
	case "up", "k":
		m.vertical(1)
	case "down", "j":
		m.vertical(-1)

	case "enter":
		if m.focus == focusPlaylist {
			m.playlist.SetIndex(m.plCursor)
			m.playCurrentTrack()
		}

	case "s":
		m.playlist.ToggleShuffle()
		m.player.ClearPreload()
		m.preloadTry = ""
		m.followPlaylist()
	case "r":
		m.playlist.CycleRepeat()
		m.player.ClearPreload()
		m.preloadTry = ""

	case "e":
		m.player.SetEffectsEnabled(!m.player.EffectsEnabled())
	case "0":
		m.applyEffects(dsp.DefaultEffectsConfig())
	case "d":
		m.cycleDevice()
	case "m":
		m.mini = !m.mini
	case "v":
		m.viz = (m.viz + 1) % numViz
	}
	return nil
}

// horizontal seeks in the playlist view and moves the cursor elsewhere.
func (m *Model) horizontal(dir int) {
	switch m.focus {
	case focusPlaylist:
		m.seek(seekStep * time.Duration(dir))
	case focusEQ:
		m.eqCursor = (m.eqCursor + dir + dsp.NumBands) % dsp.NumBands
	case focusFX:
		m.fxCursor = (m.fxCursor + dir + len(fxParams)) % len(fxParams)
	}
}

// vertical moves the playlist cursor (up is dir > 0) or adjusts the
// selected EQ band or effect.
func (m *Model) vertical(dir int) {
	switch m.focus {
	case focusPlaylist:
		if n := m.playlist.Len(); n > 0 {
			m.plCursor = max(0, min(n-1, m.plCursor-dir))
			m.adjustScroll()
		}
	case focusEQ:
		cfg := m.player.Effects()
		cfg.EQBands[m.eqCursor] += float64(dir)
		m.applyEffects(cfg)
	case focusFX:
		cfg := m.player.Effects()
		p := fxParams[m.fxCursor]
		*p.get(&cfg) += p.step * float64(dir)
		m.applyEffects(cfg)
	}
}

func (m *Model) applyEffects(cfg dsp.EffectsConfig) {
	m.player.SetEffects(cfg)
	if m.onEffects != nil {
		m.onEffects(m.player.Effects())
	}
}

// cycleDevice moves playback to the next listed output device.
func (m *Model) cycleDevice() {
	devices, err := m.player.Devices()
	if err != nil {
		m.err = err
		return
	}
	if len(devices) < 2 {
		return
	}
	cur := m.player.DeviceName()
	next := devices[0].Name
	for i, d := range devices {
		if d.Name == cur {
			next = devices[(i+1)%len(devices)].Name
			break
		}
	}
	if err := m.player.SetOutputDevice(next); err != nil {
		m.err = err
	}
}
