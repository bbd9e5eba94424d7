package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veno89/Vplayer/dsp"
)

const (
	panelWidth        = 60 // usable inner width (66 frame - 2 border - 4 padding)
	miniPanelMinW     = 28 // minimum usable inner width for mini mode
	miniFrameOverhead = 4  // border (2) + padding (2×1) for mini frame
)

// pw returns the usable inner panel width for the current mode.
func (m Model) pw() int {
	if m.mini {
		w := m.width - miniFrameOverhead
		if w < miniPanelMinW {
			w = miniPanelMinW
		}
		return w
	}
	return panelWidth
}

// miniFrameW returns the outer frame width for mini mode.
func (m Model) miniFrameW() int {
	w := m.width
	if w < miniPanelMinW+miniFrameOverhead {
		w = miniPanelMinW + miniFrameOverhead
	}
	return w
}

// View renders the full TUI frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	if m.mini {
		sections = []string{
			m.renderTitle(),
			m.renderTrackInfo(),
			m.renderTimeStatus(),
			m.renderSpectrum(),
			m.renderSeekBar(),
			m.renderVolume(),
			m.renderPlaylistHeader(),
			m.renderPlaylist(),
			m.renderHelp(),
		}
	} else {
		sections = []string{
			m.renderTitle(),
			m.renderTrackInfo(),
			m.renderTimeStatus(),
			"",
			m.renderSpectrum(),
			m.renderSeekBar(),
			"",
			m.renderVolume(),
			m.renderEQ(),
			m.renderFX(),
			"",
			m.renderPlaylistHeader(),
			m.renderPlaylist(),
			"",
			m.renderDevice(),
			m.renderHelp(),
		}
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("ERR: %s", m.err)))
	}

	content := strings.Join(sections, "\n")
	if m.mini {
		return miniFrameStyle.Width(m.miniFrameW()).Render(content)
	}
	return frameStyle.Render(content)
}

func (m Model) renderTitle() string {
	return titleStyle.Render("V P L A Y E R")
}

func (m Model) renderTrackInfo() string {
	track, _ := m.playlist.Current()
	name := track.DisplayName()
	if name == "" {
		name = "No track loaded"
	}

	pw := m.pw()
	prefix := "\U000f0e1e "
	if m.mini {
		prefix = "♫ "
	}
	maxW := pw - len([]rune(prefix))
	runes := []rune(name)

	if len(runes) <= maxW {
		return trackStyle.Render(prefix + name)
	}

	// Cyclic scrolling for long titles
	sep := []rune("   \U000f0e1e   ")
	if m.mini {
		sep = []rune("  ♫  ")
	}
	padded := append(runes, sep...)
	total := len(padded)
	off := m.titleOff % total

	display := make([]rune, maxW)
	for i := range maxW {
		display[i] = padded[(off+i)%total]
	}
	return trackStyle.Render(prefix + string(display))
}

func (m Model) renderTimeStatus() string {
	pos := m.player.Position()
	dur := m.player.Duration()

	posMin := int(pos.Minutes())
	posSec := int(pos.Seconds()) % 60
	durMin := int(dur.Minutes())
	durSec := int(dur.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d / %02d:%02d", posMin, posSec, durMin, durSec)

	var status string
	icon, word := "\uf04d", "Stopped"
	style := dimStyle
	switch {
	case m.paused:
		icon, word, style = "\uf04c", "Paused", statusStyle
	case m.player.IsPlaying():
		icon, word, style = "\uf04b", "Playing", statusStyle
	}
	if m.mini {
		status = style.Render(icon)
	} else {
		status = style.Render(icon + " " + word)
	}

	beat := dimStyle.Render("◇")
	if m.beat {
		beat = beatStyle.Render("◆")
	}
	left := timeStyle.Render(timeStr) + " " + beat
	gap := m.pw() - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderSpectrum() string {
	if m.viz == vizWaveform {
		return RenderWaveform(m.player.VisualizerSamples(), m.pw())
	}
	if m.mini {
		return m.vis.Render(m.bands, m.pw())
	}
	return m.vis.Render(m.bands, 0)
}

func (m Model) renderSeekBar() string {
	pos := m.player.Position()
	dur := m.player.Duration()

	var progress float64
	if dur > 0 {
		progress = float64(pos) / float64(dur)
	}
	progress = max(0, min(1, progress))

	pw := m.pw()
	filled := int(progress * float64(pw-1))

	return seekFillStyle.Render(strings.Repeat("━", filled)) +
		seekFillStyle.Render("●") +
		seekDimStyle.Render(strings.Repeat("━", max(0, pw-filled-1)))
}

func (m Model) renderVolume() string {
	vol := m.player.Volume()

	if m.mini {
		// "V " (2) + bar + " 100%" (5) = 7 overhead
		barW := max(4, m.pw()-7)
		return labelStyle.Render("V ") + meter(vol, barW) + dimStyle.Render(fmt.Sprintf(" %3.0f%%", vol*100))
	}

	bal := m.player.Balance()
	balStr := "C"
	switch {
	case bal < 0:
		balStr = fmt.Sprintf("L%.0f", -bal*100)
	case bal > 0:
		balStr = fmt.Sprintf("R%.0f", bal*100)
	}
	return labelStyle.Render("VOL ") + meter(vol, 22) +
		dimStyle.Render(fmt.Sprintf(" %3.0f%%  BAL %s", vol*100, balStr))
}

// meter draws frac of width as a filled bar.
func meter(frac float64, width int) string {
	filled := int(max(0, min(1, frac)) * float64(width))
	return volBarStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

func (m Model) renderEQ() string {
	bands := m.player.Effects().EQBands
	parts := make([]string, dsp.NumBands)
	for i, f := range dsp.BandFreqs {
		label := freqLabel(f)
		style := eqInactiveStyle
		if m.focus == focusEQ && i == m.eqCursor {
			style = eqActiveStyle
			label = fmt.Sprintf("%+.0f", bands[i])
		} else if bands[i] != 0 {
			style = timeStyle
		}
		parts[i] = style.Render(label)
	}
	return labelStyle.Render("EQ  ") + strings.Join(parts, " ")
}

func freqLabel(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%gk", hz/1000)
	}
	return fmt.Sprintf("%g", hz)
}

func (m Model) renderFX() string {
	cfg := m.player.Effects()
	if !m.player.EffectsEnabled() {
		return labelStyle.Render("FX  ") + dimStyle.Render("bypassed [E]")
	}
	if m.focus != focusFX {
		return labelStyle.Render("FX  ") + dimStyle.Render(fmt.Sprintf("%s %s", fxParams[m.fxCursor].label, fxParams[m.fxCursor].value(cfg)))
	}
	parts := make([]string, len(fxParams))
	for i, p := range fxParams {
		style := eqInactiveStyle
		text := p.label
		if i == m.fxCursor {
			style = eqActiveStyle
			text = p.label + " " + p.value(cfg)
		}
		parts[i] = style.Render(text)
	}
	return labelStyle.Render("FX  ") + strings.Join(parts, " ")
}

func (m Model) renderDevice() string {
	return dimStyle.Render("OUT " + m.player.DeviceName())
}

func (m Model) renderPlaylistHeader() string {
	var shuffle string
	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[S]")
	} else {
		shuffle = dimStyle.Render("[S]")
	}

	if m.mini {
		var repeat string
		if m.playlist.Repeat() != 0 {
			repeat = activeToggle.Render(fmt.Sprintf("[R:%s]", m.playlist.Repeat()))
		} else {
			repeat = dimStyle.Render("[R]")
		}
		return dimStyle.Render("─ Playlist ─ ") + shuffle + " " + repeat
	}

	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[Shuffle]")
	} else {
		shuffle = dimStyle.Render("[Shuffle]")
	}

	repeatStr := fmt.Sprintf("[Repeat: %s]", m.playlist.Repeat())
	if m.playlist.Repeat() != 0 {
		repeatStr = activeToggle.Render(repeatStr)
	} else {
		repeatStr = dimStyle.Render(repeatStr)
	}

	return dimStyle.Render("── Playlist ── ") + shuffle + " " + repeatStr + " " + dimStyle.Render("──")
}

func (m Model) renderPlaylist() string {
	tracks := m.playlist.Tracks()
	if len(tracks) == 0 {
		return dimStyle.Render("  No tracks loaded")
	}

	currentIdx := m.playlist.Index()
	visible := min(m.plVisible, len(tracks))

	scroll := m.plScroll
	if scroll+visible > len(tracks) {
		scroll = len(tracks) - visible
	}
	scroll = max(0, scroll)

	lines := make([]string, 0, visible)
	for i := scroll; i < scroll+visible && i < len(tracks); i++ {
		prefix := "  "
		style := playlistItemStyle

		if i == currentIdx && (m.player.IsPlaying() || m.paused) {
			prefix = "\uf04b "
			style = playlistActiveStyle
		}

		if m.focus == focusPlaylist && i == m.plCursor {
			style = playlistSelectedStyle
		}

		name := tracks[i].DisplayName()
		maxW := m.pw() - 6
		nameRunes := []rune(name)
		if len(nameRunes) > maxW {
			name = string(nameRunes[:maxW-1]) + "…"
		}

		lines = append(lines, style.Render(fmt.Sprintf("%s%d. %s", prefix, i+1, name)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	if m.mini {
		return helpStyle.Render("[Spc]Play [<>]Trk [M]Full [Q]Quit")
	}
	return helpStyle.Render("[Spc]\U000f040e  [<>]Trk [\uf060\uf061]Seek [+-]Vol [[]]Bal [Tab]Focus\n" +
		"[E]FX [0]Reset FX [V]Viz [D]Device [S]Shuffle [R]Repeat [M]Mini [Q]Quit")
}
