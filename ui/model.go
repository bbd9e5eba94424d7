// Package ui implements the Bubbletea TUI for the Vplayer terminal music player.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/output"
	"github.com/Veno89/Vplayer/playlist"
)

const (
	tickInterval   = 100 * time.Millisecond
	preloadLead    = 3 * time.Second // preload the next track this long before the end
	recoverBackoff = 5 * time.Second
	seekStep       = 5 * time.Second
	volumeStep     = 0.05
	balanceStep    = 0.1
	restartAfter   = 3 * time.Second // Prev restarts the track past this point
)

// Engine is the part of *player.Player the UI drives.
type Engine interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	IsPlaying() bool
	IsFinished() bool
	CurrentPath() string

	SetVolume(v float64)
	Volume() float64
	SetBalance(b float64)
	Balance() float64

	Preload(path string) error
	SwapToPreloaded() error
	ClearPreload()
	HasPreloaded() bool
	PreloadedPath() string
	PreloadStarted() bool

	SetEffects(cfg dsp.EffectsConfig)
	Effects() dsp.EffectsConfig
	SetEffectsEnabled(on bool)
	EffectsEnabled() bool
	SampleRate() float64
	VisualizerSamples() []float64

	Recover() (bool, error)
	NeedsReinit() bool
	DeviceName() string
	Devices() ([]output.Device, error)
	SetOutputDevice(name string) error
}

type focusArea int

const (
	focusPlaylist focusArea = iota
	focusEQ
	focusFX
	numFocus
)

type tickMsg time.Time

// Model is the Bubbletea model for the Vplayer TUI.
type Model struct {
	player   Engine
	playlist *playlist.Playlist
	vis      *Visualizer
	now      func() time.Time

	// onEffects is called after every effects change made from the keyboard.
	onEffects func(dsp.EffectsConfig)

	focus     focusArea
	eqCursor  int // selected EQ band (0-9)
	fxCursor  int // selected effect parameter
	plCursor  int // selected playlist item
	plScroll  int // scroll offset for playlist view
	plVisible int // max visible playlist items
	titleOff  int // scroll offset for long track titles
	mini      bool

	viz   vizMode
	bands [numBands]float64
	beat  bool // a beat landed on the last tick
	beats beatDetector

	active      bool // a track was started and the playlist has not ended
	paused      bool
	preloadTry  string
	lastRecover time.Time

	err      error
	quitting bool
	width    int
	height   int
}

// Option configures a Model.
type Option func(*Model)

// WithEffectsHook registers fn to receive every effects change made from
// the keyboard, e.g. to persist it.
func WithEffectsHook(fn func(dsp.EffectsConfig)) Option {
	return func(m *Model) { m.onEffects = fn }
}

// WithMini starts in the compact layout.
func WithMini(on bool) Option {
	return func(m *Model) { m.mini = on }
}

// WithClock replaces time.Now for recovery backoff.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel creates a Model wired to the given player and playlist.
func NewModel(p Engine, pl *playlist.Playlist, opts ...Option) Model {
	m := Model{
		player:    p,
		playlist:  pl,
		vis:       NewVisualizer(),
		now:       time.Now,
		plVisible: 5,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the tick timer and requests the terminal size. The first
// playlist track starts playing right away.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.WindowSize(), func() tea.Msg { return startMsg{} })
}

type startMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages: key presses, ticks, and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case startMsg:
		m.playCurrentTrack()

	case tickMsg:
		m.tick()
		m.titleOff++
		return m, tickCmd()
	}

	return m, nil
}

// tick runs the periodic housekeeping: spectrum and beat analysis, gapless
// preload near the end of a track, advancing when it finishes, and device
// recovery while paused.
func (m *Model) tick() {
	m.bands = m.vis.Analyze(m.player.VisualizerSamples(), m.player.SampleRate())
	m.beat = m.beats.Detect(m.bands, m.now())

	if m.paused {
		if m.player.NeedsReinit() && m.now().Sub(m.lastRecover) >= recoverBackoff {
			m.lastRecover = m.now()
			if _, err := m.player.Recover(); err != nil {
				m.err = err
			}
		}
		return
	}
	if !m.active {
		return
	}

	// The player may already have moved on to the preloaded track without
	// a gap; the swap then only catches the state up.
	if m.player.IsFinished() || m.player.PreloadStarted() {
		m.advance()
		return
	}

	dur := m.player.Duration()
	if dur <= 0 || dur-m.player.Position() > preloadLead {
		return
	}
	next, ok := m.playlist.PeekNext()
	if !ok || m.player.HasPreloaded() || next.Path == m.preloadTry {
		return
	}
	m.preloadTry = next.Path
	if err := m.player.Preload(next.Path); err != nil {
		m.err = err
	}
}

// advance moves to the next playlist track after the current one finished,
// using the preloaded track when it matches.
func (m *Model) advance() {
	peek, ok := m.playlist.PeekNext()
	if !ok {
		m.active = false
		m.player.ClearPreload()
		m.player.Stop()
		return
	}
	m.preloadTry = ""
	if m.player.HasPreloaded() && m.player.PreloadedPath() == peek.Path {
		err := m.player.SwapToPreloaded()
		if err == nil {
			m.playlist.Next()
			m.followPlaylist()
			return
		}
		m.err = err
	}
	m.nextTrack()
}

// nextTrack advances to the next playlist track and starts playing it.
func (m *Model) nextTrack() {
	if _, ok := m.playlist.Next(); !ok {
		m.active = false
		m.player.Stop()
		return
	}
	m.followPlaylist()
	m.playCurrentTrack()
}

// prevTrack goes to the previous track, or restarts if >3s into the current one.
func (m *Model) prevTrack() {
	if m.player.Position() > restartAfter {
		if err := m.player.Seek(0); err != nil {
			m.err = err
		}
		return
	}
	if _, ok := m.playlist.Prev(); !ok {
		return
	}
	m.followPlaylist()
	m.playCurrentTrack()
}

// playCurrentTrack loads and plays whatever track the playlist points to.
func (m *Model) playCurrentTrack() {
	track, idx := m.playlist.Current()
	if idx < 0 {
		return
	}
	m.titleOff = 0
	m.preloadTry = ""
	m.player.ClearPreload()
	if err := m.player.Load(track.Path); err != nil {
		m.err = err
		return
	}
	if err := m.player.Play(); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.active = true
	m.paused = false
}

// togglePause pauses or resumes. With nothing loaded it starts the
// selected track.
func (m *Model) togglePause() {
	if m.player.CurrentPath() == "" {
		m.playlist.SetIndex(m.plCursor)
		m.playCurrentTrack()
		return
	}
	if m.paused {
		if err := m.player.Play(); err != nil {
			m.err = err
			return
		}
		m.paused = false
		m.active = true
		return
	}
	if err := m.player.Pause(); err != nil {
		m.err = err
		return
	}
	m.paused = true
}

func (m *Model) stop() {
	m.player.ClearPreload()
	if err := m.player.Stop(); err != nil {
		m.err = err
	}
	m.active = false
	m.paused = false
}

func (m *Model) seek(d time.Duration) {
	if m.player.CurrentPath() == "" {
		return
	}
	pos := max(0, m.player.Position()+d)
	if dur := m.player.Duration(); dur > 0 {
		pos = min(pos, dur)
	}
	if err := m.player.Seek(pos); err != nil {
		m.err = err
	}
	// A seek invalidates the preload timing.
	m.player.ClearPreload()
	m.preloadTry = ""
}

// followPlaylist moves the cursor to the playing track.
func (m *Model) followPlaylist() {
	m.plCursor = m.playlist.Index()
	m.adjustScroll()
}

// adjustScroll ensures plCursor is visible in the playlist view.
func (m *Model) adjustScroll() {
	if m.plCursor < m.plScroll {
		m.plScroll = m.plCursor
	}
	if m.plCursor >= m.plScroll+m.plVisible {
		m.plScroll = m.plCursor - m.plVisible + 1
	}
}
