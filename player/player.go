package player

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/logger"
	"github.com/Veno89/Vplayer/output"
)

// Player is the playback coordinator:
//
//	[Decode] -> [EffectsSource: EQ -> Bass -> Echo -> Reverb -> Clip] -> [Sink: speed, volume, balance] -> [Output mixer] -> device
//	                  \-> [VisualizerBuffer]
//
// Each concern has its own lock so a slow control call never holds up the
// render path. When two are needed together they are taken in the order
// sink, playback. No lock is held across calls to other exported methods.
type Player struct {
	host      Host
	opener    Opener
	log       *logger.Logger
	now       func() time.Time
	longPause time.Duration

	sinkMu sync.Mutex
	sink   Sink

	playbackMu sync.Mutex
	playback   *PlaybackState

	preloadMu sync.Mutex
	preload   PreloadManager

	volumeMu sync.Mutex
	volume   *VolumeManager

	deviceMu sync.Mutex
	device   *DeviceState

	effects *Effects
	vis     *VisualizerBuffer
	closed  atomic.Bool
}

// New connects to the host's default device and returns an idle player.
func New(host Host, opener Opener, opts ...Option) (*Player, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Player{
		host:      host,
		opener:    opener,
		log:       o.log.Named("player"),
		now:       o.now,
		longPause: o.longPause,
		playback:  NewPlaybackState(o.now),
		volume:    NewVolumeManager(),
		effects:   NewEffects(o.processorRate, o.effects),
		vis:       NewVisualizerBuffer(o.visCapacity),
	}
	p.volume.SetVolume(o.volume)
	p.effects.SetEnabled(!o.effectsOff)
	p.playback.SetSpeed(p.effects.Config().Tempo)

	def, ok := host.DefaultDevice()
	if !ok {
		return nil, newError(ErrCodeAudio, "new", "no output device available", nil)
	}
	out, sink, err := p.openOutput(def.Name)
	if err != nil {
		return nil, audioError("new", err)
	}
	p.sink = sink
	p.device = NewDeviceState(out, o.now)

	p.log.Info("player ready", zap.String("device", def.Name))
	return p, nil
}

// openOutput connects to name and creates a sink on it configured with
// the current volume, balance and tempo.
func (p *Player) openOutput(name string) (Output, Sink, error) {
	out, err := p.host.Open(name)
	if err != nil {
		return nil, nil, err
	}
	sink, err := out.NewSink()
	if err != nil {
		return nil, nil, multierr.Append(err, out.Close())
	}
	p.configureSink(sink)
	return out, sink, nil
}

// configureSink applies the current volume, balance and tempo to s.
func (p *Player) configureSink(s Sink) {
	p.volumeMu.Lock()
	vol, bal := p.volume.Effective(), p.volume.Balance()
	p.volumeMu.Unlock()
	s.SetVolume(vol)
	s.SetBalance(bal)
	s.SetSpeed(p.effects.Config().Tempo)
}

// connect replaces the live output and sink with a new connection to name.
// The pending preload belonged to the old output and is dropped.
func (p *Player) connect(name string, pinned bool) error {
	out, sink, err := p.openOutput(name)
	if err != nil {
		return err
	}

	p.sinkMu.Lock()
	oldSink := p.sink
	p.sink = sink
	p.sinkMu.Unlock()

	p.deviceMu.Lock()
	oldOut := p.device.Replace(out, pinned)
	p.deviceMu.Unlock()

	p.preloadMu.Lock()
	pre := p.preload.Clear()
	p.preloadMu.Unlock()

	err = oldSink.Close()
	if pre != nil {
		err = multierr.Append(err, pre.Close())
	}
	if oldOut != nil {
		err = multierr.Append(err, oldOut.Close())
	}
	if err != nil {
		p.log.Warn("releasing previous output", zap.Error(err))
	}
	p.log.Info("output connected", zap.String("device", name), zap.Bool("pinned", pinned))
	return nil
}

// rebuildOutput reconnects to the current default device.
func (p *Player) rebuildOutput() error {
	def, ok := p.host.DefaultDevice()
	if !ok {
		return errors.New("no output device available")
	}
	return p.connect(def.Name, false)
}

func (p *Player) checkOpen(op string) error {
	if p.closed.Load() {
		return invalidState(op, "player is closed")
	}
	return nil
}

// open decodes path and wraps it for the effect chain.
func (p *Player) open(op, path string) (*EffectsSource, error) {
	src, format, err := p.opener.Open(path)
	if err != nil {
		p.log.Error("open failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, openError(op, path, err)
	}
	return NewEffectsSource(src, format, p.effects, p.vis), nil
}

// Load decodes path and queues it paused at the start. On failure the
// player is left exactly as it was.
func (p *Player) Load(path string) error {
	if err := p.checkOpen("load"); err != nil {
		return err
	}
	src, err := p.open("load", path)
	if err != nil {
		return err
	}
	dur := src.Duration()
	p.vis.Clear()

	p.sinkMu.Lock()
	p.sink.Clear()
	p.sink.Append(src, src.Format())
	p.sink.Pause()
	p.sinkMu.Unlock()

	p.playbackMu.Lock()
	p.playback.ResetForLoad(path, dur)
	p.playbackMu.Unlock()

	p.deviceMu.Lock()
	p.device.UpdateActive()
	p.deviceMu.Unlock()

	p.log.Info("track loaded",
		zap.String("path", path),
		zap.Duration("duration", dur),
		zap.Int("rate", int(src.Format().SampleRate)))
	return nil
}

// Play starts or resumes playback. A changed device or a pause longer than
// the long-pause threshold reconnects the output first; a sink that drained
// underneath a loaded track is refilled. Either way the track is reloaded
// at its previous position.
func (p *Player) Play() error {
	if err := p.checkOpen("play"); err != nil {
		return err
	}

	p.playbackMu.Lock()
	paused := p.playback.PauseElapsed()
	p.playbackMu.Unlock()

	p.deviceMu.Lock()
	idle := p.device.SinceActive()
	changed := p.device.HasDeviceChanged(p.host)
	p.deviceMu.Unlock()

	if !p.IsDeviceAvailable() {
		p.log.Error("no output device available")
		return newError(ErrCodeAudio, "play", "no output device available", nil)
	}

	p.sinkMu.Lock()
	empty, active := p.sink.Empty(), !p.sink.IsPaused()
	p.sinkMu.Unlock()
	p.playbackMu.Lock()
	needsReload := empty && p.playback.Loaded()
	p.playbackMu.Unlock()
	if active {
		idle = 0
	}

	switch {
	case changed || paused > p.longPause || idle > p.longPause:
		p.log.Info("reinitializing output",
			zap.Bool("device_changed", changed),
			zap.Duration("paused", paused),
			zap.Duration("idle", idle))
		path, pos := p.snapshot()
		if err := p.rebuildOutput(); err != nil {
			p.log.Error("reinitializing output", zap.Error(err))
			return audioError("play", err)
		}
		if err := p.reload(path, pos); err != nil {
			return err
		}
	case needsReload:
		p.log.Info("sink drained under a loaded track, reloading")
		path, pos := p.snapshot()
		if err := p.reload(path, pos); err != nil {
			return err
		}
	}

	p.sinkMu.Lock()
	p.sink.Play()
	p.sinkMu.Unlock()

	p.deviceMu.Lock()
	p.device.UpdateActive()
	p.deviceMu.Unlock()

	p.playbackMu.Lock()
	pause, resumed := p.playback.MarkPlaying()
	p.playbackMu.Unlock()

	if resumed {
		p.log.Info("resumed", zap.Duration("paused_for", pause))
	} else {
		p.log.Info("playing")
	}
	return nil
}

// snapshot returns the loaded path and a position worth restoring to.
// A finished track restarts from the top.
func (p *Player) snapshot() (string, time.Duration) {
	pos := p.Position()
	p.playbackMu.Lock()
	defer p.playbackMu.Unlock()
	total := p.playback.TotalDuration()
	if total > 0 && pos >= total {
		pos = 0
	}
	return p.playback.Path(), pos
}

// reload loads path again and seeks back to pos. A failed seek is only
// logged: the track then plays from the start.
func (p *Player) reload(path string, pos time.Duration) error {
	if path == "" {
		return nil
	}
	if err := p.Load(path); err != nil {
		p.log.Error("reload failed", zap.String("path", path), zap.Error(err))
		return err
	}
	if pos > restoreThreshold {
		if err := p.Seek(pos); err != nil {
			p.log.Warn("restoring position", zap.Duration("position", pos), zap.Error(err))
		}
	}
	return nil
}

// Pause pauses playback.
func (p *Player) Pause() error {
	if err := p.checkOpen("pause"); err != nil {
		return err
	}
	p.sinkMu.Lock()
	p.sink.Pause()
	p.sinkMu.Unlock()

	p.playbackMu.Lock()
	p.playback.MarkPaused()
	p.playbackMu.Unlock()

	p.deviceMu.Lock()
	p.device.UpdateActive()
	p.deviceMu.Unlock()

	p.log.Info("paused")
	return nil
}

// Stop drops the current track and clears all position state.
func (p *Player) Stop() error {
	if err := p.checkOpen("stop"); err != nil {
		return err
	}
	p.sinkMu.Lock()
	p.sink.Stop()
	p.sinkMu.Unlock()

	p.playbackMu.Lock()
	p.playback.Clear()
	p.playbackMu.Unlock()

	p.log.Info("stopped")
	return nil
}

// Seek moves to pos. When the sink cannot seek there (most decoders only
// skip forward) the track is reopened and skipped forward from the start,
// keeping volume and play/pause state.
func (p *Player) Seek(pos time.Duration) error {
	if err := p.checkOpen("seek"); err != nil {
		return err
	}
	pos = max(pos, 0)

	p.sinkMu.Lock()
	wasPlaying := !p.sink.IsPaused()
	vol := p.sink.Volume()
	err := p.sink.Seek(pos)
	if err == nil {
		paused := p.sink.IsPaused()
		p.playbackMu.Lock()
		p.playback.MarkSeeked(pos, paused)
		p.playbackMu.Unlock()
		p.sinkMu.Unlock()
		p.log.Debug("seeked", zap.Duration("position", pos))
		return nil
	}
	p.sinkMu.Unlock()

	p.playbackMu.Lock()
	path, total := p.playback.Path(), p.playback.TotalDuration()
	p.playbackMu.Unlock()
	if path == "" {
		return invalidState("seek", "no track loaded")
	}
	p.log.Info("direct seek failed, reloading", zap.Duration("position", pos), zap.Error(err))

	src, err := p.open("seek", path)
	if err != nil {
		return err
	}

	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	p.sink.Clear()
	p.sink.Append(src, src.Format())
	p.sink.SetVolume(vol)
	if pos > 0 {
		if err := p.sink.Seek(pos); err != nil {
			p.log.Warn("forward seek after reload failed", zap.Duration("position", pos), zap.Error(err))
		}
	}

	p.playbackMu.Lock()
	p.playback.SetTotalDuration(total)
	p.playback.MarkSeeked(pos, !wasPlaying)
	p.playbackMu.Unlock()

	if wasPlaying {
		p.sink.Play()
	} else {
		p.sink.Pause()
	}
	return nil
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.sinkMu.Lock()
	empty, paused := p.sink.Empty(), p.sink.IsPaused()
	p.sinkMu.Unlock()

	p.playbackMu.Lock()
	defer p.playbackMu.Unlock()
	return p.playback.Position(empty, paused)
}

// Duration returns the length of the loaded track, or zero when unknown.
func (p *Player) Duration() time.Duration {
	p.playbackMu.Lock()
	defer p.playbackMu.Unlock()
	return p.playback.TotalDuration()
}

// IsPlaying reports whether audio is being produced.
func (p *Player) IsPlaying() bool {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	return !p.sink.IsPaused() && !p.sink.Empty()
}

// IsFinished reports whether the sink has drained.
func (p *Player) IsFinished() bool {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	return p.sink.Empty()
}

// CurrentPath returns the loaded track, or "".
func (p *Player) CurrentPath() string {
	p.playbackMu.Lock()
	defer p.playbackMu.Unlock()
	return p.playback.Path()
}

// SetVolume sets the user volume in [0, 1].
func (p *Player) SetVolume(v float64) {
	p.volumeMu.Lock()
	eff := p.volume.SetVolume(v)
	p.volumeMu.Unlock()
	p.setSinkVolume(eff)
}

// Volume returns the user volume.
func (p *Player) Volume() float64 {
	p.volumeMu.Lock()
	defer p.volumeMu.Unlock()
	return p.volume.Volume()
}

// SetReplayGain applies a track gain and preamp, both in dB.
func (p *Player) SetReplayGain(gainDB, preampDB float64) {
	p.volumeMu.Lock()
	eff := p.volume.SetReplayGain(gainDB, preampDB)
	p.volumeMu.Unlock()
	p.setSinkVolume(eff)
}

// ClearReplayGain returns the multiplier to unity.
func (p *Player) ClearReplayGain() {
	p.volumeMu.Lock()
	eff := p.volume.ClearReplayGain()
	p.volumeMu.Unlock()
	p.setSinkVolume(eff)
}

// ReplayGainMultiplier returns the linear ReplayGain factor.
func (p *Player) ReplayGainMultiplier() float64 {
	p.volumeMu.Lock()
	defer p.volumeMu.Unlock()
	return p.volume.ReplayGain()
}

func (p *Player) setSinkVolume(v float64) {
	p.sinkMu.Lock()
	p.sink.SetVolume(v)
	p.sinkMu.Unlock()
}

// SetBalance pans the output between left (-1) and right (1).
func (p *Player) SetBalance(b float64) {
	p.volumeMu.Lock()
	p.volume.SetBalance(b)
	bal := p.volume.Balance()
	p.volumeMu.Unlock()

	p.sinkMu.Lock()
	p.sink.SetBalance(bal)
	p.sinkMu.Unlock()
}

func (p *Player) Balance() float64 {
	p.volumeMu.Lock()
	defer p.volumeMu.Unlock()
	return p.volume.Balance()
}

// Devices lists the host's output devices.
func (p *Player) Devices() ([]output.Device, error) {
	devices, err := p.host.Devices()
	if err != nil {
		return nil, audioError("devices", err)
	}
	return devices, nil
}

// DeviceName returns the connected device.
func (p *Player) DeviceName() string {
	p.deviceMu.Lock()
	defer p.deviceMu.Unlock()
	return p.device.DeviceName()
}

// HasDeviceChanged reports whether the connected device went stale.
func (p *Player) HasDeviceChanged() bool {
	p.deviceMu.Lock()
	defer p.deviceMu.Unlock()
	return p.device.HasDeviceChanged(p.host)
}

// IsDeviceAvailable reports whether the host has a default output device.
func (p *Player) IsDeviceAvailable() bool {
	_, ok := p.host.DefaultDevice()
	return ok
}

// SetOutputDevice moves playback to the named device, carrying over the
// track, position, volume and play state.
func (p *Player) SetOutputDevice(name string) error {
	if err := p.checkOpen("set output device"); err != nil {
		return err
	}
	devices, err := p.Devices()
	if err != nil {
		return err
	}
	found := false
	for _, d := range devices {
		if d.Name == name {
			found = true
			break
		}
	}
	if !found {
		return newError(ErrCodeNotFound, "set output device", fmt.Sprintf("device %q not found", name), nil)
	}

	wasPlaying := p.IsPlaying()
	pos := p.Position()
	path := p.CurrentPath()

	if err := p.connect(name, true); err != nil {
		return audioError("set output device", err)
	}
	if path == "" {
		return nil
	}
	if err := p.Load(path); err != nil {
		return err
	}
	if pos > 0 {
		if err := p.Seek(pos); err != nil {
			return err
		}
	}
	if wasPlaying {
		return p.Play()
	}
	return nil
}

// Preload decodes path onto a second, paused sink on the current output so
// SwapToPreloaded can start it without a gap. A previous preload is
// discarded.
func (p *Player) Preload(path string) error {
	if err := p.checkOpen("preload"); err != nil {
		return err
	}
	src, err := p.open("preload", path)
	if err != nil {
		return err
	}

	p.deviceMu.Lock()
	sink, err := p.device.NewSink()
	p.deviceMu.Unlock()
	if err != nil {
		src.Close()
		return audioError("preload", err)
	}
	sink.Pause()
	p.configureSink(sink)
	sink.Append(src, src.Format())

	p.preloadMu.Lock()
	old := p.preload.Set(sink, path, src.Duration())
	p.preloadMu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			p.log.Warn("closing replaced preload", zap.Error(err))
		}
	}

	p.sinkMu.Lock()
	follow(p.sink, sink)
	p.sinkMu.Unlock()

	p.log.Info("track preloaded", zap.String("path", path), zap.Duration("duration", src.Duration()))
	return nil
}

// SwapToPreloaded makes the preloaded track current and starts it
// immediately. The previous sink is stopped and closed, unless it already
// continued into the preloaded track, in which case it stays and only the
// state catches up.
func (p *Player) SwapToPreloaded() error {
	if err := p.checkOpen("swap"); err != nil {
		return err
	}
	p.preloadMu.Lock()
	sink, path, dur, ok := p.preload.Take()
	p.preloadMu.Unlock()
	if !ok {
		return invalidState("swap", "no preloaded track")
	}
	p.configureSink(sink)

	p.sinkMu.Lock()
	follow(p.sink, nil)
	played, continued := takeHandoff(p.sink)
	old := p.sink
	if continued {
		// The current sink already plays the preloaded queue; the preload
		// sink is empty and only needs closing.
		old = sink
	} else {
		p.sink = sink
	}
	p.playbackMu.Lock()
	p.playback.StartFresh(path, dur)
	if continued {
		p.playback.MarkSeeked(time.Duration(float64(played)*p.playback.Speed()), false)
	}
	p.playbackMu.Unlock()
	p.sink.Play()
	p.sinkMu.Unlock()

	old.Stop()
	if err := old.Close(); err != nil {
		p.log.Warn("closing previous sink", zap.Error(err))
	}

	p.deviceMu.Lock()
	p.device.UpdateActive()
	p.deviceMu.Unlock()

	p.log.Info("swapped to preloaded track", zap.String("path", path), zap.Bool("gapless", continued))
	return nil
}

// ClearPreload discards the preloaded track.
func (p *Player) ClearPreload() {
	p.sinkMu.Lock()
	follow(p.sink, nil)
	p.sinkMu.Unlock()

	p.preloadMu.Lock()
	s := p.preload.Clear()
	p.preloadMu.Unlock()
	if s != nil {
		if err := s.Close(); err != nil {
			p.log.Warn("closing preload", zap.Error(err))
		}
	}
}

// PreloadStarted reports whether the current sink has already moved on to
// the preloaded track. SwapToPreloaded then only updates the state.
func (p *Player) PreloadStarted() bool {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	f, ok := p.sink.(follower)
	return ok && f.HandedOff()
}

func (p *Player) HasPreloaded() bool {
	p.preloadMu.Lock()
	defer p.preloadMu.Unlock()
	return p.preload.Has()
}

// PreloadedPath returns the preloaded track, or "".
func (p *Player) PreloadedPath() string {
	p.preloadMu.Lock()
	defer p.preloadMu.Unlock()
	return p.preload.Path()
}

// SetEffects applies cfg. Tempo goes to the sink as a playback-rate
// change; everything else goes to the effect chain.
func (p *Player) SetEffects(cfg dsp.EffectsConfig) {
	cfg = cfg.Clamped()
	p.sinkMu.Lock()
	p.sink.SetSpeed(cfg.Tempo)
	p.playbackMu.Lock()
	p.playback.SetSpeed(cfg.Tempo)
	p.playbackMu.Unlock()
	p.sinkMu.Unlock()
	p.effects.Update(cfg)
}

// Effects returns the current effects configuration.
func (p *Player) Effects() dsp.EffectsConfig { return p.effects.Config() }

// SetEffectsEnabled bypasses (false) or restores (true) the effect chain.
func (p *Player) SetEffectsEnabled(on bool) { p.effects.SetEnabled(on) }

func (p *Player) EffectsEnabled() bool { return p.effects.Enabled() }

// SampleRate returns the rate of the stream the effects last adopted.
func (p *Player) SampleRate() float64 { return p.effects.SampleRate() }

// VisualizerSamples returns the recent output, oldest first.
func (p *Player) VisualizerSamples() []float64 { return p.vis.Samples() }

// Recover rebuilds the output and restores the track, position and play
// state. It reports false, without an error, when no device is available
// or the rebuild fails; those are expected while hardware is missing.
func (p *Player) Recover() (bool, error) {
	if err := p.checkOpen("recover"); err != nil {
		return false, err
	}
	if !p.IsDeviceAvailable() {
		p.log.Warn("no output device available for recovery")
		return false, nil
	}

	path := p.CurrentPath()
	pos := p.Position()
	wasPlaying := p.IsPlaying()

	if err := p.rebuildOutput(); err != nil {
		p.log.Error("recreating output", zap.Error(err))
		return false, nil
	}
	if path != "" {
		if err := p.Load(path); err != nil {
			p.log.Warn("reloading track after recovery", zap.String("path", path), zap.Error(err))
			return false, nil
		}
		if pos > restoreThreshold {
			if err := p.Seek(pos); err != nil {
				p.log.Warn("restoring position after recovery", zap.Error(err))
			}
		}
		if wasPlaying {
			if err := p.Play(); err != nil {
				p.log.Warn("resuming after recovery", zap.Error(err))
			}
		}
	}
	p.log.Info("recovered", zap.String("path", path), zap.Duration("position", pos))
	return true, nil
}

// IsHealthy reports whether the sink lock is free right now. It never waits.
func (p *Player) IsHealthy() bool {
	if !p.sinkMu.TryLock() {
		p.log.Warn("sink lock busy")
		return false
	}
	p.sinkMu.Unlock()
	return true
}

// NeedsReinit reports whether Play would reconnect the output.
func (p *Player) NeedsReinit() bool {
	if p.HasDeviceChanged() {
		return true
	}
	return p.InactiveDuration() > p.longPause
}

// InactiveDuration returns the longer of the current pause and the time
// since the device was last used. A playing device is never inactive.
func (p *Player) InactiveDuration() time.Duration {
	if p.IsPlaying() {
		return 0
	}
	p.playbackMu.Lock()
	paused := p.playback.PauseElapsed()
	p.playbackMu.Unlock()

	p.deviceMu.Lock()
	idle := p.device.SinceActive()
	p.deviceMu.Unlock()
	return max(paused, idle)
}

// Close stops playback and releases the device. Later calls fail with
// ErrInvalidState.
func (p *Player) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.preloadMu.Lock()
	pre := p.preload.Clear()
	p.preloadMu.Unlock()

	p.sinkMu.Lock()
	err := p.sink.Close()
	p.sinkMu.Unlock()

	if pre != nil {
		err = multierr.Append(err, pre.Close())
	}
	p.deviceMu.Lock()
	err = multierr.Append(err, p.device.Close())
	p.deviceMu.Unlock()

	p.log.Info("player closed")
	return err
}
