package player

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/logger"
	"github.com/Veno89/Vplayer/output"
)

type harness struct {
	p      *Player
	host   *fakeHost
	opener *fakeOpener
	clock  *fakeClock
}

func newHarness(t *testing.T, host *fakeHost, opts ...Option) *harness {
	t.Helper()
	if host == nil {
		host = newFakeHost()
	}
	h := &harness{host: host, opener: newFakeOpener(), clock: newFakeClock()}
	h.opener.add("a.mp3", 10*time.Second)
	h.opener.add("b.mp3", 3*time.Second)
	h.opener.add("c.mp3", 4*time.Second)
	h.opener.add("short.wav", time.Second)

	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	p, err := New(host, h.opener, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	h.p = p
	return h
}

func (h *harness) mustLoadAndPlay(t *testing.T, path string) {
	t.Helper()
	if err := h.p.Load(path); err != nil {
		t.Fatalf("Load(%q) error = %v", path, err)
	}
	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
}

func (h *harness) outSink(t *testing.T) *output.Sink {
	t.Helper()
	h.p.sinkMu.Lock()
	defer h.p.sinkMu.Unlock()
	s, ok := h.p.sink.(*output.Sink)
	if !ok {
		t.Fatalf("sink is %T, want *output.Sink", h.p.sink)
	}
	return s
}

func wantPosition(t *testing.T, p *Player, want time.Duration) {
	t.Helper()
	if got := p.Position(); got != want {
		t.Errorf("Position() = %v, want %v", got, want)
	}
}

func TestNew_NoDevice(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	host.setAvailable(false)
	_, err := New(host, newFakeOpener())
	if !errors.Is(err, ErrAudio) {
		t.Fatalf("New() error = %v, want ErrAudio", err)
	}
}

func TestPlayer_LoadPlayPause(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if err := h.p.Load("a.mp3"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := h.p.CurrentPath(); got != "a.mp3" {
		t.Errorf("CurrentPath() = %q, want a.mp3", got)
	}
	if got := h.p.Duration(); got != 10*time.Second {
		t.Errorf("Duration() = %v, want 10s", got)
	}
	if h.p.IsPlaying() {
		t.Error("IsPlaying() = true after Load, want false")
	}
	wantPosition(t, h.p, 0)

	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after Play, want true")
	}
	h.clock.Advance(2 * time.Second)
	wantPosition(t, h.p, 2*time.Second)

	if err := h.p.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	h.clock.Advance(10 * time.Second)
	wantPosition(t, h.p, 2*time.Second)

	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.clock.Advance(time.Second)
	wantPosition(t, h.p, 3*time.Second)

	if got := h.host.opens(); got != 1 {
		t.Errorf("outputs opened = %d, want 1", got)
	}
}

func TestPlayer_PositionClampedToDuration(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.mustLoadAndPlay(t, "short.wav")
	h.clock.Advance(5 * time.Second)
	wantPosition(t, h.p, time.Second)
}

func TestPlayer_LoadErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.opener.fail("bad.flac", errors.New("corrupt header"))
	h.mustLoadAndPlay(t, "a.mp3")

	tests := []struct {
		path string
		want error
		code ErrorCode
	}{
		{"missing.mp3", ErrNotFound, ErrCodeNotFound},
		{"bad.flac", ErrDecode, ErrCodeDecode},
	}
	for _, tt := range tests {
		err := h.p.Load(tt.path)
		if !errors.Is(err, tt.want) {
			t.Errorf("Load(%q) error = %v, want %v", tt.path, err, tt.want)
		}
		if got := CodeOf(err); got != tt.code {
			t.Errorf("CodeOf(Load(%q)) = %v, want %v", tt.path, got, tt.code)
		}
	}

	if got := h.p.CurrentPath(); got != "a.mp3" {
		t.Errorf("CurrentPath() = %q after failed loads, want a.mp3", got)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after failed loads, want true")
	}
}

func TestPlayer_SeekWithNothingLoaded(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if err := h.p.Seek(time.Second); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Seek() error = %v, want ErrInvalidState", err)
	}
}

func TestPlayer_SeekForward(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")

	if err := h.p.Seek(4 * time.Second); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	wantPosition(t, h.p, 4*time.Second)
	if got := h.opener.last("a.mp3").Position(); got != 4000 {
		t.Errorf("source Position() = %d, want 4000", got)
	}
	if got := h.opener.opens("a.mp3"); got != 1 {
		t.Errorf("opens = %d, want 1", got)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after seek, want true")
	}
}

func TestPlayer_SeekWhilePausedStaysPaused(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.p.Pause()

	if err := h.p.Seek(6 * time.Second); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	h.clock.Advance(time.Minute)
	wantPosition(t, h.p, 6*time.Second)
	if h.p.IsPlaying() {
		t.Error("IsPlaying() = true, want false")
	}
}

func TestPlayer_SeekBackwardReloads(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.opener.forwardOnly = true
	h.mustLoadAndPlay(t, "a.mp3")
	h.p.SetVolume(0.5)

	h.host.pull(3000)
	h.clock.Advance(3 * time.Second)
	first := h.opener.last("a.mp3")
	if got := first.Position(); got != 3000 {
		t.Fatalf("source Position() = %d, want 3000", got)
	}

	if err := h.p.Seek(time.Second); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := h.opener.opens("a.mp3"); got != 2 {
		t.Errorf("opens = %d, want 2", got)
	}
	if !first.isClosed() {
		t.Error("previous source not closed")
	}
	if got := h.opener.last("a.mp3").Position(); got != 1000 {
		t.Errorf("new source Position() = %d, want 1000", got)
	}
	wantPosition(t, h.p, time.Second)
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after reload seek, want true")
	}
	if got := h.outSink(t).Volume(); got != 0.5 {
		t.Errorf("sink Volume() = %v, want 0.5", got)
	}
	if got := h.p.Duration(); got != 10*time.Second {
		t.Errorf("Duration() = %v, want 10s", got)
	}
}

func TestPlayer_FinishedTrack(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "short.wav")

	h.host.pull(1500)
	if !h.p.IsFinished() {
		t.Fatal("IsFinished() = false after draining, want true")
	}
	if h.p.IsPlaying() {
		t.Error("IsPlaying() = true after draining, want false")
	}
	wantPosition(t, h.p, time.Second)

	// Play again restarts the drained track from the top.
	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := h.opener.opens("short.wav"); got != 2 {
		t.Errorf("opens = %d, want 2", got)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after replay, want true")
	}
	wantPosition(t, h.p, 0)
}

func TestPlayer_Stop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(time.Second)

	if err := h.p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := h.p.CurrentPath(); got != "" {
		t.Errorf("CurrentPath() = %q, want empty", got)
	}
	wantPosition(t, h.p, 0)
	if !h.p.IsFinished() {
		t.Error("IsFinished() = false after Stop, want true")
	}
	if !h.opener.last("a.mp3").isClosed() {
		t.Error("source not closed by Stop")
	}
	if got := h.p.Duration(); got != 0 {
		t.Errorf("Duration() after Stop = %v, want 0", got)
	}

	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() with nothing loaded error = %v", err)
	}
	h.clock.Advance(time.Second)
	wantPosition(t, h.p, 0)
	if got := h.p.CurrentPath(); got != "" {
		t.Errorf("CurrentPath() after Play on empty = %q, want empty", got)
	}
}

func TestPlayer_GaplessSwap(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(9 * time.Second)

	if err := h.p.Preload("b.mp3"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if !h.p.HasPreloaded() {
		t.Fatal("HasPreloaded() = false, want true")
	}
	if got := h.p.PreloadedPath(); got != "b.mp3" {
		t.Errorf("PreloadedPath() = %q, want b.mp3", got)
	}
	// The preloaded sink waits paused.
	h.host.pull(100)
	if got := h.opener.last("b.mp3").Position(); got != 0 {
		t.Errorf("preloaded source Position() = %d, want 0", got)
	}

	if err := h.p.SwapToPreloaded(); err != nil {
		t.Fatalf("SwapToPreloaded() error = %v", err)
	}
	if got := h.p.CurrentPath(); got != "b.mp3" {
		t.Errorf("CurrentPath() = %q, want b.mp3", got)
	}
	if got := h.p.Duration(); got != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", got)
	}
	wantPosition(t, h.p, 0)
	if h.p.HasPreloaded() {
		t.Error("HasPreloaded() = true after swap, want false")
	}
	if !h.opener.last("a.mp3").isClosed() {
		t.Error("previous source not closed by swap")
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after swap, want true")
	}

	buf := h.host.pull(10)
	if buf[5][0] <= 0 || buf[5][1] >= 0 {
		t.Errorf("frame 5 = %v, want the preloaded ramp", buf[5])
	}
	if got := h.opener.last("b.mp3").Position(); got != 10 {
		t.Errorf("preloaded source Position() = %d, want 10", got)
	}
	if got := h.host.opens(); got != 1 {
		t.Errorf("outputs opened = %d, want 1", got)
	}
}

func TestPlayer_PreloadContinuesWithoutGap(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "short.wav")
	if err := h.p.Preload("b.mp3"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	// One render pass crosses the end of the 1000-frame track.
	buf := h.host.pull(1200)
	if buf[999][0] < 0.5 {
		t.Errorf("frame 999 = %v, want the end of the first ramp", buf[999])
	}
	for _, i := range []int{1001, 1100, 1199} {
		if l := buf[i][0]; l <= 0 || l > 0.1 {
			t.Errorf("frame %d = %v, want the start of the preloaded ramp", i, buf[i])
		}
	}
	if !h.p.PreloadStarted() {
		t.Fatal("PreloadStarted() = false after the first track drained")
	}
	if h.p.IsFinished() {
		t.Error("IsFinished() = true while the preloaded track plays")
	}

	if err := h.p.SwapToPreloaded(); err != nil {
		t.Fatalf("SwapToPreloaded() error = %v", err)
	}
	if got := h.p.CurrentPath(); got != "b.mp3" {
		t.Errorf("CurrentPath() = %q, want b.mp3", got)
	}
	wantPosition(t, h.p, 200*time.Millisecond)
	if h.p.PreloadStarted() {
		t.Error("PreloadStarted() = true after the swap")
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after swap, want true")
	}

	h.host.pull(100)
	if got := h.opener.last("b.mp3").Position(); got != 300 {
		t.Errorf("preloaded source Position() = %d, want 300", got)
	}
}

func TestPlayer_ClearPreloadUnlinks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "short.wav")
	if err := h.p.Preload("b.mp3"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	b := h.opener.last("b.mp3")
	h.p.ClearPreload()

	h.host.pull(1200)
	if h.p.PreloadStarted() {
		t.Error("PreloadStarted() = true after ClearPreload")
	}
	if !h.p.IsFinished() {
		t.Error("IsFinished() = false, want true")
	}
	if got := b.Position(); got != 0 {
		t.Errorf("cleared preload source Position() = %d, want 0", got)
	}
}

func TestPlayer_SwapWithoutPreload(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if err := h.p.SwapToPreloaded(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SwapToPreloaded() error = %v, want ErrInvalidState", err)
	}
}

func TestPlayer_PreloadReplaceAndClear(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")

	if err := h.p.Preload("b.mp3"); err != nil {
		t.Fatalf("Preload(b) error = %v", err)
	}
	if err := h.p.Preload("c.mp3"); err != nil {
		t.Fatalf("Preload(c) error = %v", err)
	}
	if !h.opener.last("b.mp3").isClosed() {
		t.Error("replaced preload not closed")
	}
	if got := h.p.PreloadedPath(); got != "c.mp3" {
		t.Errorf("PreloadedPath() = %q, want c.mp3", got)
	}

	if err := h.p.Preload("missing.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Preload(missing) error = %v, want ErrNotFound", err)
	}
	if got := h.p.PreloadedPath(); got != "c.mp3" {
		t.Errorf("PreloadedPath() = %q after failed preload, want c.mp3", got)
	}

	h.p.ClearPreload()
	if h.p.HasPreloaded() {
		t.Error("HasPreloaded() = true after ClearPreload, want false")
	}
	if !h.opener.last("c.mp3").isClosed() {
		t.Error("cleared preload not closed")
	}
}

func TestPlayer_LongPauseReinitializes(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, WithLongPauseThreshold(time.Minute))
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(2 * time.Second)
	h.p.Pause()

	h.clock.Advance(30 * time.Second)
	if h.p.NeedsReinit() {
		t.Error("NeedsReinit() = true after a short pause, want false")
	}

	h.clock.Advance(2 * time.Minute)
	if !h.p.NeedsReinit() {
		t.Error("NeedsReinit() = false after a long pause, want true")
	}
	if got := h.p.InactiveDuration(); got < 2*time.Minute {
		t.Errorf("InactiveDuration() = %v, want at least 2m", got)
	}

	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := h.host.opens(); got != 2 {
		t.Errorf("outputs opened = %d, want 2", got)
	}
	if got := h.opener.opens("a.mp3"); got != 2 {
		t.Errorf("opens = %d, want 2", got)
	}
	wantPosition(t, h.p, 2*time.Second)
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after reinit, want true")
	}
	if h.p.NeedsReinit() {
		t.Error("NeedsReinit() = true after reinit, want false")
	}
}

func TestPlayer_DefaultDeviceChange(t *testing.T) {
	t.Parallel()
	host := newFakeHost("speakers", "headphones")
	h := newHarness(t, host)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(3 * time.Second)

	if h.p.HasDeviceChanged() {
		t.Fatal("HasDeviceChanged() = true before change, want false")
	}
	host.setDefault("headphones")
	if !h.p.HasDeviceChanged() {
		t.Fatal("HasDeviceChanged() = false after change, want true")
	}

	if err := h.p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := h.p.DeviceName(); got != "headphones" {
		t.Errorf("DeviceName() = %q, want headphones", got)
	}
	if h.p.HasDeviceChanged() {
		t.Error("HasDeviceChanged() = true after reconnect, want false")
	}
	wantPosition(t, h.p, 3*time.Second)
}

func TestPlayer_DeviceLossAndRecover(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(2 * time.Second)
	h.p.Pause()

	h.host.setAvailable(false)
	if h.p.IsDeviceAvailable() {
		t.Error("IsDeviceAvailable() = true, want false")
	}
	if err := h.p.Play(); !errors.Is(err, ErrAudio) {
		t.Errorf("Play() error = %v, want ErrAudio", err)
	}
	ok, err := h.p.Recover()
	if ok || err != nil {
		t.Errorf("Recover() = %v, %v, want false, nil", ok, err)
	}
	if got := h.p.CurrentPath(); got != "a.mp3" {
		t.Errorf("CurrentPath() = %q after failed recover, want a.mp3", got)
	}

	h.host.setAvailable(true)
	ok, err = h.p.Recover()
	if !ok || err != nil {
		t.Fatalf("Recover() = %v, %v, want true, nil", ok, err)
	}
	if got := h.host.opens(); got != 2 {
		t.Errorf("outputs opened = %d, want 2", got)
	}
	if h.p.IsPlaying() {
		t.Error("IsPlaying() = true after recovering a paused track, want false")
	}
	wantPosition(t, h.p, 2*time.Second)
}

func TestPlayer_RecoverResumesAndDropsPreload(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(4 * time.Second)
	if err := h.p.Preload("b.mp3"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	ok, err := h.p.Recover()
	if !ok || err != nil {
		t.Fatalf("Recover() = %v, %v, want true, nil", ok, err)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after recover, want true")
	}
	if h.p.HasPreloaded() {
		t.Error("HasPreloaded() = true after recover, want false")
	}
	wantPosition(t, h.p, 4*time.Second)
}

func TestPlayer_RecoverOpenFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")
	h.host.openErr = errors.New("device busy")

	ok, err := h.p.Recover()
	if ok || err != nil {
		t.Errorf("Recover() = %v, %v, want false, nil", ok, err)
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after failed recover, want true")
	}
}

func TestPlayer_SetOutputDevice(t *testing.T) {
	t.Parallel()
	host := newFakeHost("speakers", "usb")
	h := newHarness(t, host)
	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(2 * time.Second)

	if err := h.p.SetOutputDevice("hdmi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetOutputDevice(hdmi) error = %v, want ErrNotFound", err)
	}
	if err := h.p.SetOutputDevice("usb"); err != nil {
		t.Fatalf("SetOutputDevice(usb) error = %v", err)
	}
	if got := h.p.DeviceName(); got != "usb" {
		t.Errorf("DeviceName() = %q, want usb", got)
	}
	// A device chosen by name is not expected to follow the default.
	if h.p.HasDeviceChanged() {
		t.Error("HasDeviceChanged() = true on a pinned device, want false")
	}
	if !h.p.IsPlaying() {
		t.Error("IsPlaying() = false after device switch, want true")
	}
	wantPosition(t, h.p, 2*time.Second)
}

func TestPlayer_VolumeAndBalance(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.p.SetVolume(3)
	if got := h.p.Volume(); got != 1 {
		t.Errorf("Volume() = %v, want 1", got)
	}
	h.p.SetVolume(0.5)
	h.p.SetReplayGain(-6, 0)
	want := 0.5 * math.Pow(10, -6.0/20)
	if got := h.outSink(t).Volume(); math.Abs(got-want) > 1e-9 {
		t.Errorf("sink Volume() = %v, want %v", got, want)
	}
	if got := h.p.ReplayGainMultiplier(); math.Abs(got-math.Pow(10, -6.0/20)) > 1e-9 {
		t.Errorf("ReplayGainMultiplier() = %v", got)
	}
	h.p.ClearReplayGain()
	if got := h.outSink(t).Volume(); got != 0.5 {
		t.Errorf("sink Volume() = %v after ClearReplayGain, want 0.5", got)
	}

	h.p.SetBalance(-4)
	if got := h.p.Balance(); got != -1 {
		t.Errorf("Balance() = %v, want -1", got)
	}
	if got := h.outSink(t).Balance(); got != -1 {
		t.Errorf("sink Balance() = %v, want -1", got)
	}

	// A rebuilt sink inherits the settings.
	if ok, err := h.p.Recover(); !ok || err != nil {
		t.Fatalf("Recover() = %v, %v", ok, err)
	}
	if got := h.outSink(t).Volume(); got != 0.5 {
		t.Errorf("rebuilt sink Volume() = %v, want 0.5", got)
	}
	if got := h.outSink(t).Balance(); got != -1 {
		t.Errorf("rebuilt sink Balance() = %v, want -1", got)
	}
}

func TestPlayer_Effects(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	cfg := dsp.DefaultEffectsConfig()
	cfg.Tempo = 5
	cfg.BassBoost = 6
	h.p.SetEffects(cfg)

	got := h.p.Effects()
	if got.Tempo != dsp.MaxTempo {
		t.Errorf("Effects().Tempo = %v, want %v", got.Tempo, dsp.MaxTempo)
	}
	if got.BassBoost != 6 {
		t.Errorf("Effects().BassBoost = %v, want 6", got.BassBoost)
	}
	if speed := h.outSink(t).Speed(); speed != dsp.MaxTempo {
		t.Errorf("sink Speed() = %v, want %v", speed, dsp.MaxTempo)
	}

	if !h.p.EffectsEnabled() {
		t.Error("EffectsEnabled() = false by default, want true")
	}
	h.p.SetEffectsEnabled(false)
	if h.p.EffectsEnabled() {
		t.Error("EffectsEnabled() = true, want false")
	}
}

func TestPlayer_TempoScalesPosition(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	cfg := dsp.DefaultEffectsConfig()
	cfg.Tempo = 2
	h.p.SetEffects(cfg)

	h.mustLoadAndPlay(t, "a.mp3")
	h.clock.Advance(2 * time.Second)
	wantPosition(t, h.p, 4*time.Second)

	cfg.Tempo = 1
	h.p.SetEffects(cfg)
	h.clock.Advance(time.Second)
	wantPosition(t, h.p, 5*time.Second)
}

func TestPlayer_SampleRateFollowsStream(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	if got := h.p.SampleRate(); got != provisionalRate {
		t.Errorf("SampleRate() = %v before playback, want %v", got, provisionalRate)
	}

	h.mustLoadAndPlay(t, "a.mp3")
	h.host.pull(64)
	if got := h.p.SampleRate(); got != float64(testRate) {
		t.Errorf("SampleRate() = %v, want %v", got, float64(testRate))
	}
	if got := len(h.p.VisualizerSamples()); got != 64 {
		t.Errorf("len(VisualizerSamples()) = %d, want 64", got)
	}

	// Loading clears the visualizer.
	if err := h.p.Load("b.mp3"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(h.p.VisualizerSamples()); got != 0 {
		t.Errorf("len(VisualizerSamples()) = %d after Load, want 0", got)
	}
}

func TestPlayer_IsHealthy(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if !h.p.IsHealthy() {
		t.Error("IsHealthy() = false, want true")
	}
	h.p.sinkMu.Lock()
	healthy := h.p.IsHealthy()
	h.p.sinkMu.Unlock()
	if healthy {
		t.Error("IsHealthy() = true with the sink lock held, want false")
	}
}

func TestPlayer_Close(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.mustLoadAndPlay(t, "a.mp3")

	if err := h.p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.p.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if !h.opener.last("a.mp3").isClosed() {
		t.Error("source not closed by Close")
	}
	for _, op := range []struct {
		name string
		fn   func() error
	}{
		{"Play", h.p.Play},
		{"Pause", h.p.Pause},
		{"Load", func() error { return h.p.Load("b.mp3") }},
		{"Preload", func() error { return h.p.Preload("b.mp3") }},
	} {
		if err := op.fn(); !errors.Is(err, ErrInvalidState) {
			t.Errorf("%s() after Close error = %v, want ErrInvalidState", op.name, err)
		}
	}
}

func TestPlayer_LogsTransitions(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	h := newHarness(t, nil, WithLogger(logger.FromZap(zap.New(core))))
	h.mustLoadAndPlay(t, "a.mp3")

	loaded := logs.FilterMessage("track loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("logged %d track loaded entries, want 1", len(loaded))
	}
	e := loaded[0]
	if e.LoggerName != "player" {
		t.Errorf("LoggerName = %q, want player", e.LoggerName)
	}
	if got := e.ContextMap()["path"]; got != "a.mp3" {
		t.Errorf("path field = %v, want a.mp3", got)
	}
	if logs.FilterMessage("playing").Len() != 1 {
		t.Error("Play did not log")
	}
}
