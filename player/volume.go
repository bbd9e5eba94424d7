package player

import "math"

const (
	minReplayGain = 0.1
	maxReplayGain = 3.0
)

// VolumeManager combines the user volume with the ReplayGain multiplier.
// Balance is stored here and applied by the sink.
type VolumeManager struct {
	volume     float64
	replayGain float64
	balance    float64
}

// NewVolumeManager returns full volume, unity gain, centered balance.
func NewVolumeManager() *VolumeManager {
	return &VolumeManager{volume: 1, replayGain: 1}
}

// SetVolume stores v clamped to [0, 1] and returns the effective volume.
func (m *VolumeManager) SetVolume(v float64) float64 {
	m.volume = clampFloat(v, 0, 1)
	return m.Effective()
}

// SetReplayGain sets the multiplier from a track gain and preamp in dB and
// returns the effective volume.
func (m *VolumeManager) SetReplayGain(gainDB, preampDB float64) float64 {
	mult := math.Pow(10, (gainDB+preampDB)/20)
	if math.IsNaN(mult) {
		mult = 1
	}
	m.replayGain = clampFloat(mult, minReplayGain, maxReplayGain)
	return m.Effective()
}

// ClearReplayGain resets the multiplier to 1 and returns the effective volume.
func (m *VolumeManager) ClearReplayGain() float64 {
	m.replayGain = 1
	return m.Effective()
}

// SetBalance stores b clamped to [-1, 1].
func (m *VolumeManager) SetBalance(b float64) {
	m.balance = clampFloat(b, -1, 1)
}

// Effective returns volume x ReplayGain, clamped to [0, 1].
func (m *VolumeManager) Effective() float64 {
	return clampFloat(m.volume*m.replayGain, 0, 1)
}

func (m *VolumeManager) Volume() float64 { return m.volume }

func (m *VolumeManager) ReplayGain() float64 { return m.replayGain }

func (m *VolumeManager) Balance() float64 { return m.balance }

// clampFloat clamps v to [lo, hi]; NaN maps to lo.
func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return max(lo, min(hi, v))
}
