package dsp

// Parameter ranges. Out-of-range values are clamped, never rejected.
const (
	MinTempo       = 0.5
	MaxTempo       = 2.0
	MaxBassBoostDB = 12.0
	MaxEQGainDB    = 12.0
	MinEchoDelay   = 0.001
	MaxEchoDelay   = 2.0
)

// EffectsConfig is the full set of user-facing effect parameters. It is
// always exchanged as a whole value.
type EffectsConfig struct {
	// Tempo is a playback-rate multiplier applied by the output sink,
	// not by the processor.
	Tempo          float64           `json:"tempo"`
	ReverbMix      float64           `json:"reverb_mix"`
	ReverbRoomSize float64           `json:"reverb_room_size"`
	BassBoost      float64           `json:"bass_boost"`
	EchoDelay      float64           `json:"echo_delay"`
	EchoFeedback   float64           `json:"echo_feedback"`
	EchoMix        float64           `json:"echo_mix"`
	EQBands        [NumBands]float64 `json:"eq_bands"`
}

// DefaultEffectsConfig returns a neutral configuration: every effect is
// inaudible and the equalizer is flat.
func DefaultEffectsConfig() EffectsConfig {
	return EffectsConfig{
		Tempo:          1,
		ReverbRoomSize: defaultRoomSize,
		EchoDelay:      0.3,
		EchoFeedback:   0.3,
	}
}

// Clamped returns a copy with every field forced into its valid range.
func (c EffectsConfig) Clamped() EffectsConfig {
	c.Tempo = clamp(c.Tempo, MinTempo, MaxTempo)
	c.ReverbMix = clamp(c.ReverbMix, 0, 1)
	c.ReverbRoomSize = clamp(c.ReverbRoomSize, 0, 1)
	c.BassBoost = clamp(c.BassBoost, 0, MaxBassBoostDB)
	c.EchoDelay = clamp(c.EchoDelay, MinEchoDelay, MaxEchoDelay)
	c.EchoFeedback = clamp(c.EchoFeedback, 0, MaxEchoFeedback)
	c.EchoMix = clamp(c.EchoMix, 0, 1)
	for i, g := range c.EQBands {
		c.EQBands[i] = clamp(g, -MaxEQGainDB, MaxEQGainDB)
	}
	return c
}
