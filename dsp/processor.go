package dsp

// chain holds the stateful effects for one output channel.
type chain struct {
	eq     *Equalizer
	bass   *BassBoost
	echo   *Echo
	reverb *Reverb
}

func newChain(sampleRate float64, cfg EffectsConfig) *chain {
	c := &chain{
		eq:     NewEqualizer(sampleRate),
		bass:   NewBassBoost(sampleRate, cfg.BassBoost),
		echo:   NewEcho(sampleRate, cfg.EchoDelay, cfg.EchoFeedback),
		reverb: NewReverb(sampleRate),
	}
	c.eq.SetGains(cfg.EQBands)
	c.reverb.SetRoomSize(cfg.ReverbRoomSize)
	return c
}

func (c *chain) process(cfg *EffectsConfig, x float64) float64 {
	y := c.eq.Process(x)
	if cfg.BassBoost > 0 {
		y = c.bass.Process(y)
	}
	if cfg.EchoMix > 0 {
		y = y*(1-cfg.EchoMix) + c.echo.Process(y)*cfg.EchoMix
	}
	if cfg.ReverbMix > 0 {
		y = y*(1-cfg.ReverbMix) + c.reverb.Process(y)*cfg.ReverbMix
	}
	return Saturate(y)
}

// EffectsProcessor runs the fixed effect chain
// EQ -> bass boost -> echo -> reverb -> soft clip.
//
// Each channel has its own filter and delay state so interleaved stereo
// frames never bleed into each other. Process and ProcessBuffer treat their
// input as a single (left) channel.
type EffectsProcessor struct {
	sampleRate float64
	cfg        EffectsConfig
	chains     [2]*chain
}

// NewEffectsProcessor creates a processor for sampleRate with cfg applied.
func NewEffectsProcessor(sampleRate float64, cfg EffectsConfig) *EffectsProcessor {
	cfg = cfg.Clamped()
	p := &EffectsProcessor{sampleRate: sampleRate, cfg: cfg}
	for i := range p.chains {
		p.chains[i] = newChain(sampleRate, cfg)
	}
	return p
}

// SampleRate returns the rate the filters are currently designed for.
func (p *EffectsProcessor) SampleRate() float64 { return p.sampleRate }

// SetSampleRate redesigns every effect for a new rate. Echo, bass and EQ
// state is rebuilt; the reverb is resized. Same rate is a no-op.
func (p *EffectsProcessor) SetSampleRate(sampleRate float64) {
	if sampleRate == p.sampleRate {
		return
	}
	p.sampleRate = sampleRate
	for _, c := range p.chains {
		c.reverb.Resize(sampleRate)
		c.echo = NewEcho(sampleRate, p.cfg.EchoDelay, p.cfg.EchoFeedback)
		c.bass = NewBassBoost(sampleRate, p.cfg.BassBoost)
		c.eq = NewEqualizer(sampleRate)
		c.eq.SetGains(p.cfg.EQBands)
	}
}

// UpdateConfig applies cfg to every effect while keeping filter history.
// Changing the echo delay length clears the echo line.
func (p *EffectsProcessor) UpdateConfig(cfg EffectsConfig) {
	cfg = cfg.Clamped()
	for _, c := range p.chains {
		c.eq.SetGains(cfg.EQBands)
		c.bass.SetBoost(p.sampleRate, cfg.BassBoost)
		c.echo.SetDelay(p.sampleRate, cfg.EchoDelay)
		c.echo.SetFeedback(cfg.EchoFeedback)
		c.reverb.SetRoomSize(cfg.ReverbRoomSize)
	}
	p.cfg = cfg
}

// Config returns the stored (clamped) configuration.
func (p *EffectsProcessor) Config() EffectsConfig { return p.cfg }

// Process runs one mono sample through the left channel chain.
func (p *EffectsProcessor) Process(x float64) float64 {
	return p.chains[0].process(&p.cfg, x)
}

// ProcessFrame runs one stereo frame through both channel chains.
func (p *EffectsProcessor) ProcessFrame(l, r float64) (float64, float64) {
	return p.chains[0].process(&p.cfg, l), p.chains[1].process(&p.cfg, r)
}

// ProcessBuffer processes buf in place as a mono signal.
func (p *EffectsProcessor) ProcessBuffer(buf []float64) {
	for i, x := range buf {
		buf[i] = p.Process(x)
	}
}
