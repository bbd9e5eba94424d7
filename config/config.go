// Package config holds the command-line settings of the player.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Veno89/Vplayer/logger"
	"github.com/Veno89/Vplayer/player"
)

// Config is the resolved set of startup settings.
type Config struct {
	SampleRate         int
	BufferSize         time.Duration
	LongPauseThreshold time.Duration
	VisualizerCapacity int
	Volume             float64
	PresetFile         string
	LogFile            string
	Debug              bool
	Mini               bool
}

// Default returns the settings used when no flag overrides them.
func Default() Config {
	return Config{
		SampleRate:         44100,
		BufferSize:         100 * time.Millisecond,
		LongPauseThreshold: player.DefaultLongPauseThreshold,
		VisualizerCapacity: player.DefaultVisualizerCapacity,
		Volume:             1,
	}
}

// RegisterFlags binds every field to a flag on fs, using the current values
// as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "output sample rate in Hz")
	fs.DurationVar(&c.BufferSize, "buffer", c.BufferSize, "output buffer length")
	fs.DurationVar(&c.LongPauseThreshold, "long-pause", c.LongPauseThreshold, "pause length after which the output device is reopened")
	fs.IntVar(&c.VisualizerCapacity, "vis-samples", c.VisualizerCapacity, "samples kept for the spectrum display")
	fs.Float64Var(&c.Volume, "volume", c.Volume, "initial volume (0-1)")
	fs.StringVar(&c.PresetFile, "preset", c.PresetFile, "effects preset file (JSON), reloaded on change")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "write logs to this file")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "development logging")
	fs.BoolVar(&c.Mini, "mini", c.Mini, "start in the compact layout")
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if c.SampleRate < 8000 || c.SampleRate > 384000 {
		err = multierr.Append(err, fmt.Errorf("rate %d out of range [8000, 384000]", c.SampleRate))
	}
	if c.BufferSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("buffer %v must be positive", c.BufferSize))
	}
	if c.LongPauseThreshold <= 0 {
		err = multierr.Append(err, fmt.Errorf("long-pause %v must be positive", c.LongPauseThreshold))
	}
	if c.VisualizerCapacity <= 0 {
		err = multierr.Append(err, fmt.Errorf("vis-samples %d must be positive", c.VisualizerCapacity))
	}
	if c.Volume < 0 || c.Volume > 1 {
		err = multierr.Append(err, fmt.Errorf("volume %v out of range [0, 1]", c.Volume))
	}
	if err != nil {
		return errors.Join(ErrInvalid, err)
	}
	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// PlayerOptions converts the settings that concern the player.
func (c Config) PlayerOptions(log *logger.Logger) []player.Option {
	return []player.Option{
		player.WithLogger(log),
		player.WithLongPauseThreshold(c.LongPauseThreshold),
		player.WithVisualizerCapacity(c.VisualizerCapacity),
		player.WithVolume(c.Volume),
		player.WithProcessorRate(float64(c.SampleRate)),
	}
}
