// Package main is the entry point for the Vplayer terminal music player.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"

	"github.com/Veno89/Vplayer/config"
	"github.com/Veno89/Vplayer/decode"
	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/logger"
	"github.com/Veno89/Vplayer/output"
	"github.com/Veno89/Vplayer/player"
	"github.com/Veno89/Vplayer/playlist"
	"github.com/Veno89/Vplayer/preset"
	"github.com/Veno89/Vplayer/ui"
)

func run(args []string) error {
	cfg := config.Default()
	fs := flag.NewFlagSet("vplayer", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: vplayer [flags] <file|dir|glob> ...")
		fs.PrintDefaults()
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry := decode.NewRegistry()
	files := playlist.Collect(fs.Args(), registry.Supports)
	if len(files) == 0 {
		fs.Usage()
		return errors.New("no playable files given")
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	log := logger.Nop()
	if cfg.LogFile != "" {
		l, err := logger.NewFile(cfg.LogFile, cfg.Debug)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		log = l
	}
	defer log.Sync()

	pl := playlist.New()
	for _, f := range files {
		pl.Add(playlist.TrackFromPath(f))
	}

	opts := cfg.PlayerOptions(log)
	if cfg.PresetFile != "" {
		fx, err := preset.Load(cfg.PresetFile)
		switch {
		case err == nil:
			opts = append(opts, player.WithEffects(fx))
		case errors.Is(err, os.ErrNotExist):
			log.Info("preset file not found, starting flat", zap.String("path", cfg.PresetFile))
		default:
			return err
		}
	}

	host := output.NewSpeakerHost(beep.SampleRate(cfg.SampleRate), cfg.BufferSize, log)
	p, err := player.New(player.SpeakerHost(host), registry, opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uiOpts := []ui.Option{ui.WithMini(cfg.Mini)}
	if cfg.PresetFile != "" {
		if err := preset.Watch(ctx, cfg.PresetFile, log, p.SetEffects); err != nil {
			log.Warn("preset watch disabled", zap.Error(err))
		}
		uiOpts = append(uiOpts, ui.WithEffectsHook(func(fx dsp.EffectsConfig) {
			if err := preset.Save(cfg.PresetFile, fx); err != nil {
				log.Warn("saving preset", zap.Error(err))
			}
		}))
	}

	m := ui.NewModel(p, pl, uiOpts...)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
