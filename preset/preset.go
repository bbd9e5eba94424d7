// Package preset stores effect settings as JSON and reloads them when the
// file changes on disk.
package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Veno89/Vplayer/dsp"
	"github.com/Veno89/Vplayer/logger"
)

// Load reads a preset. Fields missing from the file keep their defaults and
// the result is clamped to valid ranges.
func Load(path string) (dsp.EffectsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dsp.EffectsConfig{}, err
	}
	cfg := dsp.DefaultEffectsConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return dsp.EffectsConfig{}, fmt.Errorf("parse preset %s: %w", filepath.Base(path), err)
	}
	return cfg.Clamped(), nil
}

// Save writes cfg atomically: readers see the old file or the new one.
func Save(path string, cfg dsp.EffectsConfig) error {
	data, err := json.MarshalIndent(cfg.Clamped(), "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".preset-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Watch calls apply with the freshly loaded preset each time path is
// written, created or renamed into place, until ctx is done. The parent
// directory is watched so editors that replace the file are followed.
// A preset that fails to parse is logged and skipped.
func Watch(ctx context.Context, path string, log *logger.Logger, apply func(dsp.EffectsConfig)) error {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("preset")

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					log.Warn("preset reload failed", zap.String("path", abs), zap.Error(err))
					continue
				}
				log.Info("preset reloaded", zap.String("path", abs))
				apply(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("preset watcher", zap.Error(err))
			}
		}
	}()
	return nil
}
