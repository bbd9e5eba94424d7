// Package decode opens audio files as seekable beep streamers, picking a
// decoder by file extension.
package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Func decodes an open file. On success the returned streamer owns f and
// closes it; on failure the caller closes f.
type Func func(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)

// Registry maps file extensions to decoders.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Func
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]Func)}
	r.Register(".mp3", func(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return mp3.Decode(f)
	})
	r.Register(".wav", func(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(f)
	})
	r.Register(".flac", func(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(f)
	})
	ogg := func(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return vorbis.Decode(f)
	}
	r.Register(".ogg", ogg)
	r.Register(".oga", ogg)
	r.Register(".aif", decodeAIFF)
	r.Register(".aiff", decodeAIFF)
	return r
}

// Register adds or replaces the decoder for ext (with or without the dot,
// case-insensitive).
func (r *Registry) Register(ext string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[normalizeExt(ext)] = fn
}

// Get returns the decoder for ext.
func (r *Registry) Get(ext string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.decoders[normalizeExt(ext)]
	return fn, ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.Get(filepath.Ext(path))
	return ok
}

// Open opens and decodes path. A missing file yields an error matching
// fs.ErrNotExist.
func (r *Registry) Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	fn, ok := r.Get(filepath.Ext(path))
	if !ok {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	s, format, err := fn(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return s, format, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
