// Package playlist manages an ordered track list with shuffle and repeat support.
package playlist

import (
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
)

// RepeatMode controls playlist repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Off"
	}
}

// Track represents a single audio file.
type Track struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// TrackFromPath reads the file's tags. Files without usable tags fall back
// to the filename, split on " - " into artist and title when possible.
func TrackFromPath(path string) Track {
	t := trackFromName(path)
	f, err := os.Open(path)
	if err != nil {
		return t
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return t
	}
	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
		t.Artist = strings.TrimSpace(m.Artist())
	}
	t.Album = strings.TrimSpace(m.Album())
	return t
}

func trackFromName(path string) Track {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if artist, title, ok := strings.Cut(name, " - "); ok {
		return Track{Path: path, Artist: strings.TrimSpace(artist), Title: strings.TrimSpace(title)}
	}
	return Track{Path: path, Title: name}
}

// DisplayName returns a formatted display string for the track.
func (t Track) DisplayName() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// Collect expands args into playable files. Globs are matched, directories
// are walked recursively, and files that supported rejects are skipped.
// Paths that match nothing are kept so the player can report them.
func Collect(args []string, supported func(path string) bool) []string {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			files = append(files, arg)
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				if supported(m) {
					files = append(files, m)
				}
				continue
			}
			var found []string
			filepath.WalkDir(m, func(p string, d fs.DirEntry, err error) error {
				if err == nil && !d.IsDir() && supported(p) {
					found = append(found, p)
				}
				return nil
			})
			slices.Sort(found)
			files = append(files, found...)
		}
	}
	return files
}

// Playlist manages an ordered list of tracks with shuffle and repeat support.
type Playlist struct {
	tracks  []Track
	order   []int // indices into tracks, shuffled or sequential
	pos     int   // current position in order
	shuffle bool
	repeat  RepeatMode
	rng     *rand.Rand
}

// New creates an empty Playlist.
func New() *Playlist {
	return &Playlist{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewWithSeed creates an empty Playlist whose shuffles are reproducible.
func NewWithSeed(seed uint64) *Playlist {
	return &Playlist{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	start := len(p.tracks)
	p.tracks = append(p.tracks, tracks...)
	for i := start; i < len(p.tracks); i++ {
		p.order = append(p.order, i)
	}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int { return len(p.tracks) }

// Current returns the currently selected track and its index.
func (p *Playlist) Current() (Track, int) {
	if len(p.tracks) == 0 {
		return Track{}, -1
	}
	idx := p.order[p.pos]
	return p.tracks[idx], idx
}

// Index returns the track index of the current position.
func (p *Playlist) Index() int {
	if len(p.order) == 0 {
		return -1
	}
	return p.order[p.pos]
}

// nextPos returns the position Next would move to.
func (p *Playlist) nextPos() (int, bool) {
	switch {
	case len(p.tracks) == 0:
		return 0, false
	case p.repeat == RepeatOne:
		return p.pos, true
	case p.pos+1 < len(p.order):
		return p.pos + 1, true
	case p.repeat == RepeatAll:
		return 0, true
	}
	return 0, false
}

// PeekNext returns the track Next would return, without advancing.
func (p *Playlist) PeekNext() (Track, bool) {
	pos, ok := p.nextPos()
	if !ok {
		return Track{}, false
	}
	return p.tracks[p.order[pos]], true
}

// Next advances to the next track. Returns false if at end with repeat off.
// A shuffled playlist replays its order when it wraps, so PeekNext stays
// accurate.
func (p *Playlist) Next() (Track, bool) {
	pos, ok := p.nextPos()
	if !ok {
		return Track{}, false
	}
	p.pos = pos
	return p.tracks[p.order[p.pos]], true
}

// Prev moves to the previous track. Wraps around with RepeatAll.
func (p *Playlist) Prev() (Track, bool) {
	if len(p.tracks) == 0 {
		return Track{}, false
	}
	if p.pos > 0 {
		p.pos--
	} else if p.repeat == RepeatAll {
		p.pos = len(p.order) - 1
	}
	return p.tracks[p.order[p.pos]], true
}

// SetIndex sets the current position to the given track index.
func (p *Playlist) SetIndex(i int) {
	if pos := slices.Index(p.order, i); pos >= 0 {
		p.pos = pos
	}
}

// Tracks returns all tracks in the playlist.
func (p *Playlist) Tracks() []Track { return p.tracks }

// ToggleShuffle enables or disables shuffle mode. The current track stays
// current in both directions.
func (p *Playlist) ToggleShuffle() {
	if len(p.tracks) == 0 {
		p.shuffle = !p.shuffle
		return
	}
	p.shuffle = !p.shuffle
	if p.shuffle {
		p.doShuffle()
		return
	}
	cur := p.order[p.pos]
	p.order = make([]int, len(p.tracks))
	for i := range p.order {
		p.order[i] = i
	}
	p.pos = cur
}

// doShuffle puts the current track first and shuffles the rest behind it.
func (p *Playlist) doShuffle() {
	cur := p.order[p.pos]
	others := make([]int, 0, len(p.tracks)-1)
	for i := range len(p.tracks) {
		if i != cur {
			others = append(others, i)
		}
	}
	p.rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	p.order = append([]int{cur}, others...)
	p.pos = 0
}

// CycleRepeat cycles through Off -> All -> One.
func (p *Playlist) CycleRepeat() {
	p.repeat = (p.repeat + 1) % 3
}

// Shuffled returns whether shuffle is enabled.
func (p *Playlist) Shuffled() bool { return p.shuffle }

// Repeat returns the current repeat mode.
func (p *Playlist) Repeat() RepeatMode { return p.repeat }
