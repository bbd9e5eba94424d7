package decode

import (
	"errors"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/gopxl/beep/v2"
)

// aiffReader is the part of aiff.Decoder the source needs.
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// aiffSource adapts a go-audio AIFF decoder to beep. The decoder only reads
// forward, so Seek can skip ahead but not rewind.
type aiffSource struct {
	closer   io.Closer
	dec      aiffReader
	format   *goaudio.Format
	channels int
	scale    float64
	frames   int
	pos      int
	buf      *goaudio.IntBuffer
	err      error
}

func decodeAIFF(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, beep.Format{}, ErrNotAIFF
	}
	dec.ReadInfo()

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, beep.Format{}, ErrUnsupportedDepth
	}
	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate <= 0 {
		return nil, beep.Format{}, ErrNotAIFF
	}

	s := &aiffSource{
		closer:   f,
		dec:      dec,
		format:   format,
		channels: format.NumChannels,
		scale:    float64(int64(1) << (depth - 1)),
		frames:   int(dec.NumSampleFrames),
	}
	return s, beep.Format{
		SampleRate:  beep.SampleRate(format.SampleRate),
		NumChannels: min(format.NumChannels, 2),
		Precision:   depth / 8,
	}, nil
}

func (s *aiffSource) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil || s.pos >= s.frames {
		return 0, false
	}
	want := min(len(samples), s.frames-s.pos) * s.channels
	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &goaudio.IntBuffer{Data: make([]int, want), Format: s.format}
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	frames := n / s.channels
	for i := range frames {
		frame := s.buf.Data[i*s.channels:]
		l := float64(frame[0]) / s.scale
		r := l
		if s.channels > 1 {
			r = float64(frame[1]) / s.scale
		}
		samples[i] = [2]float64{l, r}
	}
	s.pos += frames

	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	if frames == 0 {
		if err == nil {
			s.pos = s.frames
		}
		return 0, false
	}
	return frames, true
}

func (s *aiffSource) Err() error    { return s.err }
func (s *aiffSource) Len() int      { return s.frames }
func (s *aiffSource) Position() int { return s.pos }
func (s *aiffSource) Close() error  { return s.closer.Close() }

// Seek skips forward to frame p by decoding and discarding.
func (s *aiffSource) Seek(p int) error {
	if p < s.pos {
		return ErrBackwardSeek
	}
	scratch := make([][2]float64, 4096)
	for s.pos < p {
		n := min(len(scratch), p-s.pos)
		if _, ok := s.Stream(scratch[:n]); !ok {
			break
		}
	}
	return s.err
}
