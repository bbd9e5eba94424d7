package player

import (
	"time"

	"github.com/Veno89/Vplayer/output"
)

// WrapOutput adapts an *output.Output to Output.
func WrapOutput(o *output.Output) Output { return outputAdapter{o} }

type outputAdapter struct{ o *output.Output }

func (a outputAdapter) Name() string { return a.o.Name() }
func (a outputAdapter) Close() error { return a.o.Close() }
func (a outputAdapter) NewSink() (Sink, error) {
	s, err := a.o.NewSink()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SpeakerHost adapts an *output.SpeakerHost to Host.
func SpeakerHost(h *output.SpeakerHost) Host { return speakerHost{h} }

type speakerHost struct{ h *output.SpeakerHost }

func (s speakerHost) DefaultDevice() (output.Device, bool) { return s.h.DefaultDevice() }
func (s speakerHost) Devices() ([]output.Device, error)    { return s.h.Devices() }
func (s speakerHost) Open(name string) (Output, error) {
	o, err := s.h.Open(name)
	if err != nil {
		return nil, err
	}
	return WrapOutput(o), nil
}

// follower is a Sink that can continue with another sink's queue on the
// render path. *output.Sink implements it.
type follower interface {
	Follow(next *output.Sink)
	HandedOff() bool
	TakeHandoff() (time.Duration, bool)
}

// follow links s to continue with next; a nil next unlinks. Sinks of other
// types play without a handoff and are swapped on finish.
func follow(s, next Sink) {
	f, ok := s.(follower)
	if !ok {
		return
	}
	n, _ := next.(*output.Sink)
	f.Follow(n)
}

func takeHandoff(s Sink) (time.Duration, bool) {
	f, ok := s.(follower)
	if !ok {
		return 0, false
	}
	return f.TakeHandoff()
}
