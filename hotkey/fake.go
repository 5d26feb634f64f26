package hotkey

import "voicemeeterctl/binding"

type FakeSource struct {
	events chan Event
}

func NewFake() *FakeSource {
	return &FakeSource{events: make(chan Event, 64)}
}

func (f *FakeSource) Start([]binding.Chord) error  { return nil }
func (f *FakeSource) Rebind([]binding.Chord) error { return nil }
func (f *FakeSource) Stop()                        {}
func (f *FakeSource) Events() <-chan Event         { return f.events }

func (f *FakeSource) SimDown(c binding.Chord)   { f.events <- Event{Chord: c, Down: true} }
func (f *FakeSource) SimUp(c binding.Chord)     { f.events <- Event{Chord: c, Down: false} }
func (f *FakeSource) SimRepeat(c binding.Chord) { f.events <- Event{Chord: c, Down: true, Repeat: true} }
