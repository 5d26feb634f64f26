// Package hotkey captures global key transitions system-wide and reports
// them as normalized chord events, whether or not this process has focus.
package hotkey

import "voicemeeterctl/binding"

// Event is one observed key transition. Repeat marks OS auto-repeat of a
// key that is still held; the dispatcher uses those for liveness, not for
// firing.
type Event struct {
	Chord  binding.Chord
	Down   bool
	Repeat bool
}

// Source produces global key events. Start registers interest in the given
// chord set; implementations that observe every key anyway may ignore it.
// Rebind swaps the chord set after a config reload without disturbing the
// event channel.
type Source interface {
	Start(chords []binding.Chord) error
	Rebind(chords []binding.Chord) error
	Stop()
	Events() <-chan Event
}
