// Package repeat turns raw press/release edges into a timed action stream.
// Mute toggles fire exactly once per press; volume actions fire once on press,
// then ramp at a fixed cadence while held. The controller is a pure state
// machine advanced by injected timestamps so tests never sleep.
package repeat

import (
	"time"

	"voicemeeterctl/binding"
)

const (
	// Delay before a held volume key starts auto-repeating.
	Delay = 500 * time.Millisecond
	// Interval between repeat fires once ramping.
	Interval = 100 * time.Millisecond
	// StuckTimeout force-resets any armed state that has seen no key-down
	// activity, covering a release event lost to focus switches.
	StuckTimeout = 2 * time.Second
)

type phase int

const (
	pressed phase = iota
	repeating
)

type actionKey struct {
	strip int
	kind  binding.ActionKind
}

// actionState exists only while at least one chord holds the action; absence
// of an entry is the IDLE state.
type actionState struct {
	action    binding.Action
	phase     phase
	pressedAt time.Time
	lastFire  time.Time
	lastSeen  time.Time
	holders   map[binding.Chord]struct{}
}

type Controller struct {
	states map[actionKey]*actionState
	held   map[binding.Chord]bool
}

func New() *Controller {
	return &Controller{
		states: make(map[actionKey]*actionState),
		held:   make(map[binding.Chord]bool),
	}
}

// Press handles a key-down edge for a chord and returns the actions that fire
// immediately. OS auto-repeat of a held chord (osRepeat, or a duplicate down
// edge) fires nothing but refreshes liveness. An osRepeat for a chord the
// controller no longer tracks (after a reset) is ignored entirely: the user
// must physically re-press.
func (c *Controller) Press(chord binding.Chord, actions []binding.Action, now time.Time, osRepeat bool) []binding.Action {
	if c.held[chord] {
		for _, a := range actions {
			if st, ok := c.states[keyOf(a)]; ok {
				if _, holds := st.holders[chord]; holds {
					st.lastSeen = now
				}
			}
		}
		return nil
	}
	if osRepeat {
		return nil
	}
	c.held[chord] = true

	var fires []binding.Action
	for _, a := range actions {
		k := keyOf(a)
		st := c.states[k]
		if st == nil {
			st = &actionState{
				action:    a,
				phase:     pressed,
				pressedAt: now,
				lastFire:  now,
				holders:   make(map[binding.Chord]struct{}),
			}
			c.states[k] = st
			fires = append(fires, a)
		}
		// An alternate chord joining an already-held action does not re-fire;
		// it just adds a holder.
		st.holders[chord] = struct{}{}
		st.lastSeen = now
	}
	return fires
}

// Release handles a key-up edge. An action ends only when its last holder
// releases, so letting go of one alternate chord while another is still down
// keeps the ramp running.
func (c *Controller) Release(chord binding.Chord, now time.Time) {
	if !c.held[chord] {
		return
	}
	delete(c.held, chord)
	for k, st := range c.states {
		if _, ok := st.holders[chord]; !ok {
			continue
		}
		delete(st.holders, chord)
		if len(st.holders) == 0 {
			delete(c.states, k)
		}
	}
}

// Tick advances time and returns the volume actions due to fire. Mute
// toggles never fire from ticks. Armed states with no key-down activity
// within StuckTimeout are force-reset to IDLE.
func (c *Controller) Tick(now time.Time) []binding.Action {
	var fires []binding.Action
	for _, st := range c.states {
		if now.Sub(st.lastSeen) >= StuckTimeout {
			c.forceRelease(st)
			continue
		}
		if st.action.Kind == binding.MuteToggle {
			continue
		}
		switch st.phase {
		case pressed:
			if now.Sub(st.pressedAt) >= Delay {
				st.phase = repeating
				st.lastFire = now
				fires = append(fires, st.action)
			}
		case repeating:
			if now.Sub(st.lastFire) >= Interval {
				st.lastFire = now
				fires = append(fires, st.action)
			}
		}
	}
	return fires
}

// forceRelease treats every holder chord of a stuck state as released
// everywhere. A lost key-up means those chords are not physically down
// anymore, so they must not keep any other action armed either; states whose
// holder sets empty out are dropped, including the stuck state itself.
func (c *Controller) forceRelease(stuck *actionState) {
	for ch := range stuck.holders {
		delete(c.held, ch)
		for k, st := range c.states {
			if _, ok := st.holders[ch]; !ok {
				continue
			}
			delete(st.holders, ch)
			if len(st.holders) == 0 {
				delete(c.states, k)
			}
		}
	}
}

// Reset drops all press state. Used on pause and reload so nothing from a
// stale binding table keeps ramping.
func (c *Controller) Reset() {
	c.states = make(map[actionKey]*actionState)
	c.held = make(map[binding.Chord]bool)
}

// Active reports whether any action is currently armed.
func (c *Controller) Active() bool { return len(c.states) > 0 }

func keyOf(a binding.Action) actionKey {
	return actionKey{strip: a.Strip, kind: a.Kind}
}
