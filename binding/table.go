package binding

import (
	"voicemeeterctl/config"
)

// ActionKind is the closed set of things a hotkey can do to a strip.
type ActionKind int

const (
	MuteToggle ActionKind = iota
	VolumeUp
	VolumeDown
)

func (k ActionKind) String() string {
	switch k {
	case MuteToggle:
		return "mute"
	case VolumeUp:
		return "up"
	case VolumeDown:
		return "down"
	}
	return "unknown"
}

// Action targets one mixer strip with one kind of mutation.
type Action struct {
	Channel string
	Strip   int
	Kind    ActionKind
}

// Table is the immutable chord-to-actions map built from configuration.
// One chord may fan out to several actions, and one action may be reachable
// through several chords. Replaced wholesale on reload, never mutated.
type Table struct {
	byChord map[Chord][]Action
}

// Build derives a Table from a validated config. Chord text is normalized
// here; duplicate exact chord-to-identical-action pairs coalesce silently.
// Failures are *config.ConfigError values naming the offending key.
func Build(cfg *config.Config) (*Table, error) {
	t := &Table{byChord: make(map[Chord][]Action)}
	for channel, actions := range cfg.Hotkeys {
		strip, ok := cfg.Channels[channel]
		if !ok {
			// config validation already rejects this; re-check rather than trust
			return nil, &config.ConfigError{Key: "hotkeys." + channel, Msg: "unknown channel name"}
		}
		for _, a := range []struct {
			name   string
			kind   ActionKind
			chords config.ChordList
		}{
			{"mute", MuteToggle, actions.Mute},
			{"up", VolumeUp, actions.Up},
			{"down", VolumeDown, actions.Down},
		} {
			for _, text := range a.chords {
				chord, err := ParseChord(text)
				if err != nil {
					return nil, &config.ConfigError{Key: "hotkeys." + channel + "." + a.name, Msg: err.Error()}
				}
				t.add(chord, Action{Channel: channel, Strip: strip, Kind: a.kind})
			}
		}
	}
	return t, nil
}

func (t *Table) add(chord Chord, action Action) {
	for _, existing := range t.byChord[chord] {
		if existing == action {
			return
		}
	}
	t.byChord[chord] = append(t.byChord[chord], action)
}

// Resolve returns the actions bound to a chord, or nil when unbound.
func (t *Table) Resolve(c Chord) []Action {
	return t.byChord[c]
}

// Chords returns the bound chord set in deterministic order, for hotkey
// registration.
func (t *Table) Chords() []Chord {
	chords := make([]Chord, 0, len(t.byChord))
	for c := range t.byChord {
		chords = append(chords, c)
	}
	sortChords(chords)
	return chords
}

// Len reports the number of distinct bound chords.
func (t *Table) Len() int { return len(t.byChord) }
