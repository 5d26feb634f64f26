package binding

import (
	"fmt"
	"sort"
	"strings"
)

// ModMask is the set of held modifier keys in a chord.
type ModMask uint8

const (
	ModCtrl ModMask = 1 << iota
	ModAlt
	ModShift
)

func (m ModMask) Has(mod ModMask) bool { return m&mod != 0 }

func (m ModMask) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// Chord is a normalized key combination: a lowercase base key plus a modifier
// set. Two chords are equal iff base key and modifier set match; the order
// modifiers were written in configuration text does not matter.
type Chord struct {
	Key  string
	Mods ModMask
}

func (c Chord) String() string {
	if c.Mods == 0 {
		return c.Key
	}
	return c.Mods.String() + "+" + c.Key
}

var modNames = map[string]ModMask{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"shift":   ModShift,
}

// ParseChord normalizes chord text like "Ctrl+Shift+F14". Key names are
// case-insensitive, modifier order is irrelevant, and duplicate modifiers
// collapse. The last +-separated token is the base key; a bare modifier is
// not a valid base key.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Chord{}, fmt.Errorf("empty chord %q", s)
	}
	var c Chord
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if mod, ok := modNames[part]; ok {
			if i == len(parts)-1 {
				return Chord{}, fmt.Errorf("chord %q has no base key (ends with modifier %q)", s, part)
			}
			c.Mods |= mod
			continue
		}
		if i != len(parts)-1 {
			return Chord{}, fmt.Errorf("chord %q: unknown modifier %q", s, part)
		}
		c.Key = part
	}
	if c.Key == "" {
		return Chord{}, fmt.Errorf("chord %q has no base key", s)
	}
	return c, nil
}

// sortChords gives deterministic ordering for Chords().
func sortChords(chords []Chord) {
	sort.Slice(chords, func(i, j int) bool {
		if chords[i].Key != chords[j].Key {
			return chords[i].Key < chords[j].Key
		}
		return chords[i].Mods < chords[j].Mods
	})
}
