//go:build !linux

package hotkey

import (
	"fmt"
	"sync"
	"time"

	xhotkey "golang.design/x/hotkey"

	"voicemeeterctl/binding"
)

// syntheticRepeat is how often a held chord re-reports itself. The X/Win32
// registration API only delivers real down/up edges, so the adapter
// synthesizes repeats to keep the dispatcher's stuck-key liveness uniform
// across platforms.
const syntheticRepeat = 250 * time.Millisecond

type xSource struct {
	events chan Event

	mu   sync.Mutex
	regs []*registration
	stop chan struct{}
}

type registration struct {
	hk    *xhotkey.Hotkey
	chord binding.Chord
}

func NewSource() Source {
	return &xSource{events: make(chan Event, 64)}
}

func (s *xSource) Start(chords []binding.Chord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(chords)
}

// Rebind swaps the registered chord set after a reload. The event channel
// survives the swap.
func (s *xSource) Rebind(chords []binding.Chord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unregister()
	return s.register(chords)
}

func (s *xSource) register(chords []binding.Chord) error {
	s.stop = make(chan struct{})
	for _, chord := range chords {
		key, err := keyFor(chord.Key)
		if err != nil {
			s.unregister()
			return fmt.Errorf("chord %s: %w", chord, err)
		}
		hk := xhotkey.New(modsFor(chord.Mods), key)
		if err := hk.Register(); err != nil {
			s.unregister()
			return fmt.Errorf("registering %s: %w", chord, err)
		}
		reg := &registration{hk: hk, chord: chord}
		s.regs = append(s.regs, reg)
		go s.watch(reg, s.stop)
	}
	return nil
}

func (s *xSource) unregister() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	for _, reg := range s.regs {
		reg.hk.Unregister()
	}
	s.regs = nil
}

func (s *xSource) watch(reg *registration, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-reg.hk.Keydown():
			s.send(Event{Chord: reg.chord, Down: true})
			ticker := time.NewTicker(syntheticRepeat)
			held := true
			for held {
				select {
				case <-stop:
					ticker.Stop()
					return
				case <-reg.hk.Keyup():
					s.send(Event{Chord: reg.chord, Down: false})
					held = false
				case <-ticker.C:
					s.send(Event{Chord: reg.chord, Down: true, Repeat: true})
				}
			}
			ticker.Stop()
		}
	}
}

func (s *xSource) send(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *xSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unregister()
}

func (s *xSource) Events() <-chan Event {
	return s.events
}

func modsFor(m binding.ModMask) []xhotkey.Modifier {
	var mods []xhotkey.Modifier
	if m.Has(binding.ModCtrl) {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if m.Has(binding.ModAlt) {
		mods = append(mods, modAlt)
	}
	if m.Has(binding.ModShift) {
		mods = append(mods, xhotkey.ModShift)
	}
	return mods
}

var xKeys = map[string]xhotkey.Key{
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD,
	"e": xhotkey.KeyE, "f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH,
	"i": xhotkey.KeyI, "j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO, "p": xhotkey.KeyP,
	"q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,
	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,
	"space": xhotkey.KeySpace, "tab": xhotkey.KeyTab, "enter": xhotkey.KeyReturn,
	"esc": xhotkey.KeyEscape, "delete": xhotkey.KeyDelete,
	"up": xhotkey.KeyUp, "down": xhotkey.KeyDown,
	"left": xhotkey.KeyLeft, "right": xhotkey.KeyRight,
	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3,
	"f4": xhotkey.KeyF4, "f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6,
	"f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8, "f9": xhotkey.KeyF9,
	"f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
	"f13": xhotkey.KeyF13, "f14": xhotkey.KeyF14, "f15": xhotkey.KeyF15,
	"f16": xhotkey.KeyF16, "f17": xhotkey.KeyF17, "f18": xhotkey.KeyF18,
	"f19": xhotkey.KeyF19, "f20": xhotkey.KeyF20,
}

func keyFor(name string) (xhotkey.Key, error) {
	if k, ok := xKeys[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unsupported key %q", name)
}

func Diagnose() (string, error) {
	return "global hotkey registration available", nil
}
