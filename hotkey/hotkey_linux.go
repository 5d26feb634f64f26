//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"voicemeeterctl/binding"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

const inputEventSize = 24

// evdev key codes for the modifier keys.
const (
	codeLCtrl  = 29
	codeLShift = 42
	codeLAlt   = 56
	codeRCtrl  = 97
	codeRAlt   = 100
	codeRShift = 54
)

// keyNames maps evdev codes to the key names used in chord text. Keys not
// listed here never produce events; that is fine because the dispatcher
// drops unbound chords anyway.
var keyNames = map[uint16]string{
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	57: "space", 14: "backspace", 15: "tab", 28: "enter", 1: "esc",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
	183: "f13", 184: "f14", 185: "f15", 186: "f16", 187: "f17", 188: "f18",
	189: "f19", 190: "f20", 191: "f21", 192: "f22", 193: "f23", 194: "f24",
	103: "up", 108: "down", 105: "left", 106: "right",
	102: "home", 107: "end", 104: "pageup", 109: "pagedown",
	110: "insert", 111: "delete",
}

type linuxSource struct {
	events chan Event
	files  []*os.File
	stop   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	mods binding.ModMask
	// chord captured at press per key code, so releasing a modifier before
	// the base key cannot orphan the press state downstream.
	pressedChords map[uint16]binding.Chord
}

func NewSource() Source {
	return &linuxSource{
		events:        make(chan Event, 64),
		pressedChords: make(map[uint16]binding.Chord),
	}
}

// Start opens every keyboard device. The evdev reader observes all keys, so
// the chord set is not needed here.
func (s *linuxSource) Start([]binding.Chord) error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	s.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		go s.readEvents(f)
	}

	if len(s.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (s *linuxSource) Rebind([]binding.Chord) error { return nil }

func (s *linuxSource) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			s.handleKey(evCode, evValue)
		}
	}
}

func (s *linuxSource) handleKey(code uint16, value int32) {
	if mod := modifierFor(code); mod != 0 {
		s.mu.Lock()
		switch value {
		case keyPress:
			s.mods |= mod
		case keyRelease:
			s.mods &^= mod
		}
		s.mu.Unlock()
		return
	}

	name, ok := keyNames[code]
	if !ok {
		return
	}

	s.mu.Lock()
	var ev Event
	switch value {
	case keyPress:
		chord := binding.Chord{Key: name, Mods: s.mods}
		s.pressedChords[code] = chord
		ev = Event{Chord: chord, Down: true}
	case keyRepeat:
		chord, held := s.pressedChords[code]
		if !held {
			chord = binding.Chord{Key: name, Mods: s.mods}
		}
		ev = Event{Chord: chord, Down: true, Repeat: true}
	case keyRelease:
		chord, held := s.pressedChords[code]
		if !held {
			chord = binding.Chord{Key: name, Mods: s.mods}
		}
		delete(s.pressedChords, code)
		ev = Event{Chord: chord, Down: false}
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	select {
	case s.events <- ev:
	default:
	}
}

func modifierFor(code uint16) binding.ModMask {
	switch code {
	case codeLCtrl, codeRCtrl:
		return binding.ModCtrl
	case codeLShift, codeRShift:
		return binding.ModShift
	case codeLAlt, codeRAlt:
		return binding.ModAlt
	}
	return 0
}

func (s *linuxSource) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		for _, f := range s.files {
			f.Close()
		}
	})
}

func (s *linuxSource) Events() <-chan Event {
	return s.events
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
