package repeat

import (
	"testing"
	"time"

	"voicemeeterctl/binding"
)

var (
	chordM   = binding.Chord{Key: "m", Mods: binding.ModCtrl}
	chordAlt = binding.Chord{Key: "m", Mods: binding.ModCtrl | binding.ModShift}
	chordUp  = binding.Chord{Key: "f14", Mods: binding.ModCtrl}

	muteAction = binding.Action{Channel: "microphone", Strip: 0, Kind: binding.MuteToggle}
	upAction   = binding.Action{Channel: "microphone", Strip: 0, Kind: binding.VolumeUp}
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMuteFiresOncePerPress(t *testing.T) {
	c := New()
	fires := c.Press(chordM, []binding.Action{muteAction}, t0, false)
	if len(fires) != 1 || fires[0] != muteAction {
		t.Fatalf("press should fire mute once, got %v", fires)
	}

	// OS auto-repeat and ticks while held fire nothing more
	for i := 1; i <= 20; i++ {
		now := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		if got := c.Press(chordM, []binding.Action{muteAction}, now, true); len(got) != 0 {
			t.Fatalf("auto-repeat fired %v", got)
		}
		if got := c.Tick(now); len(got) != 0 {
			t.Fatalf("tick fired mute: %v", got)
		}
	}

	c.Release(chordM, t0.Add(2100*time.Millisecond))
	if c.Active() {
		t.Error("controller should be idle after release")
	}
}

func TestVolumeRampCadence(t *testing.T) {
	c := New()
	fires := c.Press(chordUp, []binding.Action{upAction}, t0, false)
	if len(fires) != 1 {
		t.Fatalf("press should fire immediately, got %v", fires)
	}

	total := 1
	// drive ticks every 25ms for 1.5s, refreshing liveness like the engine's
	// event stream would
	for now := t0.Add(25 * time.Millisecond); now.Before(t0.Add(1500 * time.Millisecond)); now = now.Add(25 * time.Millisecond) {
		c.Press(chordUp, []binding.Action{upAction}, now, true)
		total += len(c.Tick(now))
	}
	// 1 immediate + 1 at the 500ms delay + ~10 at 100ms intervals after it
	if total < 10 || total > 12 {
		t.Errorf("fired %d times over 1.5s hold, want about 11", total)
	}
}

func TestNoRampBeforeDelay(t *testing.T) {
	c := New()
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	for now := t0.Add(25 * time.Millisecond); now.Before(t0.Add(Delay)); now = now.Add(25 * time.Millisecond) {
		if fires := c.Tick(now); len(fires) != 0 {
			t.Fatalf("fired at %v before delay elapsed", now.Sub(t0))
		}
	}
}

func TestReleaseBeforeDelayFiresOnce(t *testing.T) {
	c := New()
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	c.Release(chordUp, t0.Add(200*time.Millisecond))
	for now := t0.Add(225 * time.Millisecond); now.Before(t0.Add(2 * time.Second)); now = now.Add(25 * time.Millisecond) {
		if fires := c.Tick(now); len(fires) != 0 {
			t.Fatalf("fired after release: %v", fires)
		}
	}
}

func TestAlternateChordJoinsWithoutRefiring(t *testing.T) {
	c := New()
	if fires := c.Press(chordM, []binding.Action{muteAction}, t0, false); len(fires) != 1 {
		t.Fatalf("first chord should fire, got %v", fires)
	}
	// second chord bound to the same action joins silently
	if fires := c.Press(chordAlt, []binding.Action{muteAction}, t0.Add(50*time.Millisecond), false); len(fires) != 0 {
		t.Fatalf("alternate chord re-fired: %v", fires)
	}
	// releasing one holder keeps the action armed
	c.Release(chordM, t0.Add(100*time.Millisecond))
	if !c.Active() {
		t.Fatal("action should stay armed while second chord held")
	}
	c.Release(chordAlt, t0.Add(150*time.Millisecond))
	if c.Active() {
		t.Fatal("action should go idle when last holder releases")
	}
}

func TestStuckKeyForceReset(t *testing.T) {
	c := New()
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	// no key-down activity at all; the release event was lost
	fires := c.Tick(t0.Add(StuckTimeout))
	if len(fires) != 0 {
		t.Errorf("stuck state fired on its reset tick: %v", fires)
	}
	if c.Active() {
		t.Error("stuck state should be force-reset")
	}
	// the next physical press works normally
	if fires := c.Press(chordUp, []binding.Action{upAction}, t0.Add(3*time.Second), false); len(fires) != 1 {
		t.Errorf("press after reset should fire, got %v", fires)
	}
}

func TestStuckResetAppliesWhileRepeating(t *testing.T) {
	c := New()
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	now := t0.Add(Delay)
	if fires := c.Tick(now); len(fires) != 1 {
		t.Fatalf("delay tick should fire, got %v", fires)
	}
	// ramping, but no key-down liveness since the original press
	c.Tick(t0.Add(StuckTimeout))
	if c.Active() {
		t.Error("repeating state without liveness should be force-reset")
	}
}

func TestStuckResetReleasesChordEverywhere(t *testing.T) {
	c := New()
	chordX := binding.Chord{Key: "f14", Mods: binding.ModCtrl}
	chordY := binding.Chord{Key: "f15", Mods: binding.ModCtrl}
	actA := binding.Action{Channel: "microphone", Strip: 0, Kind: binding.VolumeUp}
	actB := binding.Action{Channel: "speakers", Strip: 3, Kind: binding.VolumeUp}

	c.Press(chordX, []binding.Action{actA}, t0, false)
	c.Press(chordY, []binding.Action{actA, actB}, t0, false)

	// X keeps auto-repeating, so only A stays live; Y's key-up is lost
	now := t0
	for i := 0; i < 80; i++ {
		now = now.Add(25 * time.Millisecond)
		c.Press(chordX, []binding.Action{actA}, now, true)
		c.Tick(now)
	}

	// B's stuck reset must have dropped Y from A's holder set too, so
	// releasing X ends A instead of leaving an orphaned holder ramping
	c.Release(chordX, now)
	if c.Active() {
		t.Fatal("all actions should be idle once the last held key is released")
	}
	for i := 0; i < 30; i++ {
		now = now.Add(25 * time.Millisecond)
		if fires := c.Tick(now); len(fires) != 0 {
			t.Fatalf("fired %v after every held key was released", fires)
		}
	}
}

func TestOSRepeatAfterResetIgnored(t *testing.T) {
	c := New()
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	c.Reset()
	// the OS keeps repeating the physically-held key, but after a reset only
	// a real press edge may re-arm
	if fires := c.Press(chordUp, []binding.Action{upAction}, t0.Add(time.Second), true); len(fires) != 0 {
		t.Errorf("os repeat re-armed after reset: %v", fires)
	}
	if c.Active() {
		t.Error("controller should stay idle")
	}
}

func TestResetClearsEverything(t *testing.T) {
	c := New()
	c.Press(chordM, []binding.Action{muteAction}, t0, false)
	c.Press(chordUp, []binding.Action{upAction}, t0, false)
	c.Reset()
	if c.Active() {
		t.Error("reset should drop all state")
	}
	if fires := c.Tick(t0.Add(time.Second)); len(fires) != 0 {
		t.Errorf("tick after reset fired %v", fires)
	}
}
