package mixer

import (
	"errors"
	"sync"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{-4.0, -4.0},
		{-60, -60},
		{-60.1, -60},
		{-200, -60},
		{12, 12},
		{12.5, 12},
		{100, 12},
	}
	for _, tc := range cases {
		if got := Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetVolumeReturnsApplied(t *testing.T) {
	remote := NewFake()
	f := NewFacade(remote)

	applied, err := f.SetVolume(0, -4.0)
	if err != nil {
		t.Fatal(err)
	}
	if applied != -4.0 {
		t.Errorf("applied = %v, want -4.0", applied)
	}
	if got := remote.Param("Strip[0].Gain"); got != -4.0 {
		t.Errorf("gain param = %v, want -4.0", got)
	}
}

func TestSetVolumeClampsAtBounds(t *testing.T) {
	remote := NewFake()
	f := NewFacade(remote)

	applied, err := f.SetVolume(0, 14.0)
	if err != nil {
		t.Fatal(err)
	}
	if applied != MaxGainDB {
		t.Errorf("applied = %v, want %v", applied, MaxGainDB)
	}

	// stepping past the ceiling again is idempotent: same applied value
	remote.ResetCalls()
	applied, err = f.SetVolume(0, MaxGainDB+2.0)
	if err != nil {
		t.Fatal(err)
	}
	if applied != MaxGainDB {
		t.Errorf("repeat past ceiling applied = %v, want %v", applied, MaxGainDB)
	}
	if calls := remote.Calls(); len(calls) != 1 || calls[0].Value != MaxGainDB {
		t.Errorf("clamped write recorded as %v", calls)
	}

	applied, err = f.SetVolume(0, -999)
	if err != nil {
		t.Fatal(err)
	}
	if applied != MinGainDB {
		t.Errorf("applied = %v, want %v", applied, MinGainDB)
	}
}

func TestMuteRoundTrip(t *testing.T) {
	remote := NewFake()
	f := NewFacade(remote)

	muted, err := f.GetMute(2)
	if err != nil {
		t.Fatal(err)
	}
	if muted {
		t.Error("strip should start unmuted")
	}
	if _, err := f.SetMute(2, true); err != nil {
		t.Fatal(err)
	}
	muted, err = f.GetMute(2)
	if err != nil {
		t.Fatal(err)
	}
	if !muted {
		t.Error("strip should be muted")
	}
	if got := remote.Param("Strip[2].Mute"); got != 1.0 {
		t.Errorf("mute param = %v, want 1", got)
	}
}

func TestInvalidStrip(t *testing.T) {
	f := NewFacade(NewFake())
	for _, strip := range []int{-1, MaxStrips, 99} {
		if _, err := f.GetVolume(strip); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("GetVolume(%d) = %v, want ErrInvalidChannel", strip, err)
		}
	}
}

func TestDisconnectAndReconnect(t *testing.T) {
	remote := NewFake()
	f := NewFacade(remote)
	if err := f.Connect(); err != nil {
		t.Fatal(err)
	}

	remote.SetOffline(true)
	if _, err := f.SetVolume(0, 1.0); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("offline set = %v, want ErrDisconnected", err)
	}
	if f.Connected() {
		t.Error("facade should report disconnected after a failed call")
	}

	// mixer comes back; the very next call relogs in transparently
	remote.SetOffline(false)
	if _, err := f.SetVolume(0, 1.0); err != nil {
		t.Fatalf("call after recovery failed: %v", err)
	}
	if !f.Connected() {
		t.Error("facade should report connected again")
	}
}

func TestConnectFailureNotSticky(t *testing.T) {
	remote := NewFake()
	remote.SetOffline(true)
	f := NewFacade(remote)
	if err := f.Connect(); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("Connect = %v, want ErrDisconnected", err)
	}
	remote.SetOffline(false)
	if _, err := f.GetVolume(0); err != nil {
		t.Fatalf("call after startup failure should retry login, got %v", err)
	}
}

func TestCallsSerialized(t *testing.T) {
	remote := NewFake()
	f := NewFacade(remote)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(strip int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f.SetVolume(strip%MaxStrips, float64(j))
				f.GetMute(strip % MaxStrips)
			}
		}(i)
	}
	wg.Wait()

	if remote.Overlapped() {
		t.Error("remote calls overlapped; facade must serialize access")
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := NewFacade(NewFake())
	if err := f.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
