package mixer

import (
	"sync"
)

// Facade owns the single shared remote handle. All calls are serialized;
// mutations clamp silently and return the value actually applied so the
// caller can report "no further change" at the fader bounds.
type Facade struct {
	mu        sync.Mutex
	remote    Remote
	connected bool
}

func NewFacade(r Remote) *Facade {
	return &Facade{remote: r}
}

// Connect logs in eagerly. Failure is not fatal: every later call retries,
// so the controller keeps running while Voicemeeter is down.
func (f *Facade) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensure()
}

func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return nil
	}
	f.connected = false
	return f.remote.Logout()
}

// Connected reports the last known connection state without touching the
// remote.
func (f *Facade) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *Facade) GetVolume(strip int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(strip); err != nil {
		return 0, err
	}
	v, err := f.remote.GetFloat(gainParam(strip))
	if err != nil {
		return 0, f.drop(err)
	}
	return v, nil
}

// SetVolume applies a clamped gain and returns the value actually set.
// Setting a value already at the clamped bound is a no-op at the value
// level, observable as the unchanged result.
func (f *Facade) SetVolume(strip int, dB float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(strip); err != nil {
		return 0, err
	}
	applied := Clamp(dB)
	if err := f.remote.SetFloat(gainParam(strip), applied); err != nil {
		return 0, f.drop(err)
	}
	return applied, nil
}

func (f *Facade) GetMute(strip int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(strip); err != nil {
		return false, err
	}
	v, err := f.remote.GetFloat(muteParam(strip))
	if err != nil {
		return false, f.drop(err)
	}
	return v != 0, nil
}

func (f *Facade) SetMute(strip int, on bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(strip); err != nil {
		return false, err
	}
	v := 0.0
	if on {
		v = 1.0
	}
	if err := f.remote.SetFloat(muteParam(strip), v); err != nil {
		return false, f.drop(err)
	}
	return on, nil
}

// check validates the strip, (re)establishes the login, and drains pending
// parameter updates so reads are fresh. Callers hold f.mu.
func (f *Facade) check(strip int) error {
	if strip < 0 || strip >= MaxStrips {
		return ErrInvalidChannel
	}
	return f.ensure()
}

func (f *Facade) ensure() error {
	if !f.connected {
		if err := f.remote.Login(); err != nil {
			return ErrDisconnected
		}
		f.connected = true
	}
	f.remote.IsDirty()
	return nil
}

// drop records a failed remote call and surfaces it as a disconnect so the
// next call retries the login.
func (f *Facade) drop(error) error {
	f.connected = false
	return ErrDisconnected
}
