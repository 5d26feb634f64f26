// Package mixer wraps the Voicemeeter remote-control handle behind a
// serialized facade. The external handle corrupts state under concurrent
// use, so every call funnels through one mutex.
package mixer

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected means the remote handle is unreachable. Reported
	// per-action; the facade retries the login on the next call.
	ErrDisconnected = errors.New("mixer disconnected")
	// ErrInvalidChannel means a strip index outside the mixer's strip table.
	ErrInvalidChannel = errors.New("invalid strip index")
)

const (
	// Gain bounds of a Voicemeeter strip fader.
	MinGainDB = -60.0
	MaxGainDB = 12.0

	// MaxStrips is the strip count of the largest Voicemeeter edition.
	MaxStrips = 8
)

// Remote is the opaque external control handle: the Voicemeeter Remote API
// on Windows, a fake in tests.
type Remote interface {
	Login() error
	Logout() error
	GetFloat(param string) (float64, error)
	SetFloat(param string, value float64) error
	// IsDirty reports (and drains) pending parameter changes. The remote
	// API requires polling it before reads return fresh values.
	IsDirty() bool
}

// Clamp bounds a gain value to the strip fader range.
func Clamp(dB float64) float64 {
	if dB < MinGainDB {
		return MinGainDB
	}
	if dB > MaxGainDB {
		return MaxGainDB
	}
	return dB
}

func gainParam(strip int) string { return fmt.Sprintf("Strip[%d].Gain", strip) }
func muteParam(strip int) string { return fmt.Sprintf("Strip[%d].Mute", strip) }
