//go:build !windows

package mixer

import "fmt"

// NewRemote returns a handle whose Login always fails: the Voicemeeter
// Remote API only exists on Windows. The facade reports every action as
// disconnected, which keeps the rest of the program testable on other
// platforms.
func NewRemote() (Remote, error) {
	return unavailableRemote{}, nil
}

type unavailableRemote struct{}

func (unavailableRemote) Login() error {
	return fmt.Errorf("voicemeeter remote is only available on windows")
}
func (unavailableRemote) Logout() error                  { return nil }
func (unavailableRemote) GetFloat(string) (float64, error) {
	return 0, fmt.Errorf("not connected")
}
func (unavailableRemote) SetFloat(string, float64) error { return fmt.Errorf("not connected") }
func (unavailableRemote) IsDirty() bool                  { return false }
