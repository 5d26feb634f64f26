package mixer

import (
	"errors"
	"sync"
)

// Call records one parameter write on the fake remote.
type Call struct {
	Param string
	Value float64
}

// FakeRemote is an in-memory Remote for tests. It records every write and
// can simulate disconnection and concurrent misuse.
type FakeRemote struct {
	mu       sync.Mutex
	params   map[string]float64
	loggedIn bool
	offline  bool
	calls    []Call
	inFlight int
	overlap  bool
}

func NewFake() *FakeRemote {
	return &FakeRemote{params: make(map[string]float64)}
}

func (r *FakeRemote) Login() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline {
		return errors.New("fake: offline")
	}
	r.loggedIn = true
	return nil
}

func (r *FakeRemote) Logout() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedIn = false
	return nil
}

func (r *FakeRemote) GetFloat(param string) (float64, error) {
	r.enter()
	defer r.exit()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline || !r.loggedIn {
		return 0, errors.New("fake: not connected")
	}
	return r.params[param], nil
}

func (r *FakeRemote) SetFloat(param string, value float64) error {
	r.enter()
	defer r.exit()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline || !r.loggedIn {
		return errors.New("fake: not connected")
	}
	r.params[param] = value
	r.calls = append(r.calls, Call{Param: param, Value: value})
	return nil
}

func (r *FakeRemote) IsDirty() bool { return false }

// SetOffline simulates the mixer going away (or coming back).
func (r *FakeRemote) SetOffline(off bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = off
}

// SetParam seeds a parameter value without recording a call.
func (r *FakeRemote) SetParam(param string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[param] = value
}

// Param reads a parameter value directly.
func (r *FakeRemote) Param(param string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params[param]
}

// Calls returns a copy of all recorded writes.
func (r *FakeRemote) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// ResetCalls clears the recorded writes.
func (r *FakeRemote) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Overlapped reports whether two remote calls ever ran concurrently,
// which the real handle does not tolerate.
func (r *FakeRemote) Overlapped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlap
}

func (r *FakeRemote) enter() {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > 1 {
		r.overlap = true
	}
	r.mu.Unlock()
}

func (r *FakeRemote) exit() {
	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
}
