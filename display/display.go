// Package display delivers visual acknowledgments of completed actions.
// Delivery is fire-and-forget: the dispatcher never waits on rendering, and
// rapid updates for the same channel coalesce to the latest value.
package display

import (
	"fmt"
	"strings"

	"voicemeeterctl/binding"
)

// Notification reports the outcome of one channel action. Err is set when
// the action could not reach the mixer, so the user sees a dead hotkey
// rather than silence.
type Notification struct {
	Channel string
	Kind    binding.ActionKind
	Value   float64
	Muted   bool
	Err     error
}

// Text renders the toast line, matching the shape users already know:
// "Microphone: -4.0 dB", "Microphone: Muted".
func (n Notification) Text() string {
	name := titleCase(n.Channel)
	if n.Err != nil {
		return fmt.Sprintf("%s: mixer disconnected", name)
	}
	if n.Kind == binding.MuteToggle {
		if n.Muted {
			return name + ": Muted"
		}
		return name + ": Unmuted"
	}
	return fmt.Sprintf("%s: %.1f dB", name, n.Value)
}

// Sink receives completed-action notifications. Implementations must not
// block: the notifier goroutine is the only thing behind them.
type Sink interface {
	Notify(Notification)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
