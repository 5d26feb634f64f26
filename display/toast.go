package display

import (
	"github.com/gen2brain/beeep"
)

const toastTitle = "Voicemeeter"

// Toast shows desktop notifications for completed actions. Errors from the
// notification backend are swallowed: feedback is best-effort and must not
// disturb dispatch.
type Toast struct{}

func (Toast) Notify(n Notification) {
	_ = beeep.Notify(toastTitle, n.Text(), "")
}
