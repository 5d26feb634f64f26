// Package tray owns the system tray icon and menu. Lifecycle actions
// (pause, reload, quit) are exposed as callbacks registered before Init.
package tray

import (
	"sync"
	"time"

	"fyne.io/systray"
)

const tooltipBase = "Voicemeeter control"

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	pauseFn  func(paused bool)
	reloadFn func()
	copyFn   func()
)

// OnPause registers the pause-toggle callback. Called with the new state.
func OnPause(fn func(bool)) { pauseFn = fn }

// OnReload registers the config-reload callback.
func OnReload(fn func()) { reloadFn = fn }

// OnCopyStatus registers the copy-status callback.
func OnCopyStatus(fn func()) { copyFn = fn }

// Init starts the tray loop in the background and returns a channel that
// closes when the user picks Quit.
func Init() <-chan struct{} {
	go systray.Run(onReady, nil)
	return quitCh
}

func onReady() {
	systray.SetTitle("VM")
	systray.SetTooltip(tooltipBase)

	mPause := systray.AddMenuItemCheckbox("Pause Hotkeys", "Suspend hotkey dispatch", false)
	mReload := systray.AddMenuItem("Reload Config", "Re-read the configuration file")
	mCopy := systray.AddMenuItem("Copy Status", "Copy channel levels to the clipboard")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the controller")

	go func() {
		for {
			select {
			case <-mPause.ClickedCh:
				paused := !mPause.Checked()
				if paused {
					mPause.Check()
				} else {
					mPause.Uncheck()
				}
				if pauseFn != nil {
					pauseFn(paused)
				}
			case <-mReload.ClickedCh:
				if reloadFn != nil {
					reloadFn()
				}
			case <-mCopy.ClickedCh:
				if copyFn != nil {
					copyFn()
				}
			case <-mQuit.ClickedCh:
				Quit()
				return
			}
		}
	}()
}

// SetError surfaces a transient failure in the tooltip for a few seconds.
func SetError(msg string) {
	systray.SetTooltip(tooltipBase + " – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		systray.SetTooltip(tooltipBase)
	}()
}

// SetStatus replaces the tooltip with the current channel status line.
func SetStatus(text string) {
	systray.SetTooltip(tooltipBase + " – " + text)
}

func Quit() {
	closeOnce.Do(func() {
		close(quitCh)
		systray.Quit()
	})
}
