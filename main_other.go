//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Hotkey registration needs the process main thread on darwin.
	mainthread.Init(run)
}
