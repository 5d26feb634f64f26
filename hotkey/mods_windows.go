//go:build windows

package hotkey

import xhotkey "golang.design/x/hotkey"

const modAlt = xhotkey.ModAlt
