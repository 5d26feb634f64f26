//go:build darwin

package hotkey

import xhotkey "golang.design/x/hotkey"

const modAlt = xhotkey.ModOption
