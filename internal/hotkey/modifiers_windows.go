//go:build windows

package hotkey

import "golang.design/x/hotkey"

// Modifiers maps the settings flags onto Windows modifier keys; Cmd is the Windows key
func Modifiers(ctrl, shift, alt, cmd bool) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if shift {
		mods = append(mods, hotkey.ModShift)
	}
	if alt {
		mods = append(mods, hotkey.ModAlt)
	}
	if cmd {
		mods = append(mods, hotkey.ModWin)
	}
	return mods
}
